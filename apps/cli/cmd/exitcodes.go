package cmd

// Exit codes returned by the loadflow binary.
const (
	ExitOK         = 0
	ExitRunFailure = 1
	ExitConfig     = 3
)
