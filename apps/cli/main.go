package main

import (
	"os"

	"github.com/abdul-hamid-achik/loadflow/apps/cli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
