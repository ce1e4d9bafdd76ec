package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	flagNoColor    bool
	flagNoProgress bool
	flagJSON       bool
)

var rootCmd = &cobra.Command{
	Use:   "loadflow",
	Short: "HTTP load testing with multi-step flows",
	Long: `loadflow drives HTTP endpoints under load.

A run repeats a flow (one request, or a chain of dependent steps) a
configured number of times with bounded concurrency, evaluates
assertions against each response, and reports latency and failure
statistics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return ExitConfig
	}
	return exitCode
}

// exitCode is set by subcommands; cobra's error path covers usage and
// flag problems, which are configuration errors too.
var exitCode = ExitOK

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", getEnvBool("LOADFLOW_NO_COLOR", false), "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagNoProgress, "no-progress", getEnvBool("LOADFLOW_NO_PROGRESS", false), "disable per-wave progress output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit a JSON summary instead of the human report")
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
