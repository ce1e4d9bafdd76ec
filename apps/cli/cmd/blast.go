package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/loadflow/packages/flow"
	"github.com/abdul-hamid-achik/loadflow/packages/runner"
	"github.com/spf13/cobra"
)

var (
	flagMethod  string
	flagBody    string
	flagHeaders []string
)

var blastCmd = &cobra.Command{
	Use:   "blast <url>",
	Short: "Load test a single URL",
	Long: `Blast repeats one request against a URL. It is the single-request
shorthand for a one-step flow with no assertions: every delivered
response counts as a success, whatever its status code.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runBlast(args[0])
		return nil
	},
}

func init() {
	blastCmd.Flags().IntVarP(&flagCount, "count", "n", getEnvInt("LOADFLOW_COUNT", runner.DefaultCount), "total requests to send")
	blastCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", getEnvInt("LOADFLOW_CONCURRENCY", runner.DefaultConcurrency), "requests in flight per wave")
	blastCmd.Flags().Float64Var(&flagRate, "rate", 0, "max launches per second (0 = unlimited)")
	blastCmd.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "per-request timeout")
	blastCmd.Flags().BoolVar(&flagInsecure, "insecure", false, "skip TLS certificate verification")
	blastCmd.Flags().StringVar(&flagProxy, "proxy", getEnvString("LOADFLOW_PROXY", ""), "proxy URL for outgoing requests")
	blastCmd.Flags().StringVarP(&flagMethod, "method", "X", "GET", "HTTP method")
	blastCmd.Flags().StringVarP(&flagBody, "body", "d", "", "request body (string or JSON)")
	blastCmd.Flags().StringSliceVarP(&flagHeaders, "header", "H", nil, "request header as name:value, repeatable")

	rootCmd.AddCommand(blastCmd)
}

func runBlast(url string) int {
	reporter := newReporter()

	headers, err := parseHeaders(flagHeaders)
	if err != nil {
		reporter.Error("Error: %v", err)
		return ExitConfig
	}

	var body any
	if flagBody != "" {
		// keep structured bodies structured so templating covers them
		var parsed any
		if err := json.Unmarshal([]byte(flagBody), &parsed); err == nil {
			body = parsed
		} else {
			body = flagBody
		}
	}

	f := flow.Single(strings.ToUpper(flagMethod), url, headers, body)
	return execute(f, reporter)
}

func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, want name:value", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}
