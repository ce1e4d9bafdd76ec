package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/loadflow/packages/flow"
	"github.com/abdul-hamid-achik/loadflow/packages/http"
	"github.com/abdul-hamid-achik/loadflow/packages/report"
	"github.com/abdul-hamid-achik/loadflow/packages/runner"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	flagCount       int
	flagConcurrency int
	flagRate        float64
	flagTimeout     time.Duration
	flagInsecure    bool
	flagProxy       string
	flagWatch       bool
)

var runCmd = &cobra.Command{
	Use:   "run <flow-file>",
	Short: "Run a flow file under load",
	Long: `Run loads a flow definition (YAML or JSON), then executes it the
requested number of times with bounded concurrency. Steps run in order
within each flow instance; values saved by earlier steps are available
to later ones through {{placeholders}}.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runFlowFile(args[0])
		return nil
	},
}

func init() {
	runCmd.Flags().IntVarP(&flagCount, "count", "n", getEnvInt("LOADFLOW_COUNT", runner.DefaultCount), "total flow instances to run")
	runCmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", getEnvInt("LOADFLOW_CONCURRENCY", runner.DefaultConcurrency), "flow instances in flight per wave")
	runCmd.Flags().Float64Var(&flagRate, "rate", 0, "max flow launches per second (0 = unlimited)")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 30*time.Second, "per-request timeout")
	runCmd.Flags().BoolVar(&flagInsecure, "insecure", false, "skip TLS certificate verification")
	runCmd.Flags().StringVar(&flagProxy, "proxy", getEnvString("LOADFLOW_PROXY", ""), "proxy URL for outgoing requests")
	runCmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "re-run whenever the flow file changes")

	rootCmd.AddCommand(runCmd)
}

func runFlowFile(path string) int {
	reporter := newReporter()

	code := loadAndRun(path, reporter)
	if !flagWatch {
		return code
	}

	return watchAndRerun(path, reporter)
}

func loadAndRun(path string, reporter *report.Reporter) int {
	f, err := flow.LoadFile(path)
	if err != nil {
		reporter.Error("Error: %v", err)
		return ExitConfig
	}
	return execute(f, reporter)
}

// execute drives one run to completion, honoring SIGINT and SIGTERM by
// letting the current wave drain before reporting what finished.
func execute(f *flow.Flow, reporter *report.Reporter) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientOpts := []http.ClientOption{http.WithTimeout(flagTimeout)}
	if flagInsecure {
		clientOpts = append(clientOpts, http.WithValidateSSL(false))
	}
	if flagProxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(flagProxy))
	}

	r := runner.New(
		runner.WithClient(http.NewClient(clientOpts...)),
		runner.WithCount(flagCount),
		runner.WithConcurrency(flagConcurrency),
		runner.WithRate(flagRate),
		runner.WithProgress(reporter),
	)

	reporter.Info("running %s: %d flows, concurrency %d", f.Name, flagCount, flagConcurrency)
	result := r.Run(ctx, f)

	if flagJSON {
		if err := reporter.JSONSummary(result); err != nil {
			reporter.Error("Error: %v", err)
			return ExitRunFailure
		}
	} else {
		reporter.Summary(result)
	}

	if !result.Passed() {
		return ExitRunFailure
	}
	return ExitOK
}

// watchAndRerun blocks on filesystem events for the flow file and
// repeats the run after each write. Editors that replace the file are
// handled by watching the directory and matching on the file name.
func watchAndRerun(path string, reporter *report.Reporter) int {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		reporter.Error("Error: cannot watch %s: %v", path, err)
		return ExitConfig
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		reporter.Error("Error: cannot watch %s: %v", dir, err)
		return ExitConfig
	}

	target, _ := filepath.Abs(path)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	reporter.Info("watching %s for changes", path)

	var debounce <-chan time.Time
	for {
		select {
		case <-sigs:
			return ExitOK
		case event, ok := <-watcher.Events:
			if !ok {
				return ExitOK
			}
			abs, _ := filepath.Abs(event.Name)
			if abs != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(200 * time.Millisecond)
		case <-debounce:
			debounce = nil
			reporter.Info("%s changed, re-running", path)
			loadAndRun(path, reporter)
		case err, ok := <-watcher.Errors:
			if !ok {
				return ExitOK
			}
			reporter.Error("watch error: %v", err)
		}
	}
}

func newReporter() *report.Reporter {
	return report.NewReporter(
		report.WithNoColor(flagNoColor),
		report.WithNoProgress(flagNoProgress || flagJSON),
	)
}
