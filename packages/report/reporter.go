// Package report renders run results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/abdul-hamid-achik/loadflow/packages/runner"
	"github.com/fatih/color"
)

// Reporter writes progress and summaries. It implements
// runner.ProgressSink so it can be handed straight to a Runner.
type Reporter struct {
	out        io.Writer
	noColor    bool
	noProgress bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	bold   *color.Color
}

type ReporterOption func(*Reporter)

func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.out = w
	}
}

func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

func WithNoProgress(noProgress bool) ReporterOption {
	return func(r *Reporter) {
		r.noProgress = noProgress
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{out: os.Stdout}
	for _, opt := range opts {
		opt(r)
	}

	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.bold = color.New(color.Bold)
	if r.noColor {
		for _, c := range []*color.Color{r.green, r.red, r.yellow, r.bold} {
			c.DisableColor()
		}
	}

	return r
}

// Wave prints a progress line after each completed wave.
func (r *Reporter) Wave(p runner.WaveProgress) {
	if r.noProgress {
		return
	}
	fmt.Fprintf(r.out, "wave %d/%d complete: %d/%d flows\n", p.Wave, p.Waves, p.Completed, p.Total)
}

func (r *Reporter) Info(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *Reporter) Error(format string, args ...any) {
	r.red.Fprintf(r.out, format+"\n", args...)
}

// Summary prints the human-readable run report.
func (r *Reporter) Summary(result *runner.RunResult) {
	s := result.Summary

	fmt.Fprintln(r.out)
	r.bold.Fprintf(r.out, "%s\n", result.Flow)
	fmt.Fprintf(r.out, "  flows:    %d attempted, ", s.Flows.Attempted)
	r.green.Fprintf(r.out, "%d passed", s.Flows.Success)
	fmt.Fprint(r.out, ", ")
	if s.Flows.Failure > 0 {
		r.red.Fprintf(r.out, "%d failed\n", s.Flows.Failure)
	} else {
		fmt.Fprintf(r.out, "%d failed\n", s.Flows.Failure)
	}
	fmt.Fprintf(r.out, "  requests: %d attempted, %d ok, %d failed (%d assertion, %d transport)\n",
		s.Run.Attempted, s.Run.Success, s.Run.Failure, s.Run.AssertionFailures, s.Run.TransportErrors)

	if s.Run.Success > 0 {
		fmt.Fprintf(r.out, "  latency:  min %.1fms / mean %.1fms / max %.1fms\n",
			s.Run.MinMs, s.Run.MeanMs, s.Run.MaxMs)
		fmt.Fprintf(r.out, "            p50 %.1fms / p95 %.1fms / p99 %.1fms\n",
			s.P50Ms, s.P95Ms, s.P99Ms)
	}

	r.stepTable(result)
	r.failures(result)

	fmt.Fprintln(r.out)
	if result.Canceled {
		r.yellow.Fprintln(r.out, "run canceled")
	} else if result.Passed() {
		r.green.Fprintln(r.out, "PASS")
	} else {
		r.red.Fprintln(r.out, "FAIL")
	}
}

func (r *Reporter) stepTable(result *runner.RunResult) {
	if len(result.Outcomes) == 0 {
		return
	}
	names := stepNames(result)
	fmt.Fprintln(r.out)
	for i, sv := range result.Summary.Steps {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		if sv.Attempted == 0 {
			fmt.Fprintf(r.out, "  %-30s never reached\n", name)
			continue
		}
		line := fmt.Sprintf("  %-30s %d/%d ok", name, sv.Success, sv.Attempted)
		if sv.Success > 0 {
			line += fmt.Sprintf("  min %.1fms / mean %.1fms / max %.1fms", sv.MinMs, sv.MeanMs, sv.MaxMs)
		}
		if sv.Failure > 0 {
			r.red.Fprintln(r.out, line)
		} else {
			fmt.Fprintln(r.out, line)
		}
	}
}

// failures prints the first distinct failure reasons so a failing run is
// diagnosable without scrolling through every instance.
func (r *Reporter) failures(result *runner.RunResult) {
	const maxShown = 10
	seen := map[string]bool{}
	var reasons []string

	for _, fo := range result.Outcomes {
		for _, so := range fo.Steps {
			if so.TransportErr != nil {
				reason := fmt.Sprintf("%s: %v", so.StepName, so.TransportErr)
				if !seen[reason] {
					seen[reason] = true
					reasons = append(reasons, reason)
				}
			}
			for _, ar := range so.Assertions {
				if ar.Passed {
					continue
				}
				reason := fmt.Sprintf("%s: %s", so.StepName, ar.Reason)
				if !seen[reason] {
					seen[reason] = true
					reasons = append(reasons, reason)
				}
			}
		}
	}

	if len(reasons) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	r.bold.Fprintln(r.out, "failures:")
	for i, reason := range reasons {
		if i == maxShown {
			fmt.Fprintf(r.out, "  ... and %d more\n", len(reasons)-maxShown)
			break
		}
		r.red.Fprintf(r.out, "  %s\n", reason)
	}
}

func stepNames(result *runner.RunResult) []string {
	for _, fo := range result.Outcomes {
		if len(fo.Steps) == len(result.Summary.Steps) {
			names := make([]string, len(fo.Steps))
			for i, so := range fo.Steps {
				names[i] = so.StepName
			}
			return names
		}
	}
	if len(result.Outcomes) > 0 {
		names := make([]string, len(result.Summary.Steps))
		for _, so := range result.Outcomes[0].Steps {
			if so.Index < len(names) {
				names[so.Index] = so.StepName
			}
		}
		return names
	}
	return nil
}

// JSONSummary writes the machine-readable report.
func (r *Reporter) JSONSummary(result *runner.RunResult) error {
	payload := struct {
		Flow     string `json:"flow"`
		Count    int    `json:"count"`
		Waves    int    `json:"waves"`
		Passed   bool   `json:"passed"`
		Canceled bool   `json:"canceled"`
		Metrics  any    `json:"metrics"`
	}{
		Flow:     result.Flow,
		Count:    result.Count,
		Waves:    result.Waves,
		Passed:   result.Passed(),
		Canceled: result.Canceled,
		Metrics:  result.Summary,
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
