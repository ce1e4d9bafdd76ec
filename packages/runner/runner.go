// Package runner drives flows against a target: it executes steps in
// order, schedules repeated flow instances in waves, and feeds the
// metrics aggregator.
package runner

import (
	"context"

	"github.com/abdul-hamid-achik/loadflow/packages/assertions"
	"github.com/abdul-hamid-achik/loadflow/packages/flow"
	"github.com/abdul-hamid-achik/loadflow/packages/http"
	"github.com/abdul-hamid-achik/loadflow/packages/metrics"
	"golang.org/x/time/rate"
)

const (
	DefaultCount       = 100
	DefaultConcurrency = 10
)

// Runner executes a flow a configured number of times with bounded
// concurrency.
type Runner struct {
	client      *http.Client
	registry    *assertions.Registry
	count       int
	concurrency int
	ratePerSec  float64
	progress    ProgressSink
}

type RunnerOption func(*Runner)

func WithClient(c *http.Client) RunnerOption {
	return func(r *Runner) {
		r.client = c
	}
}

func WithRegistry(reg *assertions.Registry) RunnerOption {
	return func(r *Runner) {
		r.registry = reg
	}
}

func WithCount(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.count = n
		}
	}
}

func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithRate caps how many flow instances launch per second. Zero means
// unlimited.
func WithRate(perSecond float64) RunnerOption {
	return func(r *Runner) {
		r.ratePerSec = perSecond
	}
}

func WithProgress(sink ProgressSink) RunnerOption {
	return func(r *Runner) {
		r.progress = sink
	}
}

func New(opts ...RunnerOption) *Runner {
	r := &Runner{
		client:      http.NewClient(),
		registry:    assertions.NewRegistry(),
		count:       DefaultCount,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.concurrency > r.count {
		r.concurrency = r.count
	}
	return r
}

// RunResult bundles everything a report needs from a run.
type RunResult struct {
	Flow     string
	Count    int
	Waves    int
	Summary  metrics.Summary
	Outcomes []*FlowOutcome
	Canceled bool
}

// Passed reports whether every flow instance that ran passed and none
// were cut short by cancellation.
func (r *RunResult) Passed() bool {
	if r.Canceled {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.Passed() {
			return false
		}
	}
	return true
}

// Run executes f count times. Instances launch in waves of at most
// concurrency; each wave drains fully before the next starts.
func (r *Runner) Run(ctx context.Context, f *flow.Flow) *RunResult {
	agg := metrics.NewAggregator(len(f.Steps))

	var limiter *rate.Limiter
	if r.ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.ratePerSec), 1)
	}

	sched := &scheduler{
		total:       r.count,
		concurrency: r.concurrency,
		limiter:     limiter,
		progress:    r.progress,
	}

	outcomes := make([]*FlowOutcome, r.count)
	sched.run(ctx, func(ctx context.Context, instance int) {
		outcome := executeFlow(ctx, r.client, r.registry, f, func(index int, so *StepOutcome) {
			agg.RecordStep(index, so.Latency, so.Passed(), so.AssertionFailed(), so.TransportErr != nil)
		})
		agg.RecordFlow(outcome.Elapsed, outcome.Passed(), outcome.AssertionFailures())
		outcome.State = StateReported
		outcomes[instance] = outcome
	})

	result := &RunResult{
		Flow:     f.Name,
		Count:    r.count,
		Waves:    sched.waves(),
		Canceled: ctx.Err() != nil,
	}
	for _, o := range outcomes {
		if o != nil {
			result.Outcomes = append(result.Outcomes, o)
		}
	}
	result.Summary = agg.Snapshot()

	return result
}
