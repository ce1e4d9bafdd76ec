// Package metrics accumulates latency and outcome counters for a run,
// per flow instance and per step position.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Record holds counters for one scope (the whole run, one flow instance,
// or one step position). Min carries a MaxInt64 sentinel and Max a zero
// sentinel until the first successful sample lands; snapshots normalize
// them so the sentinels never leak into reports.
type Record struct {
	Attempted         int64
	Success           int64
	Failure           int64
	AssertionFailures int64
	TransportErrors   int64

	Sum time.Duration
	Min time.Duration
	Max time.Duration
}

func newRecord() *Record {
	return &Record{Min: time.Duration(math.MaxInt64)}
}

func (r *Record) observe(latency time.Duration, success bool, assertionFailures, transportErrors int64) {
	r.Attempted++
	r.AssertionFailures += assertionFailures
	r.TransportErrors += transportErrors
	if !success {
		r.Failure++
		return
	}
	r.Success++
	r.Sum += latency
	if latency < r.Min {
		r.Min = latency
	}
	if latency > r.Max {
		r.Max = latency
	}
}

// RecordView is a normalized copy of a Record safe to report.
type RecordView struct {
	Attempted         int64         `json:"attempted"`
	Success           int64         `json:"success"`
	Failure           int64         `json:"failure"`
	AssertionFailures int64         `json:"assertionFailures"`
	TransportErrors   int64         `json:"transportErrors"`
	Mean              time.Duration `json:"-"`
	Min               time.Duration `json:"-"`
	Max               time.Duration `json:"-"`
	MeanMs            float64       `json:"meanMs"`
	MinMs             float64       `json:"minMs"`
	MaxMs             float64       `json:"maxMs"`
}

func (r *Record) view() RecordView {
	v := RecordView{
		Attempted:         r.Attempted,
		Success:           r.Success,
		Failure:           r.Failure,
		AssertionFailures: r.AssertionFailures,
		TransportErrors:   r.TransportErrors,
	}
	if r.Success > 0 {
		v.Mean = r.Sum / time.Duration(r.Success)
		v.Min = r.Min
		v.Max = r.Max
		v.MeanMs = durationMs(v.Mean)
		v.MinMs = durationMs(v.Min)
		v.MaxMs = durationMs(v.Max)
	}
	return v
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// Aggregator collects records for a run. All methods are safe for
// concurrent use by worker goroutines.
type Aggregator struct {
	mu sync.Mutex

	run   *Record
	flows *Record
	steps []*Record

	hist *hdrhistogram.Histogram
}

// NewAggregator sizes the per-step slice for a flow with stepCount steps.
func NewAggregator(stepCount int) *Aggregator {
	steps := make([]*Record, stepCount)
	for i := range steps {
		steps[i] = newRecord()
	}
	return &Aggregator{
		run:   newRecord(),
		flows: newRecord(),
		steps: steps,
		// 1µs to 10min at 3 significant figures
		hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

// RecordStep records the outcome of one step invocation at the given
// position. Exactly one call is made per invocation, whatever the outcome.
func (a *Aggregator) RecordStep(index int, latency time.Duration, success bool, assertionFailed, transportFailed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var aFail, tFail int64
	if assertionFailed {
		aFail = 1
	}
	if transportFailed {
		tFail = 1
	}

	a.run.observe(latency, success, aFail, tFail)
	if index >= 0 && index < len(a.steps) {
		a.steps[index].observe(latency, success, aFail, tFail)
	}
	if success {
		_ = a.hist.RecordValue(latency.Microseconds())
	}
}

// RecordFlow records the outcome of one complete flow instance along with
// how many of its steps failed an assertion.
func (a *Aggregator) RecordFlow(elapsed time.Duration, success bool, assertionFailures int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flows.observe(elapsed, success, assertionFailures, 0)
}

// Summary is an immutable snapshot of a run's metrics.
type Summary struct {
	Run   RecordView   `json:"run"`
	Flows RecordView   `json:"flows"`
	Steps []RecordView `json:"steps"`

	P50Ms float64 `json:"p50Ms"`
	P95Ms float64 `json:"p95Ms"`
	P99Ms float64 `json:"p99Ms"`
}

// Snapshot builds a Summary from the current state. Sentinel min/max
// values on scopes with no successful sample come out as zero.
func (a *Aggregator) Snapshot() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Run:   a.run.view(),
		Flows: a.flows.view(),
		Steps: make([]RecordView, len(a.steps)),
	}
	for i, r := range a.steps {
		s.Steps[i] = r.view()
	}
	if a.run.Success > 0 {
		s.P50Ms = float64(a.hist.ValueAtQuantile(50)) / 1000
		s.P95Ms = float64(a.hist.ValueAtQuantile(95)) / 1000
		s.P99Ms = float64(a.hist.ValueAtQuantile(99)) / 1000
	}
	return s
}
