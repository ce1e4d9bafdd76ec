package runner

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/loadflow/packages/assertions"
	"github.com/abdul-hamid-achik/loadflow/packages/flow"
	"github.com/abdul-hamid-achik/loadflow/packages/http"
	"github.com/google/uuid"
)

// FlowOutcome captures one complete flow instance. Aborted stays true
// once set, so the distinction survives the move to the reported state.
type FlowOutcome struct {
	ID      string
	Flow    string
	State   FlowState
	Aborted bool

	Steps   []*StepOutcome
	Elapsed time.Duration
}

// AssertionFailures counts the executed steps whose response arrived but
// failed at least one assertion.
func (o *FlowOutcome) AssertionFailures() int64 {
	var n int64
	for _, s := range o.Steps {
		if s.AssertionFailed() {
			n++
		}
	}
	return n
}

// Passed reports whether the flow ran to completion with every step
// passing.
func (o *FlowOutcome) Passed() bool {
	if o.Aborted || (o.State != StateCompleted && o.State != StateReported) {
		return false
	}
	for _, s := range o.Steps {
		if !s.Passed() {
			return false
		}
	}
	return true
}

// executeFlow runs all steps of a flow in order against a fresh context.
// A failed step aborts the remainder unless the step opted out of
// stopOnFailure; saveAs stores only on step success, saveResponseAs
// captures the envelope whatever the step's verdict.
func executeFlow(ctx context.Context, client *http.Client, registry *assertions.Registry, f *flow.Flow, observe func(index int, o *StepOutcome)) *FlowOutcome {
	outcome := &FlowOutcome{
		ID:    uuid.NewString(),
		Flow:  f.Name,
		State: StatePending,
	}

	fctx := flow.NewContext()
	start := time.Now()
	outcome.State = StateRunning

	for i, step := range f.Steps {
		if ctx.Err() != nil {
			outcome.State = StateAborted
			outcome.Aborted = true
			break
		}

		so := executeStep(ctx, client, registry, step, i, fctx)
		outcome.Steps = append(outcome.Steps, so)
		if observe != nil {
			observe(i, so)
		}

		saveResults(fctx, step, so)

		if !so.Passed() && step.GetStopOnFailure() {
			outcome.State = StateAborted
			outcome.Aborted = true
			break
		}
	}

	if outcome.State == StateRunning {
		outcome.State = StateCompleted
	}
	outcome.Elapsed = time.Since(start)

	return outcome
}

// saveResults stores response data in the flow context. saveAs only
// stores bodies from passing steps; saveResponseAs captures the envelope
// whatever the verdict.
func saveResults(fctx flow.Context, step *flow.Step, so *StepOutcome) {
	if so.Response == nil {
		return
	}

	if step.SaveAs != "" && so.Passed() {
		if parsed, err := so.Response.BodyJSON(); err == nil {
			fctx.Save(step.SaveAs, parsed)
		} else {
			fctx.Save(step.SaveAs, so.Response.BodyString())
		}
	}

	if step.SaveResponseAs != "" {
		var body any
		if parsed, err := so.Response.BodyJSON(); err == nil {
			body = parsed
		} else {
			body = so.Response.BodyString()
		}
		fctx.Save(step.SaveResponseAs, &flow.Envelope{
			Body:    body,
			Headers: so.Response.Headers,
			Status:  so.Response.StatusCode,
		})
	}
}
