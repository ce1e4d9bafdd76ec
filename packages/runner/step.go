package runner

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/loadflow/packages/assertions"
	"github.com/abdul-hamid-achik/loadflow/packages/flow"
	"github.com/abdul-hamid-achik/loadflow/packages/http"
	"github.com/abdul-hamid-achik/loadflow/packages/template"
)

// StepOutcome captures a single step invocation end to end.
type StepOutcome struct {
	StepName string
	Index    int

	Response *http.Response
	Latency  time.Duration

	TransportErr error
	Assertions   []assertions.Result
}

// Passed reports whether the step succeeded: the request went through and
// every assertion held.
func (o *StepOutcome) Passed() bool {
	if o.TransportErr != nil {
		return false
	}
	for _, r := range o.Assertions {
		if !r.Passed {
			return false
		}
	}
	return true
}

// AssertionFailed reports whether any assertion failed on a delivered
// response.
func (o *StepOutcome) AssertionFailed() bool {
	for _, r := range o.Assertions {
		if !r.Passed {
			return true
		}
	}
	return false
}

// executeStep resolves the step's templates against ctx, performs the
// request, and evaluates assertions. A transport error short-circuits
// evaluation; the outcome still carries the step's identity and latency.
func executeStep(ctx context.Context, client *http.Client, registry *assertions.Registry, step *flow.Step, index int, fctx flow.Context) *StepOutcome {
	outcome := &StepOutcome{StepName: step.Name, Index: index}

	resolver := template.NewResolver(fctx)
	url := resolver.Resolve(step.URL)
	headers := resolver.ResolveHeaders(step.Headers)

	body, err := resolver.ResolveBody(step.Body)
	if err != nil {
		outcome.TransportErr = err
		return outcome
	}

	req := http.NewRequest(step.Method, url)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	if body != "" {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := client.Do(ctx, req)
	if err != nil {
		outcome.TransportErr = err
		outcome.Latency = time.Since(start)
		return outcome
	}

	outcome.Response = resp
	outcome.Latency = resp.Duration

	if len(step.Assertions) > 0 {
		eval := assertions.NewEvaluator(resp, resp.Duration,
			assertions.WithContext(fctx),
			assertions.WithRegistry(registry),
		)
		outcome.Assertions = eval.EvaluateAll(step.Assertions)
	}

	return outcome
}
