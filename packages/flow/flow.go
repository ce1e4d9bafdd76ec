// Package flow defines load-test flow and step definitions, the per-instance
// execution context, and flow-file decoding with validation.
//
// Definitions are read-only after load. A Context lives for exactly one flow
// execution and is never shared across concurrent instances.
package flow

import (
	"github.com/abdul-hamid-achik/loadflow/packages/assertions"
)

// Step is one templated HTTP request plus its assertions. Fields are
// immutable after load.
type Step struct {
	Name           string
	Method         string
	URL            string
	Headers        map[string]string
	Body           any // raw string or structured payload; templated either way
	Assertions     []assertions.Assertion
	SaveAs         string
	SaveResponseAs string
	StopOnFailure  *bool // nil means true
}

// GetStopOnFailure returns the stop-on-failure policy, defaulting to true.
func (s *Step) GetStopOnFailure() bool {
	if s.StopOnFailure == nil {
		return true
	}
	return *s.StopOnFailure
}

// Flow is an ordered sequence of dependent steps sharing one context.
type Flow struct {
	Name  string
	Steps []*Step
}

// Single builds a one-step flow for single-request mode. The step carries no
// assertions, so transport success decides step success.
func Single(method, url string, headers map[string]string, body any) *Flow {
	step := &Step{
		Name:    method + " " + url,
		Method:  method,
		URL:     url,
		Headers: headers,
		Body:    body,
	}
	return &Flow{
		Name:  "single",
		Steps: []*Step{step},
	}
}

// BoolPtr returns a pointer to a bool value, for building definitions in code.
func BoolPtr(b bool) *bool {
	return &b
}
