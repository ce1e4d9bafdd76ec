package assertions

import (
	"fmt"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/loadflow/packages/http"
)

// Operator is a comparison applied by a JSONPath assertion.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "notExists"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpMatch       Operator = "match"
)

// ParseOperator validates an operator name from a flow definition.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpEquals, OpContains, OpExists, OpNotExists, OpGreaterThan, OpLessThan, OpMatch:
		return Operator(s), nil
	}
	return "", fmt.Errorf("unknown jsonPath operator: %q", s)
}

// Assertion is a closed set of response checks. The evaluator dispatches
// exhaustively over the concrete types below; new kinds require a new type
// and a new case, checked at compile time.
type Assertion interface {
	assertion()
}

// StatusCode asserts numeric equality on the response status.
type StatusCode struct {
	Expected int
}

// JSONPath extracts a value from the parsed body by dotted path and applies
// an operator to it. A missing path yields a "not found" sentinel, which is
// distinct from an explicit JSON null.
type JSONPath struct {
	Path     string
	Op       Operator
	Expected any
}

// ResponseTime asserts that the latency measured by the step executor stays
// under a millisecond threshold.
type ResponseTime struct {
	ThresholdMs int64
}

// Header asserts header presence, or an exact value when Expected is set.
// Name lookup is case-sensitive.
type Header struct {
	Name     string
	Expected *string
}

// Custom delegates to a predicate registered by name before the run starts.
// Predicates are never compiled from configuration at evaluation time.
type Custom struct {
	Name string
}

func (StatusCode) assertion()   {}
func (JSONPath) assertion()     {}
func (ResponseTime) assertion() {}
func (Header) assertion()       {}
func (Custom) assertion()       {}

// Threshold returns the response-time threshold as a duration.
func (a ResponseTime) Threshold() time.Duration {
	return time.Duration(a.ThresholdMs) * time.Millisecond
}

// PredicateFunc is a custom assertion body. It may return:
//   - true: the assertion passes
//   - false: the assertion fails with a generic reason
//   - a string: the assertion fails with that string as the reason
type PredicateFunc func(resp *http.Response, ctx map[string]any) any

// Registry holds named custom predicates, registered before a run starts.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]PredicateFunc
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]PredicateFunc),
	}
}

func (r *Registry) Register(name string, fn PredicateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *Registry) Lookup(name string) (PredicateFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}
