package assertions

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/loadflow/packages/http"
	"github.com/tidwall/gjson"
)

// Result is the outcome of evaluating a single assertion.
type Result struct {
	Passed bool
	Reason string
}

// notFound marks a JSONPath that did not resolve. It is never equal to a
// value extracted from the body, including JSON null.
type notFound struct{}

var sentinelNotFound = notFound{}

// Evaluator evaluates assertions against one response. The latency is an
// explicit input rather than a field read off the response, so response-time
// assertions always see the duration the step executor actually measured.
type Evaluator struct {
	response *http.Response
	latency  time.Duration
	bodyJSON gjson.Result
	hasJSON  bool
	context  map[string]any
	registry *Registry
}

// EvaluatorOption is a functional option for configuring an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithContext supplies the flow context to custom predicates.
func WithContext(ctx map[string]any) EvaluatorOption {
	return func(e *Evaluator) {
		e.context = ctx
	}
}

// WithRegistry sets the custom predicate registry.
func WithRegistry(reg *Registry) EvaluatorOption {
	return func(e *Evaluator) {
		e.registry = reg
	}
}

func NewEvaluator(resp *http.Response, latency time.Duration, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		response: resp,
		latency:  latency,
	}
	if resp.IsJSON() || gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
		e.hasJSON = true
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs one assertion. Internal faults (bad regex, non-numeric
// comparisons, missing predicates) become failed results with a reason,
// never an error or a panic.
func (e *Evaluator) Evaluate(a Assertion) Result {
	switch a := a.(type) {
	case StatusCode:
		return e.evalStatusCode(a)
	case JSONPath:
		return e.evalJSONPath(a)
	case ResponseTime:
		return e.evalResponseTime(a)
	case Header:
		return e.evalHeader(a)
	case Custom:
		return e.evalCustom(a)
	default:
		return fail("unknown assertion kind %T", a)
	}
}

// EvaluateAll runs every assertion in order without short-circuiting and
// returns all results.
func (e *Evaluator) EvaluateAll(list []Assertion) []Result {
	results := make([]Result, len(list))
	for i, a := range list {
		results[i] = e.Evaluate(a)
	}
	return results
}

func (e *Evaluator) evalStatusCode(a StatusCode) Result {
	if e.response.StatusCode == a.Expected {
		return pass()
	}
	return fail("expected status %d, got %d", a.Expected, e.response.StatusCode)
}

func (e *Evaluator) evalResponseTime(a ResponseTime) Result {
	if e.latency <= a.Threshold() {
		return pass()
	}
	return fail("response time %dms exceeds threshold %dms", e.latency.Milliseconds(), a.ThresholdMs)
}

func (e *Evaluator) evalHeader(a Header) Result {
	value, ok := e.response.HeaderExact(a.Name)
	if !ok {
		return fail("header %q not present", a.Name)
	}
	if a.Expected == nil {
		return pass()
	}
	if value == *a.Expected {
		return pass()
	}
	return fail("header %q: expected %q, got %q", a.Name, *a.Expected, value)
}

func (e *Evaluator) evalJSONPath(a JSONPath) Result {
	actual := e.extract(a.Path)

	switch a.Op {
	case OpExists:
		if actual == sentinelNotFound {
			return fail("path %q not found", a.Path)
		}
		return pass()
	case OpNotExists:
		if actual == sentinelNotFound {
			return pass()
		}
		return fail("path %q exists with value %v", a.Path, actual)
	}

	if actual == sentinelNotFound {
		return fail("path %q not found", a.Path)
	}

	switch a.Op {
	case OpEquals:
		if valuesEqual(actual, a.Expected) {
			return pass()
		}
		return fail("path %q: expected %v, got %v", a.Path, a.Expected, actual)
	case OpContains:
		return e.evalContains(a.Path, actual, a.Expected)
	case OpGreaterThan:
		return e.evalNumeric(a.Path, actual, a.Expected, ">")
	case OpLessThan:
		return e.evalNumeric(a.Path, actual, a.Expected, "<")
	case OpMatch:
		return e.evalMatch(a.Path, actual, a.Expected)
	default:
		return fail("path %q: unknown operator %q", a.Path, a.Op)
	}
}

func (e *Evaluator) evalContains(path string, actual, expected any) Result {
	switch v := actual.(type) {
	case string:
		needle := fmt.Sprintf("%v", expected)
		if strings.Contains(v, needle) {
			return pass()
		}
		return fail("path %q: expected %q to contain %q", path, v, needle)
	case []any:
		for _, item := range v {
			if valuesEqual(item, expected) {
				return pass()
			}
		}
		return fail("path %q: expected array to contain %v", path, expected)
	default:
		return fail("path %q: value of type %T does not support contains", path, actual)
	}
}

func (e *Evaluator) evalNumeric(path string, actual, expected any, op string) Result {
	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if !aOk || !eOk {
		return fail("path %q: cannot compare non-numeric values: %v %s %v", path, actual, op, expected)
	}

	var passed bool
	switch op {
	case ">":
		passed = actualNum > expectedNum
	case "<":
		passed = actualNum < expectedNum
	}

	if passed {
		return pass()
	}
	return fail("path %q: expected %v %s %v", path, actual, op, expected)
}

func (e *Evaluator) evalMatch(path string, actual, expected any) Result {
	actualStr := fmt.Sprintf("%v", actual)
	pattern := fmt.Sprintf("%v", expected)

	pattern = strings.TrimPrefix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	re, err := regexp.Compile(pattern)
	if err != nil {
		return fail("path %q: invalid regex pattern: %v", path, err)
	}

	if re.MatchString(actualStr) {
		return pass()
	}
	return fail("path %q: expected %q to match /%s/", path, actualStr, pattern)
}

func (e *Evaluator) evalCustom(a Custom) (result Result) {
	if e.registry == nil {
		return fail("no predicate registry configured for custom assertion %q", a.Name)
	}
	fn, ok := e.registry.Lookup(a.Name)
	if !ok {
		return fail("no predicate registered under %q", a.Name)
	}

	// Predicates are caller-supplied; a panic becomes a failed assertion.
	defer func() {
		if r := recover(); r != nil {
			result = fail("predicate %q panicked: %v", a.Name, r)
		}
	}()

	switch v := fn(e.response, e.context).(type) {
	case bool:
		if v {
			return pass()
		}
		return fail("custom assertion %q failed", a.Name)
	case string:
		return Result{Passed: false, Reason: v}
	case error:
		return Result{Passed: false, Reason: v.Error()}
	default:
		return fail("predicate %q returned unexpected %T", a.Name, v)
	}
}

// extract resolves a dotted path in the parsed body, returning the not-found
// sentinel when the body is not JSON or the path does not resolve.
func (e *Evaluator) extract(path string) any {
	if !e.hasJSON {
		return sentinelNotFound
	}
	if path == "" {
		return e.bodyJSON.Value()
	}
	result := e.bodyJSON.Get(convertBracketNotation(path))
	if !result.Exists() {
		return sentinelNotFound
	}
	return result.Value()
}

// convertBracketNotation converts array bracket notation to gjson dot notation
// e.g., "[0].id" -> "0.id", "items[0].tags[1]" -> "items.0.tags.1"
func convertBracketNotation(path string) string {
	result := regexp.MustCompile(`\[(\d+)\]`).ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(result, ".")
}

func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}

	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if aOk && eOk {
		return actualNum == expectedNum
	}

	actualStr, aIsStr := actual.(string)
	expectedStr, eIsStr := expected.(string)
	if aIsStr && eIsStr {
		return actualStr == expectedStr
	}

	if aBool, ok := actual.(bool); ok {
		if eBool, ok := expected.(bool); ok {
			return aBool == eBool
		}
	}

	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func pass() Result {
	return Result{Passed: true}
}

func fail(format string, args ...any) Result {
	return Result{Passed: false, Reason: fmt.Sprintf(format, args...)}
}
