// Package template resolves {{dotted.path}} placeholders in request
// definitions against the values a flow has accumulated so far.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/loadflow/packages/flow"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver substitutes placeholders from a flow context. Unresolved
// placeholders are left in place so the reader can see what was missing.
type Resolver struct {
	ctx flow.Context
}

func NewResolver(ctx flow.Context) *Resolver {
	return &Resolver{ctx: ctx}
}

// Resolve replaces every {{path}} in s with the looked-up value.
// Values are rendered with fmt; a miss leaves the placeholder untouched.
func (r *Resolver) Resolve(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-2])
		if path == "" {
			return match
		}
		value, ok := r.ctx.Lookup(path)
		if !ok {
			return match
		}
		return render(value)
	})
}

// Misses returns the placeholder paths in s that do not resolve.
func (r *Resolver) Misses(s string) []string {
	var missing []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		path := strings.TrimSpace(m[1])
		if path == "" {
			continue
		}
		if _, ok := r.ctx.Lookup(path); !ok {
			missing = append(missing, path)
		}
	}
	return missing
}

// ResolveHeaders resolves placeholders in both header names and values.
func (r *Resolver) ResolveHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	resolved := make(map[string]string, len(headers))
	for k, v := range headers {
		resolved[r.Resolve(k)] = r.Resolve(v)
	}
	return resolved
}

// ResolveBody resolves placeholders in a request body. String bodies are
// substituted directly; structured bodies round-trip through JSON so every
// nested string field is covered.
func (r *Resolver) ResolveBody(body any) (string, error) {
	if body == nil {
		return "", nil
	}
	if s, ok := body.(string); ok {
		return r.Resolve(s), nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("cannot encode body: %w", err)
	}
	return r.Resolve(string(raw)), nil
}

func render(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// avoid 1e+06 style output for integral values
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case nil:
		return ""
	case map[string]any, []any:
		raw, err := json.Marshal(val)
		if err == nil {
			return string(raw)
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
