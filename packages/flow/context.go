package flow

import (
	"strconv"
	"strings"
)

// Envelope is the full response record stored under a step's saveResponseAs
// key: parsed body, headers, and status.
type Envelope struct {
	Body    any
	Headers map[string]string
	Status  int
}

// Context is the per-flow-instance key-value store populated from prior
// steps' responses. It is exclusively owned by one flow execution.
type Context map[string]any

func NewContext() Context {
	return make(Context)
}

func (c Context) Save(key string, value any) {
	c[key] = value
}

// Lookup walks a dotted path through the context: the first segment is a
// context key, remaining segments traverse maps, envelope fields
// (body/headers/status) and numeric array indices. The second return is
// false when any segment is missing or the current value is nil.
func (c Context) Lookup(path string) (any, bool) {
	segments := strings.Split(path, ".")
	if len(segments) == 0 || segments[0] == "" {
		return nil, false
	}

	current, ok := c[segments[0]]
	if !ok {
		return nil, false
	}

	for _, segment := range segments[1:] {
		if current == nil {
			return nil, false
		}

		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, false
			}
			current = next

		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			current = v[idx]

		case Envelope:
			switch segment {
			case "body":
				current = v.Body
			case "headers":
				current = envelopeHeaders(v.Headers)
			case "status":
				current = v.Status
			default:
				return nil, false
			}

		case *Envelope:
			switch segment {
			case "body":
				current = v.Body
			case "headers":
				current = envelopeHeaders(v.Headers)
			case "status":
				current = v.Status
			default:
				return nil, false
			}

		default:
			return nil, false
		}
	}

	if current == nil {
		return nil, false
	}
	return current, true
}

func envelopeHeaders(h map[string]string) map[string]any {
	m := make(map[string]any, len(h))
	for k, v := range h {
		m[k] = v
	}
	return m
}
