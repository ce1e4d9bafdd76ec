package flow

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/loadflow/packages/assertions"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// flowSchema validates the overall document shape before typed decoding.
// Field-level rules (operator names, threshold ranges) are enforced by the
// typed conversion below, which produces friendlier messages.
const flowSchema = `{
  "type": "object",
  "required": ["steps"],
  "properties": {
    "name": {"type": "string"},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["url"],
        "properties": {
          "name": {"type": "string"},
          "method": {"type": "string"},
          "url": {"type": "string", "minLength": 1},
          "headers": {"type": "object"},
          "saveAs": {"type": "string"},
          "saveResponseAs": {"type": "string"},
          "stopOnFailure": {"type": "boolean"},
          "assertions": {"type": "array", "items": {"type": "object", "required": ["type"]}}
        }
      }
    }
  }
}`

type flowSpec struct {
	Name  string     `yaml:"name"`
	Steps []stepSpec `yaml:"steps"`
}

type stepSpec struct {
	Name           string            `yaml:"name"`
	Method         string            `yaml:"method"`
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers"`
	Body           any               `yaml:"body"`
	Assertions     []assertionSpec   `yaml:"assertions"`
	SaveAs         string            `yaml:"saveAs"`
	SaveResponseAs string            `yaml:"saveResponseAs"`
	StopOnFailure  *bool             `yaml:"stopOnFailure"`
}

type assertionSpec struct {
	Type        string `yaml:"type"`
	Expected    any    `yaml:"expected"`
	Path        string `yaml:"path"`
	Operator    string `yaml:"operator"`
	Value       any    `yaml:"value"`
	ThresholdMs int64  `yaml:"thresholdMs"`
	Name        string `yaml:"name"`
	Predicate   string `yaml:"predicate"`
}

// LoadFile reads and decodes a flow definition from a YAML or JSON file.
// Any problem with the document is a ConfigError; nothing executes after one.
func LoadFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrorf("cannot read flow file: %v", err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = path
	}
	return f, nil
}

// Decode parses a flow definition document (YAML or JSON).
func Decode(data []byte) (*Flow, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configErrorf("invalid flow document: %v", err)
	}
	if doc == nil {
		return nil, configErrorf("flow document is empty")
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var spec flowSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, configErrorf("invalid flow document: %v", err)
	}

	return buildFlow(&spec)
}

func validateSchema(doc any) error {
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return configErrorf("flow document is not JSON-representable: %v", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(flowSchema),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return configErrorf("flow validation error: %v", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return configErrorf("invalid flow definition: %s", strings.Join(problems, "; "))
	}

	return nil
}

func buildFlow(spec *flowSpec) (*Flow, error) {
	if len(spec.Steps) == 0 {
		return nil, configErrorf("flow has no steps")
	}

	f := &Flow{Name: spec.Name}
	for i, ss := range spec.Steps {
		step, err := buildStep(&ss)
		if err != nil {
			return nil, configErrorf("step %d (%s): %v", i+1, stepLabel(&ss, i), err)
		}
		f.Steps = append(f.Steps, step)
	}

	return f, nil
}

func stepLabel(ss *stepSpec, i int) string {
	if ss.Name != "" {
		return ss.Name
	}
	return fmt.Sprintf("#%d", i+1)
}

func buildStep(ss *stepSpec) (*Step, error) {
	if ss.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	method := strings.ToUpper(ss.Method)
	if method == "" {
		method = "GET"
	}

	name := ss.Name
	if name == "" {
		name = method + " " + ss.URL
	}

	step := &Step{
		Name:           name,
		Method:         method,
		URL:            ss.URL,
		Headers:        ss.Headers,
		Body:           ss.Body,
		SaveAs:         ss.SaveAs,
		SaveResponseAs: ss.SaveResponseAs,
		StopOnFailure:  ss.StopOnFailure,
	}

	for j, as := range ss.Assertions {
		a, err := buildAssertion(&as)
		if err != nil {
			return nil, fmt.Errorf("assertion %d: %v", j+1, err)
		}
		step.Assertions = append(step.Assertions, a)
	}

	return step, nil
}

func buildAssertion(as *assertionSpec) (assertions.Assertion, error) {
	switch as.Type {
	case "statusCode":
		code, ok := toInt(as.Expected)
		if !ok {
			return nil, fmt.Errorf("statusCode requires a numeric expected value, got %v", as.Expected)
		}
		return assertions.StatusCode{Expected: code}, nil

	case "jsonPath":
		if as.Path == "" {
			return nil, fmt.Errorf("jsonPath requires a path")
		}
		op, err := assertions.ParseOperator(as.Operator)
		if err != nil {
			return nil, err
		}
		switch op {
		case assertions.OpExists, assertions.OpNotExists:
			// no comparison value
		default:
			if as.Value == nil {
				return nil, fmt.Errorf("jsonPath operator %q requires a value", op)
			}
		}
		return assertions.JSONPath{Path: as.Path, Op: op, Expected: as.Value}, nil

	case "responseTime":
		if as.ThresholdMs <= 0 {
			return nil, fmt.Errorf("responseTime requires a positive thresholdMs")
		}
		return assertions.ResponseTime{ThresholdMs: as.ThresholdMs}, nil

	case "header":
		if as.Name == "" {
			return nil, fmt.Errorf("header requires a name")
		}
		h := assertions.Header{Name: as.Name}
		if as.Value != nil {
			s := fmt.Sprintf("%v", as.Value)
			h.Expected = &s
		}
		return h, nil

	case "custom":
		name := as.Predicate
		if name == "" {
			name = as.Name
		}
		if name == "" {
			return nil, fmt.Errorf("custom requires a predicate name")
		}
		return assertions.Custom{Name: name}, nil

	default:
		return nil, fmt.Errorf("unknown assertion type %q", as.Type)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
			return i, true
		}
	}
	return 0, false
}
