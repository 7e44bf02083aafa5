package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/wbem"
)

// Scenario is a list of queries run against one fixture.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is the snapshot fixture (.yaml, .yml or .cue) to query.
	// Relative paths are resolved against the scenario file's directory.
	Fixture string `yaml:"fixture"`

	// Queries run in order against the same connection.
	Queries []QueryStep `yaml:"queries"`
}

// QueryStep is one query and its expectations. Exactly one of WQL and
// Class is set.
type QueryStep struct {
	Name string `yaml:"name"`

	WQL string `yaml:"wql,omitempty"`

	Class  string         `yaml:"class,omitempty"`
	Fields []string       `yaml:"fields,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause lists what a query must produce. Unset fields are not
// checked.
type ExpectClause struct {
	Query string           `yaml:"query,omitempty"`
	Count *int             `yaml:"count,omitempty"`
	Rows  []map[string]any `yaml:"rows,omitempty"`
	Error *ExpectedError   `yaml:"error,omitempty"`
}

// ExpectedError describes an expected query failure.
type ExpectedError struct {
	Kind   string `yaml:"kind"`
	Status string `yaml:"status,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Fixture == "" {
		return fmt.Errorf("fixture is required")
	}
	if _, err := os.Stat(s.Fixture); os.IsNotExist(err) {
		return fmt.Errorf("fixture file not found: %s", s.Fixture)
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	names := make(map[string]bool)
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if names[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		names[q.Name] = true

		if err := validateQuery(i, &q); err != nil {
			return err
		}
	}
	return nil
}

func validateQuery(index int, q *QueryStep) error {
	switch {
	case q.WQL != "" && q.Class != "":
		return fmt.Errorf("queries[%d]: wql and class are mutually exclusive", index)
	case q.WQL == "" && q.Class == "":
		return fmt.Errorf("queries[%d]: wql or class is required", index)
	case q.WQL != "" && (len(q.Fields) > 0 || len(q.Where) > 0):
		return fmt.Errorf("queries[%d]: fields and where require class", index)
	case q.Class != "" && len(q.Fields) == 0:
		return fmt.Errorf("queries[%d]: fields are required with class", index)
	}

	for name, v := range q.Where {
		if _, err := filterValue(v); err != nil {
			return fmt.Errorf("queries[%d].where.%s: %w", index, name, err)
		}
	}

	if q.Expect == nil {
		return nil
	}
	if q.Expect.Count != nil && *q.Expect.Count < 0 {
		return fmt.Errorf("queries[%d].expect: count must be non-negative", index)
	}
	if e := q.Expect.Error; e != nil {
		if !validKind(e.Kind) {
			return fmt.Errorf("queries[%d].expect.error: unknown kind %q", index, e.Kind)
		}
		if e.Status != "" {
			if _, ok := wbem.ParseStatusName(e.Status); !ok {
				return fmt.Errorf("queries[%d].expect.error: unknown status %q", index, e.Status)
			}
		}
		if q.Expect.Count != nil || len(q.Expect.Rows) > 0 {
			return fmt.Errorf("queries[%d].expect: error excludes count and rows", index)
		}
	}
	return nil
}

var errorKinds = []wmiq.ErrorKind{
	wmiq.KindMalformedQuery,
	wmiq.KindExecution,
	wmiq.KindEnumeration,
	wmiq.KindListProperties,
	wmiq.KindDecode,
}

func validKind(kind string) bool {
	for _, k := range errorKinds {
		if string(k) == kind {
			return true
		}
	}
	return false
}

// filterValue maps a YAML scalar to the filter value the query builder
// renders for it.
func filterValue(v any) (wmiq.FilterValue, error) {
	switch val := v.(type) {
	case bool:
		return wmiq.Bool(val), nil
	case int:
		return wmiq.Number(val), nil
	case string:
		return wmiq.Str(val), nil
	default:
		return nil, fmt.Errorf("unsupported filter value %v (%T)", v, v)
	}
}
