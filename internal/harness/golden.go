package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wmiq/variant"
)

// Render produces the golden text for a scenario result: every query with
// its text, then either its rows as canonical JSON (one per line) or its
// error kind and status.
func Render(scenarioName string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", scenarioName)

	for _, q := range result.Queries {
		fmt.Fprintf(&buf, "\n## %s\n", q.Name)
		fmt.Fprintf(&buf, "query: %s\n", q.Query)

		if q.Error != nil {
			if q.Error.Status != "" {
				fmt.Fprintf(&buf, "error: %s %s\n", q.Error.Kind, q.Error.Status)
			} else {
				fmt.Fprintf(&buf, "error: %s\n", q.Error.Kind)
			}
			continue
		}

		fmt.Fprintf(&buf, "rows: %d\n", len(q.Rows))
		for i, row := range q.Rows {
			data, err := variant.MarshalCanonical(row)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d: %w", q.Name, i, err)
			}
			buf.Write(data)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its rendering against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check expectations.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the golden file named
// after scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Render(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
