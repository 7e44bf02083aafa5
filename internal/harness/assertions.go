package harness

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Query    string // query step name
	Check    string // "query", "count", "rows" or "error"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s: %s mismatch\n", e.Query, e.Check)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpectations compares a query result with its step's expect clause.
// A query without an error expectation must succeed.
func checkExpectations(step QueryStep, qr QueryResult) []error {
	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}

	var errs []error
	fail := func(check, expected, actual string) {
		errs = append(errs, &AssertionError{Query: step.Name, Check: check, Expected: expected, Actual: actual})
	}

	if expect.Query != "" && expect.Query != qr.Query {
		fail("query", expect.Query, qr.Query)
	}

	if expect.Error != nil {
		want := describeExpectedError(expect.Error)
		switch {
		case qr.Error == nil:
			fail("error", want, fmt.Sprintf("success with %d rows", len(qr.Rows)))
		case qr.Error.Kind != expect.Error.Kind:
			fail("error", want, describeError(qr.Error))
		case expect.Error.Status != "" && qr.Error.Status != expect.Error.Status:
			fail("error", want, describeError(qr.Error))
		}
		return errs
	}

	if qr.Error != nil {
		fail("error", "success", describeError(qr.Error))
		return errs
	}

	if expect.Count != nil && *expect.Count != len(qr.Rows) {
		fail("count", fmt.Sprint(*expect.Count), fmt.Sprint(len(qr.Rows)))
	}

	for i, want := range expect.Rows {
		if i >= len(qr.Rows) {
			fail("rows", fmt.Sprintf("row %d: %s", i, formatExpectedRow(want)), fmt.Sprintf("only %d rows", len(qr.Rows)))
			break
		}
		if diff := matchRow(qr.Rows[i], want); diff != "" {
			fail("rows", fmt.Sprintf("row %d: %s", i, formatExpectedRow(want)), diff)
		}
	}
	return errs
}

func describeExpectedError(e *ExpectedError) string {
	if e.Status == "" {
		return e.Kind
	}
	return e.Kind + " " + e.Status
}

func describeError(e *ErrorResult) string {
	if e.Status == "" {
		return fmt.Sprintf("%s (%s)", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s (%s)", e.Kind, e.Status, e.Message)
}

// matchRow checks that every expected property is present on the row with
// an equal value. Extra properties on the row are ignored. Returns a
// description of the first difference, or "".
func matchRow(row *variant.Object, want map[string]any) string {
	for _, name := range sortedKeys(want) {
		actual, ok := row.Get(name)
		if !ok {
			return fmt.Sprintf("property %s missing", name)
		}
		if !valuesEqual(actual, want[name]) {
			data, _ := variant.MarshalCanonical(actual)
			return fmt.Sprintf("%s = %s", name, data)
		}
	}
	return ""
}

// valuesEqual compares an actual property with a value decoded from YAML.
// Timestamps may be expected as CIM datetime or RFC 3339 text.
func valuesEqual(actual variant.Variant, expected any) bool {
	if ts, ok := actual.(variant.Time); ok {
		if s, ok := expected.(string); ok {
			return timeTextEqual(ts.Time, s)
		}
	}
	if arr, ok := actual.(variant.Array); ok {
		list, ok := expected.([]any)
		if !ok || len(list) != len(arr) {
			return false
		}
		for i := range arr {
			if !valuesEqual(arr[i], list[i]) {
				return false
			}
		}
		return true
	}

	want, err := variant.FromAny(expected)
	if err != nil {
		return false
	}
	return variant.Equal(actual, want)
}

func timeTextEqual(actual time.Time, text string) bool {
	if t, err := wbem.ParseDateTime(text); err == nil {
		return actual.Equal(t)
	}
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return actual.Equal(t)
	}
	return false
}

func formatExpectedRow(want map[string]any) string {
	parts := make([]string, 0, len(want))
	for _, k := range sortedKeys(want) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, want[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
