package wql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wmiq/variant"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Select
	}{
		{
			name:  "star",
			query: "SELECT * FROM Win32_OperatingSystem",
			want:  Select{Class: "Win32_OperatingSystem"},
		},
		{
			name:  "builder output without filters",
			query: "SELECT Caption FROM Win32_OperatingSystem ",
			want:  Select{Class: "Win32_OperatingSystem", Fields: []string{"Caption"}},
		},
		{
			name:  "builder output with filters",
			query: `SELECT Caption FROM Win32_OperatingSystem WHERE C1 = "a" AND C2 = "b" AND C3 = 42 AND C4 = false`,
			want: Select{
				Class:  "Win32_OperatingSystem",
				Fields: []string{"Caption"},
				Filter: And{Predicates: []Predicate{
					Equals{Field: "C1", Value: variant.String("a")},
					Equals{Field: "C2", Value: variant.String("b")},
					Equals{Field: "C3", Value: variant.Int(42)},
					Equals{Field: "C4", Value: variant.Bool(false)},
				}},
			},
		},
		{
			name:  "lowercase keywords and single quotes",
			query: "select Name,ProcessId from Win32_Process where Name = 'svchost.exe'",
			want: Select{
				Class:  "Win32_Process",
				Fields: []string{"Name", "ProcessId"},
				Filter: Equals{Field: "Name", Value: variant.String("svchost.exe")},
			},
		},
		{
			name:  "precedence",
			query: "SELECT * FROM X WHERE A = 1 OR B = -2 AND NOT (C <> TRUE OR D IS NOT NULL)",
			want: Select{
				Class: "X",
				Filter: Or{Predicates: []Predicate{
					Equals{Field: "A", Value: variant.Int(1)},
					And{Predicates: []Predicate{
						Equals{Field: "B", Value: variant.Int(-2)},
						Not{Predicate: Or{Predicates: []Predicate{
							NotEquals{Field: "C", Value: variant.Bool(true)},
							IsNull{Field: "D", Negate: true},
						}}},
					}},
				}},
			},
		},
		{
			name:  "comparison with null",
			query: "SELECT * FROM X WHERE A = NULL AND B != null",
			want: Select{
				Class: "X",
				Filter: And{Predicates: []Predicate{
					IsNull{Field: "A"},
					IsNull{Field: "B", Negate: true},
				}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			again, err := Parse(got.String())
			require.NoError(t, err, got.String())
			assert.Equal(t, got, again)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		query string
		pos   int
	}{
		{"42", 0},
		{"", 0},
		{"SELECT", 6},
		{"SELECT * Win32_Process", 9},
		{"SELECT Name, FROM X", 13},
		{"SELECT * FROM X WHERE", 21},
		{"SELECT * FROM X WHERE A", 23},
		{"SELECT * FROM X WHERE A = ", 26},
		{`SELECT * FROM X WHERE A = "open`, 26},
		{"SELECT * FROM X WHERE A = 99999999999999999999", 26},
		{"SELECT * FROM X WHERE (A = 1", 28},
		{"SELECT * FROM X trailing", 16},
		{"SELECT * FROM X WHERE A = 1 ; DROP", 28},
		{"SELECT * FROM X WHERE A = - B", 28},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			_, err := Parse(tc.query)
			require.Error(t, err)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.pos, se.Pos)
		})
	}
}

func TestSelectString(t *testing.T) {
	sel := Select{
		Class:  "Win32_Process",
		Fields: []string{"Name"},
		Filter: And{Predicates: []Predicate{
			Equals{Field: "Name", Value: variant.String(`a"b`)},
			Or{Predicates: []Predicate{
				IsNull{Field: "ParentProcessId"},
				NotEquals{Field: "ProcessId", Value: variant.Int(0)},
			}},
		}},
	}
	assert.Equal(t,
		`SELECT Name FROM Win32_Process WHERE Name = 'a"b' AND (ParentProcessId IS NULL OR ProcessId <> 0)`,
		sel.String())
}

func TestFields(t *testing.T) {
	sel, err := Parse("SELECT * FROM X WHERE B = 1 AND (A = 2 OR B = 3) AND NOT C IS NULL")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, Fields(sel.Filter))
	assert.Nil(t, Fields(nil))
}

func TestResolve(t *testing.T) {
	declared := []string{"Name", "ProcessId", "Caption"}

	sel, err := Parse("SELECT name,PROCESSID,Name FROM Win32_Process WHERE caption = 'x'")
	require.NoError(t, err)
	got, err := Resolve(sel, declared)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "ProcessId"}, got)

	sel, err = Parse("SELECT * FROM Win32_Process")
	require.NoError(t, err)
	got, err = Resolve(sel, declared)
	require.NoError(t, err)
	assert.Equal(t, declared, got)

	sel, err = Parse("SELECT Missing FROM Win32_Process")
	require.NoError(t, err)
	_, err = Resolve(sel, declared)
	var upe *UnknownPropertyError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, "Missing", upe.Property)

	sel, err = Parse("SELECT * FROM Win32_Process WHERE Owner = 'me'")
	require.NoError(t, err)
	_, err = Resolve(sel, declared)
	assert.ErrorAs(t, err, &upe)
}
