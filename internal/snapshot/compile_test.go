package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wmiq/internal/wql"
	"github.com/roach88/wmiq/variant"
)

const (
	selectPrefix = "SELECT i.id, i.seq FROM instances i WHERE i.snapshot_id = ? AND i.class = ?"
	orderSuffix  = " ORDER BY i.seq ASC, i.id ASC"
	propMatch    = "EXISTS (SELECT 1 FROM properties p WHERE p.instance_id = i.id AND p.name = ? AND "
)

func TestCompileSelect(t *testing.T) {
	tests := []struct {
		name       string
		filter     wql.Predicate
		wantSQL    string
		wantParams []any
	}{
		{
			name:       "no filter",
			wantSQL:    selectPrefix + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process"},
		},
		{
			name:       "string equality",
			filter:     wql.Equals{Field: "Name", Value: variant.String("System")},
			wantSQL:    selectPrefix + " AND " + propMatch + "p.value COLLATE NOCASE IN (?))" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process", "Name", `"System"`},
		},
		{
			name:       "datetime literal also matches timestamp",
			filter:     wql.Equals{Field: "CreationDate", Value: variant.String("20230101120000.000000+000")},
			wantSQL:    selectPrefix + " AND " + propMatch + "p.value COLLATE NOCASE IN (?, ?))" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process", "CreationDate", `"20230101120000.000000+000"`, `"2023-01-01T12:00:00Z"`},
		},
		{
			name:    "not equals skips null",
			filter:  wql.NotEquals{Field: "ProcessId", Value: variant.Int(4)},
			wantSQL: selectPrefix + " AND " + propMatch + "p.value <> 'null' AND p.value COLLATE NOCASE NOT IN (?))" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process", "ProcessId", "4"},
		},
		{
			name:       "is null",
			filter:     wql.IsNull{Field: "CommandLine"},
			wantSQL:    selectPrefix + " AND NOT " + propMatch + "p.value <> 'null')" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process", "CommandLine"},
		},
		{
			name:       "is not null",
			filter:     wql.IsNull{Field: "CommandLine", Negate: true},
			wantSQL:    selectPrefix + " AND " + propMatch + "p.value <> 'null')" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process", "CommandLine"},
		},
		{
			name: "conjunction",
			filter: wql.And{Predicates: []wql.Predicate{
				wql.Equals{Field: "A", Value: variant.Bool(true)},
				wql.Not{Predicate: wql.Equals{Field: "B", Value: variant.Int(1)}},
			}},
			wantSQL: selectPrefix + " AND (" +
				propMatch + "p.value COLLATE NOCASE IN (?))" +
				" AND NOT (" + propMatch + "p.value COLLATE NOCASE IN (?))))" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process", "A", "true", "B", "1"},
		},
		{
			name:       "empty disjunction never matches",
			filter:     wql.Or{},
			wantSQL:    selectPrefix + " AND 1 = 0" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process"},
		},
		{
			name:       "empty conjunction always matches",
			filter:     wql.And{},
			wantSQL:    selectPrefix + " AND 1 = 1" + orderSuffix,
			wantParams: []any{"snap-1", "Win32_Process"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := compileSelect("snap-1", wql.Select{Class: "Win32_Process", Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompileSelect_AlwaysOrdered(t *testing.T) {
	filters := []wql.Predicate{
		nil,
		wql.Equals{Field: "Name", Value: variant.String("x")},
		wql.Or{Predicates: []wql.Predicate{wql.IsNull{Field: "A"}, wql.IsNull{Field: "B"}}},
	}
	for _, f := range filters {
		sql, _, err := compileSelect("s", wql.Select{Class: "C", Filter: f})
		require.NoError(t, err)
		assert.Contains(t, sql, "ORDER BY i.seq ASC, i.id ASC")
	}
}

func TestCompileSelect_ValuesNeverInterpolated(t *testing.T) {
	injection := `x'); DROP TABLE snapshots; --`
	sql, params, err := compileSelect("s", wql.Select{
		Class:  "C",
		Filter: wql.Equals{Field: "Name", Value: variant.String(injection)},
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP TABLE")
	assert.Contains(t, params, `"x'); DROP TABLE snapshots; --"`)
}
