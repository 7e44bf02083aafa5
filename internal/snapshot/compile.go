package snapshot

import (
	"fmt"
	"strings"

	"github.com/roach88/wmiq/internal/wql"
	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

// compileSelect converts a parsed query into parameterized SQL returning the
// ids and seqs of matching instances.
//
// Every query ends with ORDER BY seq, id so instances come back in capture
// order. Values are always bound as parameters, never interpolated.
func compileSelect(snapshotID string, sel wql.Select) (string, []any, error) {
	where := "i.snapshot_id = ? AND i.class = ?"
	params := []any{snapshotID, sel.Class}

	if sel.Filter != nil {
		filterSQL, filterParams, err := compilePredicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + filterSQL
		params = append(params, filterParams...)
	}

	sql := fmt.Sprintf("SELECT i.id, i.seq FROM instances i WHERE %s ORDER BY %s",
		where,
		stableOrderKey)
	return sql, params, nil
}

const stableOrderKey = "i.seq ASC, i.id ASC"

// compilePredicate compiles a predicate to a WHERE fragment over the
// instance alias i.
func compilePredicate(p wql.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case wql.Equals:
		return compileComparison(pred.Field, pred.Value, "")
	case wql.NotEquals:
		// A NULL property matches neither = nor <>.
		return compileComparison(pred.Field, pred.Value, "NOT ")
	case wql.IsNull:
		if pred.Negate {
			return existsProperty(pred.Field, "p.value <> 'null'", "")
		}
		return existsProperty(pred.Field, "p.value <> 'null'", "NOT ")
	case wql.And:
		return compileJunction(pred.Predicates, " AND ", "1 = 1")
	case wql.Or:
		return compileJunction(pred.Predicates, " OR ", "1 = 0")
	case wql.Not:
		sql, params, err := compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileComparison matches a property whose stored value equals one of the
// encodings of v. String comparison is case-insensitive, as in WQL.
func compileComparison(field string, v variant.Variant, negate string) (string, []any, error) {
	encodings, err := literalEncodings(v)
	if err != nil {
		return "", nil, fmt.Errorf("property %s: %w", field, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(encodings)), ", ")
	cond := fmt.Sprintf("p.value COLLATE NOCASE IN (%s)", placeholders)
	if negate != "" {
		cond = fmt.Sprintf("p.value <> 'null' AND p.value COLLATE NOCASE NOT IN (%s)", placeholders)
	}

	sql := "EXISTS (SELECT 1 FROM properties p WHERE p.instance_id = i.id AND p.name = ? AND " + cond + ")"
	params := []any{field}
	for _, enc := range encodings {
		params = append(params, enc)
	}
	return sql, params, nil
}

func existsProperty(field, cond, negate string) (string, []any, error) {
	sql := negate + "EXISTS (SELECT 1 FROM properties p WHERE p.instance_id = i.id AND p.name = ? AND " + cond + ")"
	return sql, []any{field}, nil
}

func compileJunction(preds []wql.Predicate, op, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	var parts []string
	var params []any
	for _, pred := range preds {
		sql, p, err := compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return "(" + strings.Join(parts, op) + ")", params, nil
}

// literalEncodings returns the stored forms a literal compares equal to.
// A string holding a CIM datetime also matches the timestamp it denotes.
func literalEncodings(v variant.Variant) ([]string, error) {
	data, err := variant.MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	out := []string{string(data)}

	if s, ok := v.(variant.String); ok && !wbem.IsInterval(string(s)) {
		if t, err := wbem.ParseDateTime(string(s)); err == nil {
			ts, err := variant.MarshalCanonical(variant.NewTime(t))
			if err != nil {
				return nil, err
			}
			out = append(out, string(ts))
		}
	}
	return out, nil
}
