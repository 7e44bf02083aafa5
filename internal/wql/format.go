package wql

import (
	"strconv"
	"strings"

	"github.com/roach88/wmiq/variant"
)

// String renders the query back to WQL. Parsing the result yields an equal
// Select.
func (s Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if s.Star() {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(s.Fields, ","))
	}
	b.WriteString(" FROM ")
	b.WriteString(s.Class)
	if s.Filter != nil {
		b.WriteString(" WHERE ")
		writePredicate(&b, s.Filter, false)
	}
	return b.String()
}

func writePredicate(b *strings.Builder, p Predicate, nested bool) {
	switch n := p.(type) {
	case Equals:
		b.WriteString(n.Field + " = " + literal(n.Value))
	case NotEquals:
		b.WriteString(n.Field + " <> " + literal(n.Value))
	case IsNull:
		if n.Negate {
			b.WriteString(n.Field + " IS NOT NULL")
		} else {
			b.WriteString(n.Field + " IS NULL")
		}
	case And:
		writeList(b, n.Predicates, " AND ", nested)
	case Or:
		writeList(b, n.Predicates, " OR ", nested)
	case Not:
		b.WriteString("NOT ")
		writePredicate(b, n.Predicate, true)
	}
}

func writeList(b *strings.Builder, preds []Predicate, sep string, nested bool) {
	if nested {
		b.WriteString("(")
	}
	for i, sub := range preds {
		if i > 0 {
			b.WriteString(sep)
		}
		writePredicate(b, sub, true)
	}
	if nested {
		b.WriteString(")")
	}
}

func literal(v variant.Variant) string {
	switch val := v.(type) {
	case variant.Bool:
		return strconv.FormatBool(bool(val))
	case variant.Int:
		return strconv.FormatInt(int64(val), 10)
	case variant.String:
		if strings.Contains(string(val), `"`) {
			return "'" + string(val) + "'"
		}
		return `"` + string(val) + `"`
	default:
		return "NULL"
	}
}
