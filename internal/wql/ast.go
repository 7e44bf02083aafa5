package wql

import "github.com/roach88/wmiq/variant"

// Predicate is a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Select is a parsed query.
//
//	SELECT <Fields> FROM <Class> WHERE <Filter>
type Select struct {
	Class  string
	Fields []string  // nil means every property (SELECT *)
	Filter Predicate // nil means no WHERE clause
}

// Star reports whether the query selects every property.
func (s Select) Star() bool { return s.Fields == nil }

// Equals is "<Field> = <Value>". Value is never variant.Null; comparing
// with NULL parses as IsNull.
type Equals struct {
	Field string
	Value variant.Variant
}

// NotEquals is "<Field> <> <Value>". A NULL property never matches.
type NotEquals struct {
	Field string
	Value variant.Variant
}

// IsNull is "<Field> IS NULL", or "<Field> IS NOT NULL" when Negate is set.
type IsNull struct {
	Field  string
	Negate bool
}

// And holds when every predicate holds. Empty is always true.
type And struct {
	Predicates []Predicate
}

// Or holds when any predicate holds.
type Or struct {
	Predicates []Predicate
}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Equals) predicateNode()    {}
func (NotEquals) predicateNode() {}
func (IsNull) predicateNode()    {}
func (And) predicateNode()       {}
func (Or) predicateNode()        {}
func (Not) predicateNode()       {}

// Fields returns every property name referenced by p, in first-use order,
// without duplicates.
func Fields(p Predicate) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(Predicate)
	walk = func(p Predicate) {
		add := func(name string) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
		switch n := p.(type) {
		case Equals:
			add(n.Field)
		case NotEquals:
			add(n.Field)
		case IsNull:
			add(n.Field)
		case And:
			for _, sub := range n.Predicates {
				walk(sub)
			}
		case Or:
			for _, sub := range n.Predicates {
				walk(sub)
			}
		case Not:
			walk(n.Predicate)
		}
	}
	if p != nil {
		walk(p)
	}
	return out
}
