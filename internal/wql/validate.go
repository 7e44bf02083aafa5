package wql

import (
	"fmt"
	"strings"
)

// UnknownPropertyError reports a property the class does not declare.
type UnknownPropertyError struct {
	Class    string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("class %s has no property %q", e.Class, e.Property)
}

// Resolve checks every property referenced by sel against the declared
// properties of its class, comparing names case-insensitively, and returns
// the selected properties spelled as declared. SELECT * resolves to every
// declared property in declaration order.
func Resolve(sel Select, declared []string) ([]string, error) {
	canonical := make(map[string]string, len(declared))
	for _, name := range declared {
		canonical[strings.ToLower(name)] = name
	}

	for _, name := range Fields(sel.Filter) {
		if _, ok := canonical[strings.ToLower(name)]; !ok {
			return nil, &UnknownPropertyError{Class: sel.Class, Property: name}
		}
	}

	if sel.Star() {
		return append([]string(nil), declared...), nil
	}

	out := make([]string, 0, len(sel.Fields))
	seen := make(map[string]bool)
	for _, name := range sel.Fields {
		spelled, ok := canonical[strings.ToLower(name)]
		if !ok {
			return nil, &UnknownPropertyError{Class: sel.Class, Property: name}
		}
		if !seen[spelled] {
			seen[spelled] = true
			out = append(out, spelled)
		}
	}
	return out, nil
}
