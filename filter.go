package wmiq

import (
	"fmt"
	"reflect"
	"strconv"
)

// FilterValue is the right-hand side of a WHERE condition.
//
// The cases are Bool, Number, Str and Stringer.
type FilterValue interface {
	literal() string
}

// Bool renders as the bare word true or false.
type Bool bool

// Number renders as decimal digits.
type Number int64

// Str renders double-quoted, without escaping.
type Str string

// Stringer renders the result of String, double-quoted, without escaping.
// A nil Stringer, including a typed nil pointer, renders as "".
type Stringer struct {
	fmt.Stringer
}

func (b Bool) literal() string   { return strconv.FormatBool(bool(b)) }
func (n Number) literal() string { return strconv.FormatInt(int64(n), 10) }
func (s Str) literal() string    { return `"` + string(s) + `"` }

func (s Stringer) literal() string {
	if s.Stringer == nil {
		return `""`
	}
	if rv := reflect.ValueOf(s.Stringer); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return `""`
	}
	return `"` + s.String() + `"`
}

// ParseFilterValue infers a FilterValue from command-line text: true and
// false become Bool, decimal integers become Number, anything else is Str.
func ParseFilterValue(text string) FilterValue {
	switch text {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Number(n)
	}
	return Str(text)
}
