package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Variant is a sealed interface over the decoded value cases.
// Only Null, Bool, Int, String, Time and Array implement it.
type Variant interface {
	variant() // Sealed
}

// Null represents an empty or null property value.
type Null struct{}

func (Null) variant() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Bool represents a boolean property value.
type Bool bool

func (Bool) variant() {}

// Int represents any integer-like property value.
// Always int64: signed, unsigned and small integer subtypes all normalize here.
type Int int64

func (Int) variant() {}

// String represents a text property value.
type String string

func (String) variant() {}

// Time represents a timestamp property value.
type Time struct {
	time.Time
}

func (Time) variant() {}

// NewTime creates a Time value.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// MarshalJSON renders the timestamp as an RFC 3339 string with nanoseconds.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Array represents an array-valued property.
type Array []Variant

func (Array) variant() {}

// MarshalJSON implements json.Marshaler for Array.
func (a Array) MarshalJSON() ([]byte, error) {
	return marshalArray(a)
}

// Kind returns the lowercase name of the active case, for diagnostics.
func Kind(v Variant) string {
	switch v.(type) {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case String:
		return "string"
	case Time:
		return "time"
	case Array:
		return "array"
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Equal reports whether a and b hold the same case and content.
// Timestamps compare with time.Time.Equal, so the same instant in different
// locations is equal.
func Equal(a, b Variant) bool {
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Time:
		bv, ok := b.(Time)
		return ok && av.Time.Equal(bv.Time)
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MarshalValue marshals a Variant to JSON bytes.
// NOTE: This is NOT canonical marshaling. Use MarshalCanonical for golden
// files and snapshot storage.
func MarshalValue(v Variant) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return json.Marshal(int64(val))
	case String:
		return json.Marshal(string(val))
	case Time:
		return val.MarshalJSON()
	case Array:
		return marshalArray(val)
	default:
		return nil, fmt.Errorf("unknown Variant type: %T", v)
	}
}

func marshalArray(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalValue decodes plain JSON into a Variant.
// Strings always decode to String (JSON carries no timestamp type; callers
// holding type information convert with ParseTime). Objects and
// non-integral numbers are rejected.
func UnmarshalValue(data []byte) (Variant, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// ParseTime converts a String holding an RFC 3339 timestamp into Time.
// Arrays are converted element-wise; Null passes through.
func ParseTime(v Variant) (Variant, error) {
	switch val := v.(type) {
	case Null, Time:
		return val, nil
	case String:
		t, err := time.Parse(time.RFC3339Nano, string(val))
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", string(val), err)
		}
		return NewTime(t), nil
	case Array:
		out := make(Array, len(val))
		for i, elem := range val {
			conv, err := ParseTime(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = conv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot convert %s to time", Kind(v))
	}
}
