package variant

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// FromAny converts a plain Go value into a Variant.
//
// Accepted inputs are what YAML, CUE and JSON decoders produce: nil, bool,
// string, any integer type, integral floats, json.Number, time.Time and
// []any of those. Maps are rejected (no object-valued properties), as are
// fractional numbers and unsigned values above math.MaxInt64.
func FromAny(v any) (Variant, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Variant:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint:
		return fromUint(uint64(val))
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint64:
		return fromUint(val)
	case float32:
		return fromFloat(float64(val))
	case float64:
		return fromFloat(val)
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are not supported: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case time.Time:
		return NewTime(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		return nil, fmt.Errorf("object-valued properties are not supported")
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func fromUint(u uint64) (Variant, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("unsigned value %d overflows int64", u)
	}
	return Int(u), nil
}

// fromFloat accepts floats only when they hold an exact integer, which is
// how YAML and CUE decoders sometimes hand back whole numbers.
func fromFloat(f float64) (Variant, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return nil, fmt.Errorf("floats are not supported: %v", f)
	}
	return Int(int64(f)), nil
}

// ToAny converts a Variant into a plain Go value.
// Null becomes nil, Int becomes int64, Time becomes time.Time and Array
// becomes []any.
func ToAny(v Variant) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case String:
		return string(val)
	case Time:
		return val.Time
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}
