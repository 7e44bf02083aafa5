package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for a Variant or an *Object.
//
// Differences from MarshalValue:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Timestamps are rendered in UTC
//
// Golden files and snapshot rows rely on this being byte-stable.
func MarshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case *Object:
		return marshalCanonicalObject(val)
	case Variant:
		return marshalCanonical(val)
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonical(v Variant) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case Bool:
		return strconv.AppendBool(nil, bool(val)), nil
	case Int:
		return strconv.AppendInt(nil, int64(val), 10), nil
	case String:
		return marshalCanonicalString(string(val))
	case Time:
		return marshalCanonicalString(val.Time.UTC().Format(time.RFC3339Nano))
	case Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			elemBytes, err := marshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(elemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown Variant type: %T", v)
	}
}

func marshalCanonicalObject(obj *Object) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		v, _ := obj.Get(k)
		valBytes, err := marshalCanonical(v)
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalCanonicalString produces a JSON string with NFC normalization and
// without HTML escaping. U+2028 and U+2029 are emitted literally.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds trailing newline
	result := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the encoder's \u2028 and \u2029 escapes back
// into literal characters. An escape preceded by an odd run of backslashes
// is literal text (\\u2028) and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c == '\\' && backslashes%2 == 0 && i+5 < len(data) &&
			string(data[i+1:i+5]) == "u202" && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if c == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, c)
	}
	return out
}
