package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
	"unicode/utf16"
)

// Object is an ordered mapping of property name to Variant.
// Iteration follows insertion order. The zero value is an empty Object
// ready to use.
type Object struct {
	keys   []string
	values map[string]Variant
}

// NewObject creates an empty Object with room for n properties.
func NewObject(n int) *Object {
	return &Object{
		keys:   make([]string, 0, n),
		values: make(map[string]Variant, n),
	}
}

// Set stores v under name. Replacing an existing name keeps its position.
func (o *Object) Set(name string, v Variant) {
	if o.values == nil {
		o.values = make(map[string]Variant)
	}
	if _, exists := o.values[name]; !exists {
		o.keys = append(o.keys, name)
	}
	o.values[name] = v
}

// Get returns the value stored under name.
func (o *Object) Get(name string) (Variant, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[name]
	return v, ok
}

// Len returns the number of properties.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// All iterates name/value pairs in insertion order.
func (o *Object) All() iter.Seq2[string, Variant] {
	return func(yield func(string, Variant) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.values[k]) {
				return
			}
		}
	}
}

// Map returns an unordered copy of the properties.
func (o *Object) Map() map[string]Variant {
	m := make(map[string]Variant, o.Len())
	for k, v := range o.All() {
		m[k] = v
	}
	return m
}

// SortedKeys returns keys ordered by UTF-16 code units (RFC 8785 order).
// Go's sort.Strings compares UTF-8 bytes, which differs for astral characters.
func (o *Object) SortedKeys() []string {
	keys := o.Keys()
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings using UTF-16 code unit ordering.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// MarshalJSON renders the Object with keys in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	i := 0
	for k, v := range o.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
