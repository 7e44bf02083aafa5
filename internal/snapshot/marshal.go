package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

// marshalValue converts a property value to canonical JSON TEXT and the
// CIM type it would be reported with.
func marshalValue(v variant.Variant) (string, wbem.CIMType, error) {
	data, err := variant.MarshalCanonical(v)
	if err != nil {
		return "", 0, fmt.Errorf("marshal value: %w", err)
	}
	return string(data), wbem.FromVariant(v).CIM, nil
}

// unmarshalValue parses canonical JSON TEXT. Timestamps are stored as
// RFC 3339 strings and restored from the CIM type.
func unmarshalValue(data string, cim wbem.CIMType) (variant.Variant, error) {
	v, err := variant.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	if cim&^wbem.CIM_FLAG_ARRAY == wbem.CIM_DATETIME {
		if v, err = variant.ParseTime(v); err != nil {
			return nil, fmt.Errorf("unmarshal value: %w", err)
		}
	}
	return v, nil
}

// marshalNames stores an ordered property name list as a JSON array.
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal property names: %w", err)
	}
	return string(data), nil
}

func unmarshalNames(data string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal property names: %w", err)
	}
	return names, nil
}

// mergeNames appends the names in add that are not in base yet, comparing
// case-insensitively.
func mergeNames(base []string, add ...string) []string {
	seen := make(map[string]bool, len(base))
	for _, n := range base {
		seen[strings.ToLower(n)] = true
	}
	for _, n := range add {
		if key := strings.ToLower(n); !seen[key] {
			seen[key] = true
			base = append(base, n)
		}
	}
	return base
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
