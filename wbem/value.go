package wbem

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/roach88/wmiq/variant"
)

// VarType is the dynamic type tag of a property value.
type VarType uint16

// Value type tags.
const (
	VT_EMPTY    VarType = 0
	VT_NULL     VarType = 1
	VT_I2       VarType = 2
	VT_I4       VarType = 3
	VT_R4       VarType = 4
	VT_R8       VarType = 5
	VT_CY       VarType = 6
	VT_DATE     VarType = 7
	VT_BSTR     VarType = 8
	VT_DISPATCH VarType = 9
	VT_ERROR    VarType = 10
	VT_BOOL     VarType = 11
	VT_VARIANT  VarType = 12
	VT_UNKNOWN  VarType = 13
	VT_DECIMAL  VarType = 14
	VT_I1       VarType = 16
	VT_UI1      VarType = 17
	VT_UI2      VarType = 18
	VT_UI4      VarType = 19
	VT_I8       VarType = 20
	VT_UI8      VarType = 21
	VT_INT      VarType = 22
	VT_UINT     VarType = 23
	VT_ARRAY    VarType = 0x2000
)

var varTypeNames = map[VarType]string{
	VT_EMPTY: "VT_EMPTY", VT_NULL: "VT_NULL", VT_I2: "VT_I2", VT_I4: "VT_I4",
	VT_R4: "VT_R4", VT_R8: "VT_R8", VT_CY: "VT_CY", VT_DATE: "VT_DATE",
	VT_BSTR: "VT_BSTR", VT_DISPATCH: "VT_DISPATCH", VT_ERROR: "VT_ERROR",
	VT_BOOL: "VT_BOOL", VT_VARIANT: "VT_VARIANT", VT_UNKNOWN: "VT_UNKNOWN",
	VT_DECIMAL: "VT_DECIMAL", VT_I1: "VT_I1", VT_UI1: "VT_UI1", VT_UI2: "VT_UI2",
	VT_UI4: "VT_UI4", VT_I8: "VT_I8", VT_UI8: "VT_UI8", VT_INT: "VT_INT",
	VT_UINT: "VT_UINT",
}

func (vt VarType) String() string {
	if vt&VT_ARRAY != 0 {
		return "VT_ARRAY|" + (vt &^ VT_ARRAY).String()
	}
	if name, ok := varTypeNames[vt]; ok {
		return name
	}
	return fmt.Sprintf("VT(%d)", uint16(vt))
}

// CIMType is the declared schema type of a property, reported alongside
// its value.
type CIMType int32

// CIM property types.
const (
	CIM_EMPTY      CIMType = 0
	CIM_SINT16     CIMType = 2
	CIM_SINT32     CIMType = 3
	CIM_REAL32     CIMType = 4
	CIM_REAL64     CIMType = 5
	CIM_STRING     CIMType = 8
	CIM_BOOLEAN    CIMType = 11
	CIM_OBJECT     CIMType = 13
	CIM_SINT8      CIMType = 16
	CIM_UINT8      CIMType = 17
	CIM_UINT16     CIMType = 18
	CIM_UINT32     CIMType = 19
	CIM_SINT64     CIMType = 20
	CIM_UINT64     CIMType = 21
	CIM_DATETIME   CIMType = 101
	CIM_REFERENCE  CIMType = 102
	CIM_CHAR16     CIMType = 103
	CIM_FLAG_ARRAY CIMType = 0x2000
)

// RawValue is one property value as the provider hands it over.
//
// Val holds the Go form of the payload: a Go integer for the integer tags,
// bool (or int16 VARIANT_BOOL) for VT_BOOL, string for VT_BSTR, float32 or
// float64 for VT_R4/VT_R8, time.Time for VT_DATE and nil for VT_EMPTY and
// VT_NULL. For VT_ARRAY|t, Val is a []any of element payloads of tag t;
// for VT_ARRAY|VT_VARIANT the elements are RawValue.
type RawValue struct {
	VT  VarType
	CIM CIMType
	Val any
}

// ErrUnsupportedType is returned for value tags that have no Variant case.
var ErrUnsupportedType = errors.New("unsupported property type")

// ToVariant decodes a RawValue into a Variant.
//
// Every integer subtype becomes variant.Int; unsigned values above
// math.MaxInt64 fail. 64-bit integers transported as text (CIM_SINT64 and
// CIM_UINT64 inside VT_BSTR) are parsed into Int as well. VT_BOOL becomes
// Bool. VT_BSTR becomes String, or Time when the CIM type is
// CIM_DATETIME. Floating-point tags, embedded objects and unknown tags fail
// with ErrUnsupportedType.
func ToVariant(raw RawValue) (variant.Variant, error) {
	if raw.VT&VT_ARRAY != 0 {
		return arrayToVariant(raw)
	}

	switch raw.VT {
	case VT_EMPTY, VT_NULL:
		return variant.Null{}, nil

	case VT_BOOL:
		switch b := raw.Val.(type) {
		case bool:
			return variant.Bool(b), nil
		case int16:
			return variant.Bool(b != 0), nil
		}
		return nil, payloadError(raw)

	case VT_I1, VT_I2, VT_I4, VT_I8, VT_INT, VT_UI1, VT_UI2, VT_UI4, VT_UI8, VT_UINT:
		n, err := toInt64(raw.Val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", raw.VT, err)
		}
		return variant.Int(n), nil

	case VT_BSTR:
		s, ok := raw.Val.(string)
		if !ok {
			return nil, payloadError(raw)
		}
		switch raw.CIM &^ CIM_FLAG_ARRAY {
		case CIM_DATETIME:
			if IsInterval(s) {
				return variant.String(s), nil
			}
			t, err := ParseDateTime(s)
			if err != nil {
				return nil, err
			}
			return variant.NewTime(t), nil
		case CIM_SINT64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("CIM_SINT64 %q: %w", s, err)
			}
			return variant.Int(n), nil
		case CIM_UINT64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("CIM_UINT64 %q: %w", s, err)
			}
			return variant.Int(n), nil
		}
		return variant.String(s), nil

	case VT_DATE:
		t, ok := raw.Val.(time.Time)
		if !ok {
			return nil, payloadError(raw)
		}
		return variant.NewTime(t), nil

	case VT_R4, VT_R8:
		return nil, fmt.Errorf("%w: %s (floating-point properties are not supported)", ErrUnsupportedType, raw.VT)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, raw.VT)
	}
}

func arrayToVariant(raw RawValue) (variant.Variant, error) {
	elems, ok := raw.Val.([]any)
	if !ok {
		if raw.Val == nil {
			return variant.Null{}, nil
		}
		return nil, payloadError(raw)
	}

	elemVT := raw.VT &^ VT_ARRAY
	elemCIM := raw.CIM &^ CIM_FLAG_ARRAY
	arr := make(variant.Array, len(elems))
	for i, elem := range elems {
		var er RawValue
		if elemVT == VT_VARIANT {
			r, ok := elem.(RawValue)
			if !ok {
				return nil, fmt.Errorf("array[%d]: VT_VARIANT element holds %T", i, elem)
			}
			er = r
		} else {
			er = RawValue{VT: elemVT, CIM: elemCIM, Val: elem}
		}

		v, err := ToVariant(er)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		arr[i] = v
	}
	return arr, nil
}

func payloadError(raw RawValue) error {
	return fmt.Errorf("%s value holds unexpected payload %T", raw.VT, raw.Val)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, fmt.Errorf("unsigned value %d overflows int64", n)
		}
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("unsigned value %d overflows int64", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected integer payload %T", v)
	}
}

// FromVariant encodes a Variant as the provider would report it. It is the
// inverse of ToVariant and is used by in-process providers.
//
// Int is reported as VT_I8/CIM_SINT64 and Time as a CIM_DATETIME string.
// Arrays whose elements share one tag become VT_ARRAY of that tag; mixed
// or empty arrays become VT_ARRAY|VT_VARIANT.
func FromVariant(v variant.Variant) RawValue {
	switch val := v.(type) {
	case variant.Bool:
		return RawValue{VT: VT_BOOL, CIM: CIM_BOOLEAN, Val: bool(val)}
	case variant.Int:
		return RawValue{VT: VT_I8, CIM: CIM_SINT64, Val: int64(val)}
	case variant.String:
		return RawValue{VT: VT_BSTR, CIM: CIM_STRING, Val: string(val)}
	case variant.Time:
		return RawValue{VT: VT_BSTR, CIM: CIM_DATETIME, Val: FormatDateTime(val.Time)}
	case variant.Array:
		return arrayFromVariant(val)
	default:
		return RawValue{VT: VT_NULL}
	}
}

func arrayFromVariant(arr variant.Array) RawValue {
	elems := make([]RawValue, len(arr))
	uniform := len(arr) > 0
	for i, v := range arr {
		elems[i] = FromVariant(v)
		if elems[i].VT == VT_NULL || elems[i].VT&VT_ARRAY != 0 {
			uniform = false
		}
		if i > 0 && (elems[i].VT != elems[0].VT || elems[i].CIM != elems[0].CIM) {
			uniform = false
		}
	}

	vals := make([]any, len(elems))
	if uniform {
		for i, e := range elems {
			vals[i] = e.Val
		}
		return RawValue{VT: VT_ARRAY | elems[0].VT, CIM: CIM_FLAG_ARRAY | elems[0].CIM, Val: vals}
	}

	for i, e := range elems {
		vals[i] = e
	}
	return RawValue{VT: VT_ARRAY | VT_VARIANT, CIM: CIM_FLAG_ARRAY, Val: vals}
}
