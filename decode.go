package wmiq

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/roach88/wmiq/internal/schema"
	"github.com/roach88/wmiq/variant"
)

var (
	variantType = reflect.TypeFor[variant.Variant]()
	timeType    = reflect.TypeFor[time.Time]()
)

// Decode fills dst from obj.
//
// dst is a pointer to a struct, a variant.Object, a
// map[string]variant.Variant or a map[string]any. A struct receives one
// property per schema field and every field must be present on the object;
// the generic targets receive every non-system property in provider order.
func Decode(obj *ClassObject, dst any) error {
	switch d := dst.(type) {
	case *variant.Object:
		if d == nil {
			return nilDestination(dst)
		}
		return decodeObject(obj, d)
	case *map[string]variant.Variant:
		if d == nil {
			return nilDestination(dst)
		}
		props := variant.NewObject(0)
		if err := decodeObject(obj, props); err != nil {
			return err
		}
		*d = props.Map()
		return nil
	case *map[string]any:
		if d == nil {
			return nilDestination(dst)
		}
		props := variant.NewObject(0)
		if err := decodeObject(obj, props); err != nil {
			return err
		}
		m := make(map[string]any, props.Len())
		for name, v := range props.All() {
			m[name] = variant.ToAny(v)
		}
		*d = m
		return nil
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nilDestination(dst)
	}
	s, err := schema.Of(rv.Type().Elem())
	if err != nil {
		return &QueryError{Kind: KindDecode, Err: err}
	}

	elem := rv.Elem()
	for _, f := range s.Fields {
		v, err := obj.Get(f.Name)
		if err != nil {
			return err
		}
		if err := assign(fieldByIndex(elem, f.Index), v); err != nil {
			return &QueryError{Kind: KindDecode, Property: f.Name, Err: err}
		}
	}
	return nil
}

func nilDestination(dst any) error {
	return &QueryError{Kind: KindDecode, Err: fmt.Errorf("destination must be a non-nil pointer, got %T", dst)}
}

func decodeObject(obj *ClassObject, dst *variant.Object) error {
	names, err := obj.PropertyNames()
	if err != nil {
		return err
	}

	*dst = variant.Object{}
	for _, name := range names {
		v, err := obj.Get(name)
		if err != nil {
			return err
		}
		dst.Set(name, v)
	}
	return nil
}

// fieldByIndex walks index, allocating nil embedded struct pointers.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

var errNull = errors.New("null value for non-nullable field")

func assign(dst reflect.Value, v variant.Variant) error {
	t := dst.Type()

	if t == variantType {
		dst.Set(reflect.ValueOf(v))
		return nil
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		if a := variant.ToAny(v); a != nil {
			dst.Set(reflect.ValueOf(a))
		} else {
			dst.SetZero()
		}
		return nil
	}

	if _, null := v.(variant.Null); null {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice:
			dst.SetZero()
			return nil
		}
		return fmt.Errorf("%w %s", errNull, t)
	}

	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}

	if t == timeType {
		tv, ok := v.(variant.Time)
		if !ok {
			return mismatch(v, t)
		}
		dst.Set(reflect.ValueOf(tv.Time))
		return nil
	}

	switch t.Kind() {
	case reflect.String:
		s, ok := v.(variant.String)
		if !ok {
			return mismatch(v, t)
		}
		dst.SetString(string(s))

	case reflect.Bool:
		b, ok := v.(variant.Bool)
		if !ok {
			return mismatch(v, t)
		}
		dst.SetBool(bool(b))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.(variant.Int)
		if !ok {
			return mismatch(v, t)
		}
		if dst.OverflowInt(int64(n)) {
			return fmt.Errorf("value %d overflows %s", n, t)
		}
		dst.SetInt(int64(n))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := v.(variant.Int)
		if !ok {
			return mismatch(v, t)
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("value %d overflows %s", n, t)
		}
		dst.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		n, ok := v.(variant.Int)
		if !ok {
			return mismatch(v, t)
		}
		dst.SetFloat(float64(n))

	case reflect.Slice:
		arr, ok := v.(variant.Array)
		if !ok {
			return mismatch(v, t)
		}
		out := reflect.MakeSlice(t, len(arr), len(arr))
		for i, elem := range arr {
			if err := assign(out.Index(i), elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)

	default:
		return fmt.Errorf("unsupported field type %s", t)
	}
	return nil
}

func mismatch(v variant.Variant, t reflect.Type) error {
	return fmt.Errorf("cannot decode %s value into %s", variant.Kind(v), t)
}
