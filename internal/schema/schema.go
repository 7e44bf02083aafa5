// Package schema derives the provider class name and ordered property list
// of a Go record type.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ErrNotStruct is returned for targets that are not struct types.
var ErrNotStruct = errors.New("schema target is not a struct")

// ErrUnexportedEmbed is returned for an embedded pointer to an unexported
// struct type. Reflection cannot allocate it, so its fields are unreachable.
var ErrUnexportedEmbed = errors.New("cannot set embedded pointer to unexported struct")

// ClassNamer overrides the class name of a record type.
type ClassNamer interface {
	WMIClass() string
}

// TagName is the struct tag consulted for property names.
const TagName = "wmi"

// Field maps one provider property onto a struct field.
type Field struct {
	// Name is the provider property name.
	Name string
	// Index is the reflect.Value.FieldByIndex path of the field.
	Index []int
}

// Schema is the class name and ordered fields of a record type.
type Schema struct {
	Class  string
	Fields []Field
}

// Names returns the property names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

var cache sync.Map // reflect.Type -> Schema

// For returns the schema of T.
func For[T any]() (Schema, error) {
	return Of(reflect.TypeFor[T]())
}

// Of returns the schema of t. Pointer types are dereferenced. Results are
// cached per type and must not be modified.
func Of(t reflect.Type) (Schema, error) {
	if t == nil {
		return Schema{}, ErrNotStruct
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := cache.Load(t); ok {
		return cached.(Schema), nil
	}
	if t.Kind() != reflect.Struct {
		return Schema{}, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	s := Schema{Class: className(t)}
	seen := make(map[string]bool)
	if err := collect(t, nil, seen, &s.Fields); err != nil {
		return Schema{}, err
	}

	actual, _ := cache.LoadOrStore(t, s)
	return actual.(Schema), nil
}

var classNamerType = reflect.TypeFor[ClassNamer]()

func className(t reflect.Type) string {
	switch {
	case t.Implements(classNamerType):
		return reflect.Zero(t).Interface().(ClassNamer).WMIClass()
	case reflect.PointerTo(t).Implements(classNamerType):
		return reflect.New(t).Interface().(ClassNamer).WMIClass()
	}
	return t.Name()
}

func collect(t reflect.Type, prefix []int, seen map[string]bool, out *[]Field) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}

		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && !hasTag {
			ft := sf.Type
			ptr := ft.Kind() == reflect.Pointer
			if ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if ptr && !sf.IsExported() {
					return fmt.Errorf("%s: %w %s", t, ErrUnexportedEmbed, ft)
				}
				if err := collect(ft, index, seen, out); err != nil {
					return err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}

		name := sf.Name
		if tag != "" {
			name, _, _ = strings.Cut(tag, ",")
		}
		if name == "" {
			name = sf.Name
		}

		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("%s: duplicate property %q", t, name)
		}
		seen[key] = true
		*out = append(*out, Field{Name: name, Index: index})
	}
	return nil
}
