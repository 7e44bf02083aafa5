package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

// Fixture is a hand-written snapshot: classes and their instances.
type Fixture struct {
	Snapshot  string
	Host      string
	Namespace string
	Classes   []FixtureClass
}

// FixtureClass holds the instances of one class. Properties optionally
// fixes the declared property order; names only found on instances are
// appended.
type FixtureClass struct {
	Name       string
	Properties []string
	Instances  []*variant.Object
}

// FixtureError reports an invalid fixture with its source position.
type FixtureError struct {
	Field   string
	Message string
	Pos     token.Pos
	// Line is used for YAML sources, which carry no token.Pos.
	Line int
}

func (e *FixtureError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFixture reads a fixture file. The format follows the extension:
// .yaml or .yml for YAML, .cue for CUE.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fx *Fixture
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		fx, err = ParseYAMLFixture(data)
	case ".cue":
		fx, err = ParseCUEFixture(path, data)
	default:
		return nil, fmt.Errorf("unsupported fixture format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return fx, nil
}

func validateFixture(fx *Fixture) error {
	if fx.Snapshot == "" {
		return &FixtureError{Field: "snapshot", Message: "snapshot name is required"}
	}
	seen := make(map[string]bool)
	for _, c := range fx.Classes {
		key := strings.ToLower(c.Name)
		if c.Name == "" {
			return &FixtureError{Field: "classes", Message: "class name is required"}
		}
		if seen[key] {
			return &FixtureError{Field: "classes", Message: fmt.Sprintf("duplicate class %s", c.Name)}
		}
		seen[key] = true
	}
	return nil
}

// Import stores a fixture as a new snapshot created at the given time.
func Import(ctx context.Context, store *Store, fx *Fixture, ids IDGenerator, at time.Time) (Snapshot, error) {
	if err := validateFixture(fx); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		ID:        ids.Generate(),
		Name:      fx.Snapshot,
		Host:      fx.Host,
		Namespace: fx.Namespace,
		CreatedAt: at,
	}
	if err := store.CreateSnapshot(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	for _, c := range fx.Classes {
		if err := store.WriteInstances(ctx, snap.ID, c.Name, c.Properties, c.Instances); err != nil {
			return Snapshot{}, fmt.Errorf("import %s: %w", fx.Snapshot, err)
		}
	}
	return snap, nil
}

// parseDateTime accepts a CIM datetime or an RFC 3339 timestamp.
func parseDateTime(s string) (variant.Time, error) {
	if t, err := wbem.ParseDateTime(s); err == nil {
		return variant.NewTime(t), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return variant.Time{}, fmt.Errorf("invalid datetime %q: want CIM or RFC 3339 format", s)
	}
	return variant.NewTime(t), nil
}

// YAML fixtures:
//
//	snapshot: demo
//	host: WORKSTATION
//	classes:
//	  - name: Win32_OperatingSystem
//	    properties: [Caption, InstallDate]
//	    instances:
//	      - Caption: Microsoft Windows 11 Pro
//	        InstallDate: !datetime 20230101120000.000000+000
//
// Instance mappings keep their key order. Timestamps are written with the
// !datetime tag or as plain YAML timestamps.

type yamlFixture struct {
	Snapshot  string      `yaml:"snapshot"`
	Host      string      `yaml:"host"`
	Namespace string      `yaml:"namespace"`
	Classes   []yamlClass `yaml:"classes"`
}

type yamlClass struct {
	Name       string      `yaml:"name"`
	Properties []string    `yaml:"properties,omitempty"`
	Instances  []yaml.Node `yaml:"instances"`
}

const datetimeTag = "!datetime"

// ParseYAMLFixture parses a YAML fixture document.
func ParseYAMLFixture(data []byte) (*Fixture, error) {
	var raw yamlFixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	fx := &Fixture{Snapshot: raw.Snapshot, Host: raw.Host, Namespace: raw.Namespace}
	for _, rc := range raw.Classes {
		c := FixtureClass{Name: rc.Name, Properties: rc.Properties}
		for i := range rc.Instances {
			obj, err := yamlInstance(&rc.Instances[i])
			if err != nil {
				return nil, fmt.Errorf("class %s: instance %d: %w", rc.Name, i, err)
			}
			c.Instances = append(c.Instances, obj)
		}
		fx.Classes = append(fx.Classes, c)
	}

	if err := validateFixture(fx); err != nil {
		return nil, err
	}
	return fx, nil
}

func yamlInstance(node *yaml.Node) (*variant.Object, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &FixtureError{Field: "instance", Message: "must be a mapping", Line: node.Line}
	}

	obj := variant.NewObject(len(node.Content) / 2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if _, dup := obj.Get(key.Value); dup {
			return nil, &FixtureError{Field: key.Value, Message: "duplicate property", Line: key.Line}
		}
		v, err := yamlValue(val)
		if err != nil {
			return nil, &FixtureError{Field: key.Value, Message: err.Error(), Line: val.Line}
		}
		obj.Set(key.Value, v)
	}
	return obj, nil
}

func yamlValue(node *yaml.Node) (variant.Variant, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return yamlValue(node.Alias)
	case yaml.SequenceNode:
		arr := make(variant.Array, len(node.Content))
		for i, elem := range node.Content {
			v, err := yamlValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case yaml.MappingNode:
		return nil, fmt.Errorf("object-valued properties are not supported")
	case yaml.ScalarNode:
	default:
		return nil, fmt.Errorf("unexpected YAML node")
	}

	if node.Tag == datetimeTag {
		return parseDateTime(node.Value)
	}
	if node.ShortTag() == "!!timestamp" {
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return nil, err
		}
		return variant.NewTime(t), nil
	}

	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return variant.FromAny(v)
}

// CUE fixtures:
//
//	snapshot: "demo"
//	classes: Win32_OperatingSystem: {
//		properties: ["Caption", "InstallDate"]
//		instances: [{
//			Caption:     "Microsoft Windows 11 Pro"
//			InstallDate: "20230101120000.000000+000" @wmi(datetime)
//		}]
//	}
//
// Classes and instance fields keep their declaration order.

// ParseCUEFixture compiles a CUE fixture. filename is used in positions.
func ParseCUEFixture(filename string, data []byte) (*Fixture, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	fx := &Fixture{}
	var err error
	if fx.Snapshot, err = cueString(v, "snapshot", true); err != nil {
		return nil, err
	}
	if fx.Host, err = cueString(v, "host", false); err != nil {
		return nil, err
	}
	if fx.Namespace, err = cueString(v, "namespace", false); err != nil {
		return nil, err
	}

	classesVal := v.LookupPath(cue.ParsePath("classes"))
	if classesVal.Exists() {
		iter, err := classesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			c, err := cueClass(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			fx.Classes = append(fx.Classes, c)
		}
	}

	if err := validateFixture(fx); err != nil {
		return nil, err
	}
	return fx, nil
}

func cueString(v cue.Value, field string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		if required {
			return "", &FixtureError{Field: field, Message: field + " is required", Pos: v.Pos()}
		}
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func cueClass(name string, v cue.Value) (FixtureClass, error) {
	c := FixtureClass{Name: name}

	if propsVal := v.LookupPath(cue.ParsePath("properties")); propsVal.Exists() {
		list, err := propsVal.List()
		if err != nil {
			return c, formatCUEError(err)
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return c, formatCUEError(err)
			}
			c.Properties = append(c.Properties, s)
		}
	}

	instVal := v.LookupPath(cue.ParsePath("instances"))
	if !instVal.Exists() {
		return c, nil
	}
	list, err := instVal.List()
	if err != nil {
		return c, formatCUEError(err)
	}
	for list.Next() {
		obj, err := cueInstance(list.Value())
		if err != nil {
			return c, err
		}
		c.Instances = append(c.Instances, obj)
	}
	return c, nil
}

func cueInstance(v cue.Value) (*variant.Object, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	obj := variant.NewObject(0)
	for iter.Next() {
		name := iter.Label()
		fv := iter.Value()

		datetime := false
		if attr := fv.Attribute("wmi"); attr.Err() == nil {
			if datetime, err = attr.Flag(0, "datetime"); err != nil {
				return nil, &FixtureError{Field: name, Message: err.Error(), Pos: fv.Pos()}
			}
		}

		val, err := cueValue(fv, datetime)
		if err != nil {
			return nil, err
		}
		obj.Set(name, val)
	}
	return obj, nil
}

func cueValue(v cue.Value, datetime bool) (variant.Variant, error) {
	if !v.IsConcrete() {
		return nil, &FixtureError{Field: "value", Message: "value must be concrete", Pos: v.Pos()}
	}

	switch v.Kind() {
	case cue.NullKind:
		return variant.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return variant.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return variant.Int(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if datetime {
			t, err := parseDateTime(s)
			if err != nil {
				return nil, &FixtureError{Field: "value", Message: err.Error(), Pos: v.Pos()}
			}
			return t, nil
		}
		return variant.String(s), nil
	case cue.ListKind:
		list, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var arr variant.Array
		for list.Next() {
			elem, err := cueValue(list.Value(), datetime)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if arr == nil {
			arr = variant.Array{}
		}
		return arr, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &FixtureError{Field: "value", Message: "floats are not supported", Pos: v.Pos()}
	default:
		return nil, &FixtureError{Field: "value", Message: fmt.Sprintf("unsupported kind %s", v.Kind()), Pos: v.Pos()}
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &FixtureError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
