package wmiq

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
	"github.com/roach88/wmiq/wbem/inmem"
)

const diskQuery = "SELECT * FROM Win32_LogicalDisk"

type Named struct {
	Name string
}

type Win32_LogicalDisk struct {
	Named
	Size        uint64
	FreeSpace   *uint64
	VolumeDirty *bool
	Compressed  bool
	DriveType   int32
	Access      variant.Variant
	Extra       any
	Labels      []string
	InstallDate time.Time
	Skipped     string `wmi:"-"`
}

func diskInstance() inmem.Instance {
	installed := time.Date(2021, 3, 4, 5, 6, 7, 891000000, time.FixedZone("", 60*60))
	return instance("Win32_LogicalDisk",
		"Name", "C:",
		"Size", int64(511705624576),
		"FreeSpace", nil,
		"VolumeDirty", false,
		"Compressed", true,
		"DriveType", 3,
		"Access", 0,
		"Extra", []any{"x", 1},
		"Labels", []any{"system", "boot"},
		"InstallDate", installed,
	)
}

func TestDecode_TypedFields(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(diskQuery, diskInstance())

	got, err := RawQuery[Win32_LogicalDisk](conn, diskQuery)
	require.NoError(t, err)
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, "C:", d.Name)
	assert.Equal(t, uint64(511705624576), d.Size)
	assert.Nil(t, d.FreeSpace)
	require.NotNil(t, d.VolumeDirty)
	assert.False(t, *d.VolumeDirty)
	assert.True(t, d.Compressed)
	assert.Equal(t, int32(3), d.DriveType)
	assert.Equal(t, variant.Int(0), d.Access)
	assert.Equal(t, []any{"x", int64(1)}, d.Extra)
	assert.Equal(t, []string{"system", "boot"}, d.Labels)
	assert.True(t, d.InstallDate.Equal(time.Date(2021, 3, 4, 4, 6, 7, 891000000, time.UTC)))
	assert.Empty(t, d.Skipped)
}

func TestDecode_IncompatibleValues(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		property string
	}{
		{"array into scalar", []any{"a"}, "Name"},
		{"int into string", 5, "Name"},
		{"null into scalar", nil, "Name"},
		{"string into int", "big", "Size"},
		{"negative into unsigned", -1, "Size"},
		{"overflow", 1 << 40, "DriveType"},
		{"scalar into slice", "system", "Labels"},
		{"string into time", "yesterday", "InstallDate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn, svc := newTestConnection(t)
			inst := diskInstance()
			for i, n := range inst.Names {
				if n == tc.property {
					v, err := variant.FromAny(tc.value)
					require.NoError(t, err)
					inst.Values[i] = wbem.FromVariant(v)
				}
			}
			svc.Respond(diskQuery, inst)

			got, err := RawQuery[Win32_LogicalDisk](conn, diskQuery)
			assert.Nil(t, got)

			var qe *QueryError
			require.ErrorAs(t, err, &qe)
			assert.Equal(t, KindDecode, qe.Kind)
			assert.Equal(t, tc.property, qe.Property)
		})
	}
}

func TestDecode_FloatPropertyUnsupported(t *testing.T) {
	conn, svc := newTestConnection(t)
	inst := instance("Win32_Processor", "Name", "cpu").
		With("LoadPercentage", wbem.RawValue{VT: wbem.VT_R8, CIM: wbem.CIM_REAL64, Val: 12.5})
	svc.Respond("SELECT * FROM Win32_Processor", inst)

	_, err := RawQuery[variant.Object](conn, "SELECT * FROM Win32_Processor")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindDecode))
	assert.True(t, errors.Is(err, wbem.ErrUnsupportedType))

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "LoadPercentage", qe.Property)
}

func TestDecode_GenericTargetsKeepProviderOrder(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("Microsoft Windows 10 Pro", "19045"))

	objs, err := RawQuery[variant.Object](conn, osQuery)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, []string{"Caption", "BuildNumber", "OSArchitecture"}, objs[0].Keys())

	maps, err := RawQuery[map[string]variant.Variant](conn, osQuery)
	require.NoError(t, err)
	assert.Equal(t, []map[string]variant.Variant{{
		"Caption":        variant.String("Microsoft Windows 10 Pro"),
		"BuildNumber":    variant.String("19045"),
		"OSArchitecture": variant.String("64-bit"),
	}}, maps)

	plain, err := RawQuery[map[string]any](conn, osQuery)
	require.NoError(t, err)
	assert.Equal(t, "19045", plain[0]["BuildNumber"])
}

// Values encoded the way a provider reports them decode back to the same
// Variant through the generic path.
func TestDecode_GenericRoundTrip(t *testing.T) {
	ts := time.Date(2022, 12, 31, 23, 59, 58, 999999000, time.FixedZone("", -8*60*60))
	props := variant.NewObject(0)
	props.Set("Null", variant.Null{})
	props.Set("Bool", variant.Bool(true))
	props.Set("Int", variant.Int(-9007199254740993))
	props.Set("String", variant.String("h\u00e9llo"))
	props.Set("Time", variant.NewTime(ts))
	props.Set("Array", variant.Array{variant.Int(1), variant.String("two"), variant.Null{}})
	props.Set("Empty", variant.Array{})

	conn, svc := newTestConnection(t)
	svc.Respond("SELECT * FROM Synthetic", inmem.InstanceOf("Synthetic", props))

	got, err := RawQuery[variant.Object](conn, "SELECT * FROM Synthetic")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, props.Keys(), got[0].Keys())
	for name, want := range props.All() {
		have, ok := got[0].Get(name)
		require.True(t, ok, name)
		assert.Equal(t, variant.Kind(want), variant.Kind(have), name)
		assert.True(t, variant.Equal(want, have), "%s: want %#v, have %#v", name, want, have)
	}
}

func TestDecode_PropertyListingFailure(t *testing.T) {
	conn, svc := newTestConnection(t)
	inst := osInstance("a", "1")
	inst.NamesStatus = wbem.WBEM_E_ACCESS_DENIED
	svc.Respond(osQuery, inst)

	_, err := RawQuery[variant.Object](conn, osQuery)
	assert.True(t, IsKind(err, KindListProperties))
	hr, ok := StatusOf(err)
	require.True(t, ok)
	assert.Equal(t, wbem.WBEM_E_ACCESS_DENIED, hr)

	// Typed targets never list names.
	got, err := RawQuery[Win32_OperatingSystem](conn, osQuery)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type osCaption struct {
	Caption string
}

type osWithHiddenBase struct {
	*osCaption
	BuildNumber string
}

func TestDecode_EmbeddedPointerToUnexportedStruct(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"))

	var (
		got []osWithHiddenBase
		err error
	)
	require.NotPanics(t, func() {
		got, err = RawQuery[osWithHiddenBase](conn, osQuery)
	})
	assert.Nil(t, got)
	assert.True(t, IsKind(err, KindDecode))
	assert.ErrorContains(t, err, "unexported struct")
}

func TestDecode_NameConversionFailureDestroysArray(t *testing.T) {
	conn, svc := newTestConnection(t)
	inst := osInstance("a", "1")
	inst.NamesErr = &wbem.StatusError{Code: wbem.E_OUTOFMEMORY}
	svc.Respond(osQuery, inst)

	_, err := RawQuery[map[string]any](conn, osQuery)
	assert.True(t, IsKind(err, KindListProperties))
	assert.True(t, wbem.IsStatus(err, wbem.E_OUTOFMEMORY))
	// the leak check registered by newTestConnection covers the name array
}

func TestDecode_DestinationErrors(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"))

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)
	defer e.Close()

	obj, err := e.Next()
	require.NoError(t, err)
	defer obj.Close()

	var os Win32_OperatingSystem
	assert.True(t, IsKind(Decode(obj, os), KindDecode))
	assert.True(t, IsKind(Decode(obj, (*Win32_OperatingSystem)(nil)), KindDecode))

	var n int
	assert.True(t, IsKind(Decode(obj, &n), KindDecode))

	for _, dst := range []any{
		(*variant.Object)(nil),
		(*map[string]variant.Variant)(nil),
		(*map[string]any)(nil),
	} {
		var err error
		require.NotPanics(t, func() { err = Decode(obj, dst) })
		assert.True(t, IsKind(err, KindDecode), "%T", dst)
	}

	require.NoError(t, Decode(obj, &os))
	assert.Equal(t, "a", os.Caption)
}

func TestClassObject_UseAfterClose(t *testing.T) {
	conn, svc := newTestConnection(t)
	svc.Respond(osQuery, osInstance("a", "1"))

	e, err := conn.ExecQueryNativeWrapper(osQuery)
	require.NoError(t, err)
	defer e.Close()

	obj, err := e.Next()
	require.NoError(t, err)
	require.NoError(t, obj.Close())

	_, err = obj.Get("Caption")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = obj.PropertyNames()
	assert.ErrorIs(t, err, ErrClosed)
}
