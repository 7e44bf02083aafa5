package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

type Win32_Process struct {
	Name            string
	ProcessId       uint32
	ParentProcessId uint32
	CommandLine     *string
}

type Win32_OperatingSystem struct {
	Caption     string
	InstallDate time.Time
}

type Win32_LogicalDisk struct {
	DeviceID   string
	Size       uint64
	Compressed bool
	Tags       []string
}

func TestProvider_TypedQuery(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	procs, err := wmiq.Query[Win32_Process](conn)
	require.NoError(t, err)
	require.Len(t, procs, 4)

	assert.Equal(t, "System Idle Process", procs[0].Name)
	assert.Nil(t, procs[0].CommandLine)
	assert.Equal(t, uint32(4242), procs[2].ProcessId)
	require.NotNil(t, procs[2].CommandLine)
	assert.Equal(t, `C:\Windows\explorer.exe`, *procs[2].CommandLine)
}

func TestProvider_FilteredQuery(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	procs, err := wmiq.FilteredQuery[Win32_Process](conn, map[string]wmiq.FilterValue{
		"ParentProcessId": wmiq.Number(0),
	})
	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, "System Idle Process", procs[0].Name)
	assert.Equal(t, "System", procs[1].Name)

	procs, err = wmiq.FilteredQuery[Win32_Process](conn, map[string]wmiq.FilterValue{
		"Name":            wmiq.Str("EXPLORER.EXE"),
		"ParentProcessId": wmiq.Number(4100),
	})
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, uint32(4242), procs[0].ProcessId)
}

func TestProvider_DateTimeAndArrays(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	oses, err := wmiq.RawQuery[Win32_OperatingSystem](conn,
		`SELECT Caption, InstallDate FROM Win32_OperatingSystem WHERE InstallDate = "20230101120000.000000+000"`)
	require.NoError(t, err)
	require.Len(t, oses, 1)
	assert.True(t, oses[0].InstallDate.Equal(time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)))

	disks, err := wmiq.Query[Win32_LogicalDisk](conn)
	require.NoError(t, err)
	require.Len(t, disks, 1)
	assert.Equal(t, uint64(511101108224), disks[0].Size)
	assert.Equal(t, []string{"system", "boot"}, disks[0].Tags)
	assert.False(t, disks[0].Compressed)
}

func TestProvider_ProjectsSelectedFields(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	rows, err := wmiq.RawQuery[variant.Object](conn,
		"SELECT processid, Name FROM Win32_Process WHERE name = 'EXPLORER.EXE'")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []string{"ProcessId", "Name"}, rows[0].Keys())
	pid, _ := rows[0].Get("ProcessId")
	assert.Equal(t, variant.Int(4242), pid)
}

func TestProvider_StarSelectsDeclaredOrder(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	rows, err := wmiq.RawQuery[variant.Object](conn, "SELECT * FROM Win32_OperatingSystem")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Caption", "BuildNumber", "OSArchitecture", "InstallDate"}, rows[0].Keys())
}

func TestProvider_NullPredicates(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	tests := []struct {
		query string
		want  []string
	}{
		{"SELECT Name FROM Win32_Process WHERE CommandLine IS NULL", []string{"System Idle Process", "System"}},
		{"SELECT Name FROM Win32_Process WHERE CommandLine IS NOT NULL", []string{"explorer.exe", "svchost.exe"}},
		{"SELECT Name FROM Win32_Process WHERE CommandLine <> 'x'", []string{"explorer.exe", "svchost.exe"}},
		{"SELECT Name FROM Win32_Process WHERE ProcessId = 4 OR ProcessId = 812", []string{"System", "svchost.exe"}},
		{"SELECT Name FROM Win32_Process WHERE NOT (ParentProcessId = 0)", []string{"explorer.exe", "svchost.exe"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rows, err := wmiq.RawQuery[map[string]any](conn, tt.query)
			require.NoError(t, err)
			var names []string
			for _, row := range rows {
				names = append(names, row["Name"].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestProvider_NoMatchesIsEmpty(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	rows, err := wmiq.RawQuery[variant.Object](conn, "SELECT Name FROM Win32_Process WHERE Name = 'nope'")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestProvider_InvalidQueryYieldsOneError(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	e, err := conn.ExecQueryNativeWrapper("42")
	require.NoError(t, err, "return-immediately defers the failure to the first item")

	var errs []error
	objects := 0
	for obj, err := range e.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		objects++
		obj.Close()
	}

	require.Len(t, errs, 1)
	assert.Zero(t, objects)
	assert.True(t, wmiq.IsKind(errs[0], wmiq.KindEnumeration))
	status, ok := wmiq.StatusOf(errs[0])
	require.True(t, ok)
	assert.Equal(t, wbem.WBEM_E_INVALID_QUERY, status)
}

func TestProvider_Failures(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	tests := []struct {
		name   string
		query  string
		status wbem.HRESULT
	}{
		{"syntax error", "SELECT FROM", wbem.WBEM_E_INVALID_QUERY},
		{"unknown class", "SELECT * FROM Win32_Nope", wbem.WBEM_E_INVALID_CLASS},
		{"unknown selected property", "SELECT Nope FROM Win32_Process", wbem.WBEM_E_INVALID_QUERY},
		{"unknown filter property", "SELECT Name FROM Win32_Process WHERE Nope = 1", wbem.WBEM_E_INVALID_QUERY},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := wmiq.RawQuery[variant.Object](conn, tt.query)
			require.Error(t, err)
			assert.Nil(t, rows)
			status, ok := wmiq.StatusOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestProvider_EagerExecution(t *testing.T) {
	s, snap := importInventory(t)
	_, p := newProviderConnection(t, s, snap)

	lang, err := wbem.EncodeWide("WQL")
	require.NoError(t, err)
	bad, err := wbem.EncodeWide("42")
	require.NoError(t, err)
	good, err := wbem.EncodeWide("SELECT Name FROM Win32_Process")
	require.NoError(t, err)

	e, hr := p.ExecQuery(lang, bad, wbem.FlagForwardOnly)
	assert.Nil(t, e)
	assert.Equal(t, wbem.WBEM_E_INVALID_QUERY, hr)

	e, hr = p.ExecQuery(lang, good, wbem.FlagForwardOnly)
	require.Equal(t, wbem.S_OK, hr)
	objs, hr := e.Next(wbem.Infinite, 1)
	require.Equal(t, wbem.S_OK, hr)
	require.Len(t, objs, 1)
	objs[0].Release()
	e.Release()
}

func TestProvider_RejectsOtherLanguages(t *testing.T) {
	s, snap := importInventory(t)
	_, p := newProviderConnection(t, s, snap)

	lang, err := wbem.EncodeWide("SQL")
	require.NoError(t, err)
	query, err := wbem.EncodeWide("SELECT * FROM Win32_Process")
	require.NoError(t, err)

	e, hr := p.ExecQuery(lang, query, wbem.FlagReturnImmediately)
	assert.Nil(t, e)
	assert.Equal(t, wbem.WBEM_E_INVALID_QUERY_TYPE, hr)
}

func TestProvider_ConcurrentCursors(t *testing.T) {
	s, snap := importInventory(t)
	conn, _ := newProviderConnection(t, s, snap)

	first, err := conn.ExecQueryNativeWrapper("SELECT Name FROM Win32_Process")
	require.NoError(t, err)
	defer first.Close()
	second, err := conn.ExecQueryNativeWrapper("SELECT Name FROM Win32_Process WHERE ProcessId = 812")
	require.NoError(t, err)
	defer second.Close()

	a, err := first.Next()
	require.NoError(t, err)
	defer a.Close()
	b, err := second.Next()
	require.NoError(t, err)
	defer b.Close()

	an, err := a.Get("Name")
	require.NoError(t, err)
	bn, err := b.Get("Name")
	require.NoError(t, err)
	assert.Equal(t, variant.String("System Idle Process"), an)
	assert.Equal(t, variant.String("svchost.exe"), bn)

}
