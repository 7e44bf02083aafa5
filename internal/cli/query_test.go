package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestQueryText(t *testing.T) {
	db := createInventoryDB(t)

	out, _, err := execute(t, "--db", db, "query", "SELECT Name, ProcessId FROM Win32_Process WHERE ParentProcessId = 4")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "query_text", []byte(out))
}

func TestQueryJSON(t *testing.T) {
	db := createInventoryDB(t)

	out, _, err := execute(t, "--db", db, "--format", "json", "query", "SELECT * FROM Win32_LogicalDisk")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Query string           `json:"query"`
			Count int              `json:"count"`
			Rows  []map[string]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "SELECT * FROM Win32_LogicalDisk", resp.Data.Query)
	assert.Equal(t, 1, resp.Data.Count)
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, "C:", resp.Data.Rows[0]["DeviceID"])
	assert.EqualValues(t, 511101108224, resp.Data.Rows[0]["Size"])
}

func TestQueryNames(t *testing.T) {
	db := createInventoryDB(t)

	out, _, err := execute(t, "--db", db, "query", "--names", "SELECT * FROM Win32_Process WHERE ProcessId = 4")
	require.NoError(t, err)
	assert.Equal(t, "Name, ProcessId, ParentProcessId\n1 result(s)\n", out)
}

func TestQueryEmptyResult(t *testing.T) {
	db := createInventoryDB(t)

	out, _, err := execute(t, "--db", db, "query", "SELECT Name FROM Win32_Process WHERE Name = 'nope'")
	require.NoError(t, err)
	assert.Equal(t, "0 row(s)\n", out)
}

func TestQueryProviderFailure(t *testing.T) {
	db := createInventoryDB(t)

	out, _, err := execute(t, "--db", db, "--format", "json", "query", "SELECT * FROM Win32_Nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ENUMERATION_FAILED", resp.Error.Code)
	assert.Equal(t, "WBEM_E_INVALID_CLASS", resp.Error.Status)
}

func TestQueryTextFailurePrintsNothing(t *testing.T) {
	db := createInventoryDB(t)

	out, _, err := execute(t, "--db", db, "query", "42")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Empty(t, out)
	assert.Contains(t, err.Error(), "WBEM_E_INVALID_QUERY")
}

func TestQueryMissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")

	_, _, err := execute(t, "--db", missing, "query", "SELECT * FROM Win32_Process")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
	assert.NoFileExists(t, missing)
}

func TestQueryUnknownSnapshot(t *testing.T) {
	db := createInventoryDB(t)

	_, _, err := execute(t, "--db", db, "--snapshot", "nope", "query", "SELECT * FROM Win32_Process")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "snapshot not found")
}

func TestQuerySnapshotByName(t *testing.T) {
	db := createInventoryDB(t)

	out, _, err := execute(t, "--db", db, "--snapshot", "cli-inventory", "query", "SELECT DeviceID FROM Win32_LogicalDisk")
	require.NoError(t, err)
	assert.Contains(t, out, `"DeviceID":"C:"`)
}

func TestQueryMissingArgs(t *testing.T) {
	_, _, err := execute(t, "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
