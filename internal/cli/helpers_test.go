package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wmiq/internal/snapshot"
	"github.com/roach88/wmiq/internal/testutil"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// createInventoryDB imports testdata/inventory.yaml into a new database
// and returns its path.
func createInventoryDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.db")
	st, err := snapshot.Open(path)
	require.NoError(t, err)
	defer st.Close()

	fx, err := snapshot.LoadFixture(filepath.Join("testdata", "inventory.yaml"))
	require.NoError(t, err)
	_, err = snapshot.Import(context.Background(), st, fx, testutil.NewSequentialIDs("snap"), testutil.Epoch)
	require.NoError(t, err)
	return path
}
