package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wmiq/wbem/inmem"
)

// RequireNoLeaks fails the test unless every handle tracked by tr was
// released exactly once.
func RequireNoLeaks(t testing.TB, tr *inmem.Tracker) {
	t.Helper()
	require.NoError(t, tr.Check(), "provider handles")
	require.Zero(t, tr.Live(), "live provider handles")
}
