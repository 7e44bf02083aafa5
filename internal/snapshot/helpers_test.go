package snapshot

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/internal/testutil"
	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem/inmem"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot inserts an empty snapshot named name.
func createTestSnapshot(t *testing.T, s *Store, id, name string) Snapshot {
	t.Helper()
	snap := Snapshot{ID: id, Name: name, Host: "HOST", Namespace: `root\cimv2`, CreatedAt: testutil.Epoch}
	if err := s.CreateSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}
	return snap
}

// importInventory loads testdata/inventory.yaml into a fresh store.
func importInventory(t *testing.T) (*Store, Snapshot) {
	t.Helper()
	s := createTestStore(t)
	fx, err := LoadFixture(filepath.Join("testdata", "inventory.yaml"))
	if err != nil {
		t.Fatalf("LoadFixture() failed: %v", err)
	}
	snap, err := Import(context.Background(), s, fx, testutil.NewSequentialIDs("snap"), testutil.Epoch)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	return s, snap
}

// newProviderConnection serves snap through a connection and checks for
// leaked handles when the test ends.
func newProviderConnection(t *testing.T, s *Store, snap Snapshot) (*wmiq.Connection, *Provider) {
	t.Helper()
	tr := inmem.NewTracker()
	t.Cleanup(func() { testutil.RequireNoLeaks(t, tr) })
	logger := slog.New(slog.DiscardHandler)
	p := NewProvider(s, snap, WithTracker(tr), WithLogger(logger))
	return wmiq.NewConnection(p, wmiq.WithLogger(logger)), p
}

func object(kv ...any) *variant.Object {
	obj := variant.NewObject(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		v, err := variant.FromAny(kv[i+1])
		if err != nil {
			panic(err)
		}
		obj.Set(kv[i].(string), v)
	}
	return obj
}
