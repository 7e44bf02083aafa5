package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/internal/snapshot"
)

// source is an open provider session queries are answered from.
type source struct {
	conn      *wmiq.Connection
	host      string
	namespace string
	close     func() error
}

func (s *source) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// openSource connects to the live service when --live is set and to the
// selected snapshot otherwise.
func (o *RootOptions) openSource(ctx context.Context) (*source, error) {
	if o.Live {
		return openLive(o)
	}
	return openSnapshotSource(ctx, o, o.Database, o.Snapshot)
}

// openStore opens an existing snapshot database.
func openStore(path string) (*snapshot.Store, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "database path is required (--db)")
	}
	if path != ":memory:" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
		}
	}
	st, err := snapshot.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func openSnapshotSource(ctx context.Context, o *RootOptions, path, ref string) (*source, error) {
	st, err := openStore(path)
	if err != nil {
		return nil, err
	}

	snap, err := st.FindSnapshot(ctx, ref)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to select snapshot", err)
	}

	logger := o.logger()
	logger.Debug("serving snapshot", "snapshot", snap.Name, "id", snap.ID, "db", path)
	provider := snapshot.NewProvider(st, snap, snapshot.WithLogger(logger))
	return &source{
		conn:      wmiq.NewConnection(provider, wmiq.WithLogger(logger)),
		host:      snap.Host,
		namespace: snap.Namespace,
		close:     st.Close,
	}, nil
}
