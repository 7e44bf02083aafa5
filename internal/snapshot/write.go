package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/wmiq/variant"
)

// Snapshot describes one stored capture.
type Snapshot struct {
	ID        string
	Name      string
	Host      string
	Namespace string
	CreatedAt time.Time
}

// CreateSnapshot inserts a snapshot record. Names are unique.
func (s *Store) CreateSnapshot(ctx context.Context, snap Snapshot) error {
	if snap.ID == "" || snap.Name == "" {
		return fmt.Errorf("create snapshot: id and name are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, name, host, namespace, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, snap.ID, snap.Name, snap.Host, snap.Namespace, formatTime(snap.CreatedAt))
	if err != nil {
		return fmt.Errorf("create snapshot %q: %w", snap.Name, err)
	}
	return nil
}

// DeleteSnapshot removes a snapshot and everything it contains.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete snapshot %q: %w", id, ErrSnapshotNotFound)
	}
	return nil
}

// WriteInstances appends instances of class to a snapshot in one transaction.
//
// declared lists the class's properties in provider order; property names
// found only on instances are appended to it. Instances keep their order:
// each gets the next seq within its class.
func (s *Store) WriteInstances(ctx context.Context, snapshotID, class string, declared []string, instances []*variant.Object) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write class %s: %w", class, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var existing []string
	var stored string
	switch err := tx.QueryRowContext(ctx, `
		SELECT properties FROM classes WHERE snapshot_id = ? AND name = ?
	`, snapshotID, class).Scan(&stored); {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("write class %s: %w", class, err)
	default:
		if existing, err = unmarshalNames(stored); err != nil {
			return fmt.Errorf("write class %s: %w", class, err)
		}
	}

	names := mergeNames(existing, declared...)
	for _, inst := range instances {
		names = mergeNames(names, inst.Keys()...)
	}
	namesJSON, err := marshalNames(names)
	if err != nil {
		return fmt.Errorf("write class %s: %w", class, err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO classes (snapshot_id, name, properties)
		VALUES (?, ?, ?)
		ON CONFLICT(snapshot_id, name) DO UPDATE SET properties = excluded.properties
	`, snapshotID, class, namesJSON); err != nil {
		return fmt.Errorf("write class %s: %w", class, err)
	}

	var seq int64
	if err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM instances WHERE snapshot_id = ? AND class = ?
	`, snapshotID, class).Scan(&seq); err != nil {
		return fmt.Errorf("write class %s: %w", class, err)
	}

	for _, inst := range instances {
		seq++
		if err = writeInstance(ctx, tx, snapshotID, class, seq, inst); err != nil {
			return fmt.Errorf("write class %s: instance %d: %w", class, seq, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write class %s: commit: %w", class, err)
	}
	return nil
}

func writeInstance(ctx context.Context, tx *sql.Tx, snapshotID, class string, seq int64, inst *variant.Object) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO instances (snapshot_id, class, seq) VALUES (?, ?, ?)
	`, snapshotID, class, seq)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	ordinal := 0
	for name, v := range inst.All() {
		value, cim, err := marshalValue(v)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO properties (instance_id, name, ordinal, cim_type, value)
			VALUES (?, ?, ?, ?, ?)
		`, id, name, ordinal, int32(cim), value); err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		ordinal++
	}
	return nil
}
