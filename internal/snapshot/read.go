package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wmiq/internal/wql"
	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

// Class describes one class stored in a snapshot.
type Class struct {
	Name string
	// Properties lists the declared property names in provider order.
	Properties []string
	Instances  int
}

// Instance is one stored object.
type Instance struct {
	ID         int64
	Seq        int64
	Properties *variant.Object
}

// Snapshots returns every snapshot, oldest first.
func (s *Store) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, host, namespace, created_at
		FROM snapshots
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// FindSnapshot looks a snapshot up by id or name. An empty ref selects the
// most recent snapshot.
func (s *Store) FindSnapshot(ctx context.Context, ref string) (Snapshot, error) {
	var row *sql.Row
	if ref == "" {
		row = s.db.QueryRowContext(ctx, `
			SELECT id, name, host, namespace, created_at
			FROM snapshots
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`)
	} else {
		row = s.db.QueryRowContext(ctx, `
			SELECT id, name, host, namespace, created_at
			FROM snapshots
			WHERE id = ? OR name = ?
			ORDER BY id ASC
			LIMIT 1
		`, ref, ref)
	}

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		if ref == "" {
			return Snapshot{}, fmt.Errorf("store is empty: %w", ErrSnapshotNotFound)
		}
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", ref, ErrSnapshotNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("find snapshot: %w", err)
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var snap Snapshot
	var created string
	if err := row.Scan(&snap.ID, &snap.Name, &snap.Host, &snap.Namespace, &created); err != nil {
		return Snapshot{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return Snapshot{}, err
	}
	snap.CreatedAt = t
	return snap, nil
}

// Classes returns the classes of a snapshot ordered by name.
func (s *Store) Classes(ctx context.Context, snapshotID string) ([]Class, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.properties,
			(SELECT COUNT(*) FROM instances i WHERE i.snapshot_id = c.snapshot_id AND i.class = c.name)
		FROM classes c
		WHERE c.snapshot_id = ?
		ORDER BY c.name ASC
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var out []Class
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("list classes: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return out, nil
}

// Class returns one class of a snapshot. Names compare case-insensitively.
func (s *Store) Class(ctx context.Context, snapshotID, name string) (Class, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.name, c.properties,
			(SELECT COUNT(*) FROM instances i WHERE i.snapshot_id = c.snapshot_id AND i.class = c.name)
		FROM classes c
		WHERE c.snapshot_id = ? AND c.name = ?
	`, snapshotID, name)

	c, err := scanClass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Class{}, fmt.Errorf("class %s: %w", name, ErrClassNotFound)
	}
	if err != nil {
		return Class{}, fmt.Errorf("class %s: %w", name, err)
	}
	return c, nil
}

func scanClass(row scanner) (Class, error) {
	var c Class
	var props string
	if err := row.Scan(&c.Name, &props, &c.Instances); err != nil {
		return Class{}, err
	}
	names, err := unmarshalNames(props)
	if err != nil {
		return Class{}, err
	}
	c.Properties = names
	return c, nil
}

// ReadInstances returns every instance of class in capture order.
func (s *Store) ReadInstances(ctx context.Context, snapshotID, class string) ([]Instance, error) {
	return s.SelectInstances(ctx, snapshotID, wql.Select{Class: class})
}

// SelectInstances returns the instances of sel.Class matching sel.Filter,
// in capture order, with every stored property. Projection onto sel.Fields
// is left to the caller.
func (s *Store) SelectInstances(ctx context.Context, snapshotID string, sel wql.Select) ([]Instance, error) {
	inner, params, err := compileSelect(snapshotID, sel)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT m.id, m.seq, p.name, p.cim_type, p.value
		FROM (` + inner + `) m
		LEFT JOIN properties p ON p.instance_id = m.id
		ORDER BY m.seq ASC, m.id ASC, p.ordinal ASC
	`
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", sel.Class, err)
	}
	defer rows.Close()

	out := []Instance{}
	for rows.Next() {
		var (
			id, seq int64
			name    sql.NullString
			cim     sql.NullInt32
			value   sql.NullString
		)
		if err := rows.Scan(&id, &seq, &name, &cim, &value); err != nil {
			return nil, fmt.Errorf("select %s: %w", sel.Class, err)
		}

		if n := len(out); n == 0 || out[n-1].ID != id {
			out = append(out, Instance{ID: id, Seq: seq, Properties: variant.NewObject(0)})
		}
		if !name.Valid {
			continue // instance without properties
		}

		v, err := unmarshalValue(value.String, wbem.CIMType(cim.Int32))
		if err != nil {
			return nil, fmt.Errorf("select %s: instance %d: property %s: %w", sel.Class, seq, name.String, err)
		}
		out[len(out)-1].Properties.Set(name.String, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", sel.Class, err)
	}
	return out, nil
}
