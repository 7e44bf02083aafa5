package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/variant"
)

// CaptureOptions describes a capture run.
type CaptureOptions struct {
	Name      string
	Host      string
	Namespace string
	// Classes are captured with "SELECT * FROM <class>".
	Classes []string
	// Limit bounds how many classes are queried at once. Values below 1
	// mean one. Only sessions supporting concurrent cursors may use more.
	Limit int
	// Rate caps how many class queries start per second. Zero means no cap.
	Rate float64

	IDs    IDGenerator
	At     time.Time
	Logger *slog.Logger
}

// Capture queries every class through conn and stores the results as a new
// snapshot. A failing class aborts the capture and removes the partial
// snapshot.
func Capture(ctx context.Context, conn *wmiq.Connection, store *Store, opts CaptureOptions) (Snapshot, error) {
	if len(opts.Classes) == 0 {
		return Snapshot{}, fmt.Errorf("capture: no classes given")
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	snap := Snapshot{
		ID:        ids.Generate(),
		Name:      opts.Name,
		Host:      opts.Host,
		Namespace: opts.Namespace,
		CreatedAt: opts.At,
	}
	if err := store.CreateSnapshot(ctx, snap); err != nil {
		return Snapshot{}, err
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Limit, 1))
	for _, class := range opts.Classes {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			return captureClass(gctx, conn, store, snap.ID, class, logger)
		})
	}

	if err := g.Wait(); err != nil {
		if delErr := store.DeleteSnapshot(context.WithoutCancel(ctx), snap.ID); delErr != nil {
			logger.Error("failed to remove partial snapshot", "snapshot", snap.Name, "error", delErr)
		}
		return Snapshot{}, fmt.Errorf("capture %s: %w", snap.Name, err)
	}
	return snap, nil
}

func captureClass(ctx context.Context, conn *wmiq.Connection, store *Store, snapshotID, class string, logger *slog.Logger) error {
	rows, err := wmiq.RawQuery[variant.Object](conn, "SELECT * FROM "+class)
	if err != nil {
		return err
	}

	instances := make([]*variant.Object, len(rows))
	for i := range rows {
		instances[i] = &rows[i]
	}
	if err := store.WriteInstances(ctx, snapshotID, class, nil, instances); err != nil {
		return err
	}
	logger.Info("class captured", "class", class, "instances", len(instances))
	return nil
}
