package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/wmiq"
	"github.com/roach88/wmiq/internal/snapshot"
	"github.com/roach88/wmiq/internal/testutil"
	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
	"github.com/roach88/wmiq/wbem/inmem"
)

// Harness executes the queries of one scenario.
type Harness struct {
	conn    *wmiq.Connection
	tracker *inmem.Tracker
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for execution diagnostics. Logs are discarded
// by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Import the fixture into a fresh in-memory snapshot store
// 2. Serve the snapshot through a wmiq.Connection
// 3. Execute each query and check its expectations
// 4. Check that no provider handle leaked
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := snapshot.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	fx, err := snapshot.LoadFixture(scenario.Fixture)
	if err != nil {
		return nil, err
	}

	clock := testutil.NewDeterministicClock()
	ids := testutil.NewSequentialIDs("snapshot")
	snap, err := snapshot.Import(context.Background(), st, fx, ids, clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to import fixture: %w", err)
	}

	tracker := inmem.NewTracker()
	provider := snapshot.NewProvider(st, snap, snapshot.WithTracker(tracker), snapshot.WithLogger(o.logger))
	h := &Harness{
		conn:    wmiq.NewConnection(provider, wmiq.WithLogger(o.logger)),
		tracker: tracker,
		logger:  o.logger,
	}

	result := NewResult()
	for _, step := range scenario.Queries {
		qr := h.execute(step)
		result.Queries = append(result.Queries, qr)

		for _, err := range checkExpectations(step, qr) {
			result.AddError(err.Error())
		}
	}

	if err := tracker.Check(); err != nil {
		result.AddError(fmt.Sprintf("provider handles: %v", err))
	}
	if live := tracker.Live(); live > 0 {
		result.AddError(fmt.Sprintf("provider handles: %d still live", live))
	}
	return result, nil
}

// execute runs one query step into a variant.Object per row.
func (h *Harness) execute(step QueryStep) QueryResult {
	qr := QueryResult{Name: step.Name, Query: queryText(step)}

	rows, err := wmiq.RawQuery[variant.Object](h.conn, qr.Query)
	if err != nil {
		qr.Error = errorResult(err)
		h.logger.Info("query failed", "name", step.Name, "error", err)
		return qr
	}

	qr.Rows = make([]*variant.Object, len(rows))
	for i := range rows {
		qr.Rows[i] = &rows[i]
	}
	h.logger.Info("query completed", "name", step.Name, "rows", len(rows))
	return qr
}

// queryText returns the step's WQL, building it when the step names a
// class. Filter values were checked when the scenario was loaded.
func queryText(step QueryStep) string {
	if step.WQL != "" {
		return step.WQL
	}
	filters := make(map[string]wmiq.FilterValue, len(step.Where))
	for name, v := range step.Where {
		fv, _ := filterValue(v)
		filters[name] = fv
	}
	return wmiq.BuildQuery(step.Class, step.Fields, filters)
}

func errorResult(err error) *ErrorResult {
	res := &ErrorResult{Message: err.Error()}
	var qe *wmiq.QueryError
	if errors.As(err, &qe) {
		res.Kind = string(qe.Kind)
	}
	if status, ok := wmiq.StatusOf(err); ok {
		res.Status = wbem.StatusName(status)
	}
	return res
}
