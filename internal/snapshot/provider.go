package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/roach88/wmiq/internal/wql"
	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
	"github.com/roach88/wmiq/wbem/inmem"
)

// Provider answers WQL queries from one stored snapshot. It implements
// wbem.Services, so a wmiq.Connection can run typed queries against a
// capture exactly as it would against a live session.
//
// Cursors are independent and may be used from different goroutines.
type Provider struct {
	store    *Store
	snapshot Snapshot
	tracker  *inmem.Tracker
	logger   *slog.Logger
}

var _ wbem.Services = (*Provider)(nil)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithTracker registers the provider's handles with tr.
func WithTracker(tr *inmem.Tracker) ProviderOption {
	return func(p *Provider) { p.tracker = tr }
}

// WithLogger sets the logger for query diagnostics.
func WithLogger(l *slog.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a provider serving snap from store.
func NewProvider(store *Store, snap Snapshot, opts ...ProviderOption) *Provider {
	p := &Provider{
		store:    store,
		snapshot: snap,
		tracker:  inmem.NewTracker(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot returns the snapshot being served.
func (p *Provider) Snapshot() Snapshot { return p.snapshot }

// Tracker returns the tracker counting the provider's handles.
func (p *Provider) Tracker() *inmem.Tracker { return p.tracker }

// ExecQuery implements wbem.Services.
//
// With FlagReturnImmediately the query runs on the first Next and any
// failure is reported there. Otherwise it runs now and failures are
// returned directly.
func (p *Provider) ExecQuery(language, query []uint16, flags int32) (wbem.Enumerator, wbem.HRESULT) {
	lang, err := wbem.DecodeWide(language)
	if err != nil {
		return nil, wbem.WBEM_E_INVALID_PARAMETER
	}
	text, err := wbem.DecodeWide(query)
	if err != nil {
		return nil, wbem.WBEM_E_INVALID_PARAMETER
	}
	if lang != wbem.QueryLanguage {
		return nil, wbem.WBEM_E_INVALID_QUERY_TYPE
	}

	if flags&wbem.FlagReturnImmediately != 0 {
		var steps inmem.Source
		return inmem.NewEnumerator(p.tracker, func() (inmem.Step, bool) {
			if steps == nil {
				result, hr := p.execute(text)
				if hr.Failed() {
					result = []inmem.Step{inmem.Fail(hr)}
				}
				steps = inmem.Steps(result...)
			}
			return steps()
		}), wbem.S_OK
	}

	result, hr := p.execute(text)
	if hr.Failed() {
		return nil, hr
	}
	return inmem.NewEnumerator(p.tracker, inmem.Steps(result...)), wbem.S_OK
}

// execute runs a query against the snapshot and returns one step per
// matching instance, projected onto the selected properties.
func (p *Provider) execute(text string) ([]inmem.Step, wbem.HRESULT) {
	ctx := context.Background()
	log := p.logger.With("snapshot", p.snapshot.Name, "query", text)

	sel, err := wql.Parse(text)
	if err != nil {
		log.Debug("query rejected", "error", err)
		return nil, wbem.WBEM_E_INVALID_QUERY
	}

	class, err := p.store.Class(ctx, p.snapshot.ID, sel.Class)
	if errors.Is(err, ErrClassNotFound) {
		log.Debug("unknown class", "class", sel.Class)
		return nil, wbem.WBEM_E_INVALID_CLASS
	}
	if err != nil {
		log.Error("read class failed", "error", err)
		return nil, wbem.WBEM_E_FAILED
	}

	fields, err := wql.Resolve(sel, class.Properties)
	if err != nil {
		log.Debug("query rejected", "error", err)
		return nil, wbem.WBEM_E_INVALID_QUERY
	}

	instances, err := p.store.SelectInstances(ctx, p.snapshot.ID, sel)
	if err != nil {
		log.Error("select instances failed", "error", err)
		return nil, wbem.WBEM_E_FAILED
	}

	steps := make([]inmem.Step, len(instances))
	for i, inst := range instances {
		steps[i] = inmem.Item(inmem.InstanceOf(class.Name, project(inst.Properties, fields)))
	}
	log.Debug("query answered", "class", class.Name, "instances", len(steps))
	return steps, wbem.S_OK
}

// project returns the named properties of props in the given order.
// Names match case-insensitively; properties an instance lacks are Null.
func project(props *variant.Object, fields []string) *variant.Object {
	byName := make(map[string]variant.Variant, props.Len())
	for name, v := range props.All() {
		byName[strings.ToLower(name)] = v
	}

	out := variant.NewObject(len(fields))
	for _, name := range fields {
		v, ok := byName[strings.ToLower(name)]
		if !ok {
			v = variant.Null{}
		}
		out.Set(name, v)
	}
	return out
}
