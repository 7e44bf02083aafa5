// Package inmem provides reference-counted provider objects that live in
// process memory. Every handle it hands out is registered with a Tracker so
// tests can assert that each one was released exactly once.
package inmem

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Tracker counts live handles and records protocol violations.
type Tracker struct {
	mu         sync.Mutex
	next       uint64
	live       map[uint64]string
	acquired   int
	violations []string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{live: make(map[uint64]string)}
}

type handle struct {
	tracker *Tracker
	id      uint64
	kind    string
	refs    uint32
}

func (t *Tracker) acquire(kind string) *handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.acquired++
	t.live[t.next] = kind
	return &handle{tracker: t, id: t.next, kind: kind, refs: 1}
}

// release drops one reference. Releasing a handle whose count is already
// zero is recorded as a violation.
func (h *handle) release() uint32 {
	t := h.tracker
	t.mu.Lock()
	defer t.mu.Unlock()
	if h.refs == 0 {
		t.violations = append(t.violations, fmt.Sprintf("double release of %s #%d", h.kind, h.id))
		return 0
	}
	h.refs--
	if h.refs == 0 {
		delete(t.live, h.id)
	}
	return h.refs
}

func (h *handle) released() bool {
	h.tracker.mu.Lock()
	defer h.tracker.mu.Unlock()
	return h.refs == 0
}

func (t *Tracker) violate(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.violations = append(t.violations, fmt.Sprintf(format, args...))
}

// Live returns the number of handles acquired and not yet released.
func (t *Tracker) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Acquired returns the total number of handles ever handed out.
func (t *Tracker) Acquired() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acquired
}

// Violations returns double releases and uses of released handles.
func (t *Tracker) Violations() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.violations...)
}

// Check returns an error describing leaked handles and violations, or nil
// when every handle was released exactly once.
func (t *Tracker) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.live) == 0 && len(t.violations) == 0 {
		return nil
	}

	var problems []string
	ids := make([]uint64, 0, len(t.live))
	for id := range t.live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		problems = append(problems, fmt.Sprintf("leaked %s #%d", t.live[id], id))
	}
	problems = append(problems, t.violations...)
	return fmt.Errorf("handle accounting: %s", strings.Join(problems, "; "))
}
