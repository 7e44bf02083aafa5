package inmem

import (
	"sync"

	"github.com/roach88/wmiq/wbem"
)

// Script is the scripted outcome of one query text.
type Script struct {
	// ExecStatus, when a failure code, is returned by ExecQuery itself.
	ExecStatus wbem.HRESULT
	Steps      []Step
}

// Services is a wbem.Services answering queries from scripts registered
// per exact query text. Unregistered queries behave like a provider with
// return-immediately semantics given invalid text: execution succeeds and
// the first Next fails with WBEM_E_INVALID_QUERY.
type Services struct {
	tracker *Tracker

	mu          sync.Mutex
	scripts     map[string]Script
	executed    []string
	enumerators []*Enumerator
}

var _ wbem.Services = (*Services)(nil)

// NewServices creates a provider whose handles are registered with tr.
func NewServices(tr *Tracker) *Services {
	return &Services{tracker: tr, scripts: make(map[string]Script)}
}

// Tracker returns the provider's handle tracker.
func (s *Services) Tracker() *Tracker { return s.tracker }

// Handle registers the script answered for query.
func (s *Services) Handle(query string, script Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[query] = script
}

// Respond registers a successful script yielding insts for query.
func (s *Services) Respond(query string, insts ...Instance) {
	steps := make([]Step, len(insts))
	for i, inst := range insts {
		steps[i] = Item(inst)
	}
	s.Handle(query, Script{Steps: steps})
}

// ExecQuery implements wbem.Services.
func (s *Services) ExecQuery(language, query []uint16, flags int32) (wbem.Enumerator, wbem.HRESULT) {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	s.executed = append(s.executed, text)

	script, ok := s.scripts[text]
	if !ok {
		script = Script{Steps: []Step{Fail(wbem.WBEM_E_INVALID_QUERY)}}
	}
	if script.ExecStatus.Failed() {
		return nil, script.ExecStatus
	}

	e := NewEnumerator(s.tracker, Steps(script.Steps...))
	s.enumerators = append(s.enumerators, e)
	return e, wbem.S_OK
}

// Executed returns the query texts received, in order.
func (s *Services) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.executed...)
}

// Enumerators returns the cursors handed out, in order.
func (s *Services) Enumerators() []*Enumerator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Enumerator(nil), s.enumerators...)
}
