package inmem

import (
	"github.com/roach88/wmiq/wbem"
)

// Step is one scripted response of an enumerator: either an instance to
// hand out or a failure status.
type Step struct {
	Instance Instance
	Status   wbem.HRESULT
}

// Item returns a step yielding inst.
func Item(inst Instance) Step { return Step{Instance: inst} }

// Fail returns a step that fails with hr.
func Fail(hr wbem.HRESULT) Step { return Step{Status: hr} }

// Source produces steps on demand. ok is false once the results are
// exhausted.
type Source func() (step Step, ok bool)

// Steps returns a Source replaying a fixed script.
func Steps(steps ...Step) Source {
	i := 0
	return func() (Step, bool) {
		if i >= len(steps) {
			return Step{}, false
		}
		s := steps[i]
		i++
		return s, true
	}
}

// Enumerator is a tracked forward-only wbem.Enumerator.
type Enumerator struct {
	h      *handle
	src    Source
	calls  int
	failed bool
}

var _ wbem.Enumerator = (*Enumerator)(nil)

// NewEnumerator hands out a tracked cursor over src.
func NewEnumerator(tr *Tracker, src Source) *Enumerator {
	return &Enumerator{h: tr.acquire("enumerator"), src: src}
}

// Next returns at most one object per call regardless of count. Once the
// source is exhausted every call returns zero objects with WBEM_S_FALSE.
func (e *Enumerator) Next(timeout int32, count uint32) ([]wbem.ClassObject, wbem.HRESULT) {
	e.calls++
	if e.h.released() {
		e.h.tracker.violate("Next on released %s #%d", e.h.kind, e.h.id)
		return nil, wbem.E_POINTER
	}
	if count == 0 {
		return nil, wbem.WBEM_E_INVALID_PARAMETER
	}
	if e.failed {
		return nil, wbem.WBEM_E_FAILED
	}

	step, ok := e.src()
	if !ok {
		return nil, wbem.WBEM_S_FALSE
	}
	if step.Status.Failed() {
		e.failed = true
		return nil, step.Status
	}
	return []wbem.ClassObject{NewObject(e.h.tracker, step.Instance)}, wbem.S_OK
}

// Release drops the cursor's reference.
func (e *Enumerator) Release() uint32 { return e.h.release() }

// Calls returns how many times Next was invoked.
func (e *Enumerator) Calls() int { return e.calls }
