package wmiq

import (
	"io"
	"iter"
	"log/slog"
	"runtime"

	"github.com/roach88/wmiq/wbem"
)

// Enumerator is a forward-only cursor over query results.
//
// It owns one provider cursor handle. The handle is released when the
// results run out, when the provider reports a failure, on Close, or by a
// cleanup once the Enumerator becomes unreachable. After that every Next
// returns io.EOF without calling the provider.
type Enumerator struct {
	h       wbem.Enumerator
	query   string
	logger  *slog.Logger
	cleanup runtime.Cleanup
}

func newEnumerator(h wbem.Enumerator, query string, logger *slog.Logger) *Enumerator {
	e := &Enumerator{h: h, query: query, logger: logger}
	e.cleanup = runtime.AddCleanup(e, releaseEnumerator, h)
	return e
}

func releaseEnumerator(h wbem.Enumerator) { h.Release() }

// Query returns the executed query text.
func (e *Enumerator) Query() string { return e.query }

// Next blocks until the provider returns the next result.
//
// It returns io.EOF once the results are exhausted and a *QueryError of kind
// KindEnumeration when the provider fails; either way the cursor is
// released and the enumerator is finished.
func (e *Enumerator) Next() (*ClassObject, error) {
	if e.h == nil {
		return nil, io.EOF
	}

	objs, hr := e.h.Next(wbem.Infinite, 1)
	runtime.KeepAlive(e)
	if hr.Failed() {
		for _, o := range objs {
			o.Release()
		}
		e.release()
		e.logger.Debug("enumeration failed", "query", e.query, "status", wbem.StatusName(hr))
		qe := statusError(KindEnumeration, hr)
		qe.Query = e.query
		return nil, qe
	}
	if len(objs) == 0 {
		e.release()
		e.logger.Debug("enumeration finished", "query", e.query)
		return nil, io.EOF
	}

	// One item was requested; anything extra is not ours to keep.
	for _, o := range objs[1:] {
		o.Release()
	}
	e.logger.Debug("enumerator advanced", "query", e.query)
	return newClassObject(objs[0], e.logger), nil
}

// All returns an iterator over the remaining results.
//
// Each object is closed after the loop body returns unless the body called
// Detach on it. A failure is yielded once as (nil, err) and ends the
// iteration. Breaking out of the loop closes the enumerator.
func (e *Enumerator) All() iter.Seq2[*ClassObject, error] {
	return func(yield func(*ClassObject, error) bool) {
		for {
			obj, err := e.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yieldObject(obj, yield) {
				e.Close()
				return
			}
		}
	}
}

func yieldObject(obj *ClassObject, yield func(*ClassObject, error) bool) bool {
	defer obj.closeUnlessDetached()
	return yield(obj, nil)
}

// Close releases the cursor. Closing a finished enumerator is a no-op.
func (e *Enumerator) Close() error {
	e.release()
	return nil
}

func (e *Enumerator) release() {
	if e.h == nil {
		return
	}
	e.cleanup.Stop()
	e.h.Release()
	e.h = nil
	e.logger.Debug("enumerator released", "query", e.query)
}
