package wmiq

import (
	"log/slog"
	"runtime"

	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

// ClassObject is one query result. It owns one provider object handle,
// released by Close or by a cleanup once the ClassObject becomes
// unreachable.
type ClassObject struct {
	h        wbem.ClassObject
	logger   *slog.Logger
	detached bool
	cleanup  runtime.Cleanup
}

func newClassObject(h wbem.ClassObject, logger *slog.Logger) *ClassObject {
	o := &ClassObject{h: h, logger: logger}
	o.cleanup = runtime.AddCleanup(o, releaseObject, h)
	return o
}

func releaseObject(h wbem.ClassObject) { h.Release() }

// PropertyNames returns the non-system property names in provider order.
func (o *ClassObject) PropertyNames() ([]string, error) {
	if o.h == nil {
		return nil, &QueryError{Kind: KindListProperties, Err: ErrClosed}
	}

	arr, hr := o.h.GetNames(wbem.FlagAlways | wbem.FlagNonSystemOnly)
	runtime.KeepAlive(o)
	if hr.Failed() {
		return nil, statusError(KindListProperties, hr)
	}
	defer arr.Destroy()

	names, err := arr.Strings()
	if err != nil {
		return nil, wrapError(KindListProperties, err)
	}
	return names, nil
}

// Get fetches and decodes one property. A missing property or a value with
// no Variant case is a KindDecode error.
func (o *ClassObject) Get(name string) (variant.Variant, error) {
	if o.h == nil {
		return nil, &QueryError{Kind: KindDecode, Property: name, Err: ErrClosed}
	}

	raw, hr := o.h.Get(name)
	runtime.KeepAlive(o)
	if hr.Failed() {
		qe := statusError(KindDecode, hr)
		qe.Property = name
		return nil, qe
	}

	v, err := wbem.ToVariant(raw)
	if err != nil {
		qe := wrapError(KindDecode, err)
		qe.Property = name
		return nil, qe
	}
	return v, nil
}

// Detach keeps the object open past the body of an Enumerator.All loop.
// The caller becomes responsible for closing it.
func (o *ClassObject) Detach() *ClassObject {
	o.detached = true
	return o
}

// Close releases the object handle. It is safe to call more than once.
func (o *ClassObject) Close() error {
	if o.h == nil {
		return nil
	}
	o.cleanup.Stop()
	o.h.Release()
	o.h = nil
	return nil
}

func (o *ClassObject) closeUnlessDetached() {
	if !o.detached {
		o.Close()
	}
}
