package inmem

import (
	"fmt"
	"strings"

	"github.com/roach88/wmiq/variant"
	"github.com/roach88/wmiq/wbem"
)

// Instance describes the contents of one result object before it is handed
// out. Names and Values are parallel; Names order is the order reported by
// GetNames.
type Instance struct {
	Class  string
	Names  []string
	Values []wbem.RawValue

	// NamesStatus, when a failure code, is returned by GetNames.
	NamesStatus wbem.HRESULT
	// NamesErr, when set, is returned by NameArray.Strings.
	NamesErr error
}

// InstanceOf builds an Instance from decoded property values, encoding each
// one with wbem.FromVariant.
func InstanceOf(class string, props *variant.Object) Instance {
	inst := Instance{Class: class}
	for name, v := range props.All() {
		inst.Names = append(inst.Names, name)
		inst.Values = append(inst.Values, wbem.FromVariant(v))
	}
	return inst
}

// With returns a copy of inst with one more raw property appended.
func (inst Instance) With(name string, raw wbem.RawValue) Instance {
	inst.Names = append(append([]string(nil), inst.Names...), name)
	inst.Values = append(append([]wbem.RawValue(nil), inst.Values...), raw)
	return inst
}

// Object is a tracked wbem.ClassObject.
type Object struct {
	h    *handle
	inst Instance
}

var _ wbem.ClassObject = (*Object)(nil)

// NewObject hands out a tracked object for inst. The caller owns the
// returned handle.
func NewObject(tr *Tracker, inst Instance) *Object {
	return &Object{h: tr.acquire("object " + inst.Class), inst: inst}
}

// System properties reported unless FlagNonSystemOnly is set.
var systemNames = []string{"__CLASS", "__PROPERTY_COUNT"}

// GetNames returns the object's property names.
func (o *Object) GetNames(flags int32) (wbem.NameArray, wbem.HRESULT) {
	if o.h.released() {
		o.h.tracker.violate("GetNames on released %s #%d", o.h.kind, o.h.id)
		return nil, wbem.E_POINTER
	}
	if o.inst.NamesStatus.Failed() {
		return nil, o.inst.NamesStatus
	}

	var names []string
	if flags&wbem.FlagNonSystemOnly == 0 {
		names = append(names, systemNames...)
	}
	names = append(names, o.inst.Names...)
	return &NameArray{h: o.h.tracker.acquire("name array"), names: names, err: o.inst.NamesErr}, wbem.S_OK
}

// Get returns one property value. Unknown names fail with WBEM_E_NOT_FOUND.
func (o *Object) Get(name string) (wbem.RawValue, wbem.HRESULT) {
	if o.h.released() {
		o.h.tracker.violate("Get on released %s #%d", o.h.kind, o.h.id)
		return wbem.RawValue{}, wbem.E_POINTER
	}

	switch {
	case strings.EqualFold(name, "__CLASS"):
		return wbem.RawValue{VT: wbem.VT_BSTR, CIM: wbem.CIM_STRING, Val: o.inst.Class}, wbem.S_OK
	case strings.EqualFold(name, "__PROPERTY_COUNT"):
		return wbem.RawValue{VT: wbem.VT_I4, CIM: wbem.CIM_SINT32, Val: int32(len(o.inst.Names))}, wbem.S_OK
	}

	// Property names are case-insensitive.
	for i, n := range o.inst.Names {
		if strings.EqualFold(n, name) {
			return o.inst.Values[i], wbem.S_OK
		}
	}
	return wbem.RawValue{}, wbem.WBEM_E_NOT_FOUND
}

// Release drops the object's reference.
func (o *Object) Release() uint32 { return o.h.release() }

func (o *Object) String() string {
	return fmt.Sprintf("%s #%d", o.h.kind, o.h.id)
}

// NameArray is a tracked wbem.NameArray.
type NameArray struct {
	h     *handle
	names []string
	err   error
}

var _ wbem.NameArray = (*NameArray)(nil)

// Strings copies the names out of the array.
func (a *NameArray) Strings() ([]string, error) {
	if a.h.released() {
		a.h.tracker.violate("Strings on destroyed %s #%d", a.h.kind, a.h.id)
		return nil, wbem.Check(wbem.E_POINTER)
	}
	if a.err != nil {
		return nil, a.err
	}
	return append([]string(nil), a.names...), nil
}

// Destroy frees the array.
func (a *NameArray) Destroy() wbem.HRESULT {
	if a.h.released() {
		a.h.release()
		return wbem.E_POINTER
	}
	a.h.release()
	return wbem.S_OK
}
