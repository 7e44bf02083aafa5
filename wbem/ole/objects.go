//go:build windows

package ole

import (
	"time"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/roach88/wmiq/wbem"
)

type enumerator struct {
	enum *ole.IEnumVARIANT
}

func (e *enumerator) Next(timeout int32, count uint32) ([]wbem.ClassObject, wbem.HRESULT) {
	if count == 0 {
		return nil, wbem.WBEM_E_INVALID_PARAMETER
	}

	item, n, err := e.enum.Next(1)
	if n == 0 {
		if err != nil {
			if hr := statusOf(err); hr.Failed() {
				return nil, hr
			}
		}
		return nil, wbem.WBEM_S_FALSE
	}
	if err != nil {
		item.Clear()
		return nil, statusOf(err)
	}
	return []wbem.ClassObject{&classObject{disp: item.ToIDispatch()}}, wbem.S_OK
}

func (e *enumerator) Release() uint32 {
	return uint32(e.enum.Release())
}

type classObject struct {
	disp *ole.IDispatch
}

// GetNames lists Properties_. System properties live in SystemProperties_
// and are never part of the result, so FlagNonSystemOnly needs no filtering.
func (o *classObject) GetNames(flags int32) (wbem.NameArray, wbem.HRESULT) {
	v, err := oleutil.GetProperty(o.disp, "Properties_")
	if err != nil {
		return nil, statusOf(err)
	}
	return &nameArray{props: v.ToIDispatch()}, wbem.S_OK
}

func (o *classObject) Get(name string) (wbem.RawValue, wbem.HRESULT) {
	props, err := oleutil.GetProperty(o.disp, "Properties_")
	if err != nil {
		return wbem.RawValue{}, statusOf(err)
	}
	defer props.Clear()

	item, err := oleutil.CallMethod(props.ToIDispatch(), "Item", name)
	if err != nil {
		return wbem.RawValue{}, statusOf(err)
	}
	defer item.Clear()
	prop := item.ToIDispatch()

	cim, err := oleutil.GetProperty(prop, "CIMType")
	if err != nil {
		return wbem.RawValue{}, statusOf(err)
	}
	cimType := wbem.CIMType(cim.Val)
	cim.Clear()

	val, err := oleutil.GetProperty(prop, "Value")
	if err != nil {
		return wbem.RawValue{}, statusOf(err)
	}
	defer val.Clear()

	if cimType == wbem.CIM_OBJECT {
		return wbem.RawValue{VT: wbem.VT_UNKNOWN, CIM: cimType}, wbem.S_OK
	}
	return rawValue(val, cimType), wbem.S_OK
}

func (o *classObject) Release() uint32 {
	return uint32(o.disp.Release())
}

// rawValue copies a VARIANT out of COM memory.
func rawValue(v *ole.VARIANT, cim wbem.CIMType) wbem.RawValue {
	vt := wbem.VarType(v.VT)
	if vt&wbem.VT_ARRAY != 0 {
		arr := v.ToArray()
		if arr == nil {
			return wbem.RawValue{VT: wbem.VT_NULL, CIM: cim}
		}
		return wbem.RawValue{VT: vt, CIM: cim, Val: arr.ToValueArray()}
	}

	val := v.Value()
	if t, ok := val.(time.Time); ok {
		return wbem.RawValue{VT: wbem.VT_DATE, CIM: cim, Val: t}
	}
	return wbem.RawValue{VT: vt, CIM: cim, Val: val}
}

type nameArray struct {
	props *ole.IDispatch
}

func (a *nameArray) Strings() ([]string, error) {
	var names []string
	err := oleutil.ForEach(a.props, func(v *ole.VARIANT) error {
		prop := v.ToIDispatch()
		name, err := oleutil.GetProperty(prop, "Name")
		if err != nil {
			return err
		}
		defer name.Clear()
		names = append(names, name.ToString())
		return nil
	})
	if err != nil {
		return nil, &wbem.StatusError{Code: statusOf(err)}
	}
	return names, nil
}

func (a *nameArray) Destroy() wbem.HRESULT {
	a.props.Release()
	return wbem.S_OK
}
