//go:build windows

package ole

import (
	"errors"
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"github.com/roach88/wmiq/wbem"
)

// DefaultNamespace is the namespace used when none is given.
const DefaultNamespace = `root\cimv2`

// Session is a connected SWbemServices object.
type Session struct {
	locator  *ole.IDispatch
	services *ole.IDispatch
}

var _ wbem.Services = (*Session)(nil)

// Connect initializes COM on the current thread and connects to namespace
// on host ("" or "." for the local machine).
func Connect(host, namespace string) (*Session, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if host == "" {
		host = "."
	}

	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		// S_FALSE: already initialized on this thread.
		if !errors.As(err, &oleErr) || oleErr.Code() != uintptr(wbem.S_FALSE) {
			return nil, fmt.Errorf("initialize COM: %w", err)
		}
	}

	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		ole.CoUninitialize()
		return nil, fmt.Errorf("create SWbemLocator: %w", err)
	}
	defer unknown.Release()

	locator, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		ole.CoUninitialize()
		return nil, fmt.Errorf("query SWbemLocator: %w", err)
	}

	result, err := oleutil.CallMethod(locator, "ConnectServer", host, namespace)
	if err != nil {
		locator.Release()
		ole.CoUninitialize()
		return nil, fmt.Errorf("connect to %s on %s: %w", namespace, host, err)
	}

	return &Session{locator: locator, services: result.ToIDispatch()}, nil
}

// ExecQuery implements wbem.Services.
func (s *Session) ExecQuery(language, query []uint16, flags int32) (wbem.Enumerator, wbem.HRESULT) {
	lang, err := wbem.DecodeWide(language)
	if err != nil {
		return nil, wbem.WBEM_E_INVALID_PARAMETER
	}
	text, err := wbem.DecodeWide(query)
	if err != nil {
		return nil, wbem.WBEM_E_INVALID_PARAMETER
	}

	result, err := oleutil.CallMethod(s.services, "ExecQuery", text, lang, flags)
	if err != nil {
		return nil, statusOf(err)
	}
	set := result.ToIDispatch()
	defer set.Release()

	prop, err := oleutil.GetProperty(set, "_NewEnum")
	if err != nil {
		return nil, statusOf(err)
	}
	defer prop.Clear()

	enum, err := prop.ToIUnknown().IEnumVARIANT(ole.IID_IEnumVariant)
	if err != nil {
		return nil, statusOf(err)
	}
	return &enumerator{enum: enum}, wbem.S_OK
}

// Close releases the session and uninitializes COM on the current thread.
func (s *Session) Close() error {
	if s.services != nil {
		s.services.Release()
		s.services = nil
	}
	if s.locator != nil {
		s.locator.Release()
		s.locator = nil
		ole.CoUninitialize()
	}
	return nil
}

type scoder interface {
	SCODE() uint32
}

// statusOf extracts the provider status from an automation error. WMI
// reports its own codes through the exception info of DISP_E_EXCEPTION.
func statusOf(err error) wbem.HRESULT {
	var oleErr *ole.OleError
	if !errors.As(err, &oleErr) {
		return wbem.WBEM_E_FAILED
	}
	if sc, ok := oleErr.SubError().(scoder); ok && sc.SCODE() != 0 {
		return wbem.HRESULT(int32(sc.SCODE()))
	}
	return wbem.HRESULT(int32(uint32(oleErr.Code())))
}
