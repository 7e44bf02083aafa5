package wbem

import (
	"errors"
	"fmt"
)

// HRESULT is a provider status code. Negative values are failures.
type HRESULT int32

// hrBias shifts unsigned 32-bit failure literals into the int32 range.
const hrBias = 1 << 32

// Success codes.
const (
	S_OK                HRESULT = 0
	S_FALSE             HRESULT = 1
	WBEM_S_NO_ERROR     HRESULT = 0
	WBEM_S_FALSE        HRESULT = 1
	WBEM_S_TIMEDOUT     HRESULT = 0x40004
	WBEM_S_NO_MORE_DATA HRESULT = 0x40005
)

// Failure codes.
const (
	WBEM_E_FAILED             HRESULT = 0x80041001 - hrBias
	WBEM_E_NOT_FOUND          HRESULT = 0x80041002 - hrBias
	WBEM_E_ACCESS_DENIED      HRESULT = 0x80041003 - hrBias
	WBEM_E_PROVIDER_FAILURE   HRESULT = 0x80041004 - hrBias
	WBEM_E_TYPE_MISMATCH      HRESULT = 0x80041005 - hrBias
	WBEM_E_OUT_OF_MEMORY      HRESULT = 0x80041006 - hrBias
	WBEM_E_INVALID_CONTEXT    HRESULT = 0x80041007 - hrBias
	WBEM_E_INVALID_PARAMETER  HRESULT = 0x80041008 - hrBias
	WBEM_E_NOT_AVAILABLE      HRESULT = 0x80041009 - hrBias
	WBEM_E_CRITICAL_ERROR     HRESULT = 0x8004100A - hrBias
	WBEM_E_NOT_SUPPORTED      HRESULT = 0x8004100C - hrBias
	WBEM_E_INVALID_NAMESPACE  HRESULT = 0x8004100E - hrBias
	WBEM_E_INVALID_CLASS      HRESULT = 0x80041010 - hrBias
	WBEM_E_INVALID_QUERY      HRESULT = 0x80041017 - hrBias
	WBEM_E_INVALID_QUERY_TYPE HRESULT = 0x80041018 - hrBias
	WBEM_E_SHUTTING_DOWN      HRESULT = 0x80041033 - hrBias
	E_POINTER                 HRESULT = 0x80004003 - hrBias
	E_OUTOFMEMORY             HRESULT = 0x8007000E - hrBias
	E_INVALIDARG              HRESULT = 0x80070057 - hrBias
	E_UNEXPECTED              HRESULT = 0x8000FFFF - hrBias
)

// Succeeded reports whether hr is a success code (S_FALSE and the WBEM_S_*
// informational codes included).
func (hr HRESULT) Succeeded() bool { return hr >= 0 }

// Failed reports whether hr is a failure code.
func (hr HRESULT) Failed() bool { return hr < 0 }

// String renders the code as 0x%08X.
func (hr HRESULT) String() string {
	return fmt.Sprintf("0x%08X", uint32(hr))
}

var statusNames = map[HRESULT]string{
	S_OK:                      "WBEM_S_NO_ERROR",
	S_FALSE:                   "WBEM_S_FALSE",
	WBEM_S_TIMEDOUT:           "WBEM_S_TIMEDOUT",
	WBEM_S_NO_MORE_DATA:       "WBEM_S_NO_MORE_DATA",
	WBEM_E_FAILED:             "WBEM_E_FAILED",
	WBEM_E_NOT_FOUND:          "WBEM_E_NOT_FOUND",
	WBEM_E_ACCESS_DENIED:      "WBEM_E_ACCESS_DENIED",
	WBEM_E_PROVIDER_FAILURE:   "WBEM_E_PROVIDER_FAILURE",
	WBEM_E_TYPE_MISMATCH:      "WBEM_E_TYPE_MISMATCH",
	WBEM_E_OUT_OF_MEMORY:      "WBEM_E_OUT_OF_MEMORY",
	WBEM_E_INVALID_CONTEXT:    "WBEM_E_INVALID_CONTEXT",
	WBEM_E_INVALID_PARAMETER:  "WBEM_E_INVALID_PARAMETER",
	WBEM_E_NOT_AVAILABLE:      "WBEM_E_NOT_AVAILABLE",
	WBEM_E_CRITICAL_ERROR:     "WBEM_E_CRITICAL_ERROR",
	WBEM_E_NOT_SUPPORTED:      "WBEM_E_NOT_SUPPORTED",
	WBEM_E_INVALID_NAMESPACE:  "WBEM_E_INVALID_NAMESPACE",
	WBEM_E_INVALID_CLASS:      "WBEM_E_INVALID_CLASS",
	WBEM_E_INVALID_QUERY:      "WBEM_E_INVALID_QUERY",
	WBEM_E_INVALID_QUERY_TYPE: "WBEM_E_INVALID_QUERY_TYPE",
	WBEM_E_SHUTTING_DOWN:      "WBEM_E_SHUTTING_DOWN",
	E_POINTER:                 "E_POINTER",
	E_OUTOFMEMORY:             "E_OUTOFMEMORY",
	E_INVALIDARG:              "E_INVALIDARG",
	E_UNEXPECTED:              "E_UNEXPECTED",
}

var statusDescriptions = map[HRESULT]string{
	S_OK:                      "the call succeeded",
	S_FALSE:                   "the call succeeded with fewer results than requested",
	WBEM_S_TIMEDOUT:           "the call timed out before any result was available",
	WBEM_S_NO_MORE_DATA:       "no more data is available",
	WBEM_E_FAILED:             "the call failed",
	WBEM_E_NOT_FOUND:          "the object or property was not found",
	WBEM_E_ACCESS_DENIED:      "the current user does not have permission to perform the action",
	WBEM_E_PROVIDER_FAILURE:   "the provider failed for a reason other than those listed",
	WBEM_E_TYPE_MISMATCH:      "a type mismatch occurred",
	WBEM_E_OUT_OF_MEMORY:      "there was not enough memory for the operation",
	WBEM_E_INVALID_CONTEXT:    "the context object is not valid",
	WBEM_E_INVALID_PARAMETER:  "one of the parameters to the call is not correct",
	WBEM_E_NOT_AVAILABLE:      "the resource is unavailable",
	WBEM_E_CRITICAL_ERROR:     "an internal critical error occurred",
	WBEM_E_NOT_SUPPORTED:      "the feature or operation is not supported",
	WBEM_E_INVALID_NAMESPACE:  "the namespace specified could not be found",
	WBEM_E_INVALID_CLASS:      "the specified class is not valid",
	WBEM_E_INVALID_QUERY:      "the query was not syntactically valid",
	WBEM_E_INVALID_QUERY_TYPE: "the requested query language is not supported",
	WBEM_E_SHUTTING_DOWN:      "the service is shutting down",
	E_POINTER:                 "invalid pointer",
	E_OUTOFMEMORY:             "failed to allocate necessary memory",
	E_INVALIDARG:              "one or more arguments are not valid",
	E_UNEXPECTED:              "unexpected failure",
}

// StatusName returns the symbolic name of hr (for example
// "WBEM_E_INVALID_QUERY"), or its hexadecimal form when unknown.
func StatusName(hr HRESULT) string {
	if name, ok := statusNames[hr]; ok {
		return name
	}
	return hr.String()
}

// ParseStatusName is the inverse of StatusName for known codes.
func ParseStatusName(name string) (HRESULT, bool) {
	for hr, n := range statusNames {
		if n == name {
			return hr, true
		}
	}
	return 0, false
}

// StatusText translates hr into a human-readable description. It is used
// only for diagnostics; callers branch on the code itself.
func StatusText(hr HRESULT) string {
	if desc, ok := statusDescriptions[hr]; ok {
		return desc
	}
	if hr.Failed() {
		return "unknown provider failure"
	}
	return "unknown provider status"
}

// StatusError carries a raw failure status returned by the provider.
type StatusError struct {
	Code HRESULT
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (%s): %s", StatusName(e.Code), e.Code, StatusText(e.Code))
}

// Check returns nil for success codes and a *StatusError otherwise.
func Check(hr HRESULT) error {
	if hr.Succeeded() {
		return nil
	}
	return &StatusError{Code: hr}
}

// IsStatus reports whether err wraps a StatusError with the given code.
func IsStatus(err error, code HRESULT) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
