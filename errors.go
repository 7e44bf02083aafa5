package wmiq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/wmiq/wbem"
)

// ErrorKind classifies query failures.
type ErrorKind string

const (
	// KindMalformedQuery indicates the query text cannot be converted to a
	// wide string.
	KindMalformedQuery ErrorKind = "MALFORMED_QUERY"

	// KindExecution indicates the provider rejected the query at execution.
	KindExecution ErrorKind = "EXECUTION_FAILED"

	// KindEnumeration indicates the provider failed while advancing the cursor.
	KindEnumeration ErrorKind = "ENUMERATION_FAILED"

	// KindListProperties indicates the property name listing failed.
	KindListProperties ErrorKind = "LIST_PROPERTIES_FAILED"

	// KindDecode indicates a property is missing or has an incompatible type.
	KindDecode ErrorKind = "DECODE_FAILED"
)

// ErrClosed is returned when a closed result object is used.
var ErrClosed = errors.New("wmiq: result object is closed")

// QueryError is returned by every failing operation of this package.
//
// When the provider reported a failure status, Status holds it and Err is a
// *wbem.StatusError with the same code.
type QueryError struct {
	Kind     ErrorKind
	Status   wbem.HRESULT
	Query    string
	Property string
	Err      error
}

func (e *QueryError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Property != "" {
		fmt.Fprintf(&b, ": property %q", e.Property)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Query != "" {
		fmt.Fprintf(&b, " (query=%q)", e.Query)
	}
	return b.String()
}

func (e *QueryError) Unwrap() error { return e.Err }

func statusError(kind ErrorKind, hr wbem.HRESULT) *QueryError {
	return &QueryError{Kind: kind, Status: hr, Err: &wbem.StatusError{Code: hr}}
}

func wrapError(kind ErrorKind, err error) *QueryError {
	qe := &QueryError{Kind: kind, Err: err}
	var se *wbem.StatusError
	if errors.As(err, &se) {
		qe.Status = se.Code
	}
	return qe
}

// IsKind reports whether err is a QueryError of the given kind.
// Uses errors.As to handle wrapped errors.
func IsKind(err error, kind ErrorKind) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind == kind
	}
	return false
}

// StatusOf returns the provider status carried by err, if any.
func StatusOf(err error) (wbem.HRESULT, bool) {
	var se *wbem.StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// withQuery records the query text on a QueryError that lacks it.
func withQuery(err error, query string) error {
	var qe *QueryError
	if errors.As(err, &qe) && qe.Query == "" {
		qe.Query = query
	}
	return err
}
