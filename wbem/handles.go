package wbem

// Query flags passed to Services.ExecQuery.
const (
	FlagReturnImmediately int32 = 0x10
	FlagForwardOnly       int32 = 0x20
)

// Property name flags passed to ClassObject.GetNames.
const (
	FlagAlways        int32 = 0
	FlagNonSystemOnly int32 = 0x40
)

// Infinite is the Enumerator.Next timeout that blocks until the provider
// returns an item or signals the end of the results.
const Infinite int32 = -1

// QueryLanguage is the only language the provider accepts.
const QueryLanguage = "WQL"

// Services is a provider session able to execute query text.
//
// language and query are NUL-terminated UTF-16 strings (see EncodeWide).
// On success the returned Enumerator carries one reference owned by the
// caller.
type Services interface {
	ExecQuery(language, query []uint16, flags int32) (Enumerator, HRESULT)
}

// Enumerator is a forward-only cursor over query results.
//
// Next blocks for up to timeout milliseconds (Infinite to wait forever) and
// returns at most count objects, each carrying one caller-owned reference.
// A success status with zero objects marks the end of the results.
type Enumerator interface {
	Next(timeout int32, count uint32) ([]ClassObject, HRESULT)
	Release() uint32
}

// ClassObject is one result object: a bag of named, dynamically typed
// properties.
type ClassObject interface {
	// GetNames returns the property names selected by flags. The returned
	// array is owned by the caller and must be destroyed.
	GetNames(flags int32) (NameArray, HRESULT)

	// Get fetches one property. Unknown names fail with WBEM_E_NOT_FOUND.
	Get(name string) (RawValue, HRESULT)

	Release() uint32
}

// NameArray is a provider-allocated array of property names.
// Strings converts it into local memory; Destroy frees the provider
// allocation and must be called exactly once.
type NameArray interface {
	Strings() ([]string, error)
	Destroy() HRESULT
}
