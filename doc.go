// Package wmiq runs typed queries against a WBEM/WMI-style provider.
//
// A Connection wraps a wbem.Services session. Query and FilteredQuery build
// the query text from a record type's fields; RawQuery runs arbitrary text.
// Every result object is decoded into the record type, or into a
// variant.Object or map when the caller wants the properties as they come.
//
//	type Win32_OperatingSystem struct {
//		Caption     string
//		BuildNumber string
//	}
//
//	conn := wmiq.NewConnection(svc)
//	systems, err := wmiq.Query[Win32_OperatingSystem](conn)
//
// All calls are synchronous and block until the provider answers. Result
// handles are owned by exactly one wrapper and released exactly once.
package wmiq
