// Package wbem describes the foreign object model that wmiq drives: a
// provider session that executes query text and hands back reference-counted
// cursor and class-object handles, dynamically typed property values, and
// numeric status codes.
//
// The interfaces here mirror the COM surface of a WMI service (IWbemServices,
// IEnumWbemClassObject, IWbemClassObject) closely enough that a live backend
// (package wbem/ole) and an in-memory backend (package wbem/inmem) can both
// implement them. Every handle returned by an interface method carries one
// reference owned by the caller, which must be given back with exactly one
// Release.
package wbem
