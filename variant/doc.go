// Package variant provides the closed value type produced when decoding the
// properties of a provider result object.
//
// A Variant is exactly one of Null, Bool, Int, String, Time or Array. There
// is no floating-point case: integer-like provider values all fold into Int
// and float-valued properties are rejected by the decoder.
//
// Object is an ordered name to Variant mapping. It preserves the order in
// which names were inserted (the provider's property order when produced by
// the decoder); use SortedKeys for a canonical order.
package variant
