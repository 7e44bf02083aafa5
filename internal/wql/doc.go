// Package wql parses the SELECT subset of the WMI Query Language.
//
// Grammar (keywords are case-insensitive):
//
//	query     := SELECT fields FROM ident [WHERE condition]
//	fields    := '*' | ident {',' ident}
//	condition := term {OR term}
//	term      := factor {AND factor}
//	factor    := NOT factor | '(' condition ')' | comparison
//	comparison:= ident ('=' | '<>' | '!=') literal
//	           | ident IS [NOT] NULL
//	literal   := TRUE | FALSE | NULL | ['-'] digits | "text" | 'text'
//
// Strings are taken verbatim between their quotes; there are no escapes,
// matching how query text is built by the client.
//
// The parsed form is a Select whose Filter is a tree of sealed Predicate
// nodes. Backends switch exhaustively over the node types.
package wql
