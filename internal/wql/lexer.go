package wql

import (
	"fmt"
	"strings"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokIllegal
	tokIdent
	tokNumber
	tokString
	tokStar
	tokComma
	tokEq
	tokNe
	tokLParen
	tokRParen
	tokMinus

	// keywords
	tokSelect
	tokFrom
	tokWhere
	tokAnd
	tokOr
	tokNot
	tokIs
	tokNull
	tokTrue
	tokFalse
)

var keywords = map[string]tokenType{
	"SELECT": tokSelect,
	"FROM":   tokFrom,
	"WHERE":  tokWhere,
	"AND":    tokAnd,
	"OR":     tokOr,
	"NOT":    tokNot,
	"IS":     tokIs,
	"NULL":   tokNull,
	"TRUE":   tokTrue,
	"FALSE":  tokFalse,
}

type token struct {
	typ     tokenType
	literal string
	pos     int
}

func (t token) String() string {
	switch t.typ {
	case tokEOF:
		return "end of query"
	case tokString:
		return fmt.Sprintf("string %q", t.literal)
	default:
		return fmt.Sprintf("%q", t.literal)
	}
}

type lexer struct {
	input string
	pos   int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *lexer) next() token {
	for l.pos < len(l.input) && strings.IndexByte(" \t\r\n", l.input[l.pos]) >= 0 {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.input) {
		return token{typ: tokEOF, pos: start}
	}

	c := l.input[l.pos]
	single := func(typ tokenType) token {
		l.pos++
		return token{typ: typ, literal: string(c), pos: start}
	}

	switch {
	case c == '*':
		return single(tokStar)
	case c == ',':
		return single(tokComma)
	case c == '=':
		return single(tokEq)
	case c == '(':
		return single(tokLParen)
	case c == ')':
		return single(tokRParen)
	case c == '-':
		return single(tokMinus)
	case c == '<' && l.peek(1) == '>', c == '!' && l.peek(1) == '=':
		l.pos += 2
		return token{typ: tokNe, literal: l.input[start:l.pos], pos: start}
	case c == '"' || c == '\'':
		end := strings.IndexByte(l.input[l.pos+1:], c)
		if end < 0 {
			l.pos = len(l.input)
			return token{typ: tokIllegal, literal: "unterminated string", pos: start}
		}
		l.pos += end + 2
		return token{typ: tokString, literal: l.input[start+1 : l.pos-1], pos: start}
	case isDigit(c):
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
		return token{typ: tokNumber, literal: l.input[start:l.pos], pos: start}
	case isIdentStart(c):
		for l.pos < len(l.input) && (isIdentStart(l.input[l.pos]) || isDigit(l.input[l.pos])) {
			l.pos++
		}
		word := l.input[start:l.pos]
		if kw, ok := keywords[strings.ToUpper(word)]; ok {
			return token{typ: kw, literal: word, pos: start}
		}
		return token{typ: tokIdent, literal: word, pos: start}
	}

	l.pos++
	return token{typ: tokIllegal, literal: string(c), pos: start}
}

func (l *lexer) peek(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}
