package wql

import (
	"fmt"
	"strconv"

	"github.com/roach88/wmiq/variant"
)

// SyntaxError reports where parsing stopped.
type SyntaxError struct {
	Pos     int // byte offset into the query
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %s", e.Pos, e.Message)
}

type parser struct {
	lex   lexer
	token token
}

// Parse parses one SELECT query.
func Parse(query string) (Select, error) {
	p := &parser{lex: lexer{input: query}}
	p.advance()

	sel, err := p.parseSelect()
	if err != nil {
		return Select{}, err
	}
	if p.token.typ != tokEOF {
		return Select{}, p.errorf("unexpected %s after query", p.token)
	}
	return sel, nil
}

func (p *parser) advance() {
	p.token = p.lex.next()
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	if p.token.typ == tokIllegal {
		return &SyntaxError{Pos: p.token.pos, Message: "invalid input " + p.token.literal}
	}
	return &SyntaxError{Pos: p.token.pos, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	tok := p.token
	if tok.typ != typ {
		return tok, p.errorf("expected %s, found %s", what, tok)
	}
	p.advance()
	return tok, nil
}

func (p *parser) parseSelect() (Select, error) {
	var sel Select
	if _, err := p.expect(tokSelect, "SELECT"); err != nil {
		return sel, err
	}

	if p.token.typ == tokStar {
		p.advance()
	} else {
		sel.Fields = []string{}
		for {
			tok, err := p.expect(tokIdent, "property name")
			if err != nil {
				return sel, err
			}
			sel.Fields = append(sel.Fields, tok.literal)
			if p.token.typ != tokComma {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(tokFrom, "FROM"); err != nil {
		return sel, err
	}
	class, err := p.expect(tokIdent, "class name")
	if err != nil {
		return sel, err
	}
	sel.Class = class.literal

	if p.token.typ == tokWhere {
		p.advance()
		sel.Filter, err = p.parseOr()
		if err != nil {
			return sel, err
		}
	}
	return sel, nil
}

func (p *parser) parseOr() (Predicate, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	preds := []Predicate{first}
	for p.token.typ == tokOr {
		p.advance()
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		preds = append(preds, next)
	}
	if len(preds) == 1 {
		return first, nil
	}
	return Or{Predicates: preds}, nil
}

func (p *parser) parseAnd() (Predicate, error) {
	first, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	preds := []Predicate{first}
	for p.token.typ == tokAnd {
		p.advance()
		next, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		preds = append(preds, next)
	}
	if len(preds) == 1 {
		return first, nil
	}
	return And{Predicates: preds}, nil
}

func (p *parser) parseFactor() (Predicate, error) {
	switch p.token.typ {
	case tokNot:
		p.advance()
		inner, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return Not{Predicate: inner}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Predicate, error) {
	field, err := p.expect(tokIdent, "property name")
	if err != nil {
		return nil, err
	}

	switch p.token.typ {
	case tokIs:
		p.advance()
		negate := false
		if p.token.typ == tokNot {
			negate = true
			p.advance()
		}
		if _, err := p.expect(tokNull, "NULL"); err != nil {
			return nil, err
		}
		return IsNull{Field: field.literal, Negate: negate}, nil

	case tokEq, tokNe:
		op := p.token.typ
		p.advance()
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		if _, null := value.(variant.Null); null {
			return IsNull{Field: field.literal, Negate: op == tokNe}, nil
		}
		if op == tokEq {
			return Equals{Field: field.literal, Value: value}, nil
		}
		return NotEquals{Field: field.literal, Value: value}, nil
	}
	return nil, p.errorf("expected comparison after %q, found %s", field.literal, p.token)
}

func (p *parser) parseLiteral() (variant.Variant, error) {
	tok := p.token
	switch tok.typ {
	case tokTrue:
		p.advance()
		return variant.Bool(true), nil
	case tokFalse:
		p.advance()
		return variant.Bool(false), nil
	case tokNull:
		p.advance()
		return variant.Null{}, nil
	case tokString:
		p.advance()
		return variant.String(tok.literal), nil
	case tokMinus, tokNumber:
		text := ""
		if tok.typ == tokMinus {
			p.advance()
			if p.token.typ != tokNumber {
				return nil, p.errorf("expected digits after '-', found %s", p.token)
			}
			text = "-"
		}
		text += p.token.literal
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: tok.pos, Message: fmt.Sprintf("integer %s out of range", text)}
		}
		p.advance()
		return variant.Int(n), nil
	}
	return nil, p.errorf("expected literal, found %s", tok)
}
