package query

import (
	"strings"

	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
)

// Parser compiles query text into an optimized AST.
//
// Grammar, loosest binding first:
//
//	expression := term (OR term)*
//	term       := factor ((AND | ε) factor)*    adjacency is an implicit AND
//	factor     := NOT factor | primary
//	primary    := '(' expression ')' | phrase | TERM
//
// An all-whitespace or comment-only query compiles to a nil root without
// error; the caller decides what an empty query means.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse compiles the query. Syntax problems return a *errors.SyntaxError
// carrying the byte offset of the offending input.
func (p *Parser) Parse(text string) (Node, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, err
	}
	if tokens[0].typ == tokenEnd {
		return nil, nil
	}
	s := &parseState{tokens: tokens}
	root, err := s.parseExpression()
	if err != nil {
		return nil, err
	}
	if s.peek().typ != tokenEnd {
		return nil, pkgerrors.NewSyntaxError(s.peek().pos, "unexpected %s", s.peek().typ)
	}
	return optimize(root), nil
}

// Validate reports whether the query parses, without building a result.
func (p *Parser) Validate(text string) bool {
	_, err := p.Parse(text)
	return err == nil
}

type parseState struct {
	tokens []token
	pos    int
}

func (s *parseState) peek() token {
	return s.tokens[s.pos]
}

func (s *parseState) next() token {
	t := s.tokens[s.pos]
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return t
}

func (s *parseState) parseExpression() (Node, error) {
	left, err := s.parseTerm()
	if err != nil {
		return nil, err
	}
	for s.peek().typ == tokenOr {
		s.next()
		right, err := s.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (s *parseState) parseTerm() (Node, error) {
	left, err := s.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		switch s.peek().typ {
		case tokenAnd:
			s.next()
		case tokenOr, tokenRParen, tokenEnd:
			return left, nil
		}
		right, err := s.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
}

func (s *parseState) parseFactor() (Node, error) {
	if s.peek().typ == tokenNot {
		s.next()
		operand, err := s.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Not{Operand: operand}, nil
	}
	return s.parsePrimary()
}

func (s *parseState) parsePrimary() (Node, error) {
	switch t := s.peek(); t.typ {
	case tokenLParen:
		s.next()
		expr, err := s.parseExpression()
		if err != nil {
			return nil, err
		}
		if s.peek().typ != tokenRParen {
			return nil, pkgerrors.NewSyntaxError(s.peek().pos, "expected ')'")
		}
		s.next()
		return expr, nil

	case tokenPhrase:
		s.next()
		terms := strings.Fields(strings.ToLower(t.value))
		if len(terms) == 0 {
			return nil, pkgerrors.NewSyntaxError(t.pos, "empty phrase")
		}
		if s.peek().typ == tokenProximity {
			prox := s.next()
			return &Proximity{Terms: terms, MaxDistance: prox.distance}, nil
		}
		return &Phrase{Terms: terms}, nil

	case tokenTerm:
		s.next()
		return &Term{Term: t.value}, nil

	default:
		return nil, pkgerrors.NewSyntaxError(t.pos, "expected term, phrase, or '(', got %s", t.typ)
	}
}

// optimize collapses duplicate operands of AND and OR, comparing by canonical
// string form, and removes double negation.
func optimize(root Node) Node {
	switch v := root.(type) {
	case *And:
		left := optimize(v.Left)
		right := optimize(v.Right)
		if left.String() == right.String() {
			return left
		}
		return &And{Left: left, Right: right}
	case *Or:
		left := optimize(v.Left)
		right := optimize(v.Right)
		if left.String() == right.String() {
			return left
		}
		return &Or{Left: left, Right: right}
	case *Not:
		if inner, ok := v.Operand.(*Not); ok {
			return optimize(inner.Operand)
		}
		return &Not{Operand: optimize(v.Operand)}
	default:
		return root
	}
}
