// Package query compiles boolean query text into an AST: a lexer, a
// recursive-descent parser with implicit AND, and light tree optimization.
package query

import (
	"strconv"
	"strings"

	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
)

type tokenType int

const (
	tokenAnd tokenType = iota
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
	tokenTerm
	tokenPhrase
	tokenProximity
	tokenEnd
)

func (t tokenType) String() string {
	switch t {
	case tokenAnd:
		return "AND"
	case tokenOr:
		return "OR"
	case tokenNot:
		return "NOT"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenTerm:
		return "term"
	case tokenPhrase:
		return "phrase"
	case tokenProximity:
		return "proximity"
	default:
		return "end of query"
	}
}

type token struct {
	typ      tokenType
	value    string
	distance uint32
	pos      int
}

func isTermStart(b byte) bool {
	return isASCIIAlnum(b) || b >= 128
}

func isTermByte(b byte) bool {
	return isASCIIAlnum(b) || b == '-' || b == '_' || b == '\'' || b >= 128
}

func isASCIIAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// lex splits query text into tokens. Phrases come out as a single token with
// the quoted content verbatim; a following /N becomes a proximity token.
func lex(query string) ([]token, error) {
	var tokens []token
	i := 0
	n := len(query)
	for i < n {
		c := query[i]
		switch {
		case isSpace(c):
			i++
		case c == '#':
			for i < n && query[i] != '\n' {
				i++
			}
		case c == '&':
			if i+1 < n && query[i+1] == '&' {
				tokens = append(tokens, token{typ: tokenAnd, pos: i})
				i += 2
				continue
			}
			return nil, pkgerrors.NewSyntaxError(i, "unknown character %q", c)
		case c == '|':
			if i+1 < n && query[i+1] == '|' {
				tokens = append(tokens, token{typ: tokenOr, pos: i})
				i += 2
				continue
			}
			return nil, pkgerrors.NewSyntaxError(i, "unknown character %q", c)
		case c == '!':
			tokens = append(tokens, token{typ: tokenNot, pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{typ: tokenLParen, pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{typ: tokenRParen, pos: i})
			i++
		case c == '"':
			start := i
			i++
			content := i
			for i < n && query[i] != '"' {
				i++
			}
			if i >= n {
				return nil, pkgerrors.NewSyntaxError(start, "unterminated phrase")
			}
			tokens = append(tokens, token{typ: tokenPhrase, value: query[content:i], pos: start})
			i++ // closing quote

			// A proximity suffix binds only immediately after the closing
			// quote; a detached /N is a syntax error downstream.
			if i < n && query[i] == '/' {
				i++
				digits := i
				for i < n && query[i] >= '0' && query[i] <= '9' {
					i++
				}
				if i == digits {
					return nil, pkgerrors.NewSyntaxError(digits, "proximity operator requires a distance")
				}
				d, err := strconv.ParseUint(query[digits:i], 10, 32)
				if err != nil {
					return nil, pkgerrors.NewSyntaxError(digits, "invalid proximity distance %q", query[digits:i])
				}
				tokens = append(tokens, token{typ: tokenProximity, distance: uint32(d), pos: digits})
			}
		case isTermStart(c):
			start := i
			for i < n && isTermByte(query[i]) {
				i++
			}
			tokens = append(tokens, token{typ: tokenTerm, value: strings.ToLower(query[start:i]), pos: start})
		default:
			return nil, pkgerrors.NewSyntaxError(i, "unknown character %q", c)
		}
	}
	tokens = append(tokens, token{typ: tokenEnd, pos: n})
	return tokens, nil
}
