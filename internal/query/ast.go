package query

import (
	"fmt"
	"strings"
)

// Node is a query AST node. Evaluation type-switches on the concrete types,
// and String produces a canonical form used both for display and for
// duplicate-subtree detection during optimization.
type Node interface {
	String() string
}

// Term matches documents containing a single term.
type Term struct {
	Term string
}

func (n *Term) String() string { return n.Term }

// Phrase matches documents containing the terms at consecutive positions.
type Phrase struct {
	Terms []string
}

func (n *Phrase) String() string {
	return fmt.Sprintf("%q", strings.Join(n.Terms, " "))
}

// Proximity matches documents where every term occurs within MaxDistance
// token positions after the first term.
type Proximity struct {
	Terms       []string
	MaxDistance uint32
}

func (n *Proximity) String() string {
	return fmt.Sprintf("%q/%d", strings.Join(n.Terms, " "), n.MaxDistance)
}

// And matches documents satisfying both operands.
type And struct {
	Left, Right Node
}

func (n *And) String() string {
	return fmt.Sprintf("(%s AND %s)", n.Left, n.Right)
}

// Or matches documents satisfying either operand.
type Or struct {
	Left, Right Node
}

func (n *Or) String() string {
	return fmt.Sprintf("(%s OR %s)", n.Left, n.Right)
}

// Not matches documents not satisfying the operand.
type Not struct {
	Operand Node
}

func (n *Not) String() string {
	return fmt.Sprintf("(NOT %s)", n.Operand)
}

// ExtractTerms returns the distinct terms of the tree in first-occurrence
// order. A nil root yields nil.
func ExtractTerms(root Node) []string {
	var terms []string
	seen := make(map[string]struct{})
	add := func(t string) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			terms = append(terms, t)
		}
	}
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case nil:
		case *Term:
			add(v.Term)
		case *Phrase:
			for _, t := range v.Terms {
				add(t)
			}
		case *Proximity:
			for _, t := range v.Terms {
				add(t)
			}
		case *And:
			walk(v.Left)
			walk(v.Right)
		case *Or:
			walk(v.Left)
			walk(v.Right)
		case *Not:
			walk(v.Operand)
		}
	}
	walk(root)
	return terms
}

// Complexity counts the nodes of the tree; leaves count as one.
func Complexity(root Node) int {
	switch v := root.(type) {
	case nil:
		return 0
	case *And:
		return 1 + Complexity(v.Left) + Complexity(v.Right)
	case *Or:
		return 1 + Complexity(v.Left) + Complexity(v.Right)
	case *Not:
		return 1 + Complexity(v.Operand)
	default:
		return 1
	}
}

// Rewrite returns a copy of the tree with fn applied to every term, phrase
// term, and proximity term. Terms fn maps to "" are left unchanged, so a
// normalizer that rejects a token cannot silently drop it from the query.
func Rewrite(root Node, fn func(string) string) Node {
	apply := func(t string) string {
		if mapped := fn(t); mapped != "" {
			return mapped
		}
		return t
	}
	switch v := root.(type) {
	case nil:
		return nil
	case *Term:
		return &Term{Term: apply(v.Term)}
	case *Phrase:
		terms := make([]string, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = apply(t)
		}
		return &Phrase{Terms: terms}
	case *Proximity:
		terms := make([]string, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = apply(t)
		}
		return &Proximity{Terms: terms, MaxDistance: v.MaxDistance}
	case *And:
		return &And{Left: Rewrite(v.Left, fn), Right: Rewrite(v.Right, fn)}
	case *Or:
		return &Or{Left: Rewrite(v.Left, fn), Right: Rewrite(v.Right, fn)}
	case *Not:
		return &Not{Operand: Rewrite(v.Operand, fn)}
	default:
		return root
	}
}
