// Package search evaluates compiled queries against the inverted index and
// exposes the engine that ties parsing, evaluation, snippets, and statistics
// together.
package search

import (
	"sort"

	"github.com/kingxl111/search-engine/internal/container"
	"github.com/kingxl111/search-engine/internal/index"
	"github.com/kingxl111/search-engine/internal/query"
)

// DocumentResult is one matching document. Boolean retrieval has no natural
// ranking, so Score is a constant and results order by ascending document ID.
type DocumentResult struct {
	DocID uint32  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Evaluator executes query ASTs against one index snapshot. It performs only
// reads, so a single Evaluator may serve concurrent queries.
type Evaluator struct {
	index *index.InvertedIndex
}

// NewEvaluator creates an Evaluator over the given index.
func NewEvaluator(ix *index.InvertedIndex) *Evaluator {
	return &Evaluator{index: ix}
}

// Evaluate returns the set of matching documents, one bit per document ID.
// A nil root matches nothing.
func (e *Evaluator) Evaluate(root query.Node) *container.BitSet {
	docCount := e.index.DocumentCount()
	switch v := root.(type) {
	case nil:
		return container.NewBitSet(docCount)
	case *query.Term:
		return e.evaluateTerm(v.Term)
	case *query.Phrase:
		return e.evaluatePositional(v.Terms, func(docID uint32) bool {
			return e.phraseAt(docID, v.Terms)
		})
	case *query.Proximity:
		return e.evaluatePositional(v.Terms, func(docID uint32) bool {
			return e.proximityAt(docID, v.Terms, v.MaxDistance)
		})
	case *query.And:
		left := e.Evaluate(v.Left)
		left.And(e.Evaluate(v.Right))
		return left
	case *query.Or:
		left := e.Evaluate(v.Left)
		left.Or(e.Evaluate(v.Right))
		return left
	case *query.Not:
		result := e.Evaluate(v.Operand)
		result.Not()
		return result
	default:
		return container.NewBitSet(docCount)
	}
}

// evaluateTerm returns the documents containing term. Unknown terms yield an
// empty set of the full document-count size, so set algebra stays valid.
func (e *Evaluator) evaluateTerm(term string) *container.BitSet {
	result := container.NewBitSet(e.index.DocumentCount())
	for _, p := range e.index.FindPostings(term) {
		result.Set(p.DocID)
	}
	return result
}

// evaluatePositional narrows the candidate set of the first term by a
// per-document position check.
func (e *Evaluator) evaluatePositional(terms []string, match func(docID uint32) bool) *container.BitSet {
	if len(terms) == 0 {
		return container.NewBitSet(e.index.DocumentCount())
	}
	result := e.evaluateTerm(terms[0])
	for docID := result.FirstSet(); docID < result.Size(); docID = result.NextSet(docID + 1) {
		if !match(docID) {
			result.Clear(docID)
		}
	}
	return result
}

func (e *Evaluator) termPositions(term string, docID uint32) []uint32 {
	for _, p := range e.index.FindPostings(term) {
		if p.DocID == docID {
			return p.Positions
		}
	}
	return nil
}

// phraseAt reports whether the terms occur consecutively in the document:
// for some position p of the first term, term i sits at p+i.
func (e *Evaluator) phraseAt(docID uint32, terms []string) bool {
	first := e.termPositions(terms[0], docID)
	if len(first) == 0 {
		return false
	}
	for _, pos := range first {
		found := true
		for i := 1; i < len(terms); i++ {
			if !containsPosition(e.termPositions(terms[i], docID), pos+uint32(i)) {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

// proximityAt reports whether every term occurs within maxDistance positions
// at or after some occurrence of the first term. The window only extends
// forward from the first term.
func (e *Evaluator) proximityAt(docID uint32, terms []string, maxDistance uint32) bool {
	all := make([][]uint32, len(terms))
	for i, t := range terms {
		all[i] = e.termPositions(t, docID)
		if len(all[i]) == 0 {
			return false
		}
	}
	for _, first := range all[0] {
		found := true
		for i := 1; i < len(all); i++ {
			inWindow := false
			for _, pos := range all[i] {
				if pos >= first && pos <= first+maxDistance {
					inWindow = true
					break
				}
			}
			if !inWindow {
				found = false
				break
			}
		}
		if found {
			return true
		}
	}
	return false
}

func containsPosition(positions []uint32, want uint32) bool {
	for _, p := range positions {
		if p == want {
			return true
		}
	}
	return false
}

// EvaluateDetailed returns every match as a DocumentResult ordered by score
// descending, document ID ascending.
func (e *Evaluator) EvaluateDetailed(root query.Node) []DocumentResult {
	bits := e.Evaluate(root)
	results := make([]DocumentResult, 0, bits.Count())
	for docID := bits.FirstSet(); docID < bits.Size(); docID = bits.NextSet(docID + 1) {
		results = append(results, DocumentResult{DocID: docID, Score: 1.0})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})
	return results
}

// TopResults returns at most n matches in EvaluateDetailed order.
func (e *Evaluator) TopResults(root query.Node, n int) []DocumentResult {
	results := e.EvaluateDetailed(root)
	if n >= 0 && n < len(results) {
		return results[:n]
	}
	return results
}

// CountResults returns the number of matching documents.
func (e *Evaluator) CountResults(root query.Node) uint32 {
	return e.Evaluate(root).Count()
}

// Exists reports whether any document matches.
func (e *Evaluator) Exists(root query.Node) bool {
	return e.Evaluate(root).Any()
}

// DocumentMatches reports whether one specific document matches.
func (e *Evaluator) DocumentMatches(root query.Node, docID uint32) bool {
	if docID >= e.index.DocumentCount() {
		return false
	}
	return e.Evaluate(root).Test(docID)
}
