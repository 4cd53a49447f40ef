package index

import (
	"fmt"
	"sort"

	"github.com/kingxl111/search-engine/internal/container"
	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
)

// Token is a single analyzed term with its token-offset position in the
// source text.
type Token struct {
	Text     string
	Position uint32
}

// Analyzer turns raw document text into filtered, normalized tokens with
// positions. The index never tokenizes on its own.
type Analyzer interface {
	Analyze(text string) []Token
}

// InvertedIndex maps terms to posting lists and stores document metadata.
// Document IDs are dense and sequential, so a document's ID is its bit
// position in query result sets.
//
// InvertedIndex is not safe for concurrent mutation. Concurrent reads are
// safe once building is done.
type InvertedIndex struct {
	documents []Document
	urlToID   *container.OpenMap[string, uint32]
	terms     *container.OpenMap[string, []Posting]
	stats     Stats
}

// New creates an empty index.
func New() *InvertedIndex {
	return &InvertedIndex{
		urlToID: container.NewStringMap[uint32](),
		terms:   container.NewStringMap[[]Posting](),
	}
}

// Add indexes a document and returns its assigned ID. A document whose URL is
// already present is not reindexed; the existing ID is returned with
// added=false. Only content is analyzed so that stored positions line up
// with a later re-tokenization of the content, which snippet extraction
// relies on.
func (ix *InvertedIndex) Add(title, url, content string, an Analyzer) (id uint32, added bool) {
	if existing := ix.urlToID.Find(url); existing != nil {
		return *existing, false
	}

	id = uint32(len(ix.documents))
	tokens := an.Analyze(content)
	distinct := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		distinct[tok.Text] = struct{}{}
	}

	doc := Document{
		ID:      id,
		Title:   title,
		URL:     url,
		Content: content,
		Length:  len(distinct),
	}
	ix.documents = append(ix.documents, doc)
	ix.urlToID.Insert(url, id)

	for _, tok := range tokens {
		ix.addPosting(tok.Text, id, tok.Position)
	}
	ix.recomputeStats()
	return id, true
}

// addPosting appends an occurrence of term in doc id at the given position.
// The pointer returned by Find stays valid here because no Insert happens
// between Find and the write.
func (ix *InvertedIndex) addPosting(term string, id uint32, position uint32) {
	if list := ix.terms.Find(term); list != nil {
		last := len(*list) - 1
		if last >= 0 && (*list)[last].DocID == id {
			(*list)[last].Frequency++
			(*list)[last].Positions = append((*list)[last].Positions, position)
			return
		}
		*list = append(*list, Posting{DocID: id, Frequency: 1, Positions: []uint32{position}})
		return
	}
	ix.terms.Insert(term, []Posting{{DocID: id, Frequency: 1, Positions: []uint32{position}}})
}

// FindPostings returns the posting list for a term, or nil if the term is not
// indexed. The returned slice is shared with the index and must not be
// mutated.
func (ix *InvertedIndex) FindPostings(term string) []Posting {
	if list := ix.terms.Find(term); list != nil {
		return *list
	}
	return nil
}

// HasTerm reports whether the term appears anywhere in the corpus.
func (ix *InvertedIndex) HasTerm(term string) bool {
	return ix.terms.Contains(term)
}

// TermFrequency returns the total number of occurrences of term across all
// documents.
func (ix *InvertedIndex) TermFrequency(term string) uint64 {
	return TotalFrequency(ix.FindPostings(term))
}

// DocumentCount returns the number of indexed documents.
func (ix *InvertedIndex) DocumentCount() uint32 {
	return uint32(len(ix.documents))
}

// TermCount returns the number of distinct terms.
func (ix *InvertedIndex) TermCount() int {
	return ix.terms.Len()
}

// GetDocument returns the document with the given ID.
func (ix *InvertedIndex) GetDocument(id uint32) (Document, error) {
	if int(id) >= len(ix.documents) {
		return Document{}, fmt.Errorf("document %d: %w", id, pkgerrors.ErrDocumentNotFound)
	}
	return ix.documents[id], nil
}

// GetDocumentByURL returns the document indexed under the given URL.
func (ix *InvertedIndex) GetDocumentByURL(url string) (Document, error) {
	if id := ix.urlToID.Find(url); id != nil {
		return ix.documents[*id], nil
	}
	return Document{}, fmt.Errorf("url %s: %w", url, pkgerrors.ErrDocumentNotFound)
}

// AllTerms returns every distinct term, sorted.
func (ix *InvertedIndex) AllTerms() []string {
	terms := ix.terms.Keys()
	sort.Strings(terms)
	return terms
}

// ForEachTerm calls fn for every term and its posting list until fn returns
// false.
func (ix *InvertedIndex) ForEachTerm(fn func(term string, postings []Posting) bool) {
	ix.terms.ForEach(func(term string, list *[]Posting) bool {
		return fn(term, *list)
	})
}

// Clear removes all documents and terms.
func (ix *InvertedIndex) Clear() {
	ix.documents = nil
	ix.urlToID.Clear()
	ix.terms.Clear()
	ix.stats = Stats{}
}

// Stats returns the current corpus statistics.
func (ix *InvertedIndex) Stats() Stats {
	return ix.stats
}

// recomputeStats rebuilds all derived statistics from the current contents.
func (ix *InvertedIndex) recomputeStats() {
	s := Stats{
		DocumentCount: uint32(len(ix.documents)),
		TermCount:     ix.terms.Len(),
	}

	var totalLength int
	for i := range ix.documents {
		totalLength += ix.documents[i].Length
	}
	if s.DocumentCount > 0 {
		s.AvgDocLength = float64(totalLength) / float64(s.DocumentCount)
	}

	var totalFrequency uint64
	ix.terms.ForEach(func(term string, list *[]Posting) bool {
		s.TotalPostings += len(*list)
		freq := TotalFrequency(*list)
		totalFrequency += freq
		if freq > s.MaxTermFrequency {
			s.MaxTermFrequency = freq
			s.MostFrequentTerm = term
		}
		return true
	})
	if s.TotalPostings > 0 {
		s.AvgTermFrequency = float64(totalFrequency) / float64(s.TotalPostings)
	}

	ix.stats = s
}

// Optimize sorts every posting list by document ID. Lists built by sequential
// Add calls are already sorted; lists loaded from external sources may not be.
func (ix *InvertedIndex) Optimize() {
	ix.terms.ForEach(func(term string, list *[]Posting) bool {
		sort.Slice(*list, func(i, j int) bool {
			return (*list)[i].DocID < (*list)[j].DocID
		})
		return true
	})
}

// Validate checks internal consistency: dense document IDs, URL map
// agreement, posting document IDs in range, and frequency/position agreement.
// All failures wrap errors.ErrInvalidDocument.
func (ix *InvertedIndex) Validate() error {
	for i := range ix.documents {
		if ix.documents[i].ID != uint32(i) {
			return fmt.Errorf("document at slot %d has id %d: %w",
				i, ix.documents[i].ID, pkgerrors.ErrInvalidDocument)
		}
		id, ok := ix.urlToID.Get(ix.documents[i].URL)
		if !ok || id != uint32(i) {
			return fmt.Errorf("url map entry missing or stale for document %d: %w",
				i, pkgerrors.ErrInvalidDocument)
		}
	}

	docCount := uint32(len(ix.documents))
	var bad error
	ix.terms.ForEach(func(term string, list *[]Posting) bool {
		for i := range *list {
			p := &(*list)[i]
			if p.DocID >= docCount {
				bad = fmt.Errorf("term %q posting references unknown document %d: %w",
					term, p.DocID, pkgerrors.ErrInvalidDocument)
				return false
			}
			if p.Frequency == 0 {
				bad = fmt.Errorf("term %q has zero-frequency posting for document %d: %w",
					term, p.DocID, pkgerrors.ErrInvalidDocument)
				return false
			}
			if uint32(len(p.Positions)) != p.Frequency {
				bad = fmt.Errorf("term %q posting for document %d: frequency %d but %d positions: %w",
					term, p.DocID, p.Frequency, len(p.Positions), pkgerrors.ErrInvalidDocument)
				return false
			}
		}
		return true
	})
	return bad
}
