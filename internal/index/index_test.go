package index

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
)

// spaceAnalyzer lowercases and splits on whitespace, numbering tokens by
// ordinal. Enough structure for index tests without pulling in the full
// tokenizer.
type spaceAnalyzer struct{}

func (spaceAnalyzer) Analyze(text string) []Token {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token{Text: f, Position: uint32(i)}
	}
	return tokens
}

func addDoc(t *testing.T, ix *InvertedIndex, title, url, content string) uint32 {
	t.Helper()
	id, added := ix.Add(title, url, content, spaceAnalyzer{})
	if !added {
		t.Fatalf("Add(%q) not added", url)
	}
	return id
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	ix := New()
	a := addDoc(t, ix, "A", "http://a", "red car")
	b := addDoc(t, ix, "B", "http://b", "blue car")
	if a != 0 || b != 1 {
		t.Errorf("ids = %d, %d, want 0, 1", a, b)
	}
	if ix.DocumentCount() != 2 {
		t.Errorf("DocumentCount() = %d, want 2", ix.DocumentCount())
	}
}

func TestAddDeduplicatesURL(t *testing.T) {
	ix := New()
	first := addDoc(t, ix, "A", "http://a", "red car")

	id, added := ix.Add("A again", "http://a", "entirely new text", spaceAnalyzer{})
	if added {
		t.Error("duplicate URL must not be reindexed")
	}
	if id != first {
		t.Errorf("duplicate URL returned id %d, want %d", id, first)
	}
	if ix.DocumentCount() != 1 {
		t.Errorf("DocumentCount() = %d, want 1", ix.DocumentCount())
	}
	if ix.HasTerm("entirely") {
		t.Error("duplicate document's terms leaked into the index")
	}
}

func TestAddLengthCountsDistinctTerms(t *testing.T) {
	ix := New()
	addDoc(t, ix, "A", "http://a", "red red car")

	doc, err := ix.GetDocument(0)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Length != 2 {
		t.Errorf("Length = %d, want 2 distinct terms", doc.Length)
	}
	// Frequencies still count every occurrence.
	if got := ix.TermFrequency("red"); got != 2 {
		t.Errorf("TermFrequency(red) = %d, want 2", got)
	}
}

func TestFindPostings(t *testing.T) {
	ix := New()
	addDoc(t, ix, "A", "http://a", "red car red")
	addDoc(t, ix, "B", "http://b", "red house")

	postings := ix.FindPostings("red")
	if len(postings) != 2 {
		t.Fatalf("postings for red = %v, want 2 entries", postings)
	}
	if postings[0].DocID != 0 || postings[0].Frequency != 2 {
		t.Errorf("posting[0] = %+v, want doc 0 freq 2", postings[0])
	}
	if got := postings[0].Positions; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("positions = %v, want [0 2]", got)
	}
	if postings[1].DocID != 1 || postings[1].Frequency != 1 {
		t.Errorf("posting[1] = %+v, want doc 1 freq 1", postings[1])
	}

	if ix.FindPostings("absent") != nil {
		t.Error("FindPostings must return nil for unknown term")
	}
	if got := ix.TermFrequency("red"); got != 3 {
		t.Errorf("TermFrequency(red) = %d, want 3", got)
	}
}

func TestGetDocument(t *testing.T) {
	ix := New()
	addDoc(t, ix, "Title", "http://a", "one two three")

	doc, err := ix.GetDocument(0)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Title" || doc.URL != "http://a" || doc.Length != 3 {
		t.Errorf("doc = %+v", doc)
	}

	if _, err := ix.GetDocument(5); !errors.Is(err, pkgerrors.ErrDocumentNotFound) {
		t.Errorf("GetDocument(5) = %v, want ErrDocumentNotFound", err)
	}

	byURL, err := ix.GetDocumentByURL("http://a")
	if err != nil || byURL.ID != 0 {
		t.Errorf("GetDocumentByURL = %+v, %v", byURL, err)
	}
	if _, err := ix.GetDocumentByURL("http://nope"); !errors.Is(err, pkgerrors.ErrDocumentNotFound) {
		t.Errorf("GetDocumentByURL(missing) = %v, want ErrDocumentNotFound", err)
	}
}

func TestStatsRecomputed(t *testing.T) {
	ix := New()
	addDoc(t, ix, "A", "http://a", "red red red car")
	addDoc(t, ix, "B", "http://b", "car")

	s := ix.Stats()
	if s.DocumentCount != 2 || s.TermCount != 2 {
		t.Errorf("stats = %+v", s)
	}
	// red: 1 posting, car: 2 postings.
	if s.TotalPostings != 3 {
		t.Errorf("TotalPostings = %d, want 3", s.TotalPostings)
	}
	// Distinct terms per document: 2 and 1.
	if s.AvgDocLength != 1.5 {
		t.Errorf("AvgDocLength = %v, want 1.5", s.AvgDocLength)
	}
	if s.MostFrequentTerm != "red" || s.MaxTermFrequency != 3 {
		t.Errorf("most frequent = %q (%d), want red (3)", s.MostFrequentTerm, s.MaxTermFrequency)
	}
}

func TestAllTermsSorted(t *testing.T) {
	ix := New()
	addDoc(t, ix, "A", "http://a", "zebra apple mango")

	got := ix.AllTerms()
	want := []string{"apple", "mango", "zebra"}
	if len(got) != len(want) {
		t.Fatalf("AllTerms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AllTerms = %v, want %v", got, want)
		}
	}
}

func TestClear(t *testing.T) {
	ix := New()
	addDoc(t, ix, "A", "http://a", "red car")
	ix.Clear()

	if ix.DocumentCount() != 0 || ix.TermCount() != 0 {
		t.Error("Clear left contents behind")
	}
	if ix.HasTerm("red") {
		t.Error("term survived Clear")
	}

	// The index is reusable: IDs start from zero again.
	if id := addDoc(t, ix, "B", "http://b", "blue"); id != 0 {
		t.Errorf("first id after Clear = %d, want 0", id)
	}
}

func TestValidate(t *testing.T) {
	ix := New()
	addDoc(t, ix, "A", "http://a", "red car")
	addDoc(t, ix, "B", "http://b", "red house")
	if err := ix.Validate(); err != nil {
		t.Fatalf("Validate on consistent index: %v", err)
	}

	// Corrupt a posting to point at a missing document.
	list := ix.terms.Find("red")
	(*list)[0].DocID = 99
	if err := ix.Validate(); !errors.Is(err, pkgerrors.ErrInvalidDocument) {
		t.Errorf("Validate = %v, want ErrInvalidDocument for unknown document", err)
	}
	(*list)[0].DocID = 0

	// Frequency out of step with positions.
	(*list)[0].Frequency = 7
	if err := ix.Validate(); !errors.Is(err, pkgerrors.ErrInvalidDocument) {
		t.Errorf("Validate = %v, want ErrInvalidDocument for frequency mismatch", err)
	}
	(*list)[0].Frequency = 1

	// Missing positions violate the invariant too.
	(*list)[0].Positions = nil
	if err := ix.Validate(); !errors.Is(err, pkgerrors.ErrInvalidDocument) {
		t.Errorf("Validate = %v, want ErrInvalidDocument for missing positions", err)
	}
	// Placeholder zeros of the right length pass; that is the shape of an
	// index loaded from disk.
	(*list)[0].Positions = []uint32{0}
	if err := ix.Validate(); err != nil {
		t.Errorf("Validate with placeholder positions: %v", err)
	}
}

func TestOptimizeSortsPostings(t *testing.T) {
	ix := New()
	addDoc(t, ix, "A", "http://a", "shared")
	addDoc(t, ix, "B", "http://b", "shared")

	list := ix.terms.Find("shared")
	(*list)[0], (*list)[1] = (*list)[1], (*list)[0]

	ix.Optimize()
	postings := ix.FindPostings("shared")
	if postings[0].DocID != 0 || postings[1].DocID != 1 {
		t.Errorf("postings after Optimize = %v", postings)
	}
}
