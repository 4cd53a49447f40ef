package index

import (
	"context"
	"strings"
	"testing"
)

func TestIndexOneSkipsBlankAndDuplicate(t *testing.T) {
	b := NewBuilder(spaceAnalyzer{})

	if _, added := b.IndexOne("No URL", "", "content"); added {
		t.Error("blank URL must be skipped")
	}
	if _, added := b.IndexOne("No content", "http://a", "   "); added {
		t.Error("blank content must be skipped")
	}
	if _, added := b.IndexOne("Good", "http://a", "red car"); !added {
		t.Error("valid document rejected")
	}
	if _, added := b.IndexOne("Dup", "http://a", "other text"); added {
		t.Error("duplicate URL must be skipped")
	}

	stats := b.Finish()
	if stats.Processed != 1 || stats.Skipped != 3 {
		t.Errorf("stats = %+v, want 1 processed, 3 skipped", stats)
	}
	if stats.Tokens != 2 {
		t.Errorf("Tokens = %d, want 2", stats.Tokens)
	}
}

func TestBuildFromReader(t *testing.T) {
	input := `{"title":"A","url":"http://a","content":"red car"}

{"title":"B","url":"http://b","content":"blue car"}
`
	b := NewBuilder(spaceAnalyzer{})
	stats, err := b.BuildFromReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("BuildFromReader: %v", err)
	}
	if stats.Processed != 2 {
		t.Errorf("Processed = %d, want 2", stats.Processed)
	}
	if b.Index().DocumentCount() != 2 {
		t.Errorf("DocumentCount() = %d, want 2", b.Index().DocumentCount())
	}
	if !b.Index().HasTerm("blue") {
		t.Error("term blue not indexed")
	}
}

func TestBuildFromReaderMalformedLine(t *testing.T) {
	// A malformed line is counted as skipped; documents after it still index.
	input := `{"title":"A","url":"http://a","content":"red car"}
this is not json
{"title":"B","url":"http://b","content":"blue car"}
`
	b := NewBuilder(spaceAnalyzer{})
	stats, err := b.BuildFromReader(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("BuildFromReader: %v", err)
	}
	if stats.Processed != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 processed, 1 skipped", stats)
	}
	if !b.Index().HasTerm("blue") {
		t.Error("document after the malformed line not indexed")
	}
}

func TestBuildFromReaderCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBuilder(spaceAnalyzer{})
	input := `{"title":"A","url":"http://a","content":"red car"}`
	if _, err := b.BuildFromReader(ctx, strings.NewReader(input)); err == nil {
		t.Error("cancelled context must abort the build")
	}
}

type sliceSource struct {
	docs [][3]string
}

func (s sliceSource) Stream(ctx context.Context, emit func(title, url, content string) error) error {
	for _, d := range s.docs {
		if err := emit(d[0], d[1], d[2]); err != nil {
			return err
		}
	}
	return nil
}

func TestBuildFromSource(t *testing.T) {
	src := sliceSource{docs: [][3]string{
		{"A", "http://a", "red car"},
		{"B", "http://b", "blue house"},
		{"", "", ""}, // skipped
	}}

	b := NewBuilder(spaceAnalyzer{}, WithOptimize(true), WithChunkSize(1))
	stats, err := b.BuildFromSource(context.Background(), src)
	if err != nil {
		t.Fatalf("BuildFromSource: %v", err)
	}
	if stats.Processed != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 processed, 1 skipped", stats)
	}
	if err := b.Index().Validate(); err != nil {
		t.Errorf("built index invalid: %v", err)
	}
}
