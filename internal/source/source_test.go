package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDocs(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docs.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSourceStream(t *testing.T) {
	path := writeDocs(t, `{"title":"A","url":"http://a","content":"red car"}

{"title":"B","url":"http://b","content":"blue car"}
`)

	var urls []string
	err := NewFileSource(path).Stream(context.Background(), func(title, url, content string) error {
		urls = append(urls, url)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(urls) != 2 || urls[0] != "http://a" || urls[1] != "http://b" {
		t.Errorf("urls = %v", urls)
	}
}

func TestFileSourceMalformedLine(t *testing.T) {
	// A malformed line is dropped; documents around it still come through.
	path := writeDocs(t, `{"title":"A","url":"http://a","content":"red"}
not json at all
{"title":"B","url":"http://b","content":"blue"}
`)
	var urls []string
	err := NewFileSource(path).Stream(context.Background(), func(title, url, content string) error {
		urls = append(urls, url)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(urls) != 2 || urls[0] != "http://a" || urls[1] != "http://b" {
		t.Errorf("urls = %v, want both valid documents", urls)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	err := NewFileSource("/no/such/docs.jsonl").Stream(context.Background(), func(string, string, string) error {
		return nil
	})
	if err == nil {
		t.Error("missing file must be an error")
	}
}

func TestFileSourceEmitError(t *testing.T) {
	path := writeDocs(t, `{"title":"A","url":"http://a","content":"red"}
{"title":"B","url":"http://b","content":"blue"}
`)
	sentinel := errors.New("stop")
	calls := 0
	err := NewFileSource(path).Stream(context.Background(), func(string, string, string) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Stream = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Errorf("emit called %d times after error, want 1", calls)
	}
}

func TestFileSourceCancellation(t *testing.T) {
	path := writeDocs(t, `{"title":"A","url":"http://a","content":"red"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFileSource(path).Stream(ctx, func(string, string, string) error {
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Stream = %v, want context.Canceled", err)
	}
}
