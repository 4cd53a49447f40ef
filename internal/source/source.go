// Package source provides document streams for the index builder: JSONL
// files, a Postgres table, and a MongoDB collection of crawled pages. Every
// source implements index.DocumentSource.
package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kingxl111/search-engine/pkg/logger"
)

// rawDocument is the wire shape shared by the JSONL source and the Kafka
// document topic.
type rawDocument struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// FileSource streams newline-delimited JSON documents from a file.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:   path,
		logger: logger.WithComponent("source"),
	}
}

// Stream reads the file line by line and emits each document. Blank lines are
// skipped; a malformed line is logged and dropped, never fatal to the stream.
// The builder behind emit counts its own skips, so a dropped line surfaces
// only in the log.
func (s *FileSource) Stream(ctx context.Context, emit func(title, url, content string) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening document file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc rawDocument
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			s.logger.Warn("skipping malformed document",
				"file", s.path, "line", line, "error", err)
			continue
		}
		if err := emit(doc.Title, doc.URL, doc.Content); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}
	return nil
}
