package index

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kingxl111/search-engine/pkg/logger"
	"github.com/kingxl111/search-engine/pkg/metrics"
)

// DocumentSource streams raw documents into the builder. Implementations
// live in internal/source (JSONL files, Postgres, MongoDB).
type DocumentSource interface {
	Stream(ctx context.Context, emit func(title, url, content string) error) error
}

// BuildStats summarizes one build run.
type BuildStats struct {
	Processed     int           `json:"processed"`
	Skipped       int           `json:"skipped"`
	Tokens        int           `json:"tokens"`
	Duration      time.Duration `json:"duration"`
	DocsPerSecond float64       `json:"docs_per_second"`
}

// Builder feeds documents into an InvertedIndex, skipping empty and
// duplicate-URL documents, with periodic progress logging.
type Builder struct {
	index     *InvertedIndex
	analyzer  Analyzer
	chunkSize int
	optimize  bool
	metrics   *metrics.Metrics
	logger    *slog.Logger

	processed int
	skipped   int
	tokens    int
	started   time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithChunkSize sets how many documents are processed between progress log
// lines.
func WithChunkSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithOptimize sorts posting lists by document ID when the build finishes.
func WithOptimize(enabled bool) BuilderOption {
	return func(b *Builder) { b.optimize = enabled }
}

// WithMetrics wires Prometheus counters for indexed and skipped documents.
func WithMetrics(m *metrics.Metrics) BuilderOption {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder creates a Builder writing into a fresh index.
func NewBuilder(an Analyzer, opts ...BuilderOption) *Builder {
	b := &Builder{
		index:     New(),
		analyzer:  an,
		chunkSize: 1000,
		started:   time.Now(),
		logger:    logger.WithComponent("builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Index returns the index under construction.
func (b *Builder) Index() *InvertedIndex {
	return b.index
}

// skipDocument counts a document that did not make it into the index.
func (b *Builder) skipDocument() {
	b.skipped++
	if b.metrics != nil {
		b.metrics.DocsSkippedTotal.Inc()
	}
}

// IndexOne adds a single document. Documents with blank URL or content are
// skipped, as are URLs already indexed.
func (b *Builder) IndexOne(title, url, content string) (uint32, bool) {
	if strings.TrimSpace(url) == "" || strings.TrimSpace(content) == "" {
		b.skipDocument()
		return 0, false
	}
	id, added := b.index.Add(title, url, content, b.analyzer)
	if !added {
		b.skipDocument()
		return id, false
	}

	b.processed++
	b.tokens += b.index.documents[id].Length
	if b.metrics != nil {
		b.metrics.DocsIndexedTotal.Inc()
	}
	if b.chunkSize > 0 && b.processed%b.chunkSize == 0 {
		b.logger.Info("build progress",
			"processed", b.processed,
			"skipped", b.skipped,
			"terms", b.index.TermCount(),
		)
	}
	return id, true
}

// BuildFromSource streams every document from src into the index and
// finalizes the build.
func (b *Builder) BuildFromSource(ctx context.Context, src DocumentSource) (BuildStats, error) {
	err := src.Stream(ctx, func(title, url, content string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.IndexOne(title, url, content)
		return nil
	})
	if err != nil {
		return BuildStats{}, fmt.Errorf("streaming documents: %w", err)
	}
	return b.Finish(), nil
}

// jsonDocument is the line format accepted by BuildFromReader and the Kafka
// document topic.
type jsonDocument struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// BuildFromReader reads newline-delimited JSON documents and indexes them.
// Blank lines are ignored; a malformed line is logged and counted as skipped,
// never fatal to the batch.
func (b *Builder) BuildFromReader(ctx context.Context, r io.Reader) (BuildStats, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return BuildStats{}, err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc jsonDocument
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			b.skipDocument()
			b.logger.Warn("skipping malformed document", "line", line, "error", err)
			continue
		}
		b.IndexOne(doc.Title, doc.URL, doc.Content)
	}
	if err := scanner.Err(); err != nil {
		return BuildStats{}, fmt.Errorf("reading documents: %w", err)
	}
	return b.Finish(), nil
}

// Finish finalizes the build, optionally sorting posting lists, and returns
// run statistics. The builder can keep accepting documents afterwards; Finish
// may be called again.
func (b *Builder) Finish() BuildStats {
	if b.optimize {
		b.index.Optimize()
	}
	if b.metrics != nil {
		s := b.index.Stats()
		b.metrics.IndexDocuments.Set(float64(s.DocumentCount))
		b.metrics.IndexTerms.Set(float64(s.TermCount))
		b.metrics.IndexPostings.Set(float64(s.TotalPostings))
	}

	stats := BuildStats{
		Processed: b.processed,
		Skipped:   b.skipped,
		Tokens:    b.tokens,
		Duration:  time.Since(b.started),
	}
	if stats.Duration > 0 {
		stats.DocsPerSecond = float64(stats.Processed) / stats.Duration.Seconds()
	}
	b.logger.Info("build finished",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"tokens", stats.Tokens,
		"duration", stats.Duration.Round(time.Millisecond),
	)
	return stats
}
