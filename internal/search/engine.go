package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingxl111/search-engine/internal/index"
	"github.com/kingxl111/search-engine/internal/query"
	"github.com/kingxl111/search-engine/internal/tokenizer"
	"github.com/kingxl111/search-engine/pkg/config"
	"github.com/kingxl111/search-engine/pkg/logger"
	"github.com/kingxl111/search-engine/pkg/metrics"
)

// Hit is one document in a search response.
type Hit struct {
	DocID   uint32  `json:"doc_id"`
	Score   float64 `json:"score"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet,omitempty"`
}

// SearchResult is the full response to one query. A query that fails to
// parse comes back with Valid=false and the syntax error message; it is
// never surfaced as a Go error.
type SearchResult struct {
	Query      string  `json:"query"`
	Valid      bool    `json:"valid"`
	Error      string  `json:"error,omitempty"`
	TotalFound uint32  `json:"total_found"`
	Hits       []Hit   `json:"hits"`
	TookMS     float64 `json:"took_ms"`
}

// QueryInfo is the response to query analysis: the distinct terms, the node
// count, and the canonical parse tree.
type QueryInfo struct {
	Query      string   `json:"query"`
	Valid      bool     `json:"valid"`
	Error      string   `json:"error,omitempty"`
	Terms      []string `json:"terms,omitempty"`
	Complexity int      `json:"complexity"`
	ParseTree  string   `json:"parse_tree,omitempty"`
}

// EngineStats aggregates query counters and the underlying index statistics.
type EngineStats struct {
	TotalQueries      uint64      `json:"total_queries"`
	SuccessfulQueries uint64      `json:"successful_queries"`
	FailedQueries     uint64      `json:"failed_queries"`
	AvgTimeMS         float64     `json:"avg_time_ms"`
	Index             index.Stats `json:"index"`
}

// Engine ties the parser, evaluator, and tokenizer together over one index
// snapshot. All methods are safe for concurrent use; the index itself is
// read-only once loaded, and ReplaceIndex swaps the whole snapshot.
type Engine struct {
	cfg     config.SearchConfig
	parser  *query.Parser
	tok     *tokenizer.Tokenizer
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu        sync.RWMutex
	index     *index.InvertedIndex
	evaluator *Evaluator

	statsMu   sync.Mutex
	total     uint64
	succeeded uint64
	failed    uint64
	totalTime time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics wires Prometheus collectors into the engine.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine over the given index.
func NewEngine(ix *index.InvertedIndex, tok *tokenizer.Tokenizer, cfg config.SearchConfig, opts ...EngineOption) *Engine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 100
	}
	if cfg.SnippetContextWords <= 0 {
		cfg.SnippetContextWords = 10
	}
	e := &Engine{
		cfg:       cfg,
		parser:    query.NewParser(),
		tok:       tok,
		logger:    logger.WithComponent("engine"),
		index:     ix,
		evaluator: NewEvaluator(ix),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReplaceIndex swaps in a freshly loaded index snapshot. In-flight queries
// finish against the old snapshot.
func (e *Engine) ReplaceIndex(ix *index.InvertedIndex) {
	e.mu.Lock()
	e.index = ix
	e.evaluator = NewEvaluator(ix)
	e.mu.Unlock()

	if e.metrics != nil {
		s := ix.Stats()
		e.metrics.IndexDocuments.Set(float64(s.DocumentCount))
		e.metrics.IndexTerms.Set(float64(s.TermCount))
		e.metrics.IndexPostings.Set(float64(s.TotalPostings))
	}
}

func (e *Engine) snapshot() (*index.InvertedIndex, *Evaluator) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index, e.evaluator
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxResults {
		limit = e.cfg.MaxResults
	}
	return limit
}

// compile parses the query and normalizes its terms the same way indexed
// documents were normalized.
func (e *Engine) compile(text string) (query.Node, error) {
	root, err := e.parser.Parse(text)
	if err != nil {
		return nil, err
	}
	return query.Rewrite(root, e.tok.NormalizeTerm), nil
}

// Search runs one query and returns up to limit hits with snippets. Syntax
// errors are reported inside the result and counted as failed queries.
func (e *Engine) Search(ctx context.Context, text string, limit int) SearchResult {
	start := time.Now()
	result := SearchResult{Query: text, Hits: []Hit{}}

	root, err := e.compile(text)
	if err != nil {
		result.Error = err.Error()
		e.finish(&result, start, false)
		return result
	}
	result.Valid = true

	ix, ev := e.snapshot()
	if root != nil {
		result.TotalFound = ev.CountResults(root)
		for _, dr := range ev.TopResults(root, e.clampLimit(limit)) {
			doc, err := ix.GetDocument(dr.DocID)
			if err != nil {
				continue
			}
			result.Hits = append(result.Hits, Hit{
				DocID:   dr.DocID,
				Score:   dr.Score,
				Title:   doc.Title,
				URL:     doc.URL,
				Snippet: e.snippetFor(doc, root),
			})
		}
	}
	e.finish(&result, start, true)
	return result
}

func (e *Engine) finish(result *SearchResult, start time.Time, ok bool) {
	took := time.Since(start)
	result.TookMS = float64(took.Microseconds()) / 1000

	e.statsMu.Lock()
	e.total++
	if ok {
		e.succeeded++
	} else {
		e.failed++
	}
	e.totalTime += took
	e.statsMu.Unlock()

	if e.metrics != nil {
		outcome := "success"
		switch {
		case !ok:
			outcome = "syntax_error"
		case result.TotalFound == 0:
			outcome = "zero_result"
		}
		e.metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
		e.metrics.SearchLatency.WithLabelValues("uncached").Observe(took.Seconds())
		if ok {
			e.metrics.SearchResultsCount.Observe(float64(result.TotalFound))
		}
	}
	if !ok {
		e.logger.Debug("query rejected", "query", result.Query, "error", result.Error)
	}
}

// BatchSearch runs the queries concurrently against the same index snapshot
// and returns results in input order.
func (e *Engine) BatchSearch(ctx context.Context, queries []string, limit int) ([]SearchResult, error) {
	results := make([]SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Search(ctx, q, limit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ValidateQuery reports whether the query parses.
func (e *Engine) ValidateQuery(text string) bool {
	return e.parser.Validate(text)
}

// AnalyzeQuery parses the query and reports its terms, complexity, and
// canonical parse tree without executing it.
func (e *Engine) AnalyzeQuery(text string) QueryInfo {
	info := QueryInfo{Query: text}
	root, err := e.parser.Parse(text)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Valid = true
	if root != nil {
		info.Terms = query.ExtractTerms(root)
		info.Complexity = query.Complexity(root)
		info.ParseTree = root.String()
	}
	return info
}

// Document returns a stored document by ID.
func (e *Engine) Document(id uint32) (index.Document, error) {
	ix, _ := e.snapshot()
	return ix.GetDocument(id)
}

// DocumentMatches reports whether one document satisfies the query.
func (e *Engine) DocumentMatches(text string, docID uint32) (bool, error) {
	root, err := e.compile(text)
	if err != nil {
		return false, err
	}
	_, ev := e.snapshot()
	return ev.DocumentMatches(root, docID), nil
}

// FindSimilar returns documents sharing terms with the given one: the
// union of the document's distinct terms, with the source excluded. An index
// loaded from disk carries no content, so similarity needs a freshly built
// index.
func (e *Engine) FindSimilar(docID uint32, max int) ([]Hit, error) {
	ix, ev := e.snapshot()
	doc, err := ix.GetDocument(docID)
	if err != nil {
		return nil, err
	}
	terms := e.tok.Tokenize(doc.Content)
	seen := make(map[string]struct{}, len(terms))
	var root query.Node
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		var leaf query.Node = &query.Term{Term: t}
		if root == nil {
			root = leaf
		} else {
			root = &query.Or{Left: root, Right: leaf}
		}
	}
	if root == nil {
		return nil, nil
	}

	max = e.clampLimit(max)
	hits := make([]Hit, 0, max)
	for _, dr := range ev.EvaluateDetailed(root) {
		if dr.DocID == docID {
			continue
		}
		other, err := ix.GetDocument(dr.DocID)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{DocID: dr.DocID, Score: dr.Score, Title: other.Title, URL: other.URL})
		if len(hits) >= max {
			break
		}
	}
	return hits, nil
}

// SuggestTerms returns up to max indexed terms with the given prefix, in
// lexicographic order.
func (e *Engine) SuggestTerms(prefix string, max int) []string {
	if prefix == "" || max <= 0 {
		return nil
	}
	prefix = strings.ToLower(prefix)
	ix, _ := e.snapshot()
	var suggestions []string
	for _, term := range ix.AllTerms() {
		if strings.HasPrefix(term, prefix) {
			suggestions = append(suggestions, term)
			if len(suggestions) >= max {
				break
			}
		}
	}
	return suggestions
}

// Snippet renders a context window around the first query match in the
// document, with matched words wrapped in brackets. Without a match the
// document's first 200 bytes serve as fallback.
func (e *Engine) Snippet(docID uint32, queryText string) (string, error) {
	ix, _ := e.snapshot()
	doc, err := ix.GetDocument(docID)
	if err != nil {
		return "", err
	}
	root, err := e.compile(queryText)
	if err != nil {
		return "", err
	}
	return e.snippetFor(doc, root), nil
}

func (e *Engine) snippetFor(doc index.Document, root query.Node) string {
	if doc.Content == "" {
		return ""
	}
	queryTerms := query.ExtractTerms(root)
	if len(queryTerms) == 0 {
		return contentPrefix(doc.Content)
	}
	termSet := make(map[string]struct{}, len(queryTerms))
	for _, t := range queryTerms {
		termSet[t] = struct{}{}
	}

	spans := e.tok.TokenizeWithPositions(doc.Content)
	firstMatch := -1
	for i := range spans {
		if _, ok := termSet[spans[i].Text]; ok {
			firstMatch = i
			break
		}
	}
	if firstMatch < 0 {
		return contentPrefix(doc.Content)
	}

	ctx := e.cfg.SnippetContextWords
	start := firstMatch - ctx
	if start < 0 {
		start = 0
	}
	end := firstMatch + ctx + 1
	if end > len(spans) {
		end = len(spans)
	}

	var sb strings.Builder
	if start > 0 {
		sb.WriteString("...")
	}
	for i := start; i < end; i++ {
		if i > start {
			sb.WriteByte(' ')
		}
		raw := doc.Content[spans[i].ByteOffset : spans[i].ByteOffset+spans[i].ByteLen]
		if _, ok := termSet[spans[i].Text]; ok {
			sb.WriteByte('[')
			sb.WriteString(raw)
			sb.WriteByte(']')
		} else {
			sb.WriteString(raw)
		}
	}
	if end < len(spans) {
		sb.WriteString("...")
	}
	return sb.String()
}

// contentPrefix returns up to 200 bytes of content, cut at a rune boundary,
// with an ellipsis when truncated.
func contentPrefix(content string) string {
	const limit = 200
	if len(content) <= limit {
		return content
	}
	cut := limit
	for cut > 0 && content[cut]&0xC0 == 0x80 {
		cut--
	}
	return content[:cut] + "..."
}

// Stats returns aggregated query counters and index statistics.
func (e *Engine) Stats() EngineStats {
	ix, _ := e.snapshot()

	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	stats := EngineStats{
		TotalQueries:      e.total,
		SuccessfulQueries: e.succeeded,
		FailedQueries:     e.failed,
		Index:             ix.Stats(),
	}
	if e.total > 0 {
		stats.AvgTimeMS = float64(e.totalTime.Microseconds()) / 1000 / float64(e.total)
	}
	return stats
}

// ResetStats zeroes the query counters.
func (e *Engine) ResetStats() {
	e.statsMu.Lock()
	e.total, e.succeeded, e.failed, e.totalTime = 0, 0, 0, 0
	e.statsMu.Unlock()
}
