// Package tokenizer splits raw text into normalized terms: lowercased,
// punctuation-stripped, stopword-filtered, and optionally stemmed. Apostrophes
// and hyphens survive inside a word but are trimmed from its edges.
package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/kingxl111/search-engine/internal/index"
	"github.com/kingxl111/search-engine/internal/stemmer"
	"github.com/kingxl111/search-engine/pkg/config"
)

// Span is one emitted token together with where it came from. Ordinal is the
// token's index in the filtered output sequence and is what posting positions
// store; the byte fields locate the raw word in the source text for snippet
// highlighting.
type Span struct {
	Text       string
	Ordinal    uint32
	ByteOffset int
	ByteLen    int
}

// Tokenizer is safe for concurrent use once constructed.
type Tokenizer struct {
	minLen        int
	maxLen        int
	removeNumbers bool
	caseFolding   bool
	stemming      bool
	stopwords     map[string]struct{}
}

// New builds a Tokenizer from config, loading an extra stopword file when one
// is configured. The built-in Russian stopword list is always active.
func New(cfg config.TokenizerConfig) (*Tokenizer, error) {
	t := &Tokenizer{
		minLen:        cfg.MinTokenLength,
		maxLen:        cfg.MaxTokenLength,
		removeNumbers: cfg.RemoveNumbers,
		caseFolding:   cfg.CaseFolding,
		stemming:      cfg.Stemming,
		stopwords:     make(map[string]struct{}, len(russianStopwords)),
	}
	if t.minLen <= 0 {
		t.minLen = 2
	}
	if t.maxLen <= 0 {
		t.maxLen = 50
	}
	for _, w := range russianStopwords {
		t.stopwords[w] = struct{}{}
	}
	if cfg.StopwordsFile != "" {
		if err := t.loadStopwords(cfg.StopwordsFile); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tokenizer) loadStopwords(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening stopwords file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		if t.caseFolding {
			word = strings.ToLower(word)
		}
		t.stopwords[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stopwords file: %w", err)
	}
	return nil
}

// IsStopword reports whether the normalized word is filtered out.
func (t *Tokenizer) IsStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-'
}

// normalize trims apostrophes and hyphens from the edges, optionally drops
// digits, and lowercases. An empty result means the token is discarded.
func (t *Tokenizer) normalize(raw string) string {
	trimmed := strings.Trim(raw, "'-")
	if trimmed == "" {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(trimmed))
	for _, r := range trimmed {
		if t.removeNumbers && unicode.IsDigit(r) {
			continue
		}
		if t.caseFolding {
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// emit applies normalization, length limits, stopword filtering, and
// stemming. It returns the final term, or "" when the token is dropped.
func (t *Tokenizer) emit(raw string) string {
	term := t.normalize(raw)
	if term == "" {
		return ""
	}
	n := len([]rune(term))
	if n < t.minLen || n > t.maxLen {
		return ""
	}
	if t.IsStopword(term) {
		return ""
	}
	if t.stemming {
		term = stemmer.Stem(term)
	}
	return term
}

// NormalizeTerm applies the same folding and stemming to a single query term
// that document tokens receive at indexing time. It returns "" when the term
// normalizes away entirely.
func (t *Tokenizer) NormalizeTerm(term string) string {
	norm := t.normalize(term)
	if norm == "" {
		return ""
	}
	if t.stemming {
		return stemmer.Stem(norm)
	}
	return norm
}

// Tokenize returns the filtered terms of text in order.
func (t *Tokenizer) Tokenize(text string) []string {
	spans := t.TokenizeWithPositions(text)
	terms := make([]string, len(spans))
	for i := range spans {
		terms[i] = spans[i].Text
	}
	return terms
}

// TokenizeWithPositions returns the filtered terms together with ordinals and
// source byte ranges.
func (t *Tokenizer) TokenizeWithPositions(text string) []Span {
	var spans []Span
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		raw := text[start:end]
		if term := t.emit(raw); term != "" {
			spans = append(spans, Span{
				Text:       term,
				Ordinal:    uint32(len(spans)),
				ByteOffset: start,
				ByteLen:    len(raw),
			})
		}
		start = -1
	}
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return spans
}

// Analyze implements index.Analyzer: posting positions are token ordinals, so
// adjacent surviving tokens differ by exactly one.
func (t *Tokenizer) Analyze(text string) []index.Token {
	spans := t.TokenizeWithPositions(text)
	tokens := make([]index.Token, len(spans))
	for i := range spans {
		tokens[i] = index.Token{Text: spans[i].Text, Position: spans[i].Ordinal}
	}
	return tokens
}
