package tokenizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kingxl111/search-engine/pkg/config"
)

func newTestTokenizer(t *testing.T, cfg config.TokenizerConfig) *Tokenizer {
	t.Helper()
	if cfg.MinTokenLength == 0 {
		cfg.MinTokenLength = 2
	}
	if cfg.MaxTokenLength == 0 {
		cfg.MaxTokenLength = 50
	}
	tok, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tok
}

func assertTokens(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("tokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", got, want)
		}
	}
}

func TestTokenizeBasic(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true})
	got := tok.Tokenize("The Quick, Brown Fox!")
	assertTokens(t, got, []string{"the", "quick", "brown", "fox"})
}

func TestTokenizeKeepsInnerApostropheAndHyphen(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true})
	got := tok.Tokenize("don't re-index 'quoted' --dashed--")
	assertTokens(t, got, []string{"don't", "re-index", "quoted", "dashed"})
}

func TestTokenizeLengthLimits(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{
		MinTokenLength: 3,
		MaxTokenLength: 5,
		CaseFolding:    true,
	})
	got := tok.Tokenize("go cat horse elephant")
	assertTokens(t, got, []string{"cat", "horse"})
}

func TestTokenizeRemoveNumbers(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{
		RemoveNumbers: true,
		CaseFolding:   true,
	})
	// Digits vanish from mixed tokens; all-digit tokens vanish entirely.
	got := tok.Tokenize("error404 in 2024 logs")
	assertTokens(t, got, []string{"error", "in", "logs"})
}

func TestTokenizeBuiltinStopwords(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true})
	got := tok.Tokenize("кот и собака на крыше")
	assertTokens(t, got, []string{"кот", "собака", "крыше"})
}

func TestTokenizeStopwordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	if err := os.WriteFile(path, []byte("Extra\n\nnoise\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tok := newTestTokenizer(t, config.TokenizerConfig{
		CaseFolding:   true,
		StopwordsFile: path,
	})
	got := tok.Tokenize("extra signal noise")
	assertTokens(t, got, []string{"signal"})

	if _, err := New(config.TokenizerConfig{StopwordsFile: "/no/such/file"}); err == nil {
		t.Error("missing stopwords file must be an error")
	}
}

func TestTokenizeWithPositions(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true})
	spans := tok.TokenizeWithPositions("Red car, red house")

	want := []Span{
		{Text: "red", Ordinal: 0, ByteOffset: 0, ByteLen: 3},
		{Text: "car", Ordinal: 1, ByteOffset: 4, ByteLen: 3},
		{Text: "red", Ordinal: 2, ByteOffset: 9, ByteLen: 3},
		{Text: "house", Ordinal: 3, ByteOffset: 13, ByteLen: 5},
	}
	if len(spans) != len(want) {
		t.Fatalf("spans = %v, want %v", spans, want)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span[%d] = %+v, want %+v", i, spans[i], want[i])
		}
	}
}

func TestOrdinalsSkipFilteredTokens(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true})
	// "и" is filtered, so the surviving neighbors get consecutive ordinals.
	spans := tok.TokenizeWithPositions("кот и собака")
	if len(spans) != 2 {
		t.Fatalf("spans = %v, want 2 entries", spans)
	}
	if spans[0].Ordinal != 0 || spans[1].Ordinal != 1 {
		t.Errorf("ordinals = %d, %d, want 0, 1", spans[0].Ordinal, spans[1].Ordinal)
	}
}

func TestStemming(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true, Stemming: true})
	got := tok.Tokenize("столов машинами engines")
	// Russian words are stemmed, everything else passes through.
	assertTokens(t, got, []string{"стол", "машин", "engines"})
}

func TestNormalizeTerm(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true, Stemming: true})
	tests := []struct {
		in   string
		want string
	}{
		{"Столов", "стол"},
		{"CAT", "cat"},
		{"-edge-", "edge"},
		{"---", ""},
		// Query terms skip length and stopword filtering.
		{"и", "и"},
		{"a", "a"},
	}
	for _, tt := range tests {
		if got := tok.NormalizeTerm(tt.in); got != tt.want {
			t.Errorf("NormalizeTerm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnalyze(t *testing.T) {
	tok := newTestTokenizer(t, config.TokenizerConfig{CaseFolding: true})
	tokens := tok.Analyze("red car red")
	if len(tokens) != 3 {
		t.Fatalf("Analyze returned %d tokens, want 3", len(tokens))
	}
	if tokens[0].Text != "red" || tokens[0].Position != 0 {
		t.Errorf("token[0] = %+v", tokens[0])
	}
	if tokens[2].Text != "red" || tokens[2].Position != 2 {
		t.Errorf("token[2] = %+v", tokens[2])
	}
}
