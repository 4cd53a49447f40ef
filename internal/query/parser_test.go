package query

import (
	"testing"

	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
)

func mustParse(t *testing.T, text string) Node {
	t.Helper()
	root, err := NewParser().Parse(text)
	if err != nil {
		t.Fatalf("Parse(%q): %v", text, err)
	}
	return root
}

func TestParseExplicitOperators(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"cat && dog", "(cat AND dog)"},
		{"cat || dog", "(cat OR dog)"},
		{"!cat", "(NOT cat)"},
		{"cat && dog || bird", "((cat AND dog) OR bird)"},
		{"cat || dog && bird", "(cat OR (dog AND bird))"},
		{"(cat || dog) && bird", "((cat OR dog) AND bird)"},
		{"!(cat || dog)", "(NOT (cat OR dog))"},
	}
	for _, tt := range tests {
		root := mustParse(t, tt.query)
		if got := root.String(); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestParseImplicitAnd(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"cat dog", "(cat AND dog)"},
		{"cat dog bird", "((cat AND dog) AND bird)"},
		{"cat !dog", "(cat AND (NOT dog))"},
		{"(cat || dog) bird", "((cat OR dog) AND bird)"},
	}
	for _, tt := range tests {
		root := mustParse(t, tt.query)
		if got := root.String(); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestParseLowercasesTerms(t *testing.T) {
	root := mustParse(t, "CaT && DOG")
	if got := root.String(); got != "(cat AND dog)" {
		t.Errorf("Parse mixed case = %s", got)
	}
}

func TestParsePhraseAndProximity(t *testing.T) {
	root := mustParse(t, `"red car"`)
	phrase, ok := root.(*Phrase)
	if !ok {
		t.Fatalf("root = %T, want *Phrase", root)
	}
	if len(phrase.Terms) != 2 || phrase.Terms[0] != "red" || phrase.Terms[1] != "car" {
		t.Errorf("phrase terms = %v", phrase.Terms)
	}

	root = mustParse(t, `"red car"/3`)
	prox, ok := root.(*Proximity)
	if !ok {
		t.Fatalf("root = %T, want *Proximity", root)
	}
	if prox.MaxDistance != 3 {
		t.Errorf("MaxDistance = %d, want 3", prox.MaxDistance)
	}
}

func TestParseComments(t *testing.T) {
	root := mustParse(t, "cat # find the cat\n&& dog")
	if got := root.String(); got != "(cat AND dog)" {
		t.Errorf("Parse with comment = %s", got)
	}
}

func TestParseEmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "# only a comment"} {
		root, err := NewParser().Parse(q)
		if err != nil {
			t.Errorf("Parse(%q) returned error %v, want nil", q, err)
		}
		if root != nil {
			t.Errorf("Parse(%q) = %v, want nil root", q, root)
		}
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []string{
		"&& cat",
		"cat &&",
		"cat ||",
		"(cat",
		"()",
		"cat)",
		`"unterminated`,
		`"red car"/`,
		`"red car" /5`, // suffix must follow the quote immediately
		"cat @ dog",
		"cat & dog",
	}
	for _, q := range tests {
		_, err := NewParser().Parse(q)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want syntax error", q)
			continue
		}
		if _, ok := pkgerrors.IsSyntaxError(err); !ok {
			t.Errorf("Parse(%q) error %v is not a SyntaxError", q, err)
		}
	}
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := NewParser().Parse("cat @ dog")
	se, ok := pkgerrors.IsSyntaxError(err)
	if !ok {
		t.Fatalf("error %v is not a SyntaxError", err)
	}
	if se.Position != 4 {
		t.Errorf("Position = %d, want 4", se.Position)
	}
}

func TestOptimizeDuplicateOperands(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"cat && cat", "cat"},
		{"cat || cat", "cat"},
		{"(cat && dog) || (cat && dog)", "(cat AND dog)"},
		{"!!cat", "cat"},
		{"!!!cat", "(NOT cat)"},
	}
	for _, tt := range tests {
		root := mustParse(t, tt.query)
		if got := root.String(); got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestExtractTermsOrder(t *testing.T) {
	root := mustParse(t, `dog && cat || "dog house" && !bird`)
	got := ExtractTerms(root)
	want := []string{"dog", "cat", "house", "bird"}
	if len(got) != len(want) {
		t.Fatalf("ExtractTerms = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ExtractTerms = %v, want %v", got, want)
		}
	}
}

func TestComplexity(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"cat", 1},
		{`"red car"`, 1},
		{"cat && dog", 3},
		{"!cat", 2},
		{"cat && dog || bird", 5},
	}
	for _, tt := range tests {
		root := mustParse(t, tt.query)
		if got := Complexity(root); got != tt.want {
			t.Errorf("Complexity(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	p := NewParser()
	if !p.Validate("cat && dog") {
		t.Error("valid query rejected")
	}
	if p.Validate("(cat") {
		t.Error("unbalanced query accepted")
	}
}

func TestRewrite(t *testing.T) {
	root := mustParse(t, `cats && "red cars"`)
	rewritten := Rewrite(root, func(t string) string {
		if t == "cats" {
			return "cat"
		}
		if t == "cars" {
			return "car"
		}
		return t
	})
	if got := rewritten.String(); got != `(cat AND "red car")` {
		t.Errorf("Rewrite = %s", got)
	}
	// The original tree is untouched.
	if got := root.String(); got != `(cats AND "red cars")` {
		t.Errorf("original mutated: %s", got)
	}
}
