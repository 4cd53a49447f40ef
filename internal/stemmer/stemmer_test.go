package stemmer

import "testing"

func TestShouldStem(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"машина", true},
		{"по", false},      // too short
		{"дом", true},      // three runes with Cyrillic
		{"cat", false},     // no Cyrillic
		{"hello", false},   // Latin only
		{"12345", false},   // number
		{"ёлками", true},   // ё counts as Cyrillic
		{"wi-fi", false},   // Latin with hyphen
	}
	for _, tt := range tests {
		if got := ShouldStem(tt.word); got != tt.want {
			t.Errorf("ShouldStem(%q) = %v, want %v", tt.word, got, tt.want)
		}
	}
}

func TestStemLeavesNonRussianAlone(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"engine", "engine"},
		{"Search", "search"}, // lowercased only
		{"42", "42"},
		{"ab", "ab"},
		{"я", "я"},
	}
	for _, tt := range tests {
		if got := Stem(tt.word); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestStemRussianEndings(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		// Noun endings.
		{"машинами", "машин"},
		{"столов", "стол"},
		{"книгам", "книг"},
		// Reflexive particle.
		{"умываться", "умыват"},
		// Perfective gerund.
		{"сделавши", "сдела"},
		// Case folding applies before stemming.
		{"Машинами", "машин"},
	}
	for _, tt := range tests {
		if got := Stem(tt.word); got != tt.want {
			t.Errorf("Stem(%q) = %q, want %q", tt.word, got, tt.want)
		}
	}
}

func TestStemConflatesWordForms(t *testing.T) {
	// Different case forms of the same noun must collapse to one stem.
	forms := []string{"машинами", "машинам", "машинах", "машиной"}
	base := Stem(forms[0])
	for _, f := range forms[1:] {
		if got := Stem(f); got != base {
			t.Errorf("Stem(%q) = %q, want %q as for %q", f, got, base, forms[0])
		}
	}
}

func TestStemNeverReturnsTooShort(t *testing.T) {
	// Words whose stem would drop below two runes come back unchanged.
	for _, w := range []string{"ямы", "осу"} {
		got := Stem(w)
		if len([]rune(got)) < 2 {
			t.Errorf("Stem(%q) = %q, shorter than two runes", w, got)
		}
	}
}

func TestStemAll(t *testing.T) {
	words := []string{"столов", "engine"}
	out := StemAll(words)
	if out[0] != "стол" || out[1] != "engine" {
		t.Errorf("StemAll = %v", out)
	}
}
