// Package stemmer implements a lightweight Porter-style stemmer for Russian.
// It strips inflectional endings in four passes (gerunds and reflexives,
// verbs, nouns, cleanup) and leaves non-Cyrillic tokens untouched, so mixed
// Russian and Latin corpora index correctly.
package stemmer

import (
	"strings"
	"unicode"
)

const (
	vowels     = "аеиоуы"
	consonants = "бвгджзйклмнпрстфхцчшщ"
)

var perfectiveGerundSuffixes = []string{"вшись", "вши"}

var reflexiveSuffixes = []string{"ся", "сь"}

var adjectiveSuffixes = []string{"ими", "ыми", "его", "ого"}

var participleSuffixes = []string{"ем", "нн", "вш", "ющ", "щ"}

// Endings are tried in order, so longer variants come before their prefixes.
var verbSuffixes = []string{
	"ила", "ыла", "ена", "ейте", "уйте", "ите", "или", "ыли",
	"ей", "уй", "ил", "ыл", "им", "ым", "ен", "ило", "ыло",
	"ено", "ят", "ует", "уют", "ит", "ыт",
}

var nounSuffixes = []string{
	"иями", "ями", "ами", "ией", "иям", "ием", "иях",
	"ев", "ов", "ие", "ье", "еи", "ии", "и", "ией",
	"ей", "ой", "ий", "й", "ия", "ья", "ям", "ем",
	"ам", "ом", "о", "у", "ах", "ях",
}

var superlativeSuffixes = []string{"ейш", "ейше"}

const derivationalSuffix = "ост"

func isVowel(r rune) bool {
	return strings.ContainsRune(vowels, r)
}

func isConsonant(r rune) bool {
	return strings.ContainsRune(consonants, r)
}

// ShouldStem reports whether a word is worth stemming: at least three runes,
// containing lowercase Cyrillic, and not a number.
func ShouldStem(word string) bool {
	runes := []rune(word)
	if len(runes) < 3 {
		return false
	}
	hasRussian := false
	allDigits := true
	for _, r := range runes {
		if (r >= 'а' && r <= 'я') || r == 'ё' {
			hasRussian = true
		}
		if !unicode.IsDigit(r) {
			allDigits = false
		}
	}
	return hasRussian && !allDigits
}

// Stem lowercases the word and strips Russian inflectional endings. Words
// ShouldStem rejects come back lowercased but otherwise unchanged, as do
// words the stripping would reduce below two runes.
func Stem(word string) string {
	if len([]rune(word)) < 2 {
		return word
	}
	lower := strings.ToLower(word)
	if !ShouldStem(lower) {
		return lower
	}

	result := step1([]rune(lower))
	result = step2(result)
	result = step3(result)
	result = step4(result)

	if len(result) < 2 {
		return lower
	}
	return string(result)
}

// StemAll stems every word in place and returns the slice.
func StemAll(words []string) []string {
	for i, w := range words {
		words[i] = Stem(w)
	}
	return words
}

func hasSuffix(word []rune, suffix string) bool {
	s := []rune(suffix)
	if len(s) > len(word) {
		return false
	}
	off := len(word) - len(s)
	for i, r := range s {
		if word[off+i] != r {
			return false
		}
	}
	return true
}

func trimSuffix(word []rune, suffix string) []rune {
	return word[:len(word)-len([]rune(suffix))]
}

// step1 removes perfective gerunds (then any reflexive particle), bare
// reflexive particles, and adjective endings. An adjective ending preceded
// by a participle marker drops the marker instead.
func step1(word []rune) []rune {
	for _, suffix := range perfectiveGerundSuffixes {
		if hasSuffix(word, suffix) {
			word = trimSuffix(word, suffix)
			for _, refl := range reflexiveSuffixes {
				if hasSuffix(word, refl) {
					word = trimSuffix(word, refl)
				}
			}
			return word
		}
	}

	for _, suffix := range reflexiveSuffixes {
		if hasSuffix(word, suffix) {
			word = trimSuffix(word, suffix)
			break
		}
	}

	for _, suffix := range adjectiveSuffixes {
		if hasSuffix(word, suffix) {
			removed := false
			for _, part := range participleSuffixes {
				if hasSuffix(word, part) {
					word = trimSuffix(word, part)
					removed = true
					break
				}
			}
			if !removed {
				word = trimSuffix(word, suffix)
			}
			break
		}
	}
	return word
}

// step2 removes verb endings, but only from words ending in a vowel and only
// when a consonant precedes the ending.
func step2(word []rune) []rune {
	if len(word) == 0 || !isVowel(word[len(word)-1]) {
		return word
	}
	for _, suffix := range verbSuffixes {
		if !hasSuffix(word, suffix) {
			continue
		}
		n := len([]rune(suffix))
		if len(word) > n && isConsonant(word[len(word)-n-1]) {
			return word[:len(word)-n]
		}
	}
	return word
}

// step3 removes the first matching noun ending, restoring the input when the
// remainder would be shorter than two runes.
func step3(word []rune) []rune {
	for _, suffix := range nounSuffixes {
		if hasSuffix(word, suffix) {
			trimmed := trimSuffix(word, suffix)
			if len(trimmed) < 2 {
				return word
			}
			return trimmed
		}
	}
	return word
}

// step4 cleans up: trailing soft sign, doubled final consonant, superlative
// and derivational suffixes.
func step4(word []rune) []rune {
	if len(word) > 0 && word[len(word)-1] == 'ь' {
		word = word[:len(word)-1]
	}
	if len(word) >= 2 {
		last := word[len(word)-1]
		if last == word[len(word)-2] && isConsonant(last) {
			word = word[:len(word)-1]
		}
	}
	for _, suffix := range superlativeSuffixes {
		if hasSuffix(word, suffix) {
			word = trimSuffix(word, suffix)
			break
		}
	}
	if hasSuffix(word, derivationalSuffix) {
		word = trimSuffix(word, derivationalSuffix)
	}
	return word
}
