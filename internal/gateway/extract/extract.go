// Package extract pulls action parameters out of unstructured message text.
//
// Every extractor is a pure function: same text in, same parameters out.  None
// of them fail on malformed input — each field has a deterministic default so
// dispatch never receives a missing required value.
package extract

import (
	"strings"
	"unicode"
)

// titleMarkers is the ordered list of words that introduce a title or subject.
// The first marker found in the message wins.
var titleMarkers = []string{"called", "titled", "about", "for"}

// Title extracts a document/spreadsheet/form title from the message.  The text
// after the first marker word, trimmed and title-cased, becomes the title;
// when no marker is present, fallback is returned unchanged.
func Title(text, fallback string) string {
	lower := strings.ToLower(text)
	for _, marker := range titleMarkers {
		idx := strings.Index(lower, " "+marker+" ")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(text[idx+len(marker)+2:])
		if rest == "" {
			continue
		}
		return TitleCase(rest)
	}
	return fallback
}

// TitleCase upper-cases the first letter of every word, leaving the rest of
// each word untouched so acronyms and contractions survive.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// IsNumeric reports whether s looks like a raw phone number: digits only after
// stripping common phone punctuation.  Numeric recipients skip contact lookup.
func IsNumeric(s string) bool {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '+', '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
