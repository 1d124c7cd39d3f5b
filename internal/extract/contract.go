// Package extract scans free text for token identifiers and quoted prices.
package extract

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// contractPattern matches base58-shaped Solana addresses: 32 to 44 characters
// without 0, O, I and l. RE2's \b is ASCII-only, so word edges are
// checked by bounded instead.
var contractPattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// All returns every candidate identifier found across texts, in input order.
// Duplicates are preserved; deduplication is the caller's business.
func All(texts ...string) []string {
	var out []string
	for _, text := range texts {
		for _, loc := range contractPattern.FindAllStringIndex(text, -1) {
			if bounded(text, loc[0], loc[1]) {
				out = append(out, text[loc[0]:loc[1]])
			}
		}
	}
	return out
}

// First returns the first candidate identifier in text.
func First(text string) (string, bool) {
	for _, loc := range contractPattern.FindAllStringIndex(text, -1) {
		if bounded(text, loc[0], loc[1]) {
			return text[loc[0]:loc[1]], true
		}
	}
	return "", false
}

// bounded reports whether text[start:end] has no word character on either
// side. Letters and digits of any script count, as does '_'.
func bounded(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWord(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWord(r) {
			return false
		}
	}
	return true
}

func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
