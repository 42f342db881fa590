// Package textnorm converts between typed symptom text and storage-form tokens.
package textnorm

import (
	"strings"
	"unicode"
)

// Delimiter joins words in a storage-form token.
const Delimiter = "_"

// Normalize trims, lowercases and joins the words of text with Delimiter.
// Runs of whitespace or delimiters collapse to one delimiter, so the result
// is stable under repeated normalization. Blank input yields "".
func Normalize(text string) string {
	words := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(text)), isSeparator)
	return strings.Join(words, Delimiter)
}

// ToDisplay replaces each delimiter in token with a space.
func ToDisplay(token string) string {
	return strings.ReplaceAll(token, Delimiter, " ")
}

// Len is the rune length of the normalized text.
func Len(text string) int {
	return len([]rune(Normalize(text)))
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || string(r) == Delimiter
}
