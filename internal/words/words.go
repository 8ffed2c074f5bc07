// Package words turns lesson text and transcripts into comparable tokens.
package words

import (
	"strings"
	"unicode"
)

// stripSet lists the characters removed before comparison.
const stripSet = "'\"‘’‚‛“”„‟«»‹›()[]{}.,!?;:…-–—/\\`"

// Token is a single word with its surface form and comparison form.
type Token struct {
	Raw  string
	Norm string
}

// Normalize strips quotes, brackets, terminal punctuation, dashes and slashes,
// trims whitespace and lowercases the word. It returns "" when nothing is left.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(stripSet, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits text on whitespace and drops words that normalize to "".
func Tokenize(text string) []Token {
	fields := strings.Fields(text)
	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		norm := Normalize(f)
		if norm == "" {
			continue
		}
		tokens = append(tokens, Token{Raw: f, Norm: norm})
	}
	return tokens
}

// Norms returns the normalized forms of tokens.
func Norms(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Norm
	}
	return out
}
