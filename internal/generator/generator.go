// Package generator builds drill texts from lesson vocabulary.
package generator

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Generator draws drill words from a vocabulary.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded from the clock.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator whose draws repeat for the same seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))}
}

// Generate draws count words, each vocabulary entry equally likely.
func (g *Generator) Generate(vocab []string, count int) []string {
	return g.GenerateWeighted(vocab, count, nil, 0)
}

// GenerateWeighted draws count words. A word listed in weak weighs 1+factor
// against 1 for the rest.
func (g *Generator) GenerateWeighted(vocab []string, count int, weak []string, factor float64) []string {
	if len(vocab) == 0 || count <= 0 {
		return nil
	}
	boosted := make(map[string]bool, len(weak))
	for _, w := range weak {
		boosted[w] = true
	}
	// cumulative[i] is the total weight of vocab[:i+1].
	cumulative := make([]float64, len(vocab))
	sum := 0.0
	for i, w := range vocab {
		sum++
		if boosted[w] {
			sum += max(factor, 0)
		}
		cumulative[i] = sum
	}

	out := make([]string, count)
	for i := range out {
		idx := sort.SearchFloat64s(cumulative, g.rnd.Float64()*sum)
		out[i] = vocab[min(idx, len(vocab)-1)]
	}
	return out
}

// Sentence capitalizes the first word and ends the text with a period.
func Sentence(words []string) string {
	text := strings.Join(words, " ")
	if text == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(text)
	return string(unicode.ToUpper(r)) + text[size:] + "."
}
