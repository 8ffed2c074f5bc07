package lessons

import (
	"strings"

	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/words"
)

// FilterFunc reports whether a normalized word belongs in drill vocabulary.
type FilterFunc func(string) bool

// FilterForLang picks the vocabulary filter for a lesson language. English
// keeps plain a-z words; other languages keep any non-empty word.
func FilterForLang(lang string) FilterFunc {
	if strings.EqualFold(lang, "en") {
		return plainLatin
	}
	return func(w string) bool { return w != "" }
}

func plainLatin(word string) bool {
	return word != "" && strings.IndexFunc(word, func(r rune) bool { return r < 'a' || r > 'z' }) < 0
}

// Vocabulary collects the distinct normalized words of lessons, in order of
// first appearance, keeping those accepted by keep.
func Vocabulary(lessons []model.Lesson, keep FilterFunc) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, l := range lessons {
		for _, tok := range words.Tokenize(l.Content) {
			if _, ok := seen[tok.Norm]; ok || !keep(tok.Norm) {
				continue
			}
			seen[tok.Norm] = struct{}{}
			out = append(out, tok.Norm)
		}
	}
	return out
}
