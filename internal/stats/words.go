package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/verte-zerg/lexiread/internal/model"
)

// WordScore rates a word in [0, 1] with the same half credit for near
// matches that attempt accuracy uses. Unseen words score 1.
func WordScore(agg model.WordAggregate) float64 {
	total := agg.Total()
	if total == 0 {
		return 1
	}
	return (float64(agg.Exact) + 0.5*float64(agg.Near)) / float64(total)
}

// SelectWeakWords returns up to top words with the lowest scores, weakest first.
func SelectWeakWords(aggs []model.WordAggregate, top int) []string {
	candidates := make([]model.WordAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Total() > 0 && WordScore(agg) < 1 {
			candidates = append(candidates, agg)
		}
	}
	sortByScore(candidates)
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]string, top)
	for i := range out {
		out[i] = candidates[i].Word
	}
	return out
}

// TopWordsByFrequency returns the n most frequently expected words.
func TopWordsByFrequency(aggs []model.WordAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.WordAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Total() == items[j].Total() {
			return items[i].Word < items[j].Word
		}
		return items[i].Total() > items[j].Total()
	})
	n = min(n, len(items))
	out := make([]string, n)
	for i := range out {
		out[i] = items[i].Word
	}
	return out
}

// RankWords returns the words that were expected at least once, weakest first.
func RankWords(aggs []model.WordAggregate) []model.WordAggregate {
	rows := make([]model.WordAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Total() > 0 {
			rows = append(rows, agg)
		}
	}
	sortByScore(rows)
	return rows
}

// WordTableLines formats the weakest words as aligned table rows.
func WordTableLines(aggs []model.WordAggregate, limit int) []string {
	rows := RankWords(aggs)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	cells := make([][]string, len(rows))
	for i, agg := range rows {
		cells[i] = []string{
			agg.Word,
			fmt.Sprintf("%.0f%%", WordScore(agg)*100),
			fmt.Sprint(agg.Exact),
			fmt.Sprint(agg.Near),
			fmt.Sprint(agg.Skipped),
		}
	}
	return formatTable(
		[]string{"Word", "Score", "Exact", "Near", "Skipped"},
		cells,
		map[int]bool{1: true, 2: true, 3: true, 4: true},
	)
}

// RenderWordTable prints the weakest words.
func RenderWordTable(w io.Writer, aggs []model.WordAggregate, limit int) error {
	lines := WordTableLines(aggs, limit)
	if len(lines) <= 1 {
		_, err := fmt.Fprintln(w, "No word stats yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Weakest words"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func sortByScore(aggs []model.WordAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		si, sj := WordScore(aggs[i]), WordScore(aggs[j])
		if si == sj {
			if aggs[i].Total() == aggs[j].Total() {
				return aggs[i].Word < aggs[j].Word
			}
			return aggs[i].Total() > aggs[j].Total()
		}
		return si < sj
	})
}
