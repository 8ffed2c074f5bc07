package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/lexiread/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[min(max(idx, 0), last)])
	}
	return b.String()
}

// Summary aggregates a run of sessions.
type Summary struct {
	Sessions    int
	AvgWPM      float64
	BestWPM     int
	AvgAccuracy float64
	WordsRead   int
	Minutes     float64
}

// Summarize averages per-session metrics.
func Summarize(sessions []model.SessionAggregate) Summary {
	s := Summary{Sessions: len(sessions)}
	if len(sessions) == 0 {
		return s
	}
	var wpm, acc float64
	for _, sess := range sessions {
		wpm += float64(sess.WordsPerMinute)
		acc += float64(sess.Accuracy)
		s.BestWPM = max(s.BestWPM, sess.WordsPerMinute)
		s.WordsRead += sess.Correct + sess.Near
		s.Minutes += float64(sess.DurationMs) / 60000.0
	}
	s.AvgWPM = wpm / float64(len(sessions))
	s.AvgAccuracy = acc / float64(len(sessions))
	return s
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	s := Summarize(sessions)
	_, err := fmt.Fprintf(w,
		"Summary\nSessions: %d\nAvg WPM: %.1f\nBest WPM: %d\nAvg Accuracy: %.1f%%\nWords read: %d\nTime reading: %.1f min\n\n",
		s.Sessions, s.AvgWPM, s.BestWPM, s.AvgAccuracy, s.WordsRead, s.Minutes)
	return err
}

// RenderCurves prints learning curves for WPM and accuracy.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window int) error {
	return RenderCurvesWithSize(w, sessions, window, 0, defaultPlotHeight, false)
}

// RenderCurvesWithSize prints learning curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	wpms := make([]float64, len(sessions))
	accs := make([]float64, len(sessions))
	for i, s := range sessions {
		wpms[i] = float64(s.WordsPerMinute)
		accs[i] = float64(s.Accuracy)
	}
	wpms = MovingAverage(wpms, window)
	accs = MovingAverage(accs, window)

	if _, err := fmt.Fprintf(w, "WPM   %s\nAcc%%  %s\n\n", Sparkline(wpms), Sparkline(accs)); err != nil {
		return err
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	title := fmt.Sprintf("Learning curve (moving average, window %d)", max(window, 1))
	return PlotSeriesWithColor(w, title, []Series{
		{Name: "WPM", Values: wpms},
		{Name: "Accuracy %", Values: accs},
	}, width, height, useColor)
}

// RenderWordCurves prints per-word score curves.
func RenderWordCurves(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.WordStats, words []string, window int) error {
	return RenderWordCurvesWithSize(w, sessions, perSession, words, window, 0, defaultPlotHeight, false)
}

// RenderWordCurvesWithSize prints per-word score curves sized to a given
// total width. Sessions where a word was not expected carry the previous
// score forward.
func RenderWordCurvesWithSize(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.WordStats, words []string, window, totalWidth, height int, useColor bool) error {
	if len(words) == 0 || len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Word Curves"); err != nil {
		return err
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	for _, word := range words {
		scores := make([]float64, len(sessions))
		prev := 100.0
		for i, s := range sessions {
			scores[i] = prev
			st, ok := perSession[s.SessionID][word]
			if !ok {
				continue
			}
			agg := model.WordAggregate{Word: word, Exact: st.Exact, Near: st.Near, Skipped: st.Skipped}
			if agg.Total() > 0 {
				scores[i] = WordScore(agg) * 100
				prev = scores[i]
			}
		}
		if err := PlotSeriesWithColor(w, fmt.Sprintf("Word %q", word), []Series{
			{Name: "Score %", Values: MovingAverage(scores, window)},
		}, width, height, useColor); err != nil {
			return err
		}
	}
	return nil
}
