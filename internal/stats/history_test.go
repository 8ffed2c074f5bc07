package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/lexiread/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if got := MovingAverage([]float64{1, 5}, 0); got[1] != 5 {
		t.Fatalf("expected passthrough for window 0, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 10}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestRenderSummary(t *testing.T) {
	sessions := []model.SessionAggregate{
		{Accuracy: 80, WordsPerMinute: 100, Correct: 8, Near: 1, DurationMs: 30000},
		{Accuracy: 100, WordsPerMinute: 120, Correct: 10, DurationMs: 30000},
	}
	var buf bytes.Buffer
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Avg WPM: 110.0", "Best WPM: 120", "Avg Accuracy: 90.0%", "Words read: 19", "Time reading: 1.0 min"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderCurves(t *testing.T) {
	sessions := []model.SessionAggregate{
		{Accuracy: 60, WordsPerMinute: 80},
		{Accuracy: 70, WordsPerMinute: 90},
		{Accuracy: 90, WordsPerMinute: 110},
	}
	var buf bytes.Buffer
	if err := RenderCurvesWithSize(&buf, sessions, 2, 40, 4, false); err != nil {
		t.Fatalf("render curves: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "WPM   ") || !strings.Contains(out, "window 2") {
		t.Fatalf("unexpected curves output:\n%s", out)
	}
}

func TestRenderWordCurves(t *testing.T) {
	sessions := []model.SessionAggregate{{SessionID: 1}, {SessionID: 2}, {SessionID: 3}}
	perSession := map[int64]map[string]model.WordStats{
		1: {"mat": {Word: "mat", Skipped: 2}},
		3: {"mat": {Word: "mat", Exact: 2}},
	}
	var buf bytes.Buffer
	if err := RenderWordCurvesWithSize(&buf, sessions, perSession, []string{"mat"}, 1, 40, 4, false); err != nil {
		t.Fatalf("render word curves: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Per-Word Curves") || !strings.Contains(out, `Word "mat"`) {
		t.Fatalf("unexpected word curves output:\n%s", out)
	}

	buf.Reset()
	if err := RenderWordCurves(&buf, sessions, perSession, nil, 1); err != nil {
		t.Fatalf("render word curves: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output without words, got %q", buf.String())
	}
}
