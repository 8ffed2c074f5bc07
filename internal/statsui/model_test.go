package statsui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/store"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := model.SessionRecord{
			AttemptID:      fmt.Sprintf("a%d", i),
			UserID:         "ana",
			LessonID:       1,
			SpokenText:     "the cat",
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			EndedAt:        base.Add(time.Duration(i)*time.Hour + time.Minute),
			DurationMs:     60000,
			Accuracy:       60 + 10*i,
			WordsPerMinute: 80 + 10*i,
			Correct:        2,
			Total:          3,
			Skipped:        1,
		}
		ws := []model.WordStats{{Word: "the", Exact: 1}, {Word: "cat", Exact: 1}, {Word: "mat", Skipped: 1}}
		if _, err := st.InsertSession(context.Background(), rec, ws); err != nil {
			t.Fatalf("insert session: %v", err)
		}
	}
	return st
}

func sized(m *Model) *Model {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestOverviewShowsSummary(t *testing.T) {
	m := sized(NewModel(seededStore(t), model.StatsConfig{CurveWindow: 2}))
	if len(m.report.Sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(m.report.Sessions))
	}
	view := m.View()
	for _, want := range []string{"Overview", "Avg WPM", "90.0", "window=2"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestWordTableRanksWeakestFirst(t *testing.T) {
	m := sized(NewModel(seededStore(t), model.StatsConfig{CurveWindow: 2}))
	rows := m.wordTable.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "mat" || rows[0][1] != "0%" || rows[0][4] != "3" {
		t.Fatalf("unexpected first row %v", rows[0])
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	if m.activeTab != tabWordTable {
		t.Fatalf("expected word table tab, got %d", m.activeTab)
	}
}

func TestWordCurvesDefaultToWeakWords(t *testing.T) {
	m := sized(NewModel(seededStore(t), model.StatsConfig{CurveWindow: 2}))
	if len(m.wordSelection) != 1 || m.wordSelection[0] != "mat" {
		t.Fatalf("unexpected default selection %v", m.wordSelection)
	}
	if _, ok := m.wordPerSession[1]["mat"]; !ok {
		t.Fatalf("expected per-session stats for mat")
	}

	m.activeTab = tabWordCurves
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.wordInputMode {
		t.Fatalf("expected word input mode")
	}
	m.applyWordInput("Cat, the cat")
	if !m.wordSelectionCustom || strings.Join(m.wordSelection, ",") != "cat,the" {
		t.Fatalf("unexpected custom selection %v", m.wordSelection)
	}
	m.applyWordInput("  ")
	if m.wordSelectionCustom || m.wordSelection[0] != "mat" {
		t.Fatalf("expected reset to weak words, got %v", m.wordSelection)
	}
}

func TestCurveWindowKeys(t *testing.T) {
	m := sized(NewModel(seededStore(t), model.StatsConfig{CurveWindow: 2}))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("=")})
	if m.cfg.CurveWindow != 5 {
		t.Fatalf("expected window 5, got %d", m.cfg.CurveWindow)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	if m.cfg.CurveWindow != 1 {
		t.Fatalf("expected window 1, got %d", m.cfg.CurveWindow)
	}
}

func TestParseFilter(t *testing.T) {
	cfg, err := parseFilter(" ana ", "3", "2026-03-01", "10", "4")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	if cfg.User != "ana" || cfg.LessonID != 3 || cfg.Last != 10 || cfg.CurveWindow != 4 || cfg.Since == nil {
		t.Fatalf("unexpected config %+v", cfg)
	}
	for _, bad := range [][5]string{
		{"", "x", "", "", ""},
		{"", "", "03/01/2026", "", ""},
		{"", "", "", "-1", ""},
		{"", "", "", "", "0"},
	} {
		if _, err := parseFilter(bad[0], bad[1], bad[2], bad[3], bad[4]); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct{ in, next, prev int }{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, c := range cases {
		if got := nextCurveWindow(c.in); got != c.next {
			t.Fatalf("next(%d): expected %d, got %d", c.in, c.next, got)
		}
		if got := prevCurveWindow(c.in); got != c.prev {
			t.Fatalf("prev(%d): expected %d, got %d", c.in, c.prev, got)
		}
	}
}

func TestBlockPadsAndClips(t *testing.T) {
	got := block("ab\ncdef\nxyz", 5, 2)
	if got != "ab   \ncdef " {
		t.Fatalf("unexpected block %q", got)
	}
	if got := block("a", 3, 3); got != "a  \n   \n   " {
		t.Fatalf("unexpected padded block %q", got)
	}
	if got := clip("settings summary", 10); got != "setting..." {
		t.Fatalf("unexpected clip %q", got)
	}
}

func TestSettingsFormAppliesFilter(t *testing.T) {
	m := sized(NewModel(seededStore(t), model.StatsConfig{CurveWindow: 2}))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.settings.active {
		t.Fatalf("expected settings form")
	}
	m.settings.inputs[fieldLast].SetValue("2")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.settings.active || m.cfg.Last != 2 || len(m.report.Sessions) != 2 {
		t.Fatalf("expected filter applied, got cfg %+v with %d sessions", m.cfg, len(m.report.Sessions))
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m.settings.inputs[fieldWindow].SetValue("0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.settings.active || m.settings.err == "" {
		t.Fatalf("expected validation error to keep the form open")
	}
}
