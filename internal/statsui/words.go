package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/words"
)

const defaultWords = 5

var wordColumns = []table.Column{
	{Title: "Word", Width: 16},
	{Title: "Score", Width: 7},
	{Title: "Exact", Width: 6},
	{Title: "Near", Width: 6},
	{Title: "Skipped", Width: 8},
	{Title: "Total", Width: 6},
}

func newWordTable() table.Model {
	t := table.New(table.WithColumns(wordColumns), table.WithHeight(1))
	t.SetStyles(wordTableStyles())
	return t
}

// wordRows lists aggregates weakest first.
func wordRows(aggs []model.WordAggregate) []table.Row {
	ranked := stats.RankWords(aggs)
	rows := make([]table.Row, len(ranked))
	for i, a := range ranked {
		rows[i] = table.Row{
			a.Word,
			fmt.Sprintf("%.0f%%", stats.WordScore(a)*100),
			strconv.Itoa(a.Exact),
			strconv.Itoa(a.Near),
			strconv.Itoa(a.Skipped),
			strconv.Itoa(a.Total()),
		}
	}
	return rows
}

func renderWordCurves(sessions []model.SessionAggregate, selected []string, perSession map[int64]map[string]model.WordStats, window, width int, loadErr string) string {
	switch {
	case len(sessions) == 0:
		return "No sessions found."
	case loadErr != "":
		return "Failed to load word curves: " + loadErr
	case len(selected) == 0:
		return "No words selected. Press Enter to set words."
	}
	var buf bytes.Buffer
	buf.WriteString(mutedStyle.Render("Words: "+strings.Join(selected, ", ")) + "\n")
	if err := stats.RenderWordCurvesWithSize(&buf, sessions, perSession, selected, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render word curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

// parseWords normalizes a space or comma separated list, dropping repeats.
func parseWords(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := words.Normalize(f)
		if _, dup := seen[w]; w == "" || dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// applyWordInput selects the typed words, or the weakest recent words when
// the input holds none.
func (m *Model) applyWordInput(raw string) {
	if picked := parseWords(raw); len(picked) > 0 {
		m.wordSelection = picked
		m.wordSelectionCustom = true
		return
	}
	m.wordSelection = stats.SelectWeakWords(m.report.WordAggsWindow, defaultWords)
	m.wordSelectionCustom = false
}

func (m *Model) openWordInput() tea.Cmd {
	m.wordInputMode = true
	m.wordInput.SetValue(strings.Join(m.wordSelection, " "))
	return m.wordInput.Focus()
}

func (m *Model) updateWordInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.wordInputMode = false
		return m, nil
	case tea.KeyEnter:
		m.wordInputMode = false
		m.applyWordInput(m.wordInput.Value())
		m.loadWordPerSession()
		m.renderTabContents()
		return m, nil
	}
	var cmd tea.Cmd
	m.wordInput, cmd = m.wordInput.Update(msg)
	return m, cmd
}

func (m *Model) renderWordModal() string {
	box := modalStyle.Width(modalWidth(m.width)).Render(lipgloss.JoinVertical(lipgloss.Left,
		emphasisStyle.Render("Select Words"),
		m.wordInput.View(),
		mutedStyle.Render("Separate words with spaces or commas. Empty selects the weakest words."),
		mutedStyle.Render("Enter to apply / Esc to cancel"),
	))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) loadWordPerSession() {
	m.wordErrMsg, m.wordPerSession = "", nil
	if len(m.report.Sessions) == 0 || len(m.wordSelection) == 0 {
		return
	}
	ids := stats.SessionIDs(m.report.Sessions)
	per, err := m.store.ListWordStatsForSessions(context.Background(), ids, m.wordSelection)
	if err != nil {
		m.wordErrMsg = err.Error()
		return
	}
	m.wordPerSession = per
}
