// Package statsui is the interactive stats browser: an overview with trend
// curves, a ranked word table and per-word curves.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/store"
)

const (
	tabOverview = iota
	tabWordTable
	tabWordCurves
)

const plotHeight = 10

var tabNames = []string{
	tabOverview:   "Overview",
	tabWordTable:  "Word Table",
	tabWordCurves: "Word Curves",
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report     stats.Report
	errMsg     string
	wordErrMsg string

	activeTab int
	viewports []viewport.Model
	wordTable table.Model

	width  int
	height int

	settings settingsForm

	wordSelection       []string
	wordSelectionCustom bool
	wordPerSession      map[int64]map[string]model.WordStats

	wordInputMode bool
	wordInput     textinput.Model
}

// NewModel loads the first report for cfg.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:     st,
		cfg:       cfg,
		settings:  newSettingsForm(),
		wordTable: newWordTable(),
		wordInput: newInput("Words: "),
		viewports: make([]viewport.Model, len(tabNames)),
	}
	m.wordInput.Placeholder = "through thorough though"
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.updateLayout()
		m.renderTabContents()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.settings.active {
		applied, cmd := m.settings.update(msg)
		if applied != nil {
			m.cfg = *applied
			m.refreshReport()
		}
		return m, cmd
	}
	if m.wordInputMode {
		return m.updateWordInput(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "=", "-":
		if msg.String() == "=" {
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
		} else {
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
		}
		m.refreshReport()
		return m, nil
	case "/":
		return m, m.settings.open(m.cfg)
	case "enter":
		if m.activeTab != tabWordCurves {
			return m, nil
		}
		return m, m.openWordInput()
	case "g", "home":
		m.jump(true)
		return m, nil
	case "G", "end":
		m.jump(false)
		return m, nil
	}

	var cmd tea.Cmd
	if m.activeTab == tabWordTable {
		m.wordTable, cmd = m.wordTable.Update(msg)
	} else {
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	}
	return m, cmd
}

func (m *Model) jump(top bool) {
	switch {
	case m.activeTab == tabWordTable && top:
		m.wordTable.GotoTop()
	case m.activeTab == tabWordTable:
		m.wordTable.GotoBottom()
	case top:
		m.viewports[m.activeTab].GotoTop()
	default:
		m.viewports[m.activeTab].GotoBottom()
	}
}

func (m *Model) moveTab(delta int) {
	n := len(tabNames)
	m.activeTab = ((m.activeTab+delta)%n + n) % n
	if m.activeTab == tabWordTable {
		m.wordTable.Focus()
		return
	}
	m.wordTable.Blur()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.wordInputMode {
		return block(m.renderWordModal(), m.width, m.height)
	}
	headerH, bodyH, footerH := m.layoutHeights()
	return strings.Join([]string{
		block(m.renderHeader(), m.width, headerH),
		block(m.renderBody(), m.width, bodyH),
		block(m.renderFooter(), m.width, footerH),
	}, "\n")
}

func (m *Model) layoutHeights() (header, body, footer int) {
	header = tabBarHeight() + 1
	footer = 1
	if m.errMsg != "" && !m.settings.active {
		footer = 2
	}
	body = max(m.height-header-footer, 1)
	return header, body, footer
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyH, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width, m.viewports[i].Height = m.width, bodyH
	}
	m.wordTable.SetWidth(m.width)
	m.wordTable.SetHeight(max(bodyH-1, 1))
	m.settings.setWidth(m.width)
	m.wordInput.Width = max(10, modalInnerWidth(m.width)-lipgloss.Width(m.wordInput.Prompt))
}

func (m *Model) renderHeader() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := tabInactiveStyle
		if i == m.activeTab {
			style = tabActiveStyle
		}
		tabs[i] = style.Render(name)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		mutedStyle.Render(clip(m.filterSummary(), m.width)),
	)
}

func (m *Model) filterSummary() string {
	user, lesson, since, last := "any", "any", "any", "all"
	if m.cfg.User != "" {
		user = m.cfg.User
	}
	if m.cfg.LessonID > 0 {
		lesson = strconv.FormatInt(m.cfg.LessonID, 10)
	}
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(time.DateOnly)
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("Settings: user=%s  lesson=%s  since=%s  last=%s  window=%d",
		user, lesson, since, last, m.cfg.CurveWindow)
}

func (m *Model) renderFooter() string {
	if m.settings.active {
		return mutedStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	keys := []string{"Nav: left/right", "Scroll: up/down/pgup/pgdn"}
	if m.activeTab == tabWordCurves {
		keys = append(keys, "Edit words: enter")
	}
	keys = append(keys, "Window: -/=", "Settings: /", "Quit: q")
	help := mutedStyle.Render(strings.Join(keys, "  "))
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	switch {
	case m.settings.active:
		return m.settings.view()
	case m.activeTab != tabWordTable:
		return m.viewports[m.activeTab].View()
	case len(m.report.Sessions) == 0:
		return "No sessions found."
	case len(m.report.WordAggsAll) == 0:
		return "No word stats found."
	default:
		return textStyle.Render(m.wordTable.View())
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{}
		m.renderTabContents()
		return
	}
	m.errMsg = ""
	m.report = report
	if !m.wordSelectionCustom {
		m.wordSelection = stats.SelectWeakWords(report.WordAggsWindow, defaultWords)
	}
	m.loadWordPerSession()
	m.wordTable.SetRows(wordRows(report.WordAggsAll))
	m.updateLayout()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	overview, curves := "Failed to load stats.", "Failed to load stats."
	if m.errMsg == "" {
		width := m.width
		if width <= 0 {
			width = 80
		}
		overview = renderOverview(m.report.Sessions, m.cfg.CurveWindow, width)
		curves = renderWordCurves(m.report.Sessions, m.wordSelection, m.wordPerSession, m.cfg.CurveWindow, width, m.wordErrMsg)
	}
	m.viewports[tabOverview].SetContent(overview)
	m.viewports[tabWordCurves].SetContent(curves)
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	s := stats.Summarize(sessions)
	cards := []string{
		metricCard("Sessions", strconv.Itoa(s.Sessions)),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", s.AvgWPM)),
		metricCard("Best WPM", strconv.Itoa(s.BestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", s.AvgAccuracy)),
		metricCard("Words read", strconv.Itoa(s.WordsRead)),
	}
	summary := lipgloss.JoinVertical(lipgloss.Left, cards...)
	if width >= 80 {
		summary = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...),
			lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...),
		)
	}
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithSize(&buf, sessions, window, width, plotHeight, true); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(labelStyle.Render(label) + "\n" + emphasisStyle.Render(value))
}
