// Package tui provides the Bubble Tea read-aloud practice screen.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/practice"
	"github.com/verte-zerg/lexiread/internal/speech"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/store"
)

var (
	exactStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	nearStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	skippedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Bold(true)
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9F43"))
	listeningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
)

const typedLineDropped = "Input is busy; press enter again to commit the line."

type speechEventMsg struct {
	attemptID string
	ev        speech.Event
	ok        bool
}

type flushTickMsg struct {
	attemptID string
}

type submitResultMsg struct {
	attemptID string
	fb        model.Feedback
	err       error
}

// Options wires the practice screen.
type Options struct {
	Config model.Config
	Lesson model.Lesson
	// Recognizer is nil when only typed input is available.
	Recognizer speech.Recognizer
	Recorder   practice.Recorder
	// Store provides footer history and may be nil.
	Store  *store.Store
	Logger zerolog.Logger
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	config     model.Config
	lesson     model.Lesson
	ctrl       *practice.Controller
	recognizer speech.Recognizer
	recorder   practice.Recorder
	store      *store.Store
	log        zerolog.Logger
	debounce   time.Duration

	width  int
	height int

	input         textinput.Model
	manual        *speech.ManualStream
	typing        bool
	startDisabled bool
	submitting    bool
	notice        string

	lastWPM  int
	lastAcc  int
	hasLast  bool
	allWPM   float64
	allAcc   float64
	allCount int
}

// NewModel constructs a practice TUI model.
func NewModel(opts Options) *Model {
	debounce := time.Duration(opts.Config.DebounceMs) * time.Millisecond
	input := textinput.New()
	input.Placeholder = "type what you read, enter to commit"
	input.Prompt = "› "

	m := &Model{
		config:     opts.Config,
		lesson:     opts.Lesson,
		recognizer: opts.Recognizer,
		recorder:   opts.Recorder,
		store:      opts.Store,
		log:        opts.Logger.With().Str("component", "tui").Logger(),
		debounce:   debounce,
		input:      input,
	}
	m.ctrl = practice.New(opts.Lesson.Content,
		practice.WithDebounce(debounce),
		practice.WithLogger(m.log),
	)
	if m.recognizer == nil {
		m.startDisabled = true
	}
	m.loadFooterStats()
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
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width/2, 20)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case speechEventMsg:
		return m, m.handleSpeech(msg)
	case flushTickMsg:
		if msg.attemptID != m.ctrl.Snapshot().AttemptID || m.ctrl.Events() == nil {
			return m, nil
		}
		m.ctrl.Flush()
		return m, m.flushTick()
	case submitResultMsg:
		m.submitting = false
		if err := m.ctrl.ApplyFeedback(msg.attemptID, msg.fb, msg.err); err != nil {
			m.notice = practice.Describe(err)
			return m, nil
		}
		if msg.err == nil && msg.attemptID == m.ctrl.Snapshot().AttemptID {
			m.notice = ""
			m.loadFooterStats()
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.stop()
		return m, tea.Quit
	case tea.KeyCtrlR:
		if m.ctrl.Snapshot().Listening {
			m.stop()
			return m, nil
		}
		return m, m.startListening()
	case tea.KeyTab:
		if m.typing {
			m.stop()
			return m, nil
		}
		return m, m.startTyping()
	case tea.KeyCtrlS:
		return m, m.submit()
	case tea.KeyCtrlN:
		m.ctrl.Reset()
		m.typing = false
		m.manual = nil
		m.input.Reset()
		m.input.Blur()
		m.notice = ""
		return m, nil
	}
	if !m.typing {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.stop()
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text != "" && !m.manual.Final(text) {
			m.notice = typedLineDropped
			return m, nil
		}
		m.notice = ""
		m.input.Reset()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.manual.Interim(m.input.Value())
	return m, cmd
}

func (m *Model) startListening() tea.Cmd {
	if m.startDisabled {
		m.notice = speech.KindUnsupported.Message()
		return nil
	}
	return m.start(m.recognizer)
}

func (m *Model) startTyping() tea.Cmd {
	if m.ctrl.Snapshot().Listening {
		return nil
	}
	manual := speech.NewManualStream()
	cmd := m.start(speech.RecognizerFunc(func(context.Context) (speech.Stream, error) {
		return manual, nil
	}))
	if cmd == nil {
		return nil
	}
	m.manual = manual
	m.typing = true
	m.input.Reset()
	return tea.Batch(cmd, m.input.Focus())
}

func (m *Model) start(rec speech.Recognizer) tea.Cmd {
	m.notice = ""
	if err := m.ctrl.Start(context.Background(), rec); err != nil {
		kind := speech.Classify(err)
		if kind == speech.KindUnsupported {
			m.startDisabled = true
		}
		m.notice = kind.Message()
		return nil
	}
	return tea.Batch(m.waitForEvent(), m.flushTick())
}

func (m *Model) stop() {
	if err := m.ctrl.Stop(); err != nil {
		m.log.Warn().Err(err).Msg("stop listening")
	}
	if m.typing {
		m.typing = false
		m.input.Blur()
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.ctrl.Events()
	if events == nil {
		return nil
	}
	attemptID := m.ctrl.Snapshot().AttemptID
	return func() tea.Msg {
		ev, ok := <-events
		return speechEventMsg{attemptID: attemptID, ev: ev, ok: ok}
	}
}

func (m *Model) flushTick() tea.Cmd {
	if m.debounce <= 0 {
		return nil
	}
	attemptID := m.ctrl.Snapshot().AttemptID
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return flushTickMsg{attemptID: attemptID}
	})
}

func (m *Model) handleSpeech(msg speechEventMsg) tea.Cmd {
	if msg.attemptID != m.ctrl.Snapshot().AttemptID {
		return nil
	}
	if !msg.ok {
		m.ctrl.Finish()
		m.typing = false
		m.manual = nil
		m.input.Blur()
		return nil
	}
	m.ctrl.Handle(msg.ev)
	if msg.ev.Err != nil {
		m.notice = practice.Describe(msg.ev.Err)
		if speech.Classify(msg.ev.Err) == speech.KindUnsupported {
			m.startDisabled = true
		}
	}
	return m.waitForEvent()
}

func (m *Model) submit() tea.Cmd {
	if m.submitting || m.recorder == nil {
		return nil
	}
	sub, err := m.ctrl.PrepareSubmission(m.config.User, m.lesson.ID)
	if err != nil {
		m.notice = practice.Describe(err)
		return nil
	}
	m.submitting = true
	m.notice = "Saving…"
	recorder := m.recorder
	return func() tea.Msg {
		fb, err := recorder.Record(context.Background(), sub)
		return submitResultMsg{attemptID: sub.AttemptID, fb: fb, err: err}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	snap := m.ctrl.Snapshot()
	contentWidth := 0
	if m.width > 0 {
		contentWidth = max(int(float64(m.width)*0.70), 1)
	}

	lines := []string{m.renderHeader(snap), ""}
	lines = append(lines, wrapStyledWords(buildStyledWords(snap.Result, snap.Final), contentWidth), "")
	if snap.Transcript != "" {
		lines = append(lines, footerStyle.Render("Heard: "+snap.Transcript))
	}
	if m.typing {
		lines = append(lines, m.input.View())
	}
	if fb := snap.Feedback; fb != nil {
		lines = append(lines, renderFeedback(*fb)...)
	}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice))
	}
	content := strings.Join(lines, "\n")
	if contentWidth > 0 {
		content = lipgloss.NewStyle().Width(contentWidth).Render(content)
	}

	footer := m.renderFooter(snap)
	help := footerStyle.Render(m.renderHelp(snap))
	if m.width == 0 || m.height < 4 {
		return content + "\n" + footer + "\n" + help
	}
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" +
		lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer) + "\n" +
		lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, help)
}

func (m *Model) renderHeader(snap practice.Snapshot) string {
	title := titleStyle.Render(m.lesson.Title)
	if m.lesson.ReadingLevel != "" {
		title += footerStyle.Render(" (" + m.lesson.ReadingLevel + ")")
	}
	switch {
	case snap.Listening && m.typing:
		return title + "  " + listeningStyle.Render("● typing")
	case snap.Listening:
		return title + "  " + listeningStyle.Render("● listening")
	case snap.Final:
		return title + "  " + footerStyle.Render("finished")
	default:
		return title
	}
}

func renderFeedback(fb model.Feedback) []string {
	lines := []string{titleStyle.Render(fb.Recommendations)}
	if fb.PerformanceLevel != "" {
		lines = append(lines, "Pace: "+fb.PerformanceLevel)
	}
	if len(fb.Errors) > 0 {
		lines = append(lines, "Missed: "+strings.Join(fb.Errors, ", "))
	}
	if len(fb.SoundsAlike) > 0 {
		lines = append(lines, footerStyle.Render("Sounds alike (likely recognizer confusion): "+strings.Join(fb.SoundsAlike, ", ")))
	}
	return lines
}

func (m *Model) renderHelp(snap practice.Snapshot) string {
	keys := []string{}
	switch {
	case snap.Listening && m.typing:
		keys = append(keys, "tab stop typing")
	case snap.Listening:
		keys = append(keys, "ctrl+r stop")
	default:
		if !m.startDisabled {
			keys = append(keys, "ctrl+r listen")
		}
		keys = append(keys, "tab type")
	}
	if snap.Final && snap.Feedback == nil && m.recorder != nil {
		keys = append(keys, "ctrl+s save")
	}
	keys = append(keys, "ctrl+n reset", "ctrl+c quit")
	return strings.Join(keys, " · ")
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{User: m.config.User})
	if err != nil {
		m.log.Error().Err(err).Msg("failed to load session stats")
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastWPM = last.WordsPerMinute
	m.lastAcc = last.Accuracy
	m.hasLast = true
	summary := stats.Summarize(sessions)
	m.allWPM = summary.AvgWPM
	m.allAcc = summary.AvgAccuracy
	m.allCount = summary.Sessions
}

func (m *Model) renderFooter(snap practice.Snapshot) string {
	acc, wpm := snap.Display()
	exact, near, _ := snap.Result.Counts()
	progress := 0
	if len(snap.Result) > 0 {
		progress = (exact + near) * 100 / len(snap.Result)
	}
	segments := []string{
		fmt.Sprintf("Read %d%%", progress),
		fmt.Sprintf("Now %d WPM · %d%%", wpm, acc),
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", m.lastWPM, m.lastAcc))
	}
	if m.allCount > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", m.allWPM, m.allAcc))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
