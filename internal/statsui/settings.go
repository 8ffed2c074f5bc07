package statsui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/lexiread/internal/model"
)

const (
	fieldUser = iota
	fieldLesson
	fieldSince
	fieldLast
	fieldWindow
)

// settingsForm edits the report filters in place of the tab body.
type settingsForm struct {
	active bool
	inputs []textinput.Model
	focus  int
	err    string
}

func newSettingsForm() settingsForm {
	prompts := []string{
		fieldUser:   "User: ",
		fieldLesson: "Lesson ID: ",
		fieldSince:  "Since (YYYY-MM-DD): ",
		fieldLast:   "Last: ",
		fieldWindow: "Curve window: ",
	}
	f := settingsForm{inputs: make([]textinput.Model, len(prompts))}
	for i, p := range prompts {
		f.inputs[i] = newInput(p)
	}
	return f
}

func newInput(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Cursor.SetMode(cursor.CursorBlink)
	return in
}

func (f *settingsForm) open(cfg model.StatsConfig) tea.Cmd {
	f.active = true
	f.err = ""
	values := []string{
		fieldUser:   cfg.User,
		fieldLesson: blankIfZero(cfg.LessonID),
		fieldSince:  "",
		fieldLast:   blankIfZero(int64(cfg.Last)),
		fieldWindow: strconv.Itoa(cfg.CurveWindow),
	}
	if cfg.Since != nil {
		values[fieldSince] = cfg.Since.Format(time.DateOnly)
	}
	for i, v := range values {
		f.inputs[i].SetValue(v)
	}
	return f.focusAt(0)
}

func (f *settingsForm) focusAt(idx int) tea.Cmd {
	f.focus = (idx + len(f.inputs)) % len(f.inputs)
	var cmd tea.Cmd
	for i := range f.inputs {
		if i != f.focus {
			f.inputs[i].Blur()
			continue
		}
		cmd = f.inputs[i].Focus()
	}
	return cmd
}

func (f *settingsForm) setWidth(width int) {
	for i := range f.inputs {
		f.inputs[i].Width = max(10, width-lipgloss.Width(f.inputs[i].Prompt)-2)
	}
}

// update feeds a key to the form. applied is non-nil once enter produced a
// valid config; the form closes on apply and on esc.
func (f *settingsForm) update(msg tea.KeyMsg) (applied *model.StatsConfig, cmd tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		f.active = false
		return nil, nil
	case tea.KeyTab:
		return nil, f.focusAt(f.focus + 1)
	case tea.KeyShiftTab:
		return nil, f.focusAt(f.focus - 1)
	case tea.KeyEnter:
		cfg, err := parseFilter(
			f.inputs[fieldUser].Value(),
			f.inputs[fieldLesson].Value(),
			f.inputs[fieldSince].Value(),
			f.inputs[fieldLast].Value(),
			f.inputs[fieldWindow].Value(),
		)
		if err != nil {
			f.err = err.Error()
			return nil, nil
		}
		f.active = false
		f.err = ""
		return &cfg, nil
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return nil, cmd
}

func (f *settingsForm) view() string {
	lines := make([]string, 0, len(f.inputs)+2)
	lines = append(lines, "Settings (enter to apply, esc to cancel)")
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, errorStyle.Render(f.err))
	}
	return strings.Join(lines, "\n")
}

func blankIfZero(v int64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func parseFilter(user, lesson, since, last, window string) (model.StatsConfig, error) {
	cfg := model.StatsConfig{User: strings.TrimSpace(user), CurveWindow: 1}

	nonNegative := func(raw, what string) (int64, error) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid %s (use 0 or positive integer)", what)
		}
		return n, nil
	}

	if v := strings.TrimSpace(lesson); v != "" {
		id, err := nonNegative(v, "lesson id")
		if err != nil {
			return cfg, err
		}
		cfg.LessonID = id
	}
	if v := strings.TrimSpace(since); v != "" {
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return cfg, errors.New("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &t
	}
	if v := strings.TrimSpace(last); v != "" {
		n, err := nonNegative(v, "last value")
		if err != nil {
			return cfg, err
		}
		cfg.Last = int(n)
	}
	if v := strings.TrimSpace(window); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, errors.New("invalid curve window (use integer >= 1)")
		}
		cfg.CurveWindow = n
	}
	return cfg, nil
}
