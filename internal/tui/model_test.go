package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/speech"
)

type stubRecorder struct {
	fb   model.Feedback
	err  error
	subs []model.Submission
}

func (s *stubRecorder) Record(_ context.Context, sub model.Submission) (model.Feedback, error) {
	s.subs = append(s.subs, sub)
	return s.fb, s.err
}

func newTestModel(rec speech.Recognizer, recorder *stubRecorder) *Model {
	opts := Options{
		Config: model.Config{User: "u1", DebounceMs: 0},
		Lesson: model.Lesson{ID: 7, Title: "Cats", Content: "The cat sat on the mat"},
		Logger: zerolog.Nop(),
	}
	if rec != nil {
		opts.Recognizer = rec
	}
	if recorder != nil {
		opts.Recorder = recorder
	}
	return NewModel(opts)
}

func manualRecognizer() (speech.Recognizer, *[]*speech.ManualStream) {
	var streams []*speech.ManualStream
	rec := speech.RecognizerFunc(func(context.Context) (speech.Stream, error) {
		m := speech.NewManualStream()
		streams = append(streams, m)
		return m, nil
	})
	return rec, &streams
}

// pump delivers one pending recognizer event to the model.
func pump(t *testing.T, m *Model) {
	t.Helper()
	events := m.ctrl.Events()
	if events == nil {
		t.Fatalf("expected an active stream")
	}
	ev, ok := <-events
	m.Update(speechEventMsg{attemptID: m.ctrl.Snapshot().AttemptID, ev: ev, ok: ok})
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func TestListenStopSubmit(t *testing.T) {
	rec, streams := manualRecognizer()
	recorder := &stubRecorder{fb: model.Feedback{SessionID: 1, Accuracy: 88, WordsPerMinute: 95, Recommendations: "Excellent reading! Keep it up!"}}
	m := newTestModel(rec, recorder)

	m.Update(key(tea.KeyCtrlR))
	if !m.ctrl.Snapshot().Listening {
		t.Fatalf("expected listening after ctrl+r")
	}
	(*streams)[0].Final("the cat sat")
	pump(t, m)
	if got := m.ctrl.Snapshot().Transcript; got != "the cat sat" {
		t.Fatalf("unexpected transcript %q", got)
	}

	m.Update(key(tea.KeyCtrlR))
	if m.ctrl.Snapshot().Listening {
		t.Fatalf("expected listening to stop")
	}
	pump(t, m)
	snap := m.ctrl.Snapshot()
	if !snap.Final {
		t.Fatalf("expected final attempt after stream closed")
	}

	_, cmd := m.Update(key(tea.KeyCtrlS))
	if cmd == nil {
		t.Fatalf("expected submit command")
	}
	m.Update(cmd())
	if len(recorder.subs) != 1 || recorder.subs[0].SpokenText != "the cat sat" || recorder.subs[0].LessonID != 7 {
		t.Fatalf("unexpected submissions %+v", recorder.subs)
	}
	acc, wpm := m.ctrl.Snapshot().Display()
	if acc != 88 || wpm != 95 {
		t.Fatalf("expected recorder metrics, got %d%% %d WPM", acc, wpm)
	}
	if !strings.Contains(m.View(), "Excellent reading!") {
		t.Fatalf("expected feedback in view")
	}
}

func TestSubmitFailureKeepsLocalResult(t *testing.T) {
	rec, streams := manualRecognizer()
	recorder := &stubRecorder{err: errors.New("disk full")}
	m := newTestModel(rec, recorder)

	m.Update(key(tea.KeyCtrlR))
	(*streams)[0].Final("the cat")
	pump(t, m)
	m.Update(key(tea.KeyCtrlR))
	pump(t, m)
	before := m.ctrl.Snapshot().Metrics

	_, cmd := m.Update(key(tea.KeyCtrlS))
	m.Update(cmd())
	if !strings.Contains(m.notice, "submit again") {
		t.Fatalf("expected retry notice, got %q", m.notice)
	}
	if m.ctrl.Snapshot().Metrics != before {
		t.Fatalf("local metrics changed after failed submit")
	}
	if m.submitting {
		t.Fatalf("expected submitting to clear")
	}
}

func TestSubmitBeforeFinishShowsNotice(t *testing.T) {
	m := newTestModel(nil, &stubRecorder{})
	_, cmd := m.Update(key(tea.KeyCtrlS))
	if cmd != nil {
		t.Fatalf("expected no command for unfinished attempt")
	}
	if m.notice == "" {
		t.Fatalf("expected notice")
	}
}

func TestUnsupportedRecognizerDisablesStart(t *testing.T) {
	rec := speech.RecognizerFunc(func(context.Context) (speech.Stream, error) {
		return nil, speech.ErrUnsupported
	})
	m := newTestModel(rec, nil)
	m.Update(key(tea.KeyCtrlR))
	if !m.startDisabled {
		t.Fatalf("expected start to be disabled")
	}
	if m.notice != speech.KindUnsupported.Message() {
		t.Fatalf("unexpected notice %q", m.notice)
	}
	if strings.Contains(m.renderHelp(m.ctrl.Snapshot()), "ctrl+r listen") {
		t.Fatalf("help should hide listen when unsupported")
	}
}

func TestTypedInputFeedsAlignment(t *testing.T) {
	m := newTestModel(nil, nil)
	m.Update(key(tea.KeyTab))
	if !m.typing || !m.ctrl.Snapshot().Listening {
		t.Fatalf("expected typed input to start an attempt")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("the cat")})
	pump(t, m)
	if got := m.ctrl.Snapshot().Transcript; got != "the cat" {
		t.Fatalf("unexpected interim transcript %q", got)
	}
	m.Update(key(tea.KeyEnter))
	pump(t, m)
	if m.input.Value() != "" {
		t.Fatalf("expected input to clear after enter")
	}

	m.Update(key(tea.KeyTab))
	pump(t, m)
	snap := m.ctrl.Snapshot()
	if !snap.Final || snap.Transcript != "the cat" {
		t.Fatalf("unexpected final snapshot %+v", snap)
	}
	exact, _, _ := snap.Result.Counts()
	if exact != 2 {
		t.Fatalf("expected 2 exact words, got %d", exact)
	}
}

func TestResetClearsAttempt(t *testing.T) {
	rec, streams := manualRecognizer()
	m := newTestModel(rec, nil)
	m.Update(key(tea.KeyCtrlR))
	(*streams)[0].Final("the cat")
	pump(t, m)
	staleID := m.ctrl.Snapshot().AttemptID

	m.Update(key(tea.KeyCtrlN))
	snap := m.ctrl.Snapshot()
	if snap.Listening || snap.Transcript != "" || snap.AttemptID != "" {
		t.Fatalf("expected cleared attempt, got %+v", snap)
	}
	m.Update(speechEventMsg{attemptID: staleID, ok: false})
	if m.ctrl.Snapshot().Final {
		t.Fatalf("stale event should be ignored")
	}
}

func TestTypedLineKeptWhenStreamIsFull(t *testing.T) {
	m := newTestModel(nil, nil)
	m.Update(key(tea.KeyTab))
	for m.manual.Interim("") {
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("the cat")})
	m.Update(key(tea.KeyEnter))
	if m.notice != typedLineDropped {
		t.Fatalf("expected dropped-line notice, got %q", m.notice)
	}
	if m.input.Value() != "the cat" {
		t.Fatalf("expected input kept, got %q", m.input.Value())
	}

	pump(t, m)
	m.Update(key(tea.KeyEnter))
	if m.notice != "" || m.input.Value() != "" {
		t.Fatalf("expected line committed, notice %q input %q", m.notice, m.input.Value())
	}
}
