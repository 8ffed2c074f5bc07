package speech

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ScriptRecognizer replays a transcript script. Each non-blank line is one
// event: "~text" is an interim segment, "!reason" a transient error and any
// other line a final segment.
type ScriptRecognizer struct {
	open  func() (io.ReadCloser, error)
	delay time.Duration
}

// NewScriptRecognizer replays r. The reader is consumed by the first Listen.
func NewScriptRecognizer(r io.Reader) *ScriptRecognizer {
	return &ScriptRecognizer{open: func() (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	}}
}

// NewScriptFileRecognizer replays the file at path on every Listen.
func NewScriptFileRecognizer(path string) *ScriptRecognizer {
	return &ScriptRecognizer{open: func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%s: %w", path, ErrPermissionDenied)
		}
		return f, err
	}}
}

// WithDelay pauses between events.
func (s *ScriptRecognizer) WithDelay(d time.Duration) *ScriptRecognizer {
	s.delay = d
	return s
}

// Listen implements Recognizer.
func (s *ScriptRecognizer) Listen(ctx context.Context) (Stream, error) {
	rc, err := s.open()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	st := &scriptStream{events: make(chan Event), cancel: cancel}
	go st.run(ctx, rc, s.delay)
	return st, nil
}

type scriptStream struct {
	events chan Event
	cancel context.CancelFunc
	once   sync.Once
}

func (s *scriptStream) Events() <-chan Event {
	return s.events
}

func (s *scriptStream) Stop() error {
	s.once.Do(s.cancel)
	return nil
}

func (s *scriptStream) run(ctx context.Context, rc io.ReadCloser, delay time.Duration) {
	defer close(s.events)
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			// Best-effort close for read-only script.
			_ = cerr
		}
	}()

	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		ev, ok := parseScriptLine(scanner.Text())
		if !ok {
			continue
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
		select {
		case <-ctx.Done():
			return
		case s.events <- ev:
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-ctx.Done():
		case s.events <- Event{Err: Transient(err)}:
		}
	}
}

func parseScriptLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return Event{}, false
	case strings.HasPrefix(line, "!"):
		return Event{Err: Transient(errors.New(strings.TrimSpace(line[1:])))}, true
	case strings.HasPrefix(line, "~"):
		return Event{Segments: []Segment{{Text: strings.TrimSpace(line[1:])}}}, true
	default:
		return Event{Segments: []Segment{{Text: line, Final: true}}}, true
	}
}
