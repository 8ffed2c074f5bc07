package speech

import "sync"

const manualBuffer = 64

// ManualStream is a Stream fed by the caller, used for typed input.
type ManualStream struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

// NewManualStream returns an open ManualStream.
func NewManualStream() *ManualStream {
	return &ManualStream{events: make(chan Event, manualBuffer)}
}

// Events implements Stream.
func (m *ManualStream) Events() <-chan Event {
	return m.events
}

// Interim emits a revisable segment.
func (m *ManualStream) Interim(text string) bool {
	return m.send(Event{Segments: []Segment{{Text: text}}})
}

// Final emits a committed segment.
func (m *ManualStream) Final(text string) bool {
	return m.send(Event{Segments: []Segment{{Text: text, Final: true}}})
}

// Fail emits an error event.
func (m *ManualStream) Fail(err error) bool {
	return m.send(Event{Err: err})
}

// send reports false when the stream is closed or its buffer is full.
func (m *ManualStream) send(ev Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	select {
	case m.events <- ev:
		return true
	default:
		return false
	}
}

// Stop closes the stream. Repeated calls are no-ops.
func (m *ManualStream) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	return nil
}
