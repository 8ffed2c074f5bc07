// Package speech defines the recognizer boundary and its implementations.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Segment is one recognized fragment. Interim segments may be revised by
// later events; final segments never change.
type Segment struct {
	Text  string
	Final bool
}

// Event carries newly recognized segments or a recognition failure.
type Event struct {
	Segments []Segment
	Err      error
}

// Stream is an active listening session. Events is closed when the session
// ends, whether by Stop or by the recognizer.
type Stream interface {
	Events() <-chan Event
	Stop() error
}

// Recognizer starts listening sessions.
type Recognizer interface {
	Listen(ctx context.Context) (Stream, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context) (Stream, error)

// Listen calls f(ctx).
func (f RecognizerFunc) Listen(ctx context.Context) (Stream, error) {
	return f(ctx)
}

var (
	// ErrUnsupported means recognition is unavailable in this environment.
	ErrUnsupported = errors.New("speech recognition unsupported")
	// ErrPermissionDenied means audio access was refused.
	ErrPermissionDenied = errors.New("audio access denied")
)

// TransientError wraps a recoverable recognition failure such as no speech
// detected or an interrupted input.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient recognition error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientError.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Kind classifies recognition failures by how the user can recover.
type Kind int

const (
	KindNone Kind = iota
	KindUnsupported
	KindPermission
	KindTransient
)

// Classify maps err onto a Kind. Unknown errors are treated as transient.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, os.ErrPermission):
		return KindPermission
	default:
		return KindTransient
	}
}

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindPermission:
		return "permission"
	case KindTransient:
		return "transient"
	default:
		return "none"
	}
}

// Message returns user-facing text for the kind.
func (k Kind) Message() string {
	switch k {
	case KindUnsupported:
		return "Speech recognition is not available here. Use typed input instead."
	case KindPermission:
		return "Audio access was denied. Grant access and start again."
	case KindTransient:
		return "Recognition was interrupted. Start listening to try again."
	default:
		return ""
	}
}

// Recoverable reports whether starting again may succeed without outside action.
func (k Kind) Recoverable() bool {
	return k == KindTransient
}
