// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Lang               string
	User               string
	LessonID           int64
	DebounceMs         int
	ShortWordLen       int
	ShortWordTolerance int
	LongWordTolerance  int
	FocusWeak          bool
	WeakTop            int
	WeakFactor         float64
	WeakWindow         int
	DrillWords         int
}

// SpeechConfig locates the offline recognizer models.
type SpeechConfig struct {
	ModelDir   string
	VADModel   string
	SampleRate int
	NumThreads int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	User        string
	LessonID    int64
	Since       *time.Time
	Last        int
	CurveWindow int
}

// Lesson is a text the learner reads aloud.
type Lesson struct {
	ID           int64
	Title        string
	Content      string
	ReadingLevel string
	CreatedAt    time.Time
}

// Submission is what a finished attempt sends to the session recorder.
type Submission struct {
	AttemptID  string
	UserID     string
	LessonID   int64
	SpokenText string
	StartedAt  time.Time
	EndedAt    time.Time
}

// Feedback is the recorder's verdict on a submission. Optional parts are
// empty rather than absent.
type Feedback struct {
	SessionID        int64
	Accuracy         int
	WordsPerMinute   int
	Errors           []string
	Recommendations  string
	PerformanceLevel string
	SoundsAlike      []string
}

// SessionRecord is a scored attempt as stored.
type SessionRecord struct {
	AttemptID       string
	UserID          string
	LessonID        int64
	SpokenText      string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMs      int64
	Accuracy        int
	WordsPerMinute  int
	Correct         int
	Near            int
	Skipped         int
	Total           int
	Errors          []string
	Recommendations string
}

// WordStats stores per-word outcomes for a session.
type WordStats struct {
	Word    string
	Exact   int
	Near    int
	Skipped int
}

// WordAggregate aggregates word stats across sessions.
type WordAggregate struct {
	Word    string
	Exact   int
	Near    int
	Skipped int
}

// Total is the number of times the word was expected.
func (w WordAggregate) Total() int {
	return w.Exact + w.Near + w.Skipped
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID      int64
	LessonID       int64
	EndedAt        time.Time
	Accuracy       int
	WordsPerMinute int
	Correct        int
	Near           int
	Skipped        int
	Total          int
	DurationMs     int64
}
