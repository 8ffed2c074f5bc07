// Package practice drives a read-aloud attempt from recognizer events to
// scored, submitted results.
package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/lexiread/internal/align"
	"github.com/verte-zerg/lexiread/internal/match"
	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/speech"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/words"
)

// DefaultDebounce bounds how often interim results trigger a recompute.
const DefaultDebounce = 200 * time.Millisecond

var (
	// ErrNoTranscript is returned when submitting an attempt with no final text.
	ErrNoTranscript = errors.New("nothing was read")
	// ErrNotFinished is returned when submitting before the attempt has ended.
	ErrNotFinished = errors.New("attempt has not finished")
	// ErrNotListening is returned by Run without an active stream.
	ErrNotListening = errors.New("not listening")
)

// SubmissionError marks a failure of the session recorder.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to submit session: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Describe returns user-facing text for an error reported by the controller.
func Describe(err error) string {
	var subErr *SubmissionError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &subErr):
		return "Could not save this session. Your results are kept; submit again to retry."
	case errors.Is(err, ErrNoTranscript):
		return "Nothing was heard. Read the text aloud, then submit."
	case errors.Is(err, ErrNotFinished):
		return "Stop listening before submitting."
	default:
		return speech.Classify(err).Message()
	}
}

// Recorder persists a finished attempt and returns its feedback.
type Recorder interface {
	Record(ctx context.Context, sub model.Submission) (model.Feedback, error)
}

// Listener observes controller state changes.
type Listener interface {
	OnUpdate(Snapshot)
	OnFinal(Snapshot)
	OnError(error)
}

type nopListener struct{}

func (nopListener) OnUpdate(Snapshot) {}
func (nopListener) OnFinal(Snapshot)  {}
func (nopListener) OnError(error)     {}

// Snapshot is a read-only view of the current attempt.
type Snapshot struct {
	AttemptID  string
	Transcript string
	Result     align.Result
	Metrics    stats.Metrics
	Listening  bool
	Final      bool
	StartedAt  time.Time
	StoppedAt  time.Time
	Err        error
	Feedback   *model.Feedback
}

// Display returns the accuracy and WPM to show. Recorder feedback takes
// precedence over local metrics once a submission succeeded.
func (s Snapshot) Display() (accuracy, wpm int) {
	if s.Feedback != nil {
		return s.Feedback.Accuracy, s.Feedback.WordsPerMinute
	}
	return s.Metrics.Accuracy, s.Metrics.WordsPerMinute
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithPolicy sets the near-match tolerance policy.
func WithPolicy(p match.Policy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithDebounce sets the minimum interval between interim recomputes.
// Zero recomputes on every interim result.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithLogger sets the controller logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithListener registers a state observer.
func WithListener(l Listener) Option {
	return func(c *Controller) { c.listener = l }
}

// Controller owns one lesson's attempts. It is not safe for concurrent use;
// drive it from a single event loop.
type Controller struct {
	expected []words.Token
	policy   match.Policy
	now      func() time.Time
	debounce time.Duration
	limiter  *rate.Limiter
	log      zerolog.Logger
	listener Listener

	attemptID  string
	stream     speech.Stream
	listening  bool
	final      bool
	startedAt  time.Time
	stoppedAt  time.Time
	transcript transcript
	result     align.Result
	metrics    stats.Metrics
	err        error
	feedback   *model.Feedback
	pending    bool
}

// New returns a controller for lessonText.
func New(lessonText string, opts ...Option) *Controller {
	c := &Controller{
		expected: words.Tokenize(lessonText),
		policy:   match.DefaultPolicy(),
		now:      time.Now,
		debounce: DefaultDebounce,
		log:      zerolog.Nop(),
		listener: nopListener{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.limiter = newLimiter(c.debounce)
	c.clearAttempt()
	return c
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

// Expected returns the lesson tokens.
func (c *Controller) Expected() []words.Token {
	return c.expected
}

// Start begins a new attempt. It is a no-op while already listening.
func (c *Controller) Start(ctx context.Context, rec speech.Recognizer) error {
	if c.listening {
		return nil
	}
	c.discardStream()
	c.clearAttempt()
	c.attemptID = uuid.NewString()
	c.startedAt = c.now()

	stream, err := rec.Listen(ctx)
	if err != nil {
		c.stoppedAt = c.startedAt
		c.fail(err)
		return err
	}
	c.stream = stream
	c.listening = true
	c.log.Info().Str("attempt", c.attemptID).Int("words", len(c.expected)).Msg("listening started")
	c.recompute()
	c.listener.OnUpdate(c.Snapshot())
	return nil
}

// Events returns the active stream's events, or nil when idle.
func (c *Controller) Events() <-chan speech.Event {
	if c.stream == nil {
		return nil
	}
	return c.stream.Events()
}

// Handle applies one recognizer event.
func (c *Controller) Handle(ev speech.Event) {
	if c.stream == nil {
		return
	}
	if ev.Err != nil {
		c.fail(ev.Err)
		if err := c.Stop(); err != nil {
			c.log.Warn().Err(err).Msg("stop after recognition error")
		}
		return
	}
	if len(ev.Segments) == 0 {
		return
	}
	if c.transcript.apply(ev.Segments) || c.limiter.AllowN(c.now(), 1) {
		c.recompute()
		c.listener.OnUpdate(c.Snapshot())
		return
	}
	c.pending = true
}

// Pending reports whether a debounced recompute is waiting for Flush.
func (c *Controller) Pending() bool {
	return c.pending
}

// Flush performs a pending debounced recompute.
func (c *Controller) Flush() {
	if !c.pending || c.stream == nil {
		return
	}
	// Take the token so the next interim waits a full interval.
	c.limiter.AllowN(c.now(), 1)
	c.recompute()
	c.listener.OnUpdate(c.Snapshot())
}

// Finish ends the attempt once the recognizer has closed its stream and
// computes the authoritative result over the final transcript.
func (c *Controller) Finish() {
	if c.stream == nil {
		return
	}
	c.stream = nil
	c.listening = false
	if c.stoppedAt.IsZero() {
		c.stoppedAt = c.now()
	}
	c.transcript.dropInterim()
	c.final = true
	c.recompute()
	c.log.Info().
		Str("attempt", c.attemptID).
		Int("accuracy", c.metrics.Accuracy).
		Int("wpm", c.metrics.WordsPerMinute).
		Msg("attempt finished")
	c.listener.OnFinal(c.Snapshot())
}

// Stop ends listening. Repeated calls are no-ops.
func (c *Controller) Stop() error {
	if !c.listening {
		return nil
	}
	c.listening = false
	c.stoppedAt = c.now()
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop recognizer: %w", err)
	}
	return nil
}

// Reset discards the current attempt.
func (c *Controller) Reset() {
	c.discardStream()
	c.clearAttempt()
	c.listener.OnUpdate(c.Snapshot())
}

// Run drains the active stream until it closes. Cancelling ctx stops
// listening; the stream is still drained so trailing finals are kept.
func (c *Controller) Run(ctx context.Context) error {
	events := c.Events()
	if events == nil {
		return ErrNotListening
	}
	done := ctx.Done()
	for {
		select {
		case <-done:
			done = nil
			if err := c.Stop(); err != nil {
				return err
			}
		case ev, ok := <-events:
			if !ok {
				c.Finish()
				return nil
			}
			c.Handle(ev)
		}
	}
}

// Snapshot returns the current attempt state.
func (c *Controller) Snapshot() Snapshot {
	text := c.transcript.live()
	if c.final {
		text = c.transcript.final()
	}
	return Snapshot{
		AttemptID:  c.attemptID,
		Transcript: text,
		Result:     c.result,
		Metrics:    c.metrics,
		Listening:  c.listening,
		Final:      c.final,
		StartedAt:  c.startedAt,
		StoppedAt:  c.stoppedAt,
		Err:        c.err,
		Feedback:   c.feedback,
	}
}

// PrepareSubmission builds the recorder request for a finished attempt.
func (c *Controller) PrepareSubmission(userID string, lessonID int64) (model.Submission, error) {
	if c.stream != nil || !c.final {
		return model.Submission{}, ErrNotFinished
	}
	spoken := c.transcript.final()
	if spoken == "" {
		return model.Submission{}, ErrNoTranscript
	}
	return model.Submission{
		AttemptID:  c.attemptID,
		UserID:     userID,
		LessonID:   lessonID,
		SpokenText: spoken,
		StartedAt:  c.startedAt,
		EndedAt:    c.stoppedAt,
	}, nil
}

// ApplyFeedback records the recorder's answer for attemptID. Answers for an
// older attempt are ignored. On failure local results stay in place.
func (c *Controller) ApplyFeedback(attemptID string, fb model.Feedback, err error) error {
	if attemptID != c.attemptID {
		return nil
	}
	if err != nil {
		subErr := &SubmissionError{Err: err}
		c.fail(subErr)
		return subErr
	}
	c.feedback = &fb
	if c.err != nil && errors.As(c.err, new(*SubmissionError)) {
		c.err = nil
	}
	c.log.Info().Str("attempt", attemptID).Int64("session", fb.SessionID).Msg("session recorded")
	c.listener.OnUpdate(c.Snapshot())
	return nil
}

// Submit sends the finished attempt to rec and applies the answer.
func (c *Controller) Submit(ctx context.Context, rec Recorder, userID string, lessonID int64) (model.Feedback, error) {
	sub, err := c.PrepareSubmission(userID, lessonID)
	if err != nil {
		return model.Feedback{}, err
	}
	fb, err := rec.Record(ctx, sub)
	if err := c.ApplyFeedback(sub.AttemptID, fb, err); err != nil {
		return model.Feedback{}, err
	}
	return fb, nil
}

func (c *Controller) recompute() {
	text := c.transcript.live()
	if c.final {
		text = c.transcript.final()
	}
	spoken := words.Tokenize(text)
	c.result = align.Align(c.expected, spoken, c.policy)
	c.metrics = stats.Compute(c.result, len(spoken), c.startedAt, c.stopTime())
	c.pending = false
}

// stopTime is the stop timestamp, or now while the attempt is running.
func (c *Controller) stopTime() time.Time {
	if c.stoppedAt.IsZero() {
		return c.now()
	}
	return c.stoppedAt
}

func (c *Controller) fail(err error) {
	c.err = err
	c.log.Warn().Err(err).Str("attempt", c.attemptID).Str("kind", speech.Classify(err).String()).Msg("attempt error")
	c.listener.OnError(err)
}

func (c *Controller) discardStream() {
	if c.stream == nil {
		return
	}
	if err := c.stream.Stop(); err != nil {
		c.log.Warn().Err(err).Msg("stop discarded stream")
	}
	c.stream = nil
	c.listening = false
}

func (c *Controller) clearAttempt() {
	c.attemptID = ""
	c.final = false
	c.startedAt = time.Time{}
	c.stoppedAt = time.Time{}
	c.transcript.reset()
	c.err = nil
	c.feedback = nil
	c.pending = false
	c.result = align.Align(c.expected, nil, c.policy)
	c.metrics = stats.Metrics{TotalExpected: len(c.expected)}
}
