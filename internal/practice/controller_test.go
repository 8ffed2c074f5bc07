package practice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/lexiread/internal/align"
	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/speech"
)

const lesson = "The cat sat on the mat"

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.t = f.t.Add(d)
}

type recordingListener struct {
	updates int
	finals  []Snapshot
	errs    []error
}

func (l *recordingListener) OnUpdate(Snapshot)  { l.updates++ }
func (l *recordingListener) OnFinal(s Snapshot) { l.finals = append(l.finals, s) }
func (l *recordingListener) OnError(err error)  { l.errs = append(l.errs, err) }

type stubRecorder struct {
	fb   model.Feedback
	err  error
	subs []model.Submission
}

func (s *stubRecorder) Record(_ context.Context, sub model.Submission) (model.Feedback, error) {
	s.subs = append(s.subs, sub)
	return s.fb, s.err
}

// manual returns a recognizer handing out fresh ManualStreams and a pointer
// to the most recent one.
func manual() (speech.Recognizer, *[]*speech.ManualStream) {
	var streams []*speech.ManualStream
	rec := speech.RecognizerFunc(func(context.Context) (speech.Stream, error) {
		m := speech.NewManualStream()
		streams = append(streams, m)
		return m, nil
	})
	return rec, &streams
}

func newTestController(opts ...Option) (*Controller, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(lesson, opts...), clock
}

// drainAndFinish feeds every buffered event and finishes once the stream closes.
func drainAndFinish(t *testing.T, c *Controller) {
	t.Helper()
	events := c.Events()
	require.NotNil(t, events)
	for ev := range events {
		c.Handle(ev)
	}
	c.Finish()
}

func classes(r align.Result) []align.Class {
	out := make([]align.Class, len(r))
	for i, e := range r {
		out[i] = e.Class
	}
	return out
}

func TestPerfectReading(t *testing.T) {
	c, clock := newTestController()
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))

	(*streams)[0].Final(lesson)
	clock.Advance(time.Minute)
	require.NoError(t, c.Stop())
	drainAndFinish(t, c)

	snap := c.Snapshot()
	require.True(t, snap.Final)
	require.False(t, snap.Listening)
	require.Equal(t, 100, snap.Metrics.Accuracy)
	require.Equal(t, 6, snap.Metrics.WordsPerMinute)
	require.Equal(t, 6, snap.Metrics.CorrectCount)
	require.NotEmpty(t, snap.AttemptID)
}

func TestStartIsNoOpWhileListening(t *testing.T) {
	c, _ := newTestController()
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	id := c.Snapshot().AttemptID

	require.NoError(t, c.Start(context.Background(), rec))
	require.Len(t, *streams, 1)
	require.Equal(t, id, c.Snapshot().AttemptID)
}

func TestStopIsIdempotent(t *testing.T) {
	c, clock := newTestController()
	rec, _ := manual()
	require.NoError(t, c.Stop())
	require.NoError(t, c.Start(context.Background(), rec))

	clock.Advance(10 * time.Second)
	require.NoError(t, c.Stop())
	stopped := c.Snapshot().StoppedAt
	clock.Advance(10 * time.Second)
	require.NoError(t, c.Stop())
	require.Equal(t, stopped, c.Snapshot().StoppedAt)
}

func TestFinalResultUsesFinalsOnly(t *testing.T) {
	c, clock := newTestController(WithDebounce(0))
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))

	m := (*streams)[0]
	m.Final("The cat")
	m.Interim("sat on")
	for i := 0; i < 2; i++ {
		c.Handle(<-c.Events())
	}
	require.Equal(t, "The cat sat on", c.Snapshot().Transcript)
	require.Equal(t, align.Exact, c.Snapshot().Result[2].Class)

	clock.Advance(30 * time.Second)
	require.NoError(t, c.Stop())
	drainAndFinish(t, c)

	snap := c.Snapshot()
	require.Equal(t, "The cat", snap.Transcript)
	require.Equal(t, []align.Class{
		align.Exact, align.Exact, align.Skipped, align.Skipped, align.Skipped, align.Skipped,
	}, classes(snap.Result))
	require.Equal(t, 33, snap.Metrics.Accuracy)
	require.Equal(t, 4, snap.Metrics.WordsPerMinute)
}

func TestInterimRecomputeIsDebounced(t *testing.T) {
	listener := &recordingListener{}
	c, clock := newTestController(WithDebounce(200*time.Millisecond), WithListener(listener))
	rec, _ := manual()
	require.NoError(t, c.Start(context.Background(), rec))

	c.Handle(speech.Event{Segments: []speech.Segment{{Text: "the"}}})
	require.Equal(t, align.Exact, c.Snapshot().Result[0].Class)
	require.False(t, c.Pending())

	clock.Advance(50 * time.Millisecond)
	c.Handle(speech.Event{Segments: []speech.Segment{{Text: "the cat"}}})
	require.True(t, c.Pending())
	require.Equal(t, align.Skipped, c.Snapshot().Result[1].Class)

	clock.Advance(200 * time.Millisecond)
	c.Flush()
	require.False(t, c.Pending())
	require.Equal(t, align.Exact, c.Snapshot().Result[1].Class)

	c.Handle(speech.Event{Segments: []speech.Segment{{Text: "the cat sat"}}})
	require.True(t, c.Pending())
	c.Handle(speech.Event{Segments: []speech.Segment{{Text: "the cat sat", Final: true}}})
	require.False(t, c.Pending(), "final segments recompute immediately")
	require.Equal(t, align.Exact, c.Snapshot().Result[2].Class)
	require.GreaterOrEqual(t, listener.updates, 4)
}

func TestSegmentsApplyInOrder(t *testing.T) {
	c, _ := newTestController(WithDebounce(0))
	rec, _ := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	c.Handle(speech.Event{Segments: []speech.Segment{
		{Text: "the"},
		{Text: "the cat", Final: true},
		{Text: "sat"},
	}})
	require.Equal(t, "the cat sat", c.Snapshot().Transcript)
}

func TestInterimSegmentsJoinIntoTail(t *testing.T) {
	c, _ := newTestController(WithDebounce(0))
	rec, _ := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	c.Handle(speech.Event{Segments: []speech.Segment{
		{Text: "The cat", Final: true},
		{Text: "sat on"},
		{Text: "the mat"},
	}})
	snap := c.Snapshot()
	require.Equal(t, "The cat sat on the mat", snap.Transcript)
	require.Equal(t, 100, snap.Metrics.Accuracy)

	c.Handle(speech.Event{Segments: []speech.Segment{{Text: "sat"}}})
	require.Equal(t, "The cat sat", c.Snapshot().Transcript)
}

func TestRecognitionErrorKeepsState(t *testing.T) {
	listener := &recordingListener{}
	c, _ := newTestController(WithListener(listener))
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))

	m := (*streams)[0]
	m.Final("The cat")
	m.Fail(speech.Transient(errors.New("no speech detected")))
	drainAndFinish(t, c)

	snap := c.Snapshot()
	require.False(t, snap.Listening)
	require.Equal(t, speech.KindTransient, speech.Classify(snap.Err))
	require.Equal(t, "The cat", snap.Transcript)
	require.Len(t, listener.errs, 1)
	require.NotEmpty(t, Describe(snap.Err))

	require.NoError(t, c.Start(context.Background(), rec))
	require.Len(t, *streams, 2)
	require.Nil(t, c.Snapshot().Err)
}

func TestStartUnsupported(t *testing.T) {
	listener := &recordingListener{}
	c, _ := newTestController(WithListener(listener))
	rec := speech.RecognizerFunc(func(context.Context) (speech.Stream, error) {
		return nil, speech.ErrUnsupported
	})
	err := c.Start(context.Background(), rec)
	require.ErrorIs(t, err, speech.ErrUnsupported)

	snap := c.Snapshot()
	require.False(t, snap.Listening)
	require.Nil(t, c.Events())
	require.Equal(t, speech.KindUnsupported, speech.Classify(snap.Err))
	require.Len(t, listener.errs, 1)
}

func TestSubmitRequiresFinishedAttempt(t *testing.T) {
	c, _ := newTestController()
	rec, _ := manual()
	recorder := &stubRecorder{}

	_, err := c.Submit(context.Background(), recorder, "ana", 1)
	require.ErrorIs(t, err, ErrNotFinished)

	require.NoError(t, c.Start(context.Background(), rec))
	_, err = c.Submit(context.Background(), recorder, "ana", 1)
	require.ErrorIs(t, err, ErrNotFinished)

	require.NoError(t, c.Stop())
	drainAndFinish(t, c)
	_, err = c.Submit(context.Background(), recorder, "ana", 1)
	require.ErrorIs(t, err, ErrNoTranscript)
	require.Empty(t, recorder.subs)
}

func TestSubmitSuccessPrefersRecorderMetrics(t *testing.T) {
	c, clock := newTestController()
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	started := clock.Now()
	(*streams)[0].Final("The kat sat on mat")
	clock.Advance(time.Minute)
	require.NoError(t, c.Stop())
	drainAndFinish(t, c)

	local := c.Snapshot()
	require.Equal(t, 75, local.Metrics.Accuracy)

	recorder := &stubRecorder{fb: model.Feedback{Accuracy: 80, WordsPerMinute: 4, Errors: []string{"the"}}}
	fb, err := c.Submit(context.Background(), recorder, "ana", 7)
	require.NoError(t, err)
	require.Equal(t, 80, fb.Accuracy)

	require.Len(t, recorder.subs, 1)
	sub := recorder.subs[0]
	require.Equal(t, local.AttemptID, sub.AttemptID)
	require.Equal(t, "ana", sub.UserID)
	require.Equal(t, int64(7), sub.LessonID)
	require.Equal(t, "The kat sat on mat", sub.SpokenText)
	require.Equal(t, started, sub.StartedAt)
	require.Equal(t, started.Add(time.Minute), sub.EndedAt)

	acc, wpm := c.Snapshot().Display()
	require.Equal(t, 80, acc)
	require.Equal(t, 4, wpm)
	require.Equal(t, align.Near, c.Snapshot().Result[1].Class, "local highlighting stays")
}

func TestSubmitFailureKeepsLocalResults(t *testing.T) {
	listener := &recordingListener{}
	c, clock := newTestController(WithListener(listener))
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	(*streams)[0].Final(lesson)
	clock.Advance(time.Minute)
	require.NoError(t, c.Stop())
	drainAndFinish(t, c)

	recorder := &stubRecorder{err: errors.New("connection refused")}
	_, err := c.Submit(context.Background(), recorder, "ana", 1)
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	require.Len(t, listener.errs, 1)

	snap := c.Snapshot()
	require.Nil(t, snap.Feedback)
	acc, _ := snap.Display()
	require.Equal(t, 100, acc)
	require.Contains(t, Describe(snap.Err), "submit again")

	recorder.err = nil
	recorder.fb = model.Feedback{Accuracy: 100, WordsPerMinute: 6}
	_, err = c.Submit(context.Background(), recorder, "ana", 1)
	require.NoError(t, err)
	require.Nil(t, c.Snapshot().Err)
	require.Len(t, recorder.subs, 2)
	require.Equal(t, recorder.subs[0].AttemptID, recorder.subs[1].AttemptID)
}

func TestStaleFeedbackIgnored(t *testing.T) {
	c, _ := newTestController()
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	(*streams)[0].Final(lesson)
	require.NoError(t, c.Stop())
	drainAndFinish(t, c)

	sub, err := c.PrepareSubmission("ana", 1)
	require.NoError(t, err)
	c.Reset()
	require.NoError(t, c.ApplyFeedback(sub.AttemptID, model.Feedback{Accuracy: 1}, nil))
	require.Nil(t, c.Snapshot().Feedback)
}

func TestResetClearsAttempt(t *testing.T) {
	c, _ := newTestController()
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	(*streams)[0].Final("the cat")
	c.Handle(<-c.Events())

	c.Reset()
	snap := c.Snapshot()
	require.False(t, snap.Listening)
	require.Empty(t, snap.AttemptID)
	require.Empty(t, snap.Transcript)
	require.Nil(t, c.Events())
	require.Equal(t, 6, snap.Metrics.TotalExpected)
	for _, e := range snap.Result {
		require.Equal(t, align.Skipped, e.Class)
	}
	require.False(t, (*streams)[0].Final("late"), "reset stops the stream")
}

func TestRunDrainsScript(t *testing.T) {
	listener := &recordingListener{}
	c := New(lesson, WithListener(listener))
	script := "~the\n~the cat sat\nthe cat sat on the mat\n~trailing words\n"
	require.NoError(t, c.Start(context.Background(), speech.NewScriptRecognizer(strings.NewReader(script))))
	require.NoError(t, c.Run(context.Background()))

	snap := c.Snapshot()
	require.True(t, snap.Final)
	require.Equal(t, "the cat sat on the mat", snap.Transcript)
	require.Equal(t, 100, snap.Metrics.Accuracy)
	require.Len(t, listener.finals, 1)
	require.ErrorIs(t, c.Run(context.Background()), ErrNotListening)
}

func TestRunStopsOnCancel(t *testing.T) {
	c, _ := newTestController()
	rec, streams := manual()
	require.NoError(t, c.Start(context.Background(), rec))
	(*streams)[0].Final("the cat")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.Run(ctx))
	snap := c.Snapshot()
	require.True(t, snap.Final)
	require.Equal(t, "the cat", snap.Transcript)
}
