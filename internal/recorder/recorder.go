// Package recorder scores submitted attempts authoritatively and persists them.
package recorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/lexiread/internal/align"
	"github.com/verte-zerg/lexiread/internal/lessons"
	"github.com/verte-zerg/lexiread/internal/match"
	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/store"
	"github.com/verte-zerg/lexiread/internal/words"
)

// Store is the persistence the recorder needs.
type Store interface {
	GetLesson(ctx context.Context, id int64) (model.Lesson, error)
	GetSessionByAttempt(ctx context.Context, attemptID string) (int64, model.SessionRecord, error)
	InsertSession(ctx context.Context, rec model.SessionRecord, words []model.WordStats) (int64, error)
}

// Recorder is a local session recorder backed by a Store.
type Recorder struct {
	store  Store
	policy match.Policy
	log    zerolog.Logger
}

// New returns a Recorder.
func New(st Store, policy match.Policy, log zerolog.Logger) *Recorder {
	return &Recorder{store: st, policy: policy, log: log.With().Str("component", "recorder").Logger()}
}

// Record scores sub against its lesson, stores it and returns feedback.
// Submitting the same attempt twice returns the stored result.
func (r *Recorder) Record(ctx context.Context, sub model.Submission) (model.Feedback, error) {
	if sub.AttemptID == "" {
		return model.Feedback{}, errors.New("submission has no attempt id")
	}
	lesson, err := r.store.GetLesson(ctx, sub.LessonID)
	if err != nil {
		return model.Feedback{}, fmt.Errorf("failed to load lesson: %w", err)
	}
	spoken := words.Tokenize(sub.SpokenText)
	result := align.Align(words.Tokenize(lesson.Content), spoken, r.policy)

	id, prev, err := r.store.GetSessionByAttempt(ctx, sub.AttemptID)
	if err == nil {
		r.log.Debug().Str("attempt", sub.AttemptID).Int64("session", id).Msg("attempt already recorded")
		return r.feedback(id, prev, result, lesson), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.Feedback{}, fmt.Errorf("failed to look up attempt: %w", err)
	}

	m := stats.Compute(result, len(spoken), sub.StartedAt, sub.EndedAt)
	_, _, skipped := result.Counts()
	rec := model.SessionRecord{
		AttemptID:       sub.AttemptID,
		UserID:          sub.UserID,
		LessonID:        sub.LessonID,
		SpokenText:      sub.SpokenText,
		StartedAt:       sub.StartedAt,
		EndedAt:         sub.EndedAt,
		DurationMs:      max(sub.EndedAt.Sub(sub.StartedAt).Milliseconds(), 0),
		Accuracy:        m.Accuracy,
		WordsPerMinute:  m.WordsPerMinute,
		Correct:         m.CorrectCount,
		Near:            m.NearCount,
		Skipped:         skipped,
		Total:           m.TotalExpected,
		Errors:          MissedWords(result),
		Recommendations: Recommendation(m.Accuracy),
	}
	id, err = r.store.InsertSession(ctx, rec, WordStats(result))
	if err != nil {
		return model.Feedback{}, fmt.Errorf("failed to store session: %w", err)
	}
	r.log.Info().
		Str("attempt", sub.AttemptID).
		Int64("session", id).
		Int("accuracy", rec.Accuracy).
		Int("wpm", rec.WordsPerMinute).
		Msg("session recorded")
	return r.feedback(id, rec, result, lesson), nil
}

func (r *Recorder) feedback(id int64, rec model.SessionRecord, result align.Result, lesson model.Lesson) model.Feedback {
	return model.Feedback{
		SessionID:        id,
		Accuracy:         rec.Accuracy,
		WordsPerMinute:   rec.WordsPerMinute,
		Errors:           rec.Errors,
		Recommendations:  rec.Recommendations,
		PerformanceLevel: PerformanceLevel(rec.WordsPerMinute, lessons.Difficulty(lesson.ReadingLevel)),
		SoundsAlike:      SoundsAlike(result),
	}
}

// WordStats tallies outcomes per normalized expected word.
func WordStats(r align.Result) []model.WordStats {
	index := map[string]int{}
	var out []model.WordStats
	for _, e := range r {
		i, ok := index[e.Expected.Norm]
		if !ok {
			i = len(out)
			index[e.Expected.Norm] = i
			out = append(out, model.WordStats{Word: e.Expected.Norm})
		}
		switch e.Class {
		case align.Exact:
			out[i].Exact++
		case align.Near:
			out[i].Near++
		default:
			out[i].Skipped++
		}
	}
	return out
}
