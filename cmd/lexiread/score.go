package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lexiread/internal/config"
	"github.com/verte-zerg/lexiread/internal/lessons"
	"github.com/verte-zerg/lexiread/internal/logging"
	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/practice"
	"github.com/verte-zerg/lexiread/internal/recorder"
	"github.com/verte-zerg/lexiread/internal/speech"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/store"
)

var (
	scoreLesson     int64
	scoreText       string
	scoreLevel      string
	scoreTranscript string
	scoreWav        string
	scoreSave       bool
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a transcript or recording against a lesson",
		Args:  cobra.NoArgs,
		RunE:  runScoreCmd,
	}
	cmd.Flags().Int64Var(&scoreLesson, "lesson", 0, "lesson id")
	cmd.Flags().StringVar(&scoreText, "text", "", "lesson text given inline")
	cmd.Flags().StringVar(&scoreLevel, "level", lessons.LevelBasic, "reading level of --text")
	cmd.Flags().StringVar(&scoreTranscript, "transcript", "", "transcript script (one segment per line, ~ interim, ! error)")
	cmd.Flags().StringVar(&scoreWav, "wav", "", "WAV recording transcribed with the offline model")
	cmd.Flags().BoolVar(&scoreSave, "save", false, "record the session in history")
	cmd.MarkFlagsMutuallyExclusive("lesson", "text")
	cmd.MarkFlagsOneRequired("lesson", "text")
	cmd.MarkFlagsMutuallyExclusive("transcript", "wav")
	cmd.MarkFlagsOneRequired("transcript", "wav")
	return cmd
}

func runScoreCmd(cmd *cobra.Command, _ []string) (err error) {
	s, err := loadSettings(cmd, false)
	if err != nil {
		return err
	}
	log := logging.Console(s.env.LogLevel)

	var st *store.Store
	if scoreLesson > 0 || scoreSave {
		st, err = store.Open(s.dbPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			err = closeAll(err, st.Close)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lesson, err := scoreLessonFor(ctx, st)
	if err != nil {
		return err
	}
	var rec speech.Recognizer = speech.NewScriptFileRecognizer(scoreTranscript)
	if scoreWav != "" {
		rec = speech.NewSherpaRecognizer(sherpaConfig(s.speech, scoreWav), log)
	}

	ctrl := practice.New(lesson.Content,
		practice.WithPolicy(config.Policy(s.practice)),
		practice.WithDebounce(0),
		practice.WithLogger(log),
	)
	snap, err := scoreAttempt(ctx, ctrl, rec)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderResult(out, snap.Result, snap.Metrics); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if snap.Err != nil {
		logErrln(practice.Describe(snap.Err))
	}
	if !scoreSave {
		return nil
	}

	if lesson.ID == 0 {
		lesson.ID, err = st.InsertLesson(ctx, lesson)
		if err != nil {
			return fmt.Errorf("failed to store lesson: %w", err)
		}
	}
	fb, err := ctrl.Submit(ctx, recorder.New(st, config.Policy(s.practice), log), s.practice.User, lesson.ID)
	if err != nil {
		return errors.New(practice.Describe(err))
	}
	return writeFeedback(out, fb)
}

// scoreAttempt runs one attempt to completion and returns the final snapshot.
func scoreAttempt(ctx context.Context, ctrl *practice.Controller, rec speech.Recognizer) (practice.Snapshot, error) {
	if err := ctrl.Start(ctx, rec); err != nil {
		return practice.Snapshot{}, fmt.Errorf("%s: %w", speech.Classify(err).Message(), err)
	}
	if err := ctrl.Run(ctx); err != nil {
		return practice.Snapshot{}, err
	}
	return ctrl.Snapshot(), nil
}

func scoreLessonFor(ctx context.Context, st *store.Store) (model.Lesson, error) {
	if scoreLesson > 0 {
		lesson, err := st.GetLesson(ctx, scoreLesson)
		if errors.Is(err, store.ErrNotFound) {
			return model.Lesson{}, fmt.Errorf("lesson %d not found", scoreLesson)
		}
		return lesson, err
	}
	level, err := lessons.NormalizeLevel(scoreLevel)
	if err != nil {
		return model.Lesson{}, err
	}
	content := strings.Join(strings.Fields(scoreText), " ")
	if content == "" {
		return model.Lesson{}, lessons.ErrEmptyLesson
	}
	return model.Lesson{Title: "Inline text", Content: content, ReadingLevel: level}, nil
}

func writeFeedback(w io.Writer, fb model.Feedback) error {
	lines := []string{
		"",
		fmt.Sprintf("Saved session %d", fb.SessionID),
		fb.Recommendations,
	}
	if fb.PerformanceLevel != "" {
		lines = append(lines, "Pace: "+fb.PerformanceLevel)
	}
	if len(fb.Errors) > 0 {
		lines = append(lines, "Missed: "+strings.Join(fb.Errors, ", "))
	}
	if len(fb.SoundsAlike) > 0 {
		lines = append(lines, "Sounds alike: "+strings.Join(fb.SoundsAlike, ", "))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
