package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/lexiread/internal/lessons"
	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/store"
)

var (
	lessonTitle string
	lessonLevel string
)

func newLessonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lesson",
		Short: "Manage lessons",
	}
	add := &cobra.Command{
		Use:   "add <file>",
		Short: "Add a plain text lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  runLessonAddCmd,
	}
	add.Flags().StringVar(&lessonTitle, "title", "", "lesson title (default: file name)")
	add.Flags().StringVar(&lessonLevel, "level", lessons.LevelBasic, "reading level (basic, intermediate, advanced)")

	cmd.AddCommand(add)
	cmd.AddCommand(&cobra.Command{
		Use:   "import <pack.yaml>",
		Short: "Import a YAML lesson pack",
		Args:  cobra.ExactArgs(1),
		RunE:  runLessonImportCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List lessons",
		Args:  cobra.NoArgs,
		RunE:  runLessonListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print a lesson",
		Args:  cobra.ExactArgs(1),
		RunE:  runLessonShowCmd,
	})
	return cmd
}

// withStore opens the configured database for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store) error) (err error) {
	s, err := loadSettings(cmd, false)
	if err != nil {
		return err
	}
	st, err := store.Open(s.dbPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		err = closeAll(err, st.Close)
	}()
	return fn(cmd.Context(), st)
}

func runLessonAddCmd(cmd *cobra.Command, args []string) error {
	lesson, err := lessons.LoadText(args[0], lessonLevel)
	if err != nil {
		return fmt.Errorf("failed to load lesson: %w", err)
	}
	if lessonTitle != "" {
		lesson.Title = lessonTitle
	}
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		id, err := st.InsertLesson(ctx, lesson)
		if err != nil {
			return fmt.Errorf("failed to store lesson: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added lesson %d: %s\n", id, lesson.Title)
		return err
	})
}

func runLessonImportCmd(cmd *cobra.Command, args []string) error {
	pack, err := lessons.LoadPack(args[0])
	if err != nil {
		return fmt.Errorf("failed to load lesson pack: %w", err)
	}
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		for _, lesson := range pack {
			id, err := st.InsertLesson(ctx, lesson)
			if err != nil {
				return fmt.Errorf("failed to store lesson %q: %w", lesson.Title, err)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Added lesson %d: %s\n", id, lesson.Title); err != nil {
				return err
			}
		}
		return nil
	})
}

func runLessonListCmd(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		all, err := st.ListLessons(ctx)
		if err != nil {
			return fmt.Errorf("failed to list lessons: %w", err)
		}
		if len(all) == 0 {
			logErrln("No lessons yet. Add one with: lexiread lesson add <file>")
			return nil
		}
		for _, l := range all {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-12s  %s\n", l.ID, l.ReadingLevel, l.Title); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		return nil
	})
}

func runLessonShowCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid lesson id %q", args[0])
	}
	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		lesson, err := st.GetLesson(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("lesson %d not found", id)
		}
		if err != nil {
			return err
		}
		return printLesson(cmd, lesson)
	})
}

func printLesson(cmd *cobra.Command, l model.Lesson) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n%s\n", l.Title, l.ReadingLevel, l.Content)
	return err
}
