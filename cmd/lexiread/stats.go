package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/lexiread/internal/config"
	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/statsui"
	"github.com/verte-zerg/lexiread/internal/store"
	"github.com/verte-zerg/lexiread/internal/words"
)

const plainWordLimit = 15

var (
	statsLesson      int64
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsWords       []string
	statsPlain       bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().Int64Var(&statsLesson, "lesson", 0, "lesson filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", config.DefaultCurveWindow, "moving average window")
	cmd.Flags().StringSliceVar(&statsWords, "word", nil, "words for per-word curves (plain output)")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsCurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}

	return withStore(cmd, func(ctx context.Context, st *store.Store) error {
		cfg := model.StatsConfig{
			User:        globalUser,
			LessonID:    statsLesson,
			Since:       sinceTime,
			Last:        statsLast,
			CurveWindow: statsCurveWindow,
		}
		if !cmd.Flags().Changed("user") {
			cfg.User = ""
		}
		if statsPlain {
			return renderPlainStats(ctx, cmd.OutOrStdout(), st, cfg)
		}
		program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	})
}

func renderPlainStats(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig) error {
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderCurves(w, report.Sessions, cfg.CurveWindow); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := stats.RenderWordTable(w, report.WordAggsAll, plainWordLimit); err != nil {
		return err
	}
	var selected []string
	for _, raw := range statsWords {
		if w := words.Normalize(raw); w != "" {
			selected = append(selected, w)
		}
	}
	if len(selected) == 0 {
		return nil
	}
	perSession, err := st.ListWordStatsForSessions(ctx, stats.SessionIDs(report.Sessions), selected)
	if err != nil {
		return fmt.Errorf("failed to load word stats: %w", err)
	}
	return stats.RenderWordCurves(w, report.Sessions, perSession, selected, cfg.CurveWindow)
}
