// Package main provides the CLI entrypoint for lexiread.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/lexiread/internal/config"
	"github.com/verte-zerg/lexiread/internal/generator"
	"github.com/verte-zerg/lexiread/internal/lessons"
	"github.com/verte-zerg/lexiread/internal/logging"
	"github.com/verte-zerg/lexiread/internal/model"
	"github.com/verte-zerg/lexiread/internal/recorder"
	"github.com/verte-zerg/lexiread/internal/speech"
	"github.com/verte-zerg/lexiread/internal/stats"
	"github.com/verte-zerg/lexiread/internal/store"
	"github.com/verte-zerg/lexiread/internal/tui"
)

const scriptDelay = 400 * time.Millisecond

var (
	globalUser     string
	globalLogLevel string
	globalEnvFile  string

	practiceLesson     int64
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakFactor float64
	practiceWeakWindow int
	practiceDrillWords int
	practiceDebounceMs int
	practiceWav        string
	practiceScript     string
	practiceModelDir   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.Defaults()
	rootCmd := &cobra.Command{
		Use:           "lexiread",
		Short:         "Read-aloud practice with live scoring",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalUser, "user", defaults.User, "learner name sessions are recorded under")
	rootCmd.PersistentFlags().StringVar(&globalLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&globalEnvFile, "env-file", ".env", "dotenv file with LEXIREAD_* variables")

	rootCmd.Flags().Int64Var(&practiceLesson, "lesson", 0, "lesson id (default: most recent lesson)")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "practice a drill of weak words instead of a lesson")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaults.WeakTop, "number of weak words to focus on")
	rootCmd.Flags().Float64Var(&practiceWeakFactor, "weak-factor", defaults.WeakFactor, "extra weight for weak words in drills")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaults.WeakWindow, "number of recent sessions used to find weak words")
	rootCmd.Flags().IntVar(&practiceDrillWords, "drill-words", defaults.DrillWords, "words per drill")
	rootCmd.Flags().IntVar(&practiceDebounceMs, "debounce-ms", defaults.DebounceMs, "minimum interval between live rescoring")
	rootCmd.Flags().StringVar(&practiceWav, "wav", "", "WAV recording to transcribe when listening starts")
	rootCmd.Flags().StringVar(&practiceScript, "script", "", "transcript script replayed when listening starts")
	rootCmd.Flags().StringVar(&practiceModelDir, "model-dir", "", "directory with the offline transducer model")
	rootCmd.MarkFlagsMutuallyExclusive("wav", "script")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLessonCmd())
	rootCmd.AddCommand(newScoreCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// settings are the resolved practice and recognizer settings plus the
// environment they were resolved from.
type settings struct {
	practice model.Config
	speech   model.SpeechConfig
	env      config.Env
}

// loadSettings applies defaults, the config file, the environment and the
// changed flags of cmd, in increasing priority. Practice flags only exist on
// the root command.
func loadSettings(cmd *cobra.Command, practiceFlags bool) (settings, error) {
	s := settings{practice: config.Defaults(), speech: config.DefaultSpeech()}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return s, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyFile(&s.practice, &s.speech, fileCfg)

	s.env, err = config.LoadEnv(globalEnvFile)
	if err != nil {
		return s, fmt.Errorf("failed to load environment: %w", err)
	}
	if s.env.ModelDir != "" {
		s.speech.ModelDir = s.env.ModelDir
	}

	applyFlag(cmd, "user", &s.practice.User, globalUser)
	applyFlag(cmd, "log-level", &s.env.LogLevel, globalLogLevel)
	if practiceFlags {
		applyPracticeFlags(cmd, &s)
	}
	if err := config.Validate(s.practice, s.speech); err != nil {
		return s, err
	}
	return s, nil
}

func applyPracticeFlags(cmd *cobra.Command, s *settings) {
	applyFlag(cmd, "lesson", &s.practice.LessonID, practiceLesson)
	applyFlag(cmd, "focus-weak", &s.practice.FocusWeak, practiceFocusWeak)
	applyFlag(cmd, "weak-top", &s.practice.WeakTop, practiceWeakTop)
	applyFlag(cmd, "weak-factor", &s.practice.WeakFactor, practiceWeakFactor)
	applyFlag(cmd, "weak-window", &s.practice.WeakWindow, practiceWeakWindow)
	applyFlag(cmd, "drill-words", &s.practice.DrillWords, practiceDrillWords)
	applyFlag(cmd, "debounce-ms", &s.practice.DebounceMs, practiceDebounceMs)
	applyFlag(cmd, "model-dir", &s.speech.ModelDir, practiceModelDir)
}

// applyFlag overrides target with value when the flag was set explicitly.
func applyFlag[T any](cmd *cobra.Command, name string, target *T, value T) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func (s settings) dbPath() string {
	if s.env.DBPath != "" {
		return s.env.DBPath
	}
	return config.DefaultDBPath()
}

// fileLogger opens the log file used while a TUI owns the terminal.
func (s settings) fileLogger() (zerolog.Logger, func() error, error) {
	path := s.env.LogFile
	if path == "" {
		path = config.DefaultLogPath()
	}
	log, closeFn, err := logging.OpenFile(path, s.env.LogLevel)
	if err != nil {
		return log, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return log, closeFn, nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) (err error) {
	s, err := loadSettings(cmd, true)
	if err != nil {
		return err
	}
	log, closeLog, err := s.fileLogger()
	if err != nil {
		return err
	}
	st, err := store.Open(s.dbPath())
	if err != nil {
		_ = closeLog()
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		err = closeAll(err, st.Close, closeLog)
	}()

	ctx := context.Background()
	lesson, err := pickLesson(ctx, st, s.practice, log)
	if err != nil {
		return err
	}
	log.Info().Int64("lesson", lesson.ID).Str("user", s.practice.User).Msg("practice started")

	m := tui.NewModel(tui.Options{
		Config:     s.practice,
		Lesson:     lesson,
		Recognizer: practiceRecognizer(s, log),
		Recorder:   recorder.New(st, config.Policy(s.practice), log),
		Store:      st,
		Logger:     log,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// practiceRecognizer returns nil when only typed input is available.
func practiceRecognizer(s settings, log zerolog.Logger) speech.Recognizer {
	switch {
	case practiceWav != "":
		return speech.NewSherpaRecognizer(sherpaConfig(s.speech, practiceWav), log)
	case practiceScript != "":
		return speech.NewScriptFileRecognizer(practiceScript).WithDelay(scriptDelay)
	default:
		return nil
	}
}

func sherpaConfig(sp model.SpeechConfig, wav string) speech.SherpaConfig {
	return speech.SherpaConfig{
		ModelDir:   sp.ModelDir,
		VADModel:   sp.VADModel,
		SampleRate: sp.SampleRate,
		NumThreads: sp.NumThreads,
		WavPath:    wav,
	}
}

// pickLesson resolves the lesson to practice: a weak-word drill, the
// requested lesson, or the most recently added one.
func pickLesson(ctx context.Context, st *store.Store, cfg model.Config, log zerolog.Logger) (model.Lesson, error) {
	if cfg.FocusWeak {
		lesson, err := drillLesson(ctx, st, cfg, generator.New())
		if err == nil {
			return lesson, nil
		}
		if !errors.Is(err, errNoDrill) {
			return model.Lesson{}, err
		}
		log.Warn().Msg("no stats available for weak-word focus yet; using a lesson")
		logErrln("no stats available for weak-word focus yet; using a lesson")
	}
	if cfg.LessonID > 0 {
		lesson, err := st.GetLesson(ctx, cfg.LessonID)
		if errors.Is(err, store.ErrNotFound) {
			return model.Lesson{}, fmt.Errorf("lesson %d not found (list lessons with: lexiread lesson list)", cfg.LessonID)
		}
		return lesson, err
	}
	all, err := st.ListLessons(ctx)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("failed to list lessons: %w", err)
	}
	if len(all) == 0 {
		return model.Lesson{}, errors.New("no lessons yet; add one with: lexiread lesson add <file>")
	}
	return all[len(all)-1], nil
}

var errNoDrill = errors.New("no weak words")

// drillLesson stores a drill text biased toward the learner's weak words.
func drillLesson(ctx context.Context, st *store.Store, cfg model.Config, gen *generator.Generator) (model.Lesson, error) {
	aggs, err := st.GetWeakWords(ctx, cfg.WeakWindow, cfg.User)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("failed to load weak words: %w", err)
	}
	weak := stats.SelectWeakWords(aggs, cfg.WeakTop)
	if len(weak) == 0 {
		return model.Lesson{}, errNoDrill
	}
	all, err := st.ListLessons(ctx)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("failed to list lessons: %w", err)
	}
	vocab := lessons.Vocabulary(all, lessons.FilterForLang(cfg.Lang))
	known := make(map[string]struct{}, len(vocab))
	for _, w := range vocab {
		known[w] = struct{}{}
	}
	for _, w := range weak {
		if _, ok := known[w]; !ok {
			vocab = append(vocab, w)
		}
	}
	lesson := model.Lesson{
		Title:        "Weak-word drill: " + strings.Join(weak[:min(len(weak), 3)], ", "),
		Content:      generator.Sentence(gen.GenerateWeighted(vocab, cfg.DrillWords, weak, cfg.WeakFactor)),
		ReadingLevel: lessons.LevelBasic,
	}
	lesson.ID, err = st.InsertLesson(ctx, lesson)
	if err != nil {
		return model.Lesson{}, fmt.Errorf("failed to store drill: %w", err)
	}
	return lesson, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template unless path exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// closeAll runs every closer and folds their failures into err.
func closeAll(err error, closers ...func() error) error {
	var result *multierror.Error
	if err != nil {
		result = multierror.Append(result, err)
	}
	for _, c := range closers {
		if c == nil {
			continue
		}
		if cerr := c(); cerr != nil {
			result = multierror.Append(result, cerr)
		}
	}
	if result != nil && result.Len() == 1 {
		return result.Errors[0]
	}
	return result.ErrorOrNil()
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
