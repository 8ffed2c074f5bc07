package config

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/verte-zerg/lexiread/internal/match"
	"github.com/verte-zerg/lexiread/internal/model"
)

// Defaults.
const (
	DefaultLang        = "en"
	DefaultUser        = "default"
	DefaultDebounceMs  = 200
	DefaultWeakTop     = 8
	DefaultWeakFactor  = 3.0
	DefaultWeakWindow  = 20
	DefaultDrillWords  = 30
	DefaultCurveWindow = 10
	DefaultSampleRate  = 16000
	DefaultNumThreads  = 2
)

// Defaults returns practice settings with every default applied.
func Defaults() model.Config {
	p := match.DefaultPolicy()
	return model.Config{
		Lang:               DefaultLang,
		User:               DefaultUser,
		DebounceMs:         DefaultDebounceMs,
		ShortWordLen:       p.ShortLen,
		ShortWordTolerance: p.ShortTolerance,
		LongWordTolerance:  p.LongTolerance,
		WeakTop:            DefaultWeakTop,
		WeakFactor:         DefaultWeakFactor,
		WeakWindow:         DefaultWeakWindow,
		DrillWords:         DefaultDrillWords,
	}
}

// DefaultSpeech returns recognizer settings with every default applied.
func DefaultSpeech() model.SpeechConfig {
	dir := DefaultModelDir()
	return model.SpeechConfig{
		ModelDir:   filepath.Join(dir, "transducer"),
		VADModel:   filepath.Join(dir, "silero_vad.onnx"),
		SampleRate: DefaultSampleRate,
		NumThreads: DefaultNumThreads,
	}
}

// Policy builds the matcher policy from practice settings.
func Policy(cfg model.Config) match.Policy {
	return match.Policy{
		ShortLen:       cfg.ShortWordLen,
		ShortTolerance: cfg.ShortWordTolerance,
		LongTolerance:  cfg.LongWordTolerance,
	}
}

// Validate reports every invalid setting at once.
func Validate(cfg model.Config, sp model.SpeechConfig) error {
	var result *multierror.Error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			result = multierror.Append(result, fmt.Errorf(format, args...))
		}
	}
	check(cfg.User != "", "user must not be empty")
	check(cfg.DebounceMs >= 0, "debounce-ms must be >= 0")
	check(cfg.ShortWordLen >= 0, "short-word-len must be >= 0")
	check(cfg.ShortWordTolerance >= 0, "short-word-tolerance must be >= 0")
	check(cfg.LongWordTolerance >= 0, "long-word-tolerance must be >= 0")
	check(cfg.WeakTop >= 0, "weak-top must be >= 0")
	check(cfg.WeakFactor >= 0, "weak-factor must be >= 0")
	check(cfg.WeakWindow >= 0, "weak-window must be >= 0")
	check(cfg.DrillWords > 0, "drill-words must be > 0")
	check(sp.SampleRate > 0, "sample-rate must be > 0")
	check(sp.NumThreads > 0, "num-threads must be > 0")
	return result.ErrorOrNil()
}

// Template returns the commented config file written by `lexiread config`.
func Template() string {
	p := match.DefaultPolicy()
	sp := DefaultSpeech()
	return fmt.Sprintf(`# lexiread configuration
# Uncomment a value to enable it. CLI flags and LEXIREAD_* variables override config values.

[practice]
# lang = %q                 # Drill vocabulary language
# user = %q            # Learner name sessions are recorded under
# debounce-ms = %d            # Minimum interval between live rescoring
# short-word-len = %d           # Words up to this length use the short tolerance
# short-word-tolerance = %d     # Edits allowed for a near match on short words
# long-word-tolerance = %d      # Edits allowed for a near match on longer words
# focus-weak = false          # Practice a drill of weak words instead of a lesson
# weak-top = %d                 # Number of weak words to focus on
# weak-factor = %.1f            # Extra weight for weak words in drills
# weak-window = %d             # Recent sessions used to find weak words
# drill-words = %d             # Words per drill

[speech]
# model-dir = %q
# vad-model = %q
# sample-rate = %d
# num-threads = %d
`,
		DefaultLang,
		DefaultUser,
		DefaultDebounceMs,
		p.ShortLen,
		p.ShortTolerance,
		p.LongTolerance,
		DefaultWeakTop,
		DefaultWeakFactor,
		DefaultWeakWindow,
		DefaultDrillWords,
		sp.ModelDir,
		sp.VADModel,
		sp.SampleRate,
		sp.NumThreads,
	)
}

// ApplyFile copies values present in fc onto cfg and sp.
func ApplyFile(cfg *model.Config, sp *model.SpeechConfig, fc FileConfig) {
	setString(&cfg.Lang, fc.Practice.Lang)
	setString(&cfg.User, fc.Practice.User)
	setInt(&cfg.DebounceMs, fc.Practice.DebounceMs)
	setInt(&cfg.ShortWordLen, fc.Practice.ShortWordLen)
	setInt(&cfg.ShortWordTolerance, fc.Practice.ShortWordTolerance)
	setInt(&cfg.LongWordTolerance, fc.Practice.LongWordTolerance)
	setBool(&cfg.FocusWeak, fc.Practice.FocusWeak)
	setInt(&cfg.WeakTop, fc.Practice.WeakTop)
	setFloat(&cfg.WeakFactor, fc.Practice.WeakFactor)
	setInt(&cfg.WeakWindow, fc.Practice.WeakWindow)
	setInt(&cfg.DrillWords, fc.Practice.DrillWords)
	setString(&sp.ModelDir, fc.Speech.ModelDir)
	setString(&sp.VADModel, fc.Speech.VADModel)
	setInt(&sp.SampleRate, fc.Speech.SampleRate)
	setInt(&sp.NumThreads, fc.Speech.NumThreads)
}

func setString(dst, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst, v *bool) {
	if v != nil {
		*dst = *v
	}
}
