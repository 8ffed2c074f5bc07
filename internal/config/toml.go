// Package config provides configuration loading, defaults and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig mirrors config.toml. Pointer fields stay nil when a key is absent.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Speech   SpeechConfig   `toml:"speech"`
}

// PracticeConfig is the [practice] table.
type PracticeConfig struct {
	Lang               *string  `toml:"lang"`
	User               *string  `toml:"user"`
	DebounceMs         *int     `toml:"debounce-ms"`
	ShortWordLen       *int     `toml:"short-word-len"`
	ShortWordTolerance *int     `toml:"short-word-tolerance"`
	LongWordTolerance  *int     `toml:"long-word-tolerance"`
	FocusWeak          *bool    `toml:"focus-weak"`
	WeakTop            *int     `toml:"weak-top"`
	WeakFactor         *float64 `toml:"weak-factor"`
	WeakWindow         *int     `toml:"weak-window"`
	DrillWords         *int     `toml:"drill-words"`
}

// SpeechConfig is the [speech] table.
type SpeechConfig struct {
	ModelDir   *string `toml:"model-dir"`
	VADModel   *string `toml:"vad-model"`
	SampleRate *int    `toml:"sample-rate"`
	NumThreads *int    `toml:"num-threads"`
}

// LoadConfig decodes the TOML file at path. A missing file yields an empty
// FileConfig; keys this version does not know are rejected.
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return cfg, errors.New("config path is empty")
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	md, err := toml.Decode(string(raw), &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if extra := md.Undecoded(); len(extra) > 0 {
		keys := make([]string, len(extra))
		for i, k := range extra {
			keys[i] = strconv.Quote(k.String())
		}
		return FileConfig{}, fmt.Errorf("unknown config key %s in %s", strings.Join(keys, ", "), path)
	}
	return cfg, nil
}
