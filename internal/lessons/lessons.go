// Package lessons loads lesson texts and lesson packs from files.
package lessons

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/lexiread/internal/model"
)

// Reading levels.
const (
	LevelBasic        = "basic"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

var levelDifficulty = map[string]int{
	LevelBasic:        1,
	LevelIntermediate: 2,
	LevelAdvanced:     3,
}

// ErrEmptyLesson is returned for a lesson without readable words.
var ErrEmptyLesson = errors.New("lesson has no content")

// NormalizeLevel validates a reading level; empty means basic.
func NormalizeLevel(level string) (string, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return LevelBasic, nil
	}
	if _, ok := levelDifficulty[level]; !ok {
		return "", fmt.Errorf("unknown reading level %q (want basic, intermediate or advanced)", level)
	}
	return level, nil
}

// Difficulty maps a reading level to 1..3. Unknown levels count as intermediate.
func Difficulty(level string) int {
	if d, ok := levelDifficulty[strings.ToLower(level)]; ok {
		return d
	}
	return 2
}

// LoadText reads a plain text lesson. The title is the file name.
func LoadText(path, level string) (model.Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Lesson{}, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return build(title, string(data), level)
}

type packEntry struct {
	Title        string `yaml:"title"`
	Content      string `yaml:"content"`
	ReadingLevel string `yaml:"reading_level"`
}

// LoadPack reads a YAML list of {title, content, reading_level} entries.
func LoadPack(path string) ([]model.Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePack(data)
}

// ParsePack decodes a lesson pack.
func ParsePack(data []byte) ([]model.Lesson, error) {
	var entries []packEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse lesson pack: %w", err)
	}
	out := make([]model.Lesson, 0, len(entries))
	for i, e := range entries {
		lesson, err := build(e.Title, e.Content, e.ReadingLevel)
		if err != nil {
			return nil, fmt.Errorf("lesson %d (%q): %w", i+1, e.Title, err)
		}
		out = append(out, lesson)
	}
	return out, nil
}

func build(title, content, level string) (model.Lesson, error) {
	content = strings.Join(strings.Fields(content), " ")
	if content == "" {
		return model.Lesson{}, ErrEmptyLesson
	}
	level, err := NormalizeLevel(level)
	if err != nil {
		return model.Lesson{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = firstWords(content, 4)
	}
	return model.Lesson{Title: title, Content: content, ReadingLevel: level}, nil
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		return strings.Join(fields[:n], " ") + "…"
	}
	return strings.Join(fields, " ")
}
