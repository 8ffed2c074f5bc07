// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/lexiread/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store wraps SQLite access for lessons and reading sessions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lessons (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			reading_level TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS reading_sessions (
			id INTEGER PRIMARY KEY,
			attempt_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			lesson_id INTEGER NOT NULL,
			spoken_text TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			wpm INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			near INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			total INTEGER NOT NULL,
			errors TEXT NOT NULL,
			recommendations TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_word_stats (
			session_id INTEGER NOT NULL,
			word TEXT NOT NULL,
			exact INTEGER NOT NULL,
			near INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			PRIMARY KEY (session_id, word)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reading_sessions_ended_at ON reading_sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_word_stats_word ON session_word_stats(word);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertLesson stores a lesson and returns its id.
func (s *Store) InsertLesson(ctx context.Context, lesson model.Lesson) (int64, error) {
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (title, content, reading_level, created_at) VALUES (?, ?, ?, ?)`,
		lesson.Title, lesson.Content, lesson.ReadingLevel, lesson.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetLesson loads a lesson by id.
func (s *Store) GetLesson(ctx context.Context, id int64) (model.Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, reading_level, created_at FROM lessons WHERE id = ?`, id)
	lesson, err := scanLesson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Lesson{}, fmt.Errorf("lesson %d: %w", id, ErrNotFound)
	}
	return lesson, err
}

// ListLessons returns all lessons ordered by id.
func (s *Store) ListLessons(ctx context.Context) ([]model.Lesson, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, reading_level, created_at FROM lessons ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var lessons []model.Lesson
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLesson(row scanner) (model.Lesson, error) {
	var lesson model.Lesson
	var createdAt string
	if err := row.Scan(&lesson.ID, &lesson.Title, &lesson.Content, &lesson.ReadingLevel, &createdAt); err != nil {
		return model.Lesson{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Lesson{}, err
	}
	lesson.CreatedAt = parsed
	return lesson, nil
}

// InsertSession stores a scored attempt and its per-word outcomes.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord, words []model.WordStats) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO reading_sessions (attempt_id, user_id, lesson_id, spoken_text, started_at, ended_at, duration_ms,
			accuracy, wpm, correct, near, skipped, total, errors, recommendations)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AttemptID,
		rec.UserID,
		rec.LessonID,
		rec.SpokenText,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.DurationMs,
		rec.Accuracy,
		rec.WordsPerMinute,
		rec.Correct,
		rec.Near,
		rec.Skipped,
		rec.Total,
		strings.Join(rec.Errors, " "),
		rec.Recommendations,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(words) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO session_word_stats (session_id, word, exact, near, skipped) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ws := range words {
			if _, err := stmt.ExecContext(ctx, id, ws.Word, ws.Exact, ws.Near, ws.Skipped); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetSessionByAttempt returns the stored session for an attempt id.
func (s *Store) GetSessionByAttempt(ctx context.Context, attemptID string) (int64, model.SessionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, attempt_id, user_id, lesson_id, spoken_text, started_at, ended_at, duration_ms,
			accuracy, wpm, correct, near, skipped, total, errors, recommendations
		 FROM reading_sessions WHERE attempt_id = ?`, attemptID)
	var (
		id               int64
		rec              model.SessionRecord
		startedAt, ended string
		errs             string
	)
	err := row.Scan(&id, &rec.AttemptID, &rec.UserID, &rec.LessonID, &rec.SpokenText, &startedAt, &ended,
		&rec.DurationMs, &rec.Accuracy, &rec.WordsPerMinute, &rec.Correct, &rec.Near, &rec.Skipped, &rec.Total,
		&errs, &rec.Recommendations)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.SessionRecord{}, fmt.Errorf("attempt %s: %w", attemptID, ErrNotFound)
	}
	if err != nil {
		return 0, model.SessionRecord{}, err
	}
	if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return 0, model.SessionRecord{}, err
	}
	if rec.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
		return 0, model.SessionRecord{}, err
	}
	rec.Errors = strings.Fields(errs)
	return id, rec, nil
}

// GetWeakWords aggregates word stats over a user's most recent sessions.
func (s *Store) GetWeakWords(ctx context.Context, window int, userID string) ([]model.WordAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM reading_sessions
		WHERE (? = '' OR user_id = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ws.word, SUM(ws.exact), SUM(ws.near), SUM(ws.skipped)
	FROM session_word_stats ws
	JOIN recent_sessions r ON r.id = ws.session_id
	GROUP BY ws.word`

	rows, err := s.db.QueryContext(ctx, query, userID, userID, window)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	return scanWordAggregates(rows)
}

// ListSessions returns session aggregates filtered by stats config, oldest first.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.User != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, cfg.User)
	}
	if cfg.LessonID > 0 {
		clauses = append(clauses, "lesson_id = ?")
		args = append(args, cfg.LessonID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, lesson_id, ended_at, accuracy, wpm, correct, near, skipped, total, duration_ms
		FROM reading_sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.LessonID, &endedAt, &agg.Accuracy, &agg.WordsPerMinute,
			&agg.Correct, &agg.Near, &agg.Skipped, &agg.Total, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	return sessions, rows.Err()
}

// ListWordAggregatesForSessions aggregates per-word stats across sessions.
func (s *Store) ListWordAggregatesForSessions(ctx context.Context, sessionIDs []int64) ([]model.WordAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inList(sessionIDs)
	query := fmt.Sprintf(`SELECT word, SUM(exact), SUM(near), SUM(skipped)
		FROM session_word_stats
		WHERE session_id IN (%s)
		GROUP BY word`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	return scanWordAggregates(rows)
}

// ListWordStatsForSessions returns per-session stats for the selected words.
func (s *Store) ListWordStatsForSessions(ctx context.Context, sessionIDs []int64, words []string) (map[int64]map[string]model.WordStats, error) {
	result := map[int64]map[string]model.WordStats{}
	if len(sessionIDs) == 0 || len(words) == 0 {
		return result, nil
	}
	idPlaceholders, args := inList(sessionIDs)
	wordPlaceholders, wordArgs := inList(words)
	query := fmt.Sprintf(`SELECT session_id, word, exact, near, skipped
		FROM session_word_stats
		WHERE session_id IN (%s) AND word IN (%s)`, idPlaceholders, wordPlaceholders)

	rows, err := s.db.QueryContext(ctx, query, append(args, wordArgs...)...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	for rows.Next() {
		var sessionID int64
		var ws model.WordStats
		if err := rows.Scan(&sessionID, &ws.Word, &ws.Exact, &ws.Near, &ws.Skipped); err != nil {
			return nil, err
		}
		if _, ok := result[sessionID]; !ok {
			result[sessionID] = map[string]model.WordStats{}
		}
		result[sessionID][ws.Word] = ws
	}
	return result, rows.Err()
}

func scanWordAggregates(rows *sql.Rows) ([]model.WordAggregate, error) {
	var result []model.WordAggregate
	for rows.Next() {
		var agg model.WordAggregate
		if err := rows.Scan(&agg.Word, &agg.Exact, &agg.Near, &agg.Skipped); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, rows.Err()
}

func inList[T any](values []T) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ","), args
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
