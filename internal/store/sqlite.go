// apps/go-server/internal/store/sqlite.go
//
// SQLite implementation of swirdle.Repository.
// Upserts are keyed on the natural keys: date for words, (user_id, word_id)
// for attempts and user_id for stats. Slices are stored as JSON text columns.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
)

// SQLite is a Repository backed by *sql.DB.
type SQLite struct{ db *sql.DB }

// NewSQLiteStore wraps an already-migrated database handle.
func NewSQLiteStore(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) LoadWordForDate(ctx context.Context, date string) (*swirdle.Word, error) {
	var (
		w     swirdle.Word
		hints string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT id, word, definition, difficulty, category, date_scheduled, hints, is_published
        FROM swirdle_words
        WHERE date_scheduled=? AND is_published=1`, date,
	).Scan(&w.ID, &w.Word, &w.Definition, &w.Difficulty, &w.Category, &w.DateScheduled, &hints, &w.IsPublished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hints), &w.Hints); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *SQLite) SaveWord(ctx context.Context, w swirdle.Word) error {
	hints, err := json.Marshal(nonNilStrings(w.Hints))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO swirdle_words (id, word, definition, difficulty, category, date_scheduled, hints, is_published)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(date_scheduled) DO UPDATE SET
            id=excluded.id, word=excluded.word, definition=excluded.definition,
            difficulty=excluded.difficulty, category=excluded.category,
            hints=excluded.hints, is_published=excluded.is_published`,
		w.ID, w.Word, w.Definition, w.Difficulty, w.Category, w.DateScheduled, string(hints), w.IsPublished,
	)
	return err
}

func (s *SQLite) LoadAttempt(ctx context.Context, userID, wordID string) (*swirdle.Attempt, error) {
	var (
		a                  swirdle.Attempt
		guesses, hintsUsed string
		completedAt        sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, word_id, guesses, completed, won, hints_used, completed_at
        FROM swirdle_attempts
        WHERE user_id=? AND word_id=?`, userID, wordID,
	).Scan(&a.UserID, &a.WordID, &guesses, &a.Completed, &a.Won, &hintsUsed, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(guesses), &a.Guesses); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hintsUsed), &a.HintsUsed); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, err
		}
		a.CompletedAt = &t
	}
	return &a, nil
}

func (s *SQLite) SaveAttempt(ctx context.Context, a swirdle.Attempt) error {
	return saveAttempt(ctx, s.db, a)
}

// CompleteAttempt writes the finished attempt and the new stats in one transaction.
func (s *SQLite) CompleteAttempt(ctx context.Context, a swirdle.Attempt, st swirdle.Stats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := saveAttempt(ctx, tx, a); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	if err := saveStats(ctx, tx, st); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	return tx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveAttempt(ctx context.Context, db execer, a swirdle.Attempt) error {
	guesses, err := json.Marshal(nonNilStrings(a.Guesses))
	if err != nil {
		return err
	}
	hints := a.HintsUsed
	if hints == nil {
		hints = []int{}
	}
	hintsUsed, err := json.Marshal(hints)
	if err != nil {
		return err
	}
	var completedAt sql.NullString
	if a.CompletedAt != nil {
		completedAt = sql.NullString{String: a.CompletedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	_, err = db.ExecContext(ctx, `
        INSERT INTO swirdle_attempts (user_id, word_id, guesses, attempts_count, completed, won, hints_used, completed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id, word_id) DO UPDATE SET
            guesses=excluded.guesses, attempts_count=excluded.attempts_count,
            completed=excluded.completed, won=excluded.won,
            hints_used=excluded.hints_used, completed_at=excluded.completed_at`,
		a.UserID, a.WordID, string(guesses), a.AttemptsCount(), a.Completed, a.Won, string(hintsUsed), completedAt,
	)
	return err
}

func (s *SQLite) LoadStats(ctx context.Context, userID string) (*swirdle.Stats, error) {
	var st swirdle.Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, current_streak, max_streak, games_played, games_won, average_attempts
        FROM user_swirdle_stats WHERE user_id=?`, userID,
	).Scan(&st.UserID, &st.CurrentStreak, &st.MaxStreak, &st.GamesPlayed, &st.GamesWon, &st.AverageAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *SQLite) SaveStats(ctx context.Context, st swirdle.Stats) error {
	return saveStats(ctx, s.db, st)
}

func saveStats(ctx context.Context, db execer, st swirdle.Stats) error {
	_, err := db.ExecContext(ctx, `
        INSERT INTO user_swirdle_stats (user_id, current_streak, max_streak, games_played, games_won, average_attempts)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            current_streak=excluded.current_streak, max_streak=excluded.max_streak,
            games_played=excluded.games_played, games_won=excluded.games_won,
            average_attempts=excluded.average_attempts`,
		st.UserID, st.CurrentStreak, st.MaxStreak, st.GamesPlayed, st.GamesWon, st.AverageAttempts,
	)
	return err
}

func nonNilStrings(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
