// apps/go-server/internal/swirdle/types.go
//
// Core type definitions for the Swirdle daily word game.
// Defines:
//   - LetterStatus: per-letter result of a guess (correct/present/absent).
//   - Word: the scheduled puzzle for one calendar date (read-only to the engine).
//   - Attempt: one user's progress against one word.
//   - Stats: per-user aggregate updated once per completed game.

package swirdle

import (
	"strings"
	"time"
)

// MaxGuesses is the number of guesses a player gets per word.
const MaxGuesses = 6

// LetterStatus is the evaluation result for a single letter in a guess.
type LetterStatus string

const (
	StatusCorrect LetterStatus = "correct"
	StatusPresent LetterStatus = "present"
	StatusAbsent  LetterStatus = "absent"
)

// Difficulty of a scheduled word.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Category groups words by wine topic.
type Category string

const (
	CategoryGrapeVariety Category = "grape_variety"
	CategoryWineRegion   Category = "wine_region"
	CategoryTastingTerm  Category = "tasting_term"
	CategoryProduction   Category = "production"
	CategoryGeneral      Category = "general"
)

// ValidDifficulty reports whether d is one of the known difficulties.
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryGrapeVariety, CategoryWineRegion, CategoryTastingTerm, CategoryProduction, CategoryGeneral:
		return true
	}
	return false
}

// Word is the puzzle for a date. Word.Word is always uppercase.
type Word struct {
	ID            string     `json:"id"`
	Word          string     `json:"word"`
	Definition    string     `json:"definition"`
	Difficulty    Difficulty `json:"difficulty"`
	Category      Category   `json:"category"`
	DateScheduled string     `json:"dateScheduled"` // YYYY-MM-DD
	Hints         []string   `json:"hints"`
	IsPublished   bool       `json:"isPublished"`
}

// Normalize uppercases and trims the answer.
func (w Word) Normalize() Word {
	w.Word = strings.ToUpper(strings.TrimSpace(w.Word))
	return w
}

// Attempt is a user's record for one word. At most one exists per (UserID, WordID).
type Attempt struct {
	UserID      string     `json:"userId"`
	WordID      string     `json:"wordId"`
	Guesses     []string   `json:"guesses"`
	Completed   bool       `json:"completed"`
	Won         bool       `json:"won"`
	HintsUsed   []int      `json:"hintsUsed"` // sorted, unique
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AttemptsCount is the number of non-empty guesses recorded.
func (a Attempt) AttemptsCount() int {
	n := 0
	for _, g := range a.Guesses {
		if g != "" {
			n++
		}
	}
	return n
}

// HintUsed reports whether index was explicitly unlocked.
func (a Attempt) HintUsed(index int) bool {
	for _, h := range a.HintsUsed {
		if h == index {
			return true
		}
	}
	return false
}

// State derives the lifecycle state of the attempt.
func (a Attempt) State() State {
	switch {
	case a.Completed && a.Won:
		return StateWon
	case a.Completed:
		return StateLost
	case a.AttemptsCount() > 0:
		return StateInProgress
	}
	return StateNotStarted
}

// clone returns a deep copy so transitions never alias the caller's slices.
func (a Attempt) clone() Attempt {
	out := a
	out.Guesses = append([]string(nil), a.Guesses...)
	out.HintsUsed = append([]int(nil), a.HintsUsed...)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// State is a coarse view of an attempt's lifecycle.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Stats is the per-user aggregate. GamesWon <= GamesPlayed always holds.
type Stats struct {
	UserID          string  `json:"userId"`
	CurrentStreak   int     `json:"currentStreak"`
	MaxStreak       int     `json:"maxStreak"`
	GamesPlayed     int     `json:"gamesPlayed"`
	GamesWon        int     `json:"gamesWon"`
	AverageAttempts float64 `json:"averageAttempts"`
}

// StatsDelta is emitted by the engine when a game completes.
type StatsDelta struct {
	Won      bool `json:"won"`
	Attempts int  `json:"attempts"`
}

// Apply folds a completed game into s and returns the updated value.
func (s Stats) Apply(d StatsDelta) Stats {
	prev := s.GamesPlayed
	s.GamesPlayed++
	if d.Won {
		s.GamesWon++
		s.CurrentStreak++
	} else {
		s.CurrentStreak = 0
	}
	if s.CurrentStreak > s.MaxStreak {
		s.MaxStreak = s.CurrentStreak
	}
	s.AverageAttempts = (s.AverageAttempts*float64(prev) + float64(d.Attempts)) / float64(s.GamesPlayed)
	return s
}
