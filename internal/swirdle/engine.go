// apps/go-server/internal/swirdle/engine.go
//
// Game engine for one user's attempt at one day's Swirdle word.
// Responsibilities:
//   - Validate and apply guesses (completion, length, remaining attempts).
//   - Score guesses letter by letter.
//   - Manage the hint economy (auto-reveal by guess count, explicit unlock).
//   - Track state transitions: not_started → in_progress → won/lost,
//     emitting a StatsDelta exactly once on completion.
//
// Notes:
//   - Transitions are value-in/value-out. The input Attempt is never mutated and
//     a rejected call returns it unchanged alongside an ErrInvalidOperation.
//   - Scoring is the simplified variant: a letter that appears anywhere in the
//     answer is "present" regardless of how many times it occurs.
package swirdle

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidOperation is the root of every rejected transition.
var ErrInvalidOperation = errors.New("invalid operation")

var (
	ErrLengthMismatch  = fmt.Errorf("%w: guess length mismatch", ErrInvalidOperation)
	ErrGameCompleted   = fmt.Errorf("%w: game already completed", ErrInvalidOperation)
	ErrNoGuessesLeft   = fmt.Errorf("%w: no guesses left", ErrInvalidOperation)
	ErrHintOutOfRange  = fmt.Errorf("%w: hint index out of range", ErrInvalidOperation)
	ErrHintAlreadyUsed = fmt.Errorf("%w: hint already used", ErrInvalidOperation)
	ErrAttemptMismatch = fmt.Errorf("%w: attempt belongs to another word", ErrInvalidOperation)
)

// Engine evaluates moves against a single word. It is safe to share across
// users since it holds only the read-only word.
type Engine struct {
	word Word
	now  func() time.Time
}

// NewEngine builds an engine for w. The answer is normalized to uppercase.
func NewEngine(w Word) *Engine {
	return &Engine{word: w.Normalize(), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the completion timestamp source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Word returns the engine's word.
func (e *Engine) Word() Word { return e.word }

// Start returns a fresh attempt for userID.
func (e *Engine) Start(userID string) Attempt {
	return Attempt{UserID: userID, WordID: e.word.ID, Guesses: []string{}, HintsUsed: []int{}}
}

// GuessResult is the outcome of an accepted guess.
type GuessResult struct {
	Attempt Attempt        `json:"attempt"`
	Letters []LetterStatus `json:"letters"`
	// Delta is non-nil only when this guess completed the game.
	Delta *StatsDelta `json:"delta,omitempty"`
}

// SubmitGuess validates and applies raw to a, returning the new attempt.
//
// Validation rules:
//   - Attempt must belong to this word and not be completed.
//   - Fewer than MaxGuesses non-empty guesses recorded.
//   - Guess must have exactly as many letters as the answer.
//
// State transitions:
//   - Guess equals the answer → Completed, Won.
//   - Else if this was the MaxGuesses-th guess → Completed (loss).
func (e *Engine) SubmitGuess(a Attempt, raw string) (GuessResult, error) {
	if err := e.check(a); err != nil {
		return GuessResult{Attempt: a}, err
	}
	if a.AttemptsCount() >= MaxGuesses {
		return GuessResult{Attempt: a}, ErrNoGuessesLeft
	}
	guess := strings.ToUpper(strings.TrimSpace(raw))
	if utf8.RuneCountInString(guess) != utf8.RuneCountInString(e.word.Word) {
		return GuessResult{Attempt: a}, ErrLengthMismatch
	}

	next := a.clone()
	next.Guesses = append(next.Guesses, guess)
	res := GuessResult{Letters: Score(e.word.Word, guess)}

	won := guess == e.word.Word
	if won || next.AttemptsCount() >= MaxGuesses {
		at := e.now()
		next.Completed, next.Won, next.CompletedAt = true, won, &at
		res.Delta = &StatsDelta{Won: won, Attempts: next.AttemptsCount()}
	}
	res.Attempt = next
	return res, nil
}

// UnlockHint records an explicit unlock of hint index.
func (e *Engine) UnlockHint(a Attempt, index int) (Attempt, error) {
	if err := e.check(a); err != nil {
		return a, err
	}
	if index < 0 || index >= len(e.word.Hints) {
		return a, ErrHintOutOfRange
	}
	if a.HintUsed(index) {
		return a, ErrHintAlreadyUsed
	}
	next := a.clone()
	next.HintsUsed = insertSorted(next.HintsUsed, index)
	return next, nil
}

// HintAvailable reports whether hint index is visible to the player: either
// explicitly unlocked or revealed because enough guesses were made (one hint
// per two guesses, the first one after the first guess).
func (e *Engine) HintAvailable(a Attempt, index int) bool {
	if index < 0 || index >= len(e.word.Hints) {
		return false
	}
	return a.HintUsed(index) || a.AttemptsCount() > index*2
}

// VisibleHints returns the hints currently visible, keyed by index.
func (e *Engine) VisibleHints(a Attempt) map[int]string {
	out := make(map[int]string)
	for i, h := range e.word.Hints {
		if e.HintAvailable(a, i) {
			out[i] = h
		}
	}
	return out
}

// RemainingAttempts is MaxGuesses minus the non-empty guesses recorded.
func RemainingAttempts(a Attempt) int {
	n := MaxGuesses - a.AttemptsCount()
	if n < 0 {
		return 0
	}
	return n
}

func (e *Engine) check(a Attempt) error {
	if a.WordID != "" && a.WordID != e.word.ID {
		return ErrAttemptMismatch
	}
	if a.Completed {
		return ErrGameCompleted
	}
	return nil
}

// Score evaluates guess against answer position by position. Both are expected
// uppercase and of equal length; extra positions on either side are absent.
func Score(answer, guess string) []LetterStatus {
	ans := []rune(answer)
	g := []rune(guess)
	out := make([]LetterStatus, len(g))
	if guess == answer {
		for i := range out {
			out[i] = StatusCorrect
		}
		return out
	}
	for i, r := range g {
		switch {
		case i < len(ans) && ans[i] == r:
			out[i] = StatusCorrect
		case strings.ContainsRune(answer, r):
			out[i] = StatusPresent
		default:
			out[i] = StatusAbsent
		}
	}
	return out
}

func insertSorted(xs []int, v int) []int {
	i := 0
	for i < len(xs) && xs[i] < v {
		i++
	}
	xs = append(xs, 0)
	copy(xs[i+1:], xs[i:])
	xs[i] = v
	return xs
}
