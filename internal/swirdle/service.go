// apps/go-server/internal/swirdle/service.go
//
// Service wires the engine to a storage collaborator.
// Each call loads today's word and the user's attempt, applies one move,
// and persists the resulting attempt (and stats, on completion only).

package swirdle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/vino/apps/go-server/internal/daily"
)

// ErrNoWord is returned when neither a scheduled nor a fallback word exists for a date.
var ErrNoWord = errors.New("swirdle: no word for date")

// Repository is the persistence boundary for Swirdle state.
// Implementations may be backed by memory, SQLite, etc.
type Repository interface {
	// LoadWordForDate returns the published word scheduled on date (YYYY-MM-DD), or nil.
	LoadWordForDate(ctx context.Context, date string) (*Word, error)
	// SaveWord upserts a scheduled word keyed on its date.
	SaveWord(ctx context.Context, w Word) error
	// LoadAttempt returns the attempt for (userID, wordID), or nil.
	LoadAttempt(ctx context.Context, userID, wordID string) (*Attempt, error)
	// SaveAttempt upserts keyed on (UserID, WordID).
	SaveAttempt(ctx context.Context, a Attempt) error
	// LoadStats returns the user's aggregate, or nil.
	LoadStats(ctx context.Context, userID string) (*Stats, error)
	// SaveStats upserts keyed on UserID.
	SaveStats(ctx context.Context, s Stats) error
	// CompleteAttempt saves a finished attempt and the user's updated stats
	// together; either both are stored or neither is.
	CompleteAttempt(ctx context.Context, a Attempt, s Stats) error
}

// FallbackFunc picks a word for date when nothing is scheduled.
type FallbackFunc func(date time.Time) (Word, bool)

// Service orchestrates load → engine → persist for one user at a time.
type Service struct {
	repo     Repository
	fallback FallbackFunc

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-user, serializes moves
}

// NewService constructs a Service. fallback may be nil.
func NewService(repo Repository, fallback FallbackFunc) *Service {
	return &Service{repo: repo, fallback: fallback, locks: make(map[string]*sync.Mutex)}
}

// View is what a player sees for today's puzzle.
type View struct {
	Date              string         `json:"date"`
	WordID            string         `json:"wordId"`
	Length            int            `json:"length"`
	Definition        string         `json:"definition,omitempty"`
	Difficulty        Difficulty     `json:"difficulty"`
	Category          Category       `json:"category"`
	HintCount         int            `json:"hintCount"`
	Hints             map[int]string `json:"hints"`
	HintsUsed         []int          `json:"hintsUsed"`
	Guesses           []ScoredGuess  `json:"guesses"`
	State             State          `json:"state"`
	RemainingAttempts int            `json:"remainingAttempts"`
	Answer            string         `json:"answer,omitempty"` // only once completed
	LastLetters       []LetterStatus `json:"lastLetters,omitempty"`
}

// ScoredGuess pairs a stored guess with its letter statuses.
type ScoredGuess struct {
	Guess   string         `json:"guess"`
	Letters []LetterStatus `json:"letters"`
}

// Today returns the current view for userID without changing anything.
func (s *Service) Today(ctx context.Context, userID string, now time.Time) (View, error) {
	eng, att, err := s.load(ctx, userID, now)
	if err != nil {
		return View{}, err
	}
	return buildView(eng, att, nil), nil
}

// Guess applies raw for userID. Business-rule rejections wrap ErrInvalidOperation
// and leave storage untouched.
func (s *Service) Guess(ctx context.Context, userID, raw string, now time.Time) (View, error) {
	unlock := s.lock(userID)
	defer unlock()

	eng, att, err := s.load(ctx, userID, now)
	if err != nil {
		return View{}, err
	}
	res, err := eng.SubmitGuess(att, raw)
	if err != nil {
		return buildView(eng, att, nil), err
	}
	if res.Delta == nil {
		if err := s.repo.SaveAttempt(ctx, res.Attempt); err != nil {
			return View{}, fmt.Errorf("save attempt: %w", err)
		}
		return buildView(eng, res.Attempt, res.Letters), nil
	}
	cur, err := s.Stats(ctx, userID)
	if err != nil {
		return View{}, err
	}
	if err := s.repo.CompleteAttempt(ctx, res.Attempt, cur.Apply(*res.Delta)); err != nil {
		return View{}, fmt.Errorf("complete attempt: %w", err)
	}
	log.Info().Str("user", userID).Str("word", eng.Word().ID).
		Bool("won", res.Delta.Won).Int("attempts", res.Delta.Attempts).Msg("swirdle completed")
	return buildView(eng, res.Attempt, res.Letters), nil
}

// Hint explicitly unlocks hint index for userID.
func (s *Service) Hint(ctx context.Context, userID string, index int, now time.Time) (View, error) {
	unlock := s.lock(userID)
	defer unlock()

	eng, att, err := s.load(ctx, userID, now)
	if err != nil {
		return View{}, err
	}
	next, err := eng.UnlockHint(att, index)
	if err != nil {
		return buildView(eng, att, nil), err
	}
	if err := s.repo.SaveAttempt(ctx, next); err != nil {
		return View{}, fmt.Errorf("save attempt: %w", err)
	}
	return buildView(eng, next, nil), nil
}

// Stats returns the user's aggregate, zero-valued if they never finished a game.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	st, err := s.repo.LoadStats(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("load stats: %w", err)
	}
	if st == nil {
		return Stats{UserID: userID}, nil
	}
	return *st, nil
}

// WordFor resolves the word for now's date: scheduled first, then fallback.
func (s *Service) WordFor(ctx context.Context, now time.Time) (Word, error) {
	date := daily.DateKey(now)
	w, err := s.repo.LoadWordForDate(ctx, date)
	if err != nil {
		return Word{}, fmt.Errorf("load word: %w", err)
	}
	if w != nil {
		return w.Normalize(), nil
	}
	if s.fallback != nil {
		if fw, ok := s.fallback(now); ok {
			// Keyed by date so a list word recurring later starts a fresh attempt.
			fw.ID = "fallback-" + date
			fw.DateScheduled = date
			return fw.Normalize(), nil
		}
	}
	return Word{}, ErrNoWord
}

func (s *Service) load(ctx context.Context, userID string, now time.Time) (*Engine, Attempt, error) {
	w, err := s.WordFor(ctx, now)
	if err != nil {
		return nil, Attempt{}, err
	}
	eng := NewEngine(w).WithClock(func() time.Time { return now.UTC() })
	prev, err := s.repo.LoadAttempt(ctx, userID, w.ID)
	if err != nil {
		return nil, Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	if prev == nil {
		return eng, eng.Start(userID), nil
	}
	return eng, *prev, nil
}

func (s *Service) lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func buildView(eng *Engine, a Attempt, last []LetterStatus) View {
	w := eng.Word()
	v := View{
		Date:              w.DateScheduled,
		WordID:            w.ID,
		Length:            len([]rune(w.Word)),
		Difficulty:        w.Difficulty,
		Category:          w.Category,
		HintCount:         len(w.Hints),
		Hints:             eng.VisibleHints(a),
		HintsUsed:         append([]int{}, a.HintsUsed...),
		Guesses:           make([]ScoredGuess, 0, len(a.Guesses)),
		State:             a.State(),
		RemainingAttempts: RemainingAttempts(a),
		LastLetters:       last,
	}
	for _, g := range a.Guesses {
		if g == "" {
			continue
		}
		v.Guesses = append(v.Guesses, ScoredGuess{Guess: g, Letters: Score(w.Word, g)})
	}
	if a.Completed {
		v.Answer = w.Word
		v.Definition = w.Definition
	}
	return v
}

// ScheduleWord validates and stores w for its scheduled date, replacing any
// word already booked for that day.
func (s *Service) ScheduleWord(ctx context.Context, w Word) (Word, error) {
	w = w.Normalize()
	if w.ID == "" || w.DateScheduled == "" {
		return Word{}, fmt.Errorf("%w: word needs id and date", ErrInvalidOperation)
	}
	if _, err := daily.ParseDateKey(w.DateScheduled); err != nil {
		return Word{}, fmt.Errorf("%w: bad date %q", ErrInvalidOperation, w.DateScheduled)
	}
	if len([]rune(w.Word)) == 0 {
		return Word{}, fmt.Errorf("%w: empty word", ErrInvalidOperation)
	}
	if err := s.repo.SaveWord(ctx, w); err != nil {
		return Word{}, fmt.Errorf("save word: %w", err)
	}
	return w, nil
}
