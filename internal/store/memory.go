// apps/go-server/internal/store/memory.go
//
// In-memory implementation of swirdle.Repository.
// Used for tests and for running the server without a database file.
//
// Characteristics:
//   - Words keyed by scheduled date, attempts by (user, word), stats by user.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Values are copied on the way in and out so callers never share slices.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"

	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
)

type attemptKey struct{ userID, wordID string }

// memory is an in-memory map-based Repository implementation.
type memory struct {
	mu       sync.RWMutex
	words    map[string]swirdle.Word // keyed by DateScheduled
	attempts map[attemptKey]swirdle.Attempt
	stats    map[string]swirdle.Stats
}

// NewMemoryStore constructs a new in-memory Repository.
func NewMemoryStore() swirdle.Repository {
	return &memory{
		words:    make(map[string]swirdle.Word),
		attempts: make(map[attemptKey]swirdle.Attempt),
		stats:    make(map[string]swirdle.Stats),
	}
}

func (m *memory) LoadWordForDate(ctx context.Context, date string) (*swirdle.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.words[date]
	if !ok || !w.IsPublished {
		return nil, nil
	}
	w.Hints = append([]string(nil), w.Hints...)
	return &w, nil
}

func (m *memory) SaveWord(ctx context.Context, w swirdle.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.Hints = append([]string(nil), w.Hints...)
	m.words[w.DateScheduled] = w
	return nil
}

func (m *memory) LoadAttempt(ctx context.Context, userID, wordID string) (*swirdle.Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[attemptKey{userID, wordID}]
	if !ok {
		return nil, nil
	}
	a = copyAttempt(a)
	return &a, nil
}

func (m *memory) SaveAttempt(ctx context.Context, a swirdle.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attemptKey{a.UserID, a.WordID}] = copyAttempt(a)
	return nil
}

func (m *memory) LoadStats(ctx context.Context, userID string) (*swirdle.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memory) SaveStats(ctx context.Context, s swirdle.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[s.UserID] = s
	return nil
}

// CompleteAttempt stores both values under one lock.
func (m *memory) CompleteAttempt(ctx context.Context, a swirdle.Attempt, s swirdle.Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attemptKey{a.UserID, a.WordID}] = copyAttempt(a)
	m.stats[s.UserID] = s
	return nil
}

func copyAttempt(a swirdle.Attempt) swirdle.Attempt {
	a.Guesses = append([]string{}, a.Guesses...)
	a.HintsUsed = append([]int{}, a.HintsUsed...)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		a.CompletedAt = &t
	}
	return a
}
