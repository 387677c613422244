package swirdle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/vino/apps/go-server/internal/store"
	"github.com/robalobadob/vino/apps/go-server/internal/swirdle"
)

var day = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func scheduled(t *testing.T, repo swirdle.Repository) swirdle.Word {
	t.Helper()
	w := swirdle.Word{
		ID: "w-merlot", Word: "MERLOT", Definition: "A red grape.",
		Difficulty: swirdle.DifficultyBeginner, Category: swirdle.CategoryGrapeVariety,
		DateScheduled: "2026-03-14", Hints: []string{"red", "bordeaux", "blackbird"}, IsPublished: true,
	}
	require.NoError(t, repo.SaveWord(context.Background(), w))
	return w
}

func TestService_TodayHidesAnswer(t *testing.T) {
	repo := store.NewMemoryStore()
	scheduled(t, repo)
	svc := swirdle.NewService(repo, nil)

	v, err := svc.Today(context.Background(), "u1", day)
	require.NoError(t, err)
	assert.Equal(t, swirdle.StateNotStarted, v.State)
	assert.Equal(t, 6, v.Length)
	assert.Equal(t, 3, v.HintCount)
	assert.Empty(t, v.Hints)
	assert.Empty(t, v.Answer)
	assert.Empty(t, v.Definition)
	assert.Equal(t, swirdle.MaxGuesses, v.RemainingAttempts)
}

func TestService_GuessPersistsAndCompletes(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	w := scheduled(t, repo)
	svc := swirdle.NewService(repo, nil)

	v, err := svc.Guess(ctx, "u1", "melons", day)
	require.NoError(t, err)
	assert.Equal(t, swirdle.StateInProgress, v.State)
	assert.Equal(t, map[int]string{0: "red"}, v.Hints)
	require.Len(t, v.Guesses, 1)
	assert.Equal(t, v.LastLetters, v.Guesses[0].Letters)

	att, err := repo.LoadAttempt(ctx, "u1", w.ID)
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, []string{"MELONS"}, att.Guesses)

	st, err := repo.LoadStats(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, st, "stats only change on completion")

	v, err = svc.Guess(ctx, "u1", "MERLOT", day)
	require.NoError(t, err)
	assert.Equal(t, swirdle.StateWon, v.State)
	assert.Equal(t, "MERLOT", v.Answer)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 1, stats.GamesWon)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.InDelta(t, 2.0, stats.AverageAttempts, 1e-9)

	_, err = svc.Guess(ctx, "u1", "MERLOT", day)
	assert.ErrorIs(t, err, swirdle.ErrGameCompleted)
	stats, err = svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GamesPlayed, "rejected guess leaves stats alone")
}

func TestService_InvalidGuessNotPersisted(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	w := scheduled(t, repo)
	svc := swirdle.NewService(repo, nil)

	_, err := svc.Guess(ctx, "u1", "ROSE", day)
	assert.True(t, errors.Is(err, swirdle.ErrInvalidOperation))

	att, err := repo.LoadAttempt(ctx, "u1", w.ID)
	require.NoError(t, err)
	assert.Nil(t, att)
}

func TestService_HintCreatesAttempt(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	w := scheduled(t, repo)
	svc := swirdle.NewService(repo, nil)

	v, err := svc.Hint(ctx, "u1", 1, day)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, v.HintsUsed)
	assert.Equal(t, map[int]string{1: "bordeaux"}, v.Hints)
	assert.Equal(t, swirdle.StateNotStarted, v.State)

	att, err := repo.LoadAttempt(ctx, "u1", w.ID)
	require.NoError(t, err)
	require.NotNil(t, att)
	assert.Equal(t, []int{1}, att.HintsUsed)

	_, err = svc.Hint(ctx, "u1", 1, day)
	assert.ErrorIs(t, err, swirdle.ErrHintAlreadyUsed)
	_, err = svc.Hint(ctx, "u1", 7, day)
	assert.ErrorIs(t, err, swirdle.ErrHintOutOfRange)
}

func TestService_LossResetsStreak(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	scheduled(t, repo)
	require.NoError(t, repo.SaveStats(ctx, swirdle.Stats{UserID: "u1", CurrentStreak: 4, MaxStreak: 4, GamesPlayed: 4, GamesWon: 4, AverageAttempts: 3}))
	svc := swirdle.NewService(repo, nil)

	var v swirdle.View
	var err error
	for i := 0; i < swirdle.MaxGuesses; i++ {
		v, err = svc.Guess(ctx, "u1", "MALBEC", day)
		require.NoError(t, err)
	}
	assert.Equal(t, swirdle.StateLost, v.State)
	assert.Equal(t, 0, v.RemainingAttempts)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 4, stats.MaxStreak)
	assert.Equal(t, 5, stats.GamesPlayed)
	assert.Equal(t, 4, stats.GamesWon)
	assert.InDelta(t, 3.6, stats.AverageAttempts, 1e-9)
}

func TestService_Fallback(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	fallback := func(time.Time) (swirdle.Word, bool) {
		return swirdle.Word{ID: "ignored", Word: "rioja", Hints: []string{"spain"}}, true
	}
	svc := swirdle.NewService(repo, fallback)

	w, err := svc.WordFor(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "RIOJA", w.Word)
	assert.Equal(t, "fallback-2026-03-14", w.ID)
	assert.Equal(t, "2026-03-14", w.DateScheduled)

	_, err = swirdle.NewService(repo, nil).WordFor(ctx, day)
	assert.ErrorIs(t, err, swirdle.ErrNoWord)
}

func TestService_UsersIsolated(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	scheduled(t, repo)
	svc := swirdle.NewService(repo, nil)

	_, err := svc.Guess(ctx, "u1", "MERLOT", day)
	require.NoError(t, err)

	v, err := svc.Today(ctx, "u2", day)
	require.NoError(t, err)
	assert.Equal(t, swirdle.StateNotStarted, v.State)
}

// flakyRepo fails the next CompleteAttempt call.
type flakyRepo struct {
	swirdle.Repository
	failNext bool
}

func (f *flakyRepo) CompleteAttempt(ctx context.Context, a swirdle.Attempt, s swirdle.Stats) error {
	if f.failNext {
		f.failNext = false
		return errors.New("disk full")
	}
	return f.Repository.CompleteAttempt(ctx, a, s)
}

func TestService_CompletionFailureCanBeRetried(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{Repository: store.NewMemoryStore()}
	w := scheduled(t, repo)
	svc := swirdle.NewService(repo, nil)

	repo.failNext = true
	_, err := svc.Guess(ctx, "u1", "MERLOT", day)
	require.Error(t, err)
	assert.False(t, errors.Is(err, swirdle.ErrInvalidOperation))

	att, err := repo.LoadAttempt(ctx, "u1", w.ID)
	require.NoError(t, err)
	assert.Nil(t, att, "failed completion leaves no completed attempt behind")

	v, err := svc.Guess(ctx, "u1", "MERLOT", day)
	require.NoError(t, err)
	assert.Equal(t, swirdle.StateWon, v.State)

	stats, err := svc.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 1, stats.GamesWon)
}
