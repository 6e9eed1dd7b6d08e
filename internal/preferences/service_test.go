package preferences_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/preferences"
)

type memRepo struct {
	values map[preferences.Key]string
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{values: map[preferences.Key]string{}}
}

func (m *memRepo) Get(_ context.Context, key preferences.Key) (string, error) {
	if m.err != nil {
		return "", m.err
	}

	v, ok := m.values[key]
	if !ok {
		return "", preferences.ErrNotFound
	}

	return v, nil
}

func (m *memRepo) Set(_ context.Context, key preferences.Key, value string) error {
	if m.err != nil {
		return m.err
	}

	m.values[key] = value

	return nil
}

func first(int) int { return 0 }

func day(d int) time.Time {
	return time.Date(2024, 3, d, 9, 0, 0, 0, time.UTC)
}

func TestService_DailyQuote(t *testing.T) {
	ctx := context.Background()

	t.Run("StableWithinDay", func(t *testing.T) {
		svc := preferences.NewService(newMemRepo())

		q := svc.DailyQuote(ctx, day(1))
		assert.Contains(t, preferences.Quotes, q)
		assert.Equal(t, q, svc.DailyQuote(ctx, day(1)))
	})

	t.Run("NoRepeatUntilExhausted", func(t *testing.T) {
		repo := newMemRepo()
		svc := preferences.NewService(repo, preferences.WithPicker(first))

		seen := map[string]bool{}
		for d := 1; d <= len(preferences.Quotes); d++ {
			q := svc.DailyQuote(ctx, day(d))
			assert.False(t, seen[q], "quote repeated on day %d", d)
			seen[q] = true
		}

		assert.Len(t, seen, len(preferences.Quotes))

		// History is full, so the next day starts over.
		assert.Equal(t, preferences.Quotes[0], svc.DailyQuote(ctx, day(len(preferences.Quotes)+1)))

		var history []int
		require.NoError(t, json.Unmarshal([]byte(repo.values[preferences.KeyQuoteHistory]), &history))
		assert.Equal(t, []int{0}, history)
	})

	t.Run("StoreFailureFallsBack", func(t *testing.T) {
		repo := newMemRepo()
		repo.err = errors.New("db down")

		svc := preferences.NewService(repo)
		assert.Equal(t, preferences.Quotes[7%len(preferences.Quotes)], svc.DailyQuote(ctx, day(7)))
	})
}

func TestService_Accent(t *testing.T) {
	ctx := context.Background()
	svc := preferences.NewService(newMemRepo())

	a, err := svc.Accent(ctx)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultAccent, a)

	require.NoError(t, svc.SetAccent(ctx, preferences.AccentPurple))

	a, err = svc.Accent(ctx)
	require.NoError(t, err)
	assert.Equal(t, preferences.AccentPurple, a)

	assert.ErrorIs(t, svc.SetAccent(ctx, "orange"), preferences.ErrInvalidAccent)
}

func TestService_Welcome(t *testing.T) {
	ctx := context.Background()
	svc := preferences.NewService(newMemRepo())

	dismissed, err := svc.WelcomeDismissed(ctx)
	require.NoError(t, err)
	assert.False(t, dismissed)

	require.NoError(t, svc.DismissWelcome(ctx))

	dismissed, err = svc.WelcomeDismissed(ctx)
	require.NoError(t, err)
	assert.True(t, dismissed)
}

func TestService_GetSet(t *testing.T) {
	ctx := context.Background()
	svc := preferences.NewService(newMemRepo())

	_, err := svc.Get(ctx, "theme")
	assert.ErrorIs(t, err, preferences.ErrUnknownKey)

	_, err = svc.Get(ctx, preferences.KeyAccent)
	assert.ErrorIs(t, err, preferences.ErrNotFound)

	require.NoError(t, svc.Set(ctx, preferences.KeyAccent, "green"))

	v, err := svc.Get(ctx, preferences.KeyAccent)
	require.NoError(t, err)
	assert.Equal(t, "green", v)
}
