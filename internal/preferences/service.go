package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
)

type Repository interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
}

type Service struct {
	repo Repository
	pick func(n int) int
}

type Option func(*Service)

// WithPicker replaces the random choice among unused quotes.
func WithPicker(pick func(n int) int) Option {
	return func(s *Service) { s.pick = pick }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, pick: rand.IntN}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Get(ctx context.Context, key Key) (string, error) {
	if !key.Valid() {
		return "", ErrUnknownKey
	}

	v, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("getting preference %s: %w", key, err)
	}

	return v, nil
}

func (s *Service) Set(ctx context.Context, key Key, value string) error {
	if !key.Valid() {
		return ErrUnknownKey
	}

	if key == KeyAccent {
		if _, err := ParseAccent(value); err != nil {
			return err
		}
	}

	if err := s.repo.Set(ctx, key, value); err != nil {
		return fmt.Errorf("setting preference %s: %w", key, err)
	}

	return nil
}

// Accent returns the saved accent, or the default when none is saved.
func (s *Service) Accent(ctx context.Context) (Accent, error) {
	v, err := s.repo.Get(ctx, KeyAccent)
	if errors.Is(err, ErrNotFound) {
		return DefaultAccent, nil
	}

	if err != nil {
		return DefaultAccent, fmt.Errorf("getting accent: %w", err)
	}

	a, err := ParseAccent(v)
	if err != nil {
		return DefaultAccent, nil
	}

	return a, nil
}

func (s *Service) SetAccent(ctx context.Context, a Accent) error {
	return s.Set(ctx, KeyAccent, string(a))
}

func (s *Service) WelcomeDismissed(ctx context.Context) (bool, error) {
	v, err := s.repo.Get(ctx, KeyWelcomeDismissed)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("getting welcome flag: %w", err)
	}

	return v == "true", nil
}

func (s *Service) DismissWelcome(ctx context.Context) error {
	return s.Set(ctx, KeyWelcomeDismissed, "true")
}

// DailyQuote returns the quote assigned to today's date, assigning one the
// first time a day is seen. A quote is not repeated until every quote has
// been shown. When the rotation state cannot be read or saved, a quote is
// chosen from the day of the month instead.
func (s *Service) DailyQuote(ctx context.Context, today time.Time) string {
	quote, err := s.rotate(ctx, datewindow.FormatDate(today))
	if err != nil {
		slog.Warn("failed to rotate daily quote", "error", err)
		return Quotes[today.Day()%len(Quotes)]
	}

	return quote
}

func (s *Service) rotate(ctx context.Context, day string) (string, error) {
	byDate := map[string]int{}
	if err := s.load(ctx, KeyQuoteByDate, &byDate); err != nil {
		return "", err
	}

	if i, ok := byDate[day]; ok && i >= 0 && i < len(Quotes) {
		return Quotes[i], nil
	}

	var history []int
	if err := s.load(ctx, KeyQuoteHistory, &history); err != nil {
		return "", err
	}

	if len(history) >= len(Quotes) {
		history = nil
	}

	candidates := make([]int, 0, len(Quotes))
	for i := range Quotes {
		if !slices.Contains(history, i) {
			candidates = append(candidates, i)
		}
	}

	pick := candidates[s.pick(len(candidates))]
	byDate[day] = pick
	history = append(history, pick)

	if err := s.save(ctx, KeyQuoteByDate, byDate); err != nil {
		return "", err
	}

	if err := s.save(ctx, KeyQuoteHistory, history); err != nil {
		return "", err
	}

	return Quotes[pick], nil
}

func (s *Service) load(ctx context.Context, key Key, dst any) error {
	raw, err := s.repo.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("getting %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}

	return nil
}

func (s *Service) save(ctx context.Context, key Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	if err := s.repo.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	return nil
}
