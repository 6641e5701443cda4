package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/cache"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/repository"
)

type QuoteService struct {
	repo  repository.QuoteRepository
	cache *cache.Redis
	now   func() time.Time
}

// NewQuoteService creates the quote service. redis may be nil.
func NewQuoteService(repo repository.QuoteRepository, redis *cache.Redis) *QuoteService {
	return &QuoteService{repo: repo, cache: redis, now: time.Now}
}

func (s *QuoteService) List(category string) ([]*model.Quote, error) {
	quotes, err := s.repo.Quotes(category)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

func (s *QuoteService) Random(category string) (*model.Quote, error) {
	count, err := s.repo.Count(category)
	if err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}
	if count == 0 {
		return nil, repository.ErrQuoteNotFound
	}
	return s.repo.At(category, rand.IntN(count))
}

// Daily returns the same quote for the whole UTC day: the quote at
// (days since epoch mod count) in id order.
func (s *QuoteService) Daily(ctx context.Context) (*model.Quote, error) {
	now := s.now().UTC()
	key := dailyQuoteKey(now)

	if s.cache != nil {
		var cached model.Quote
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			slog.Warn("daily quote cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	count, err := s.repo.Count("")
	if err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}
	if count == 0 {
		return nil, repository.ErrQuoteNotFound
	}

	index := int((now.Unix() / 86400) % int64(count))
	quote, err := s.repo.At("", index)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		midnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		if err := s.cache.SetJSON(ctx, key, quote, midnight.Sub(now)); err != nil {
			slog.Warn("daily quote cache write failed", "error", err)
		}
	}

	return quote, nil
}

// ResetDaily drops today's cached quote so the next Daily reads the catalog.
func (s *QuoteService) ResetDaily(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, dailyQuoteKey(s.now().UTC())); err != nil {
		return fmt.Errorf("failed to reset daily quote: %w", err)
	}
	return nil
}

func dailyQuoteKey(day time.Time) string {
	return "quote:daily:" + day.Format(model.DayLayout)
}
