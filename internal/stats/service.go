package stats

import (
	"context"

	"github.com/bhagyaj/Markr/internal/db"
	"github.com/bhagyaj/Markr/internal/logger"
	"github.com/bhagyaj/Markr/internal/metrics"
	"github.com/bhagyaj/Markr/internal/model"
	"github.com/bhagyaj/Markr/pkg/errors"

	"github.com/rs/zerolog"
)

// Cache stores computed statistics per test id. A miss is (nil, nil).
type Cache interface {
	GetStatistics(ctx context.Context, testID string) (*model.Statistics, error)
	SetStatistics(ctx context.Context, testID string, stats *model.Statistics) error
	InvalidateTests(ctx context.Context, testIDs []string) error
}

// Service answers aggregate queries from the store, with an optional
// cache in front.
type Service struct {
	repo  db.Repository
	cache Cache
	log   zerolog.Logger
}

func NewService(repo db.Repository, cache Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   logger.For("stats"),
	}
}

// Aggregate returns the statistics for a test, or ErrTestNotFound when
// no records exist for it. A test with records but zero variance is a
// normal result, never not-found.
func (s *Service) Aggregate(ctx context.Context, testID string) (*model.Statistics, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStatistics(ctx, testID)
		if err != nil {
			s.log.Warn().Err(err).Str("test_id", testID).Msg("Statistics cache read failed")
		} else if cached != nil {
			metrics.StatsCacheTotal.WithLabelValues(metrics.CacheHit).Inc()
			return cached, nil
		}
		metrics.StatsCacheTotal.WithLabelValues(metrics.CacheMiss).Inc()
	}

	results, err := s.repo.ListByTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.ErrTestNotFound
	}

	if values := distinctAvailable(results); len(values) > 1 {
		s.log.Warn().
			Str("test_id", testID).
			Ints("available_marks", values).
			Msg("Records for test disagree on available marks; using the most recently scanned value")
	}

	statistics, err := Aggregate(results)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetStatistics(ctx, testID, statistics); err != nil {
			s.log.Warn().Err(err).Str("test_id", testID).Msg("Statistics cache write failed")
		}
	}

	return statistics, nil
}

// Invalidate drops cached statistics for the given tests. Called after
// an accepted batch touches them.
func (s *Service) Invalidate(ctx context.Context, testIDs []string) {
	if s.cache == nil || len(testIDs) == 0 {
		return
	}
	if err := s.cache.InvalidateTests(ctx, testIDs); err != nil {
		s.log.Warn().Err(err).Strs("test_ids", testIDs).Msg("Statistics cache invalidation failed")
	}
}
