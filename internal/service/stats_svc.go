package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

type StatsService struct {
	repo  StatsStore
	cache *CacheService
}

func NewStatsService(repo StatsStore, cache *CacheService) *StatsService {
	return &StatsService{repo: repo, cache: cache}
}

// Get returns global statistics, cached for StatsCacheTTL.
func (s *StatsService) Get(ctx context.Context) (*model.StatsResponse, error) {
	if stats, ok := s.cache.GetStats(ctx); ok {
		return stats, nil
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("load stats failed")
		return nil, databaseError(err)
	}
	s.cache.SetStats(ctx, stats)
	return stats, nil
}
