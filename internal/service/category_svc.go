package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

type CategoryService struct {
	repo  CategoryStore
	cache *CacheService
}

func NewCategoryService(repo CategoryStore, cache *CacheService) *CategoryService {
	return &CategoryService{repo: repo, cache: cache}
}

// List returns active categories in display order, cache first.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	if cats, ok := s.cache.GetCategories(ctx); ok {
		return cats, nil
	}

	cats, err := s.repo.ListActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list categories failed")
		return nil, databaseError(err)
	}
	s.cache.SetCategories(ctx, cats)
	return cats, nil
}

// IsActive reports whether slug names an active category.
func (s *CategoryService) IsActive(ctx context.Context, slug string) (bool, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range cats {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}
