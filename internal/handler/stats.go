package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

type statsService interface {
	Get(ctx context.Context) (*model.StatsResponse, error)
}

type StatsHandler struct {
	svc statsService
}

func NewStatsHandler(svc statsService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.svc.Get(c.Context())
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(stats)
}
