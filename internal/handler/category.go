package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

type categoryService interface {
	List(ctx context.Context) ([]model.Category, error)
}

type CategoryHandler struct {
	svc categoryService
}

func NewCategoryHandler(svc categoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// List handles GET /api/categories
func (h *CategoryHandler) List(c fiber.Ctx) error {
	cats, err := h.svc.List(c.Context())
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(fiber.Map{"categories": cats})
}
