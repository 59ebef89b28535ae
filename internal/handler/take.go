package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

type takeService interface {
	Create(ctx context.Context, in service.CreateTakeInput) (*model.TakeView, error)
	List(ctx context.Context, in service.ListTakesInput) (*model.TakeListResponse, error)
	Get(ctx context.Context, id string) (*model.TakeView, error)
}

type TakeHandler struct {
	svc takeService
}

func NewTakeHandler(svc takeService) *TakeHandler {
	return &TakeHandler{svc: svc}
}

// List handles GET /api/takes?sort=&category=&limit=&cursor=
func (h *TakeHandler) List(c fiber.Ctx) error {
	limit, errMsg := middleware.ParseLimit(c.Query("limit"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), errMsg)
	}

	resp, err := h.svc.List(c.Context(), service.ListTakesInput{
		Sort:     c.Query("sort"),
		Category: c.Query("category"),
		Limit:    limit,
		Cursor:   c.Query("cursor"),
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(resp)
}

// Create handles POST /api/takes
func (h *TakeHandler) Create(c fiber.Ctx) error {
	var req model.CreateTakeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), "Invalid request body")
	}

	view, err := h.svc.Create(c.Context(), service.CreateTakeInput{
		Content:           req.Content,
		Category:          req.Category,
		DeviceFingerprint: middleware.Fingerprint(c, req.DeviceFingerprint),
		IPHash:            middleware.IPHash(c),
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    view,
		"message": "Take created successfully",
	})
}

// Get handles GET /api/takes/:id
func (h *TakeHandler) Get(c fiber.Ctx) error {
	view, err := h.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(view)
}
