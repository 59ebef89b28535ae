package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

type reportService interface {
	Create(ctx context.Context, in service.CreateReportInput) (*model.Report, error)
}

type ReportHandler struct {
	svc reportService
}

func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Submit handles POST /api/reports
func (h *ReportHandler) Submit(c fiber.Ctx) error {
	var req model.ReportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), "Invalid request body")
	}

	report, err := h.svc.Create(c.Context(), service.CreateReportInput{
		TakeID:            req.TakeID,
		Reason:            req.Reason,
		AdditionalInfo:    req.AdditionalInfo,
		DeviceFingerprint: middleware.Fingerprint(c, req.DeviceFingerprint),
		IPHash:            middleware.IPHash(c),
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    report,
		"message": "Report submitted. Thank you for helping keep the arena civil.",
	})
}
