package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

type adminService interface {
	Login(ctx context.Context, in service.LoginInput) (*service.Session, error)
	VerifyToken(token string) error
	ListReports(ctx context.Context, status string, limit int) ([]model.ReportWithTake, error)
	ReportsForTake(ctx context.Context, takeID string) ([]model.Report, error)
	UpdateReport(ctx context.Context, in service.UpdateReportInput) (*model.Report, error)
	SetVisibility(ctx context.Context, in service.VisibilityInput) (*model.Take, error)
}

type loginRequest struct {
	Password string `json:"password"`
}

type AdminHandler struct {
	svc          adminService
	secureCookie bool
}

// NewAdminHandler sets the Secure flag on the session cookie when
// secureCookie is true (production).
func NewAdminHandler(svc adminService, secureCookie bool) *AdminHandler {
	return &AdminHandler{svc: svc, secureCookie: secureCookie}
}

// Verifier exposes the token check for middleware.RequireAdmin.
func (h *AdminHandler) Verifier() middleware.TokenVerifier {
	return h.svc
}

// Login handles POST /api/admin/auth
func (h *AdminHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), "Invalid request body")
	}

	sess, err := h.svc.Login(c.Context(), service.LoginInput{
		Password:          req.Password,
		DeviceFingerprint: middleware.Fingerprint(c, ""),
		IPHash:            middleware.IPHash(c),
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AdminCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return c.JSON(fiber.Map{"success": true, "expiresAt": sess.ExpiresAt})
}

// Logout handles DELETE /api/admin/auth
func (h *AdminHandler) Logout(c fiber.Ctx) error {
	c.ClearCookie(middleware.AdminCookie)
	return c.JSON(fiber.Map{"success": true})
}

// ListReports handles GET /api/admin/reports?status=&limit=
func (h *AdminHandler) ListReports(c fiber.Ctx) error {
	limit, errMsg := middleware.ParseLimit(c.Query("limit"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), errMsg)
	}

	reports, err := h.svc.ListReports(c.Context(), c.Query("status"), limit)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

// TakeReports handles GET /api/admin/takes/:id/reports
func (h *AdminHandler) TakeReports(c fiber.Ctx) error {
	reports, err := h.svc.ReportsForTake(c.Context(), c.Params("id"))
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}

// UpdateReport handles PATCH /api/admin/reports/:id
func (h *AdminHandler) UpdateReport(c fiber.Ctx) error {
	var req model.UpdateReportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), "Invalid request body")
	}

	report, err := h.svc.UpdateReport(c.Context(), service.UpdateReportInput{
		ID:         c.Params("id"),
		Status:     req.Status,
		ReviewedBy: req.ReviewedBy,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(report)
}

// SetVisibility handles PUT /api/admin/takes/:id/visibility
func (h *AdminHandler) SetVisibility(c fiber.Ctx) error {
	var req model.VisibilityRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), "Invalid request body")
	}

	take, err := h.svc.SetVisibility(c.Context(), service.VisibilityInput{
		TakeID: c.Params("id"),
		Hidden: req.Hidden,
		Reason: req.Reason,
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(take)
}
