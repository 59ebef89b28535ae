package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

type voteService interface {
	Create(ctx context.Context, in service.CreateVoteInput) (*model.VoteResponse, error)
	CheckUserVotes(ctx context.Context, in service.CheckVotesInput) (map[string]model.VoteType, error)
	Counts(ctx context.Context, takeIDs []string) ([]model.VoteCount, error)
}

type VoteHandler struct {
	svc voteService
}

func NewVoteHandler(svc voteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Submit handles POST /api/votes
func (h *VoteHandler) Submit(c fiber.Ctx) error {
	var req model.VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), "Invalid request body")
	}

	resp, err := h.svc.Create(c.Context(), service.CreateVoteInput{
		TakeID:            req.TakeID,
		VoteType:          req.VoteType,
		DeviceFingerprint: middleware.Fingerprint(c, req.DeviceFingerprint),
		IPHash:            middleware.IPHash(c),
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data":    resp,
		"message": "Vote recorded",
	})
}

// Check handles POST /api/votes/check
func (h *VoteHandler) Check(c fiber.Ctx) error {
	var req model.CheckVotesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), "Invalid request body")
	}

	votes, err := h.svc.CheckUserVotes(c.Context(), service.CheckVotesInput{
		TakeIDs:           req.TakeIDs,
		DeviceFingerprint: middleware.Fingerprint(c, req.DeviceFingerprint),
	})
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(model.CheckVotesResponse{Votes: votes})
}

// Counts handles GET /api/votes/counts?takeIds=a,b,c
func (h *VoteHandler) Counts(c fiber.Ctx) error {
	ids, errMsg := middleware.ParseIDList(c.Query("takeIds"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, string(service.CodeValidation), errMsg)
	}

	counts, err := h.svc.Counts(c.Context(), ids)
	if err != nil {
		return middleware.HandleError(c, err)
	}
	return c.JSON(fiber.Map{"counts": counts})
}
