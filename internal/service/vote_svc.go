package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/metrics"
	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/ratelimit"
	"github.com/akshadjaiswal/hot-takes-arena/internal/repository"
)

type CreateVoteInput struct {
	TakeID            string `json:"takeId" validate:"required,uuid"`
	VoteType          string `json:"voteType" validate:"required,oneof=agree disagree"`
	DeviceFingerprint string `json:"deviceFingerprint" validate:"required,fingerprint"`
	IPHash            string `json:"ipHash" validate:"required,iphash"`
}

type CheckVotesInput struct {
	TakeIDs           []string `json:"takeIds" validate:"required,min=1,max=100,dive,uuid"`
	DeviceFingerprint string   `json:"deviceFingerprint" validate:"required,fingerprint"`
}

type VoteService struct {
	votes     VoteStore
	admission *Admission
	cache     *CacheService
	now       func() time.Time
}

func NewVoteService(votes VoteStore, admission *Admission, cache *CacheService) *VoteService {
	return &VoteService{votes: votes, admission: admission, cache: cache, now: time.Now}
}

// Create admits a vote: validate, rate limit, duplicate check, commit. A
// device gets one vote per take; a second attempt is DUPLICATE_VOTE and is
// never retryable.
func (s *VoteService) Create(ctx context.Context, in CreateVoteInput) (*model.VoteResponse, error) {
	if err := validateInput(in); err != nil {
		return nil, rejected(ratelimit.ActionVote, err)
	}
	takeID := uuid.MustParse(in.TakeID)

	if err := s.admission.Check(ctx, ratelimit.ActionVote, in.DeviceFingerprint, in.IPHash); err != nil {
		return nil, rejected(ratelimit.ActionVote, err)
	}

	_, err := s.votes.FindByTakeAndFingerprint(ctx, takeID, in.DeviceFingerprint)
	switch {
	case err == nil:
		return nil, rejected(ratelimit.ActionVote, duplicateVoteError())
	case !errors.Is(err, repository.ErrNotFound):
		log.Error().Err(err).Str("take_id", takeID.String()).Msg("duplicate vote check failed")
		return nil, rejected(ratelimit.ActionVote, databaseError(err))
	}

	vote := &model.Vote{
		TakeID:            takeID,
		VoteType:          model.VoteType(in.VoteType),
		DeviceFingerprint: in.DeviceFingerprint,
		IPHash:            in.IPHash,
	}
	counts, err := s.votes.Commit(ctx, vote, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateVote):
			err = duplicateVoteError()
		case errors.Is(err, repository.ErrNotFound):
			err = notFoundError("Take")
		case errors.Is(err, repository.ErrTakeHidden):
			err = &Error{Code: CodeContentHidden, Message: "This take has been hidden by moderators"}
		default:
			log.Error().Err(err).Str("take_id", takeID.String()).Msg("commit vote failed")
			err = databaseError(err)
		}
		return nil, rejected(ratelimit.ActionVote, err)
	}

	metrics.VotesTotal.WithLabelValues(in.VoteType).Inc()
	s.cache.InvalidateTake(ctx, takeID)

	return &model.VoteResponse{Vote: *vote, Counts: *counts}, nil
}

// CheckUserVotes returns the caller's vote for each listed take it has voted on.
func (s *VoteService) CheckUserVotes(ctx context.Context, in CheckVotesInput) (map[string]model.VoteType, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	ids := parseIDs(in.TakeIDs)
	votes, err := s.votes.VotesByFingerprint(ctx, ids, in.DeviceFingerprint)
	if err != nil {
		log.Error().Err(err).Int("take_count", len(ids)).Msg("check user votes failed")
		return nil, databaseError(err)
	}

	out := make(map[string]model.VoteType, len(votes))
	for id, vt := range votes {
		out[id.String()] = vt
	}
	return out, nil
}

// Counts returns tallies for the given takes.
func (s *VoteService) Counts(ctx context.Context, rawIDs []string) ([]model.VoteCount, error) {
	in := struct {
		TakeIDs []string `json:"takeIds" validate:"required,min=1,max=100,dive,uuid"`
	}{rawIDs}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	counts, err := s.votes.Counts(ctx, parseIDs(rawIDs))
	if err != nil {
		log.Error().Err(err).Msg("vote counts failed")
		return nil, databaseError(err)
	}
	if counts == nil {
		counts = []model.VoteCount{}
	}
	return counts, nil
}

func duplicateVoteError() *Error {
	return &Error{Code: CodeDuplicateVote, Message: "You have already voted on this take"}
}

// parseIDs converts validated UUID strings, dropping repeats.
func parseIDs(raw []string) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id := uuid.MustParse(r)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
