package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/repository"
)

// Storage ports. The repository package implements them on Postgres.

type TakeStore interface {
	Insert(ctx context.Context, t *model.Take) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Take, error)
	List(ctx context.Context, p repository.ListParams) ([]model.Take, error)
	HideIfVisible(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	SetVisibility(ctx context.Context, id uuid.UUID, hidden bool, reason *string) (*model.Take, error)
}

type VoteStore interface {
	FindByTakeAndFingerprint(ctx context.Context, takeID uuid.UUID, fingerprint string) (*model.Vote, error)
	Commit(ctx context.Context, v *model.Vote, now time.Time) (*model.VoteCount, error)
	VotesByFingerprint(ctx context.Context, takeIDs []uuid.UUID, fingerprint string) (map[uuid.UUID]model.VoteType, error)
	Counts(ctx context.Context, takeIDs []uuid.UUID) ([]model.VoteCount, error)
}

type ReportStore interface {
	Insert(ctx context.Context, r *model.Report) error
	CountPending(ctx context.Context, takeID uuid.UUID) (int, error)
	List(ctx context.Context, status model.ReportStatus, limit int) ([]model.ReportWithTake, error)
	ForTake(ctx context.Context, takeID uuid.UUID) ([]model.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus, reviewedBy *string, at time.Time) (*model.Report, error)
}

type CategoryStore interface {
	ListActive(ctx context.Context) ([]model.Category, error)
}

type StatsStore interface {
	Stats(ctx context.Context) (*model.StatsResponse, error)
}

type TrendingStore interface {
	RefreshTrending(ctx context.Context, now time.Time, horizon time.Duration) (int, error)
}
