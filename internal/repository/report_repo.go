package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

const reportColumns = `r.id, r.take_id, r.reason, r.additional_info, r.status,
	r.device_fingerprint, r.ip_hash, r.created_at, r.reviewed_by, r.reviewed_at`

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Insert stores a pending report. A report on an unknown take returns ErrNotFound.
func (r *ReportRepo) Insert(ctx context.Context, rep *model.Report) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reports (take_id, reason, additional_info, device_fingerprint, ip_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at`,
		rep.TakeID, rep.Reason, rep.AdditionalInfo, rep.DeviceFingerprint, rep.IPHash,
	).Scan(&rep.ID, &rep.Status, &rep.CreatedAt)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// CountPending returns the number of pending reports against a take.
func (r *ReportRepo) CountPending(ctx context.Context, takeID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM reports WHERE take_id = $1 AND status = 'pending'`,
		takeID).Scan(&n)
	return n, err
}

// List returns reports newest first, joined with their take. An empty status
// matches every status.
func (r *ReportRepo) List(ctx context.Context, status model.ReportStatus, limit int) ([]model.ReportWithTake, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`, t.content, t.category, t.created_at, t.is_hidden
		FROM reports r
		JOIN takes t ON t.id = r.take_id
		WHERE ($1 = '' OR r.status = $1)
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]model.ReportWithTake, 0)
	for rows.Next() {
		var rw model.ReportWithTake
		err := rows.Scan(
			&rw.ID, &rw.TakeID, &rw.Reason, &rw.AdditionalInfo, &rw.Status,
			&rw.DeviceFingerprint, &rw.IPHash, &rw.CreatedAt, &rw.ReviewedBy, &rw.ReviewedAt,
			&rw.TakeContent, &rw.TakeCategory, &rw.TakeCreatedAt, &rw.TakeIsHidden,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rw)
	}
	return reports, rows.Err()
}

// ForTake returns every report filed against one take, newest first.
func (r *ReportRepo) ForTake(ctx context.Context, takeID uuid.UUID) ([]model.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports r
		WHERE r.take_id = $1
		ORDER BY r.created_at DESC, r.id DESC`, takeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]model.Report, 0)
	for rows.Next() {
		var rep model.Report
		err := rows.Scan(
			&rep.ID, &rep.TakeID, &rep.Reason, &rep.AdditionalInfo, &rep.Status,
			&rep.DeviceFingerprint, &rep.IPHash, &rep.CreatedAt, &rep.ReviewedBy, &rep.ReviewedAt,
		)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// UpdateStatus records a moderator's decision on a report.
func (r *ReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReportStatus, reviewedBy *string, at time.Time) (*model.Report, error) {
	var rep model.Report
	err := r.pool.QueryRow(ctx, `
		UPDATE reports r SET status = $2, reviewed_by = $3, reviewed_at = $4
		WHERE r.id = $1
		RETURNING `+reportColumns,
		id, status, reviewedBy, at,
	).Scan(
		&rep.ID, &rep.TakeID, &rep.Reason, &rep.AdditionalInfo, &rep.Status,
		&rep.DeviceFingerprint, &rep.IPHash, &rep.CreatedAt, &rep.ReviewedBy, &rep.ReviewedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &rep, nil
}
