package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/score"
)

const takeColumns = `id, content, category, agree_count, disagree_count, total_votes,
	controversy_score, trending_score, is_hidden, hidden_reason,
	device_fingerprint, ip_hash, created_at, updated_at`

// sortExprs must rank rows exactly like model.Take.SortKey.
var sortExprs = map[model.SortOrder]string{
	model.SortControversial: "COALESCE(controversy_score, -1)",
	model.SortFresh:         "0::float8",
	model.SortTrending:      "trending_score",
	model.SortTopAgreed:     "agree_count::float8",
	model.SortTopDisagreed:  "disagree_count::float8",
}

const trendingBatchSize = 500

type TakeRepo struct {
	pool *pgxpool.Pool
}

func NewTakeRepo(pool *pgxpool.Pool) *TakeRepo {
	return &TakeRepo{pool: pool}
}

// ListParams selects a page of visible takes.
type ListParams struct {
	Sort     model.SortOrder
	Category string
	Limit    int
	After    *Cursor
}

func scanTake(row pgx.Row) (*model.Take, error) {
	var t model.Take
	err := row.Scan(
		&t.ID, &t.Content, &t.Category, &t.AgreeCount, &t.DisagreeCount, &t.TotalVotes,
		&t.ControversyScore, &t.TrendingScore, &t.IsHidden, &t.HiddenReason,
		&t.DeviceFingerprint, &t.IPHash, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Insert stores a new take with zeroed counters and fills in its generated fields.
func (r *TakeRepo) Insert(ctx context.Context, t *model.Take) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO takes (content, category, device_fingerprint, ip_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, agree_count, disagree_count, total_votes, controversy_score,
		          trending_score, is_hidden, created_at, updated_at`,
		t.Content, t.Category, t.DeviceFingerprint, t.IPHash,
	).Scan(
		&t.ID, &t.AgreeCount, &t.DisagreeCount, &t.TotalVotes, &t.ControversyScore,
		&t.TrendingScore, &t.IsHidden, &t.CreatedAt, &t.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrUnknownCategory
	}
	return err
}

// FindByID returns a take whether hidden or not.
func (r *TakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Take, error) {
	t, err := scanTake(r.pool.QueryRow(ctx,
		`SELECT `+takeColumns+` FROM takes WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// List returns up to p.Limit visible takes in descending sort order, starting
// strictly after p.After when set. Ties break on created_at then id.
func (r *TakeRepo) List(ctx context.Context, p ListParams) ([]model.Take, error) {
	expr, ok := sortExprs[p.Sort]
	if !ok {
		return nil, fmt.Errorf("unknown sort order %q", p.Sort)
	}

	var (
		where = []string{"is_hidden = false"}
		args  []any
	)
	if p.Category != "" {
		args = append(args, p.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if p.After != nil {
		args = append(args, p.After.Key, p.After.CreatedAt, p.After.ID)
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(%s, created_at, id) < ($%d::float8, $%d::timestamptz, $%d::uuid)", expr, n-2, n-1, n))
	}
	args = append(args, p.Limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM takes
		WHERE %s
		ORDER BY %s DESC, created_at DESC, id DESC
		LIMIT $%d`,
		takeColumns, strings.Join(where, " AND "), expr, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	takes := make([]model.Take, 0, p.Limit)
	for rows.Next() {
		t, err := scanTake(rows)
		if err != nil {
			return nil, err
		}
		takes = append(takes, *t)
	}
	return takes, rows.Err()
}

// HideIfVisible hides a take unless it is already hidden. It reports whether
// the row changed, so repeated escalations are no-ops.
func (r *TakeRepo) HideIfVisible(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE takes SET is_hidden = true, hidden_reason = $2, updated_at = NOW()
		WHERE id = $1 AND is_hidden = false`, id, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetVisibility is the manual moderation switch. Unhiding clears the reason.
func (r *TakeRepo) SetVisibility(ctx context.Context, id uuid.UUID, hidden bool, reason *string) (*model.Take, error) {
	if !hidden {
		reason = nil
	}
	t, err := scanTake(r.pool.QueryRow(ctx, `
		UPDATE takes SET is_hidden = $2, hidden_reason = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+takeColumns, id, hidden, reason))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// RefreshTrending recomputes trending_score for visible takes created inside
// the horizon and zeroes it for everything older. Returns the rows rescored.
func (r *TakeRepo) RefreshTrending(ctx context.Context, now time.Time, horizon time.Duration) (int, error) {
	since := now.Add(-horizon)

	rows, err := r.pool.Query(ctx, `
		SELECT id, total_votes, created_at
		FROM takes
		WHERE is_hidden = false AND created_at >= $1`, since)
	if err != nil {
		return 0, err
	}

	type candidate struct {
		id        uuid.UUID
		total     int
		createdAt time.Time
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.total, &c.createdAt); err != nil {
			rows.Close()
			return 0, err
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for start := 0; start < len(candidates); start += trendingBatchSize {
		end := min(start+trendingBatchSize, len(candidates))

		batch := &pgx.Batch{}
		for _, c := range candidates[start:end] {
			batch.Queue(`UPDATE takes SET trending_score = $2 WHERE id = $1`,
				c.id, score.Trending(c.total, c.createdAt, now))
		}
		if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
			return start, err
		}
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE takes SET trending_score = 0
		WHERE created_at < $1 AND trending_score <> 0`, since)
	if err != nil {
		return len(candidates), err
	}
	return len(candidates), nil
}

// Stats returns aggregate statistics across takes, votes and reports.
func (r *TakeRepo) Stats(ctx context.Context) (*model.StatsResponse, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM takes) AS total_takes,
			(SELECT COUNT(*) FROM takes WHERE is_hidden = false) AS visible_takes,
			(SELECT COUNT(*) FROM takes WHERE is_hidden = true) AS hidden_takes,
			(SELECT COUNT(*) FROM takes
			  WHERE is_hidden = false AND total_votes >= $1 AND controversy_score >= $2) AS controversial_takes,
			(SELECT COUNT(*) FROM votes) AS total_votes,
			(SELECT COUNT(*) FROM reports WHERE status = 'pending') AS pending_reports,
			(SELECT COUNT(*) FROM takes WHERE created_at > NOW() - INTERVAL '24 hours') AS takes_24h`

	var stats model.StatsResponse
	err := r.pool.QueryRow(ctx, query, score.MinimumVotes, score.ControversialThreshold).Scan(
		&stats.TotalTakes, &stats.VisibleTakes, &stats.HiddenTakes, &stats.ControversialTakes,
		&stats.TotalVotes, &stats.PendingReports, &stats.TakesLast24h,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT category, COUNT(*) AS total
		FROM takes
		WHERE is_hidden = false
		GROUP BY category
		ORDER BY total DESC, category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.TopCategories = []model.CategoryCount{}
	for rows.Next() {
		var cc model.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		stats.TopCategories = append(stats.TopCategories, cc)
	}
	return &stats, rows.Err()
}
