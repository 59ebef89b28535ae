package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
	"github.com/akshadjaiswal/hot-takes-arena/internal/score"
)

type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// FindByTakeAndFingerprint returns the vote a device cast on a take, or ErrNotFound.
func (r *VoteRepo) FindByTakeAndFingerprint(ctx context.Context, takeID uuid.UUID, fingerprint string) (*model.Vote, error) {
	var v model.Vote
	err := r.pool.QueryRow(ctx, `
		SELECT id, take_id, vote_type, device_fingerprint, ip_hash, created_at
		FROM votes
		WHERE take_id = $1 AND device_fingerprint = $2`,
		takeID, fingerprint,
	).Scan(&v.ID, &v.TakeID, &v.VoteType, &v.DeviceFingerprint, &v.IPHash, &v.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// Commit records a vote and updates the take's tallies in one transaction.
// The take row is locked first so the counters and the scores derived from
// them are written together. The unique (take_id, device_fingerprint)
// constraint decides duplicates, even between two racing requests.
func (r *VoteRepo) Commit(ctx context.Context, v *model.Vote, now time.Time) (*model.VoteCount, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var hidden bool
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		SELECT is_hidden, created_at FROM takes WHERE id = $1 FOR UPDATE`,
		v.TakeID).Scan(&hidden, &createdAt)
	if err != nil {
		return nil, notFound(err)
	}
	if hidden {
		return nil, ErrTakeHidden
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO votes (take_id, vote_type, device_fingerprint, ip_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (take_id, device_fingerprint) DO NOTHING
		RETURNING id, created_at`,
		v.TakeID, v.VoteType, v.DeviceFingerprint, v.IPHash,
	).Scan(&v.ID, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDuplicateVote
	}
	if err != nil {
		return nil, err
	}

	agreeDelta, disagreeDelta := 0, 0
	if v.VoteType == model.VoteAgree {
		agreeDelta = 1
	} else {
		disagreeDelta = 1
	}

	counts := model.VoteCount{TakeID: v.TakeID}
	err = tx.QueryRow(ctx, `
		UPDATE takes
		SET agree_count = agree_count + $2,
		    disagree_count = disagree_count + $3,
		    total_votes = total_votes + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING agree_count, disagree_count, total_votes`,
		v.TakeID, agreeDelta, disagreeDelta,
	).Scan(&counts.AgreeCount, &counts.DisagreeCount, &counts.TotalVotes)
	if err != nil {
		return nil, err
	}

	counts.ControversyScore = score.Controversy(counts.AgreeCount, counts.DisagreeCount)
	counts.AgreePercentage, counts.DisagreePercentage = score.Percentages(counts.AgreeCount, counts.DisagreeCount)

	_, err = tx.Exec(ctx, `
		UPDATE takes SET controversy_score = $2, trending_score = $3 WHERE id = $1`,
		v.TakeID, counts.ControversyScore, score.Trending(counts.TotalVotes, createdAt, now))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &counts, nil
}

// VotesByFingerprint returns the device's vote for each of the given takes it voted on.
func (r *VoteRepo) VotesByFingerprint(ctx context.Context, takeIDs []uuid.UUID, fingerprint string) (map[uuid.UUID]model.VoteType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT take_id, vote_type
		FROM votes
		WHERE device_fingerprint = $1 AND take_id = ANY($2)`,
		fingerprint, takeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := make(map[uuid.UUID]model.VoteType)
	for rows.Next() {
		var id uuid.UUID
		var vt model.VoteType
		if err := rows.Scan(&id, &vt); err != nil {
			return nil, err
		}
		votes[id] = vt
	}
	return votes, rows.Err()
}

// Counts returns the tallies of the given takes. Unknown ids are skipped.
func (r *VoteRepo) Counts(ctx context.Context, takeIDs []uuid.UUID) ([]model.VoteCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, agree_count, disagree_count, total_votes
		FROM takes
		WHERE id = ANY($1)`, takeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []model.VoteCount
	for rows.Next() {
		var c model.VoteCount
		if err := rows.Scan(&c.TakeID, &c.AgreeCount, &c.DisagreeCount, &c.TotalVotes); err != nil {
			return nil, err
		}
		c.ControversyScore = score.Controversy(c.AgreeCount, c.DisagreeCount)
		c.AgreePercentage, c.DisagreePercentage = score.Percentages(c.AgreeCount, c.DisagreeCount)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
