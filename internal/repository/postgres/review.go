package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/localmarket/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// Record stores review and applies delta to the target's reputation in one
// transaction.
func (r *ReviewRepository) Record(ctx context.Context, review *domain.Review, delta domain.Score) (domain.Score, error) {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	target, err := uuid.Parse(review.TargetID)
	if err != nil {
		return 0, domain.ErrAccountNotFound
	}
	// PostgreSQL matches UUIDs by value, so compare canonical forms.
	if reviewer, err := uuid.Parse(review.ReviewerID); err == nil && reviewer == target {
		return 0, domain.ErrSelfReviewForbidden
	}
	review.TargetID = target.String()
	tags := review.Tags
	if tags == nil {
		tags = []string{}
	}
	now := time.Now().UTC()

	var score int64
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Row lock taken by the UPDATE serializes concurrent deltas on the
		// same target; other targets proceed independently.
		err := tx.QueryRow(ctx,
			`UPDATE accounts SET reputation = reputation + $1, updated_at = $2
			 WHERE id = $3
			 RETURNING reputation`,
			int64(delta), now, review.TargetID,
		).Scan(&score)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("update reputation: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO reviews (id, reviewer_id, target_id, listing_ref, is_positive, tags, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			review.ID, review.ReviewerID, review.TargetID, review.ListingRef, review.Positive, tags, now,
		)
		if err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	review.CreatedAt = now
	return domain.Score(score), nil
}

func (r *ReviewRepository) ListByTarget(ctx context.Context, targetID string) ([]domain.Review, error) {
	if _, err := uuid.Parse(targetID); err != nil {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, reviewer_id::text, target_id::text, listing_ref, is_positive, tags, created_at
		 FROM reviews WHERE target_id = $1 ORDER BY created_at, id`, targetID)
	if err != nil {
		return nil, fmt.Errorf("query reviews by target: %w", err)
	}

	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Review, error) {
		var rv domain.Review
		err := row.Scan(&rv.ID, &rv.ReviewerID, &rv.TargetID, &rv.ListingRef, &rv.Positive, &rv.Tags, &rv.CreatedAt)
		return rv, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan reviews: %w", err)
	}
	return reviews, nil
}
