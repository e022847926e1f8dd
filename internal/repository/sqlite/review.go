package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/localmarket/internal/domain"
)

// ReviewRepository implements domain.ReviewRepository using SQLite.
type ReviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new SQLite-backed ReviewRepository.
func NewReviewRepository(db *DB) *ReviewRepository {
	return &ReviewRepository{db: db.SqlDB}
}

func (r *ReviewRepository) Record(ctx context.Context, review *domain.Review, delta domain.Score) (domain.Score, error) {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	tags := review.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return 0, fmt.Errorf("encode tags: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	// The increment happens inside the UPDATE, so the read and the write of
	// the score are one statement and no concurrent delta can be lost.
	var score int64
	err = tx.QueryRowContext(ctx,
		`UPDATE accounts SET reputation = reputation + ?, updated_at = ?
		 WHERE id = ?
		 RETURNING reputation`,
		int64(delta), now, review.TargetID,
	).Scan(&score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("update reputation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, reviewer_id, target_id, listing_ref, is_positive, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.ReviewerID, review.TargetID, review.ListingRef, review.Positive, string(encoded), now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit review: %w", err)
	}

	review.CreatedAt = now
	return domain.Score(score), nil
}

func (r *ReviewRepository) ListByTarget(ctx context.Context, targetID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reviewer_id, target_id, listing_ref, is_positive, tags, created_at
		 FROM reviews WHERE target_id = ? ORDER BY created_at, id`, targetID)
	if err != nil {
		return nil, fmt.Errorf("query reviews by target: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		var tags string
		if err := rows.Scan(&rv.ID, &rv.ReviewerID, &rv.TargetID, &rv.ListingRef, &rv.Positive, &tags, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &rv.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for review %s: %w", rv.ID, err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
