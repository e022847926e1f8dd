package domain

import (
	"context"
	"time"
)

// Review is one account's feedback about another, left after a trade.
// Reviews are append-only and never edited.
type Review struct {
	ID         string
	ReviewerID string
	TargetID   string
	ListingRef string // opaque; not checked against listing state
	Positive   bool
	Tags       []string
	CreatedAt  time.Time
}

// TagCounts maps a feedback tag to the number of times it was given.
type TagCounts map[string]int

// Add counts one occurrence of tag.
func (c TagCounts) Add(tag string) {
	c[tag]++
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Record stores the review and applies delta to the target's reputation
	// in a single transaction, returning the committed score. If the target
	// does not exist nothing is written and ErrAccountNotFound is returned.
	Record(ctx context.Context, review *Review, delta Score) (Score, error)
	ListByTarget(ctx context.Context, targetID string) ([]Review, error)
}
