package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/msomdec/localmarket/internal/domain"
)

// maxTagLength bounds a single feedback tag.
const maxTagLength = 64

// ReputationService records peer reviews and reports reputation.
type ReputationService struct {
	accounts domain.AccountRepository
	reviews  domain.ReviewRepository
	feed     *ScoreFeed
}

// NewReputationService creates a new ReputationService. feed may be nil.
func NewReputationService(accounts domain.AccountRepository, reviews domain.ReviewRepository, feed *ScoreFeed) *ReputationService {
	return &ReputationService{accounts: accounts, reviews: reviews, feed: feed}
}

// ReviewInput is a review submission from an authenticated reviewer.
type ReviewInput struct {
	ReviewerID string
	TargetID   string
	Positive   bool
	Tags       []string
	ListingRef string
}

// Reputation is an account's current score with its positive tag counts.
type Reputation struct {
	AccountID    string
	DisplayName  string
	Score        domain.Score
	PositiveTags domain.TagCounts
}

// SubmitReview appends a review and moves the target's score by one tenth in
// the direction of the review. Both happen in one transaction in the store.
func (s *ReputationService) SubmitReview(ctx context.Context, in ReviewInput) (*domain.Review, domain.Score, error) {
	if sameAccount(in.ReviewerID, in.TargetID) {
		return nil, 0, domain.ErrSelfReviewForbidden
	}
	if in.TargetID == "" {
		return nil, 0, domain.ErrAccountNotFound
	}

	tags, err := cleanTags(in.Tags)
	if err != nil {
		return nil, 0, err
	}

	review := &domain.Review{
		ReviewerID: in.ReviewerID,
		TargetID:   in.TargetID,
		ListingRef: strings.TrimSpace(in.ListingRef),
		Positive:   in.Positive,
		Tags:       tags,
	}

	score, err := s.reviews.Record(ctx, review, domain.ReviewDelta(in.Positive))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrSelfReviewForbidden) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("record review: %w", err)
	}

	slog.InfoContext(ctx, "review recorded",
		"review_id", review.ID,
		"target_id", review.TargetID,
		"positive", review.Positive,
		"score", score.String(),
	)
	if s.feed != nil {
		s.feed.Publish(review.TargetID, score)
	}
	return review, score, nil
}

// AggregatePositiveTags counts every tag occurrence across the positive
// reviews of targetID. Tags on negative reviews are ignored.
func (s *ReputationService) AggregatePositiveTags(ctx context.Context, targetID string) (domain.TagCounts, error) {
	reviews, err := s.reviews.ListByTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	counts := domain.TagCounts{}
	for _, rv := range reviews {
		if !rv.Positive {
			continue
		}
		for _, tag := range rv.Tags {
			counts.Add(tag)
		}
	}
	return counts, nil
}

// CurrentScore returns the committed score of accountID.
func (s *ReputationService) CurrentScore(ctx context.Context, accountID string) (domain.Score, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrAccountNotFound
		}
		return 0, fmt.Errorf("get account: %w", err)
	}
	return account.Reputation, nil
}

// GetReputation returns the score and positive tag counts of accountID.
func (s *ReputationService) GetReputation(ctx context.Context, accountID string) (*Reputation, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	tags, err := s.AggregatePositiveTags(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &Reputation{
		AccountID:    account.ID,
		DisplayName:  account.DisplayName,
		Score:        account.Reputation,
		PositiveTags: tags,
	}, nil
}

// sameAccount reports whether two account ids name the same account. UUIDs
// compare by value, so case and brace variants of one id match.
func sameAccount(a, b string) bool {
	if a == b {
		return true
	}
	ua, errA := uuid.Parse(a)
	ub, errB := uuid.Parse(b)
	return errA == nil && errB == nil && ua == ub
}

// cleanTags trims tags and drops empty ones. Repeats are kept: each
// occurrence counts.
func cleanTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len([]rune(tag)) > maxTagLength {
			return nil, fmt.Errorf("%w: tag longer than %d characters", domain.ErrInvalidInput, maxTagLength)
		}
		out = append(out, tag)
	}
	return out, nil
}
