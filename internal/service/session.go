package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/localmarket/internal/domain"
)

// SessionResolver turns a bearer token into the account it was issued to.
type SessionResolver struct {
	tokens   *TokenIssuer
	accounts domain.AccountRepository
}

// NewSessionResolver creates a new SessionResolver.
func NewSessionResolver(tokens *TokenIssuer, accounts domain.AccountRepository) *SessionResolver {
	return &SessionResolver{tokens: tokens, accounts: accounts}
}

// Verify checks the token and loads its subject. Failures keep their kind:
// ErrTokenInvalidSignature, ErrTokenExpired or ErrAccountNotFound.
func (s *SessionResolver) Verify(ctx context.Context, token string) (*domain.Account, error) {
	accountID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load session account: %w", err)
	}
	return account, nil
}

// Resolve is the gate in front of every protected operation. Any failure,
// including store errors, is reported as ErrUnauthorized with the cause
// attached, and no account is returned.
func (s *SessionResolver) Resolve(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	account, err := s.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	return account, nil
}
