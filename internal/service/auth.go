package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/localmarket/internal/domain"
)

// TokenTypeBearer is the only token kind handed out at login.
const TokenTypeBearer = "bearer"

// maxPasswordBytes is bcrypt's input limit; longer secrets would be truncated.
const maxPasswordBytes = 72

// AuthService handles account registration and login.
type AuthService struct {
	accounts      domain.AccountRepository
	sessions      *SessionResolver
	hasher        *CredentialHasher
	tokens        *TokenIssuer
	tokenTTL      time.Duration
	defaultRegion string

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts domain.AccountRepository, hasher *CredentialHasher, tokens *TokenIssuer, tokenTTL time.Duration, defaultRegion string) *AuthService {
	return &AuthService{
		accounts:      accounts,
		sessions:      NewSessionResolver(tokens, accounts),
		hasher:        hasher,
		tokens:        tokens,
		tokenTTL:      tokenTTL,
		defaultRegion: defaultRegion,
	}
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	LoginHandle string
	Password    string
	DisplayName string
	Name        string
	Region      string
}

// Token is a freshly issued bearer session.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// NormalizeLoginHandle trims and lowercases an email-style handle.
func NormalizeLoginHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// Register creates a new account after validating inputs. New accounts start
// at DefaultScore.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	handle := NormalizeLoginHandle(in.LoginHandle)
	displayName := strings.TrimSpace(in.DisplayName)

	if handle == "" || displayName == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: login handle, display name, and password are required", domain.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(handle); err != nil || addr.Address != handle {
		return nil, fmt.Errorf("%w: login handle must be an email address", domain.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}

	region := strings.TrimSpace(in.Region)
	if region == "" {
		region = s.defaultRegion
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &domain.Account{
		ID:           uuid.NewString(),
		LoginHandle:  handle,
		DisplayName:  displayName,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Reputation:   domain.DefaultScore,
		Region:       region,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "account registered", "account_id", account.ID)
	return account, nil
}

// Authenticate verifies credentials and issues a bearer token. An unknown
// handle and a wrong password are indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, handle, password string) (*Token, error) {
	account, err := s.accounts.GetByLoginHandle(ctx, NormalizeLoginHandle(handle))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Burn the same hashing time as a real check.
			_, _ = s.hasher.Verify(ctx, password, s.placeholderHash(ctx))
			return nil, domain.ErrInvalidCredential
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, account.PasswordHash)
	if err != nil {
		if errors.Is(err, domain.ErrCorruptCredential) {
			slog.ErrorContext(ctx, "stored credential is corrupt", "account_id", account.ID, "error", err)
		}
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidCredential
	}

	access, exp, err := s.tokens.Issue(account.ID, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Token{AccessToken: access, TokenType: TokenTypeBearer, ExpiresAt: exp}, nil
}

// Me returns the account that owns token.
func (s *AuthService) Me(ctx context.Context, token string) (*domain.Account, error) {
	return s.sessions.Resolve(ctx, token)
}

// GetAccountByID retrieves an account by its ID.
func (s *AuthService) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	return account, err
}

func (s *AuthService) placeholderHash(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), uuid.NewString())
		if err != nil {
			slog.WarnContext(ctx, "build placeholder hash", "error", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}
