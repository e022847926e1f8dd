package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/localmarket/internal/domain"
	"github.com/msomdec/localmarket/internal/service"
)

func TestAuthService_Register_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account, err := env.auth.Register(ctx, service.RegisterInput{
		LoginHandle: "  New@Example.com ",
		Password:    "password123",
		DisplayName: "New User",
		Name:        " Hong Gildong ",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if account.Name != "Hong Gildong" {
		t.Fatalf("expected trimmed name, got %q", account.Name)
	}

	if account.ID == "" {
		t.Fatal("expected account ID to be set")
	}
	if account.LoginHandle != "new@example.com" {
		t.Fatalf("expected normalized handle new@example.com, got %s", account.LoginHandle)
	}
	if account.Reputation != domain.DefaultScore {
		t.Fatalf("expected default reputation %s, got %s", domain.DefaultScore, account.Reputation)
	}
	if account.Region != "seoul-mapo" {
		t.Fatalf("expected default region, got %q", account.Region)
	}
	if account.PasswordHash == "password123" {
		t.Fatal("password stored in plaintext")
	}

	stored, err := env.db.Accounts().GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Reputation.String() != "36.5" {
		t.Fatalf("expected stored reputation 36.5, got %s", stored.Reputation)
	}
}

func TestAuthService_Register_DuplicateHandle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "dup@example.com", "User 1")

	_, err := env.auth.Register(ctx, service.RegisterInput{
		LoginHandle: "DUP@example.com",
		Password:    "password456",
		DisplayName: "User 2",
	})
	if !errors.Is(err, domain.ErrDuplicateLoginHandle) {
		t.Fatalf("expected ErrDuplicateLoginHandle, got %v", err)
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   service.RegisterInput
	}{
		{"missing handle", service.RegisterInput{Password: "password123", DisplayName: "A"}},
		{"missing display name", service.RegisterInput{LoginHandle: "a@example.com", Password: "password123"}},
		{"missing password", service.RegisterInput{LoginHandle: "a@example.com", DisplayName: "A"}},
		{"handle not an email", service.RegisterInput{LoginHandle: "not-an-email", Password: "password123", DisplayName: "A"}},
		{"handle with display part", service.RegisterInput{LoginHandle: "A <a@example.com>", Password: "password123", DisplayName: "A"}},
		{"short password", service.RegisterInput{LoginHandle: "a@example.com", Password: "short", DisplayName: "A"}},
		{"long password", service.RegisterInput{LoginHandle: "a@example.com", Password: string(make([]byte, 73)), DisplayName: "A"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tc.in)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Authenticate_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "login@example.com", "Login User")

	token, err := env.auth.Authenticate(ctx, "Login@Example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatal("expected non-empty token")
	}
	if token.TokenType != service.TokenTypeBearer {
		t.Fatalf("expected token type bearer, got %q", token.TokenType)
	}
	if until := time.Until(token.ExpiresAt); until <= 0 || until > time.Hour {
		t.Fatalf("unexpected expiry %v", token.ExpiresAt)
	}

	account, err := env.sessions.Resolve(ctx, token.AccessToken)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if account.ID != id {
		t.Fatalf("expected account %s, got %s", id, account.ID)
	}
}

func TestAuthService_Authenticate_WrongPasswordAndUnknownHandleMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "wrong@example.com", "Wrong User")

	_, errWrong := env.auth.Authenticate(ctx, "wrong@example.com", "badpassword")
	if !errors.Is(errWrong, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for wrong password, got %v", errWrong)
	}

	_, errUnknown := env.auth.Authenticate(ctx, "nobody@example.com", "password123")
	if !errors.Is(errUnknown, domain.ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential for unknown handle, got %v", errUnknown)
	}

	if errWrong.Error() != errUnknown.Error() {
		t.Fatalf("errors differ: %q vs %q", errWrong, errUnknown)
	}
}

func TestAuthService_Authenticate_CorruptStoredHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "corrupt@example.com", "Corrupt")
	if _, err := env.db.SqlDB.ExecContext(ctx, "UPDATE accounts SET password_hash = 'garbage' WHERE id = ?", id); err != nil {
		t.Fatalf("corrupt hash: %v", err)
	}

	_, err := env.auth.Authenticate(ctx, "corrupt@example.com", "password123")
	if !errors.Is(err, domain.ErrCorruptCredential) {
		t.Fatalf("expected ErrCorruptCredential, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredential) {
		t.Fatal("corrupt hash must not look like a wrong password")
	}
}

func TestAuthService_GetAccountByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "me@example.com", "Me")

	account, err := env.auth.GetAccountByID(ctx, id)
	if err != nil {
		t.Fatalf("GetAccountByID: %v", err)
	}
	if account.DisplayName != "Me" {
		t.Fatalf("expected display name Me, got %q", account.DisplayName)
	}

	_, err = env.auth.GetAccountByID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "me2@example.com", "Me Two")
	token, err := env.auth.Authenticate(ctx, "me2@example.com", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	account, err := env.auth.Me(ctx, token.AccessToken)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if account.ID != id {
		t.Fatalf("expected %s, got %s", id, account.ID)
	}

	if _, err := env.auth.Me(ctx, token.AccessToken+"x"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
