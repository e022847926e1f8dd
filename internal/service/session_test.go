package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msomdec/localmarket/internal/domain"
	"github.com/msomdec/localmarket/internal/service"
)

func TestSessionResolver_Resolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "session@example.com", "Session")
	valid, _, err := env.tokens.Issue(id, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	account, err := env.sessions.Resolve(ctx, valid)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if account.ID != id {
		t.Fatalf("expected %s, got %s", id, account.ID)
	}
}

func TestSessionResolver_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.register(t, "fail@example.com", "Fail")

	past := time.Now().Add(-2 * time.Hour)
	expired, _, err := env.tokens.WithClock(func() time.Time { return past }).Issue(id, time.Hour)
	if err != nil {
		t.Fatalf("Issue expired: %v", err)
	}
	ghost, _, err := env.tokens.Issue("7d3f0c1e-5b0a-4a8e-9f57-0d6a8f3b2c11", time.Hour)
	if err != nil {
		t.Fatalf("Issue ghost: %v", err)
	}
	forged, _, err := service.NewTokenIssuer("another-secret-another-secret-0000", "localmarket").Issue(id, time.Hour)
	if err != nil {
		t.Fatalf("Issue forged: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		verifyWant error
	}{
		{"expired", expired, domain.ErrTokenExpired},
		{"unknown subject", ghost, domain.ErrAccountNotFound},
		{"forged", forged, domain.ErrTokenInvalidSignature},
		{"garbage", "garbage", domain.ErrTokenInvalidSignature},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			account, err := env.sessions.Verify(ctx, tc.token)
			if !errors.Is(err, tc.verifyWant) {
				t.Fatalf("Verify: expected %v, got %v", tc.verifyWant, err)
			}
			if account != nil {
				t.Fatal("Verify returned an account on failure")
			}

			account, err = env.sessions.Resolve(ctx, tc.token)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("Resolve: expected ErrUnauthorized, got %v", err)
			}
			if !errors.Is(err, tc.verifyWant) {
				t.Fatalf("Resolve: expected cause %v, got %v", tc.verifyWant, err)
			}
			if account != nil {
				t.Fatal("Resolve returned an account on failure")
			}
		})
	}
}

func TestSessionResolver_EmptyToken(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Resolve(context.Background(), "")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
