package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/localmarket/internal/repository/sqlite"
	"github.com/msomdec/localmarket/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

type testEnv struct {
	db         *sqlite.DB
	hasher     *service.CredentialHasher
	tokens     *service.TokenIssuer
	auth       *service.AuthService
	sessions   *service.SessionResolver
	feed       *service.ScoreFeed
	reputation *service.ReputationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Use cost 4 for fast tests.
	hasher, err := service.NewCredentialHasher(service.AlgorithmBcrypt, 4, 0)
	if err != nil {
		t.Fatalf("NewCredentialHasher: %v", err)
	}
	tokens := service.NewTokenIssuer(testJWTSecret, "localmarket")
	feed := service.NewScoreFeed()

	return &testEnv{
		db:         db,
		hasher:     hasher,
		tokens:     tokens,
		auth:       service.NewAuthService(db.Accounts(), hasher, tokens, time.Hour, "seoul-mapo"),
		sessions:   service.NewSessionResolver(tokens, db.Accounts()),
		feed:       feed,
		reputation: service.NewReputationService(db.Accounts(), db.Reviews(), feed),
	}
}

func (e *testEnv) register(t *testing.T, handle, name string) string {
	t.Helper()
	account, err := e.auth.Register(context.Background(), service.RegisterInput{
		LoginHandle: handle,
		Password:    "password123",
		DisplayName: name,
	})
	if err != nil {
		t.Fatalf("Register %s: %v", handle, err)
	}
	return account.ID
}
