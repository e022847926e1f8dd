package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/msomdec/localmarket/internal/handler"
	"github.com/msomdec/localmarket/internal/repository/sqlite"
	"github.com/msomdec/localmarket/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

type testApp struct {
	auth       *service.AuthService
	sessions   *service.SessionResolver
	reputation *service.ReputationService
	feed       *service.ScoreFeed
	tokens     *service.TokenIssuer
	mux        *http.ServeMux
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithThrottle(t, 1000, 1000)
}

func newTestAppWithThrottle(t *testing.T, rate, burst float64) *testApp {
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

	hasher, err := service.NewCredentialHasher(service.AlgorithmBcrypt, 4, 0)
	if err != nil {
		t.Fatalf("NewCredentialHasher: %v", err)
	}
	tokens := service.NewTokenIssuer(testJWTSecret, "localmarket")
	feed := service.NewScoreFeed()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	app := &testApp{
		auth:       service.NewAuthService(db.Accounts(), hasher, tokens, time.Hour, "seoul-mapo"),
		sessions:   service.NewSessionResolver(tokens, db.Accounts()),
		reputation: service.NewReputationService(db.Accounts(), db.Reviews(), feed),
		feed:       feed,
		tokens:     tokens,
		mux:        http.NewServeMux(),
	}
	throttle := service.NewLoginThrottle(ctx, rate, burst, time.Minute)
	handler.RegisterRoutes(app.mux, app.auth, app.sessions, app.reputation, feed, throttle, false)
	return app
}

// signup registers and logs in an account, returning its id and token.
func (a *testApp) signup(t *testing.T, email, nickname string) (string, string) {
	t.Helper()
	ctx := context.Background()
	account, err := a.auth.Register(ctx, service.RegisterInput{LoginHandle: email, Password: "password123", DisplayName: nickname})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := a.auth.Authenticate(ctx, email, "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return account.ID, token.AccessToken
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}
