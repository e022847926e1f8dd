package handler

import (
	"net/http"

	"github.com/msomdec/localmarket/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. throttle guards
// signup and login.
func RegisterRoutes(
	mux *http.ServeMux,
	authService *service.AuthService,
	sessions *service.SessionResolver,
	reputationService *service.ReputationService,
	feed *service.ScoreFeed,
	throttle *service.LoginThrottle,
	cookieSecure bool,
) {
	authHandler := NewAuthHandler(authService, cookieSecure)
	reputationHandler := NewReputationHandler(reputationService, feed)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// Auth.
	mux.Handle("POST /api/v1/auth/signup", Throttle(throttle, http.HandlerFunc(authHandler.HandleSignup)))
	mux.Handle("POST /api/v1/auth/login", Throttle(throttle, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.HandleLogout)

	// Users and reputation.
	mux.Handle("GET /api/v1/users/me", RequireAuth(sessions, http.HandlerFunc(authHandler.HandleMe)))
	mux.Handle("POST /api/v1/users/{id}/review", RequireAuth(sessions, http.HandlerFunc(reputationHandler.HandleReview)))
	mux.HandleFunc("GET /api/v1/users/{id}/manner", reputationHandler.HandleManner)
	mux.HandleFunc("GET /api/v1/users/{id}/manner/live", reputationHandler.HandleMannerLive)

	// Public profile page.
	mux.HandleFunc("GET /users/{id}", reputationHandler.HandleProfile)
}
