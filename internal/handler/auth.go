package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/msomdec/localmarket/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// HandleSignup processes a JSON registration request.
// POST /api/v1/auth/signup
// Request:  {"email":"...","password":"...","nickname":"...","name":"...","region_name":"..."}
// Response: 201 {"user_id":"...","email":"...","nickname":"..."}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		Nickname   string `json:"nickname"`
		RegionName string `json:"region_name"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	displayName := req.Nickname
	if strings.TrimSpace(displayName) == "" {
		displayName = req.Name
	}

	account, err := h.auth.Register(r.Context(), service.RegisterInput{
		LoginHandle: req.Email,
		Password:    req.Password,
		DisplayName: displayName,
		Name:        req.Name,
		Region:      req.RegionName,
	})
	if err != nil {
		writeServiceError(w, r, "register account", err)
		return
	}

	writeJSON(w, http.StatusCreated, SignupResponse{
		UserID:   account.ID,
		Email:    account.LoginHandle,
		Nickname: account.DisplayName,
	})
}

// HandleLogin checks credentials and issues a bearer token. The token is also
// set as an HttpOnly cookie for browser clients.
// POST /api/v1/auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"access_token":"...","token_type":"bearer","expires_at":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	token, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, "authenticate", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    token.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  token.ExpiresAt,
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
	})

	writeJSON(w, http.StatusOK, toTokenResponse(token))
}

// HandleLogout clears the auth cookie. Tokens stay valid until they expire.
// POST /api/v1/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the currently authenticated account.
// GET /api/v1/users/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	if account == nil {
		writeError(w, http.StatusUnauthorized, "Could not validate credentials.")
		return
	}

	writeJSON(w, http.StatusOK, toAccountDTO(account))
}
