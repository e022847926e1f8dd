package handler

import (
	"time"

	"github.com/msomdec/localmarket/internal/domain"
	"github.com/msomdec/localmarket/internal/service"
)

// AccountDTO is the JSON representation of an account.
type AccountDTO struct {
	UserID            string  `json:"user_id"`
	Email             string  `json:"email"`
	Nickname          string  `json:"nickname"`
	Name              string  `json:"name"`
	MannerTemperature float64 `json:"manner_temperature"`
	RegionName        string  `json:"region_name"`
	CreatedAt         string  `json:"created_at"`
}

func toAccountDTO(a *domain.Account) AccountDTO {
	return AccountDTO{
		UserID:            a.ID,
		Email:             a.LoginHandle,
		Nickname:          a.DisplayName,
		Name:              a.Name,
		MannerTemperature: a.Reputation.Float64(),
		RegionName:        a.Region,
		CreatedAt:         a.CreatedAt.Format(time.RFC3339),
	}
}

// SignupResponse is returned after a successful registration.
type SignupResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

func toTokenResponse(t *service.Token) TokenResponse {
	return TokenResponse{
		AccessToken: t.AccessToken,
		TokenType:   t.TokenType,
		ExpiresAt:   t.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// ReviewResponse is returned after a review is recorded.
type ReviewResponse struct {
	ReviewID       string  `json:"review_id"`
	TargetUserID   string  `json:"target_user_id"`
	NewTemperature float64 `json:"new_temperature"`
}

// MannerResponse is an account's reputation summary.
type MannerResponse struct {
	MannerTemperature float64        `json:"manner_temperature"`
	PositiveReviews   map[string]int `json:"positive_reviews"`
}

func toMannerResponse(rep *service.Reputation) MannerResponse {
	tags := rep.PositiveTags
	if tags == nil {
		tags = domain.TagCounts{}
	}
	return MannerResponse{
		MannerTemperature: rep.Score.Float64(),
		PositiveReviews:   tags,
	}
}
