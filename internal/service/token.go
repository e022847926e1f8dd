package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/msomdec/localmarket/internal/domain"
)

// TokenIssuer mints and checks HS256 session tokens. Tokens are stateless:
// nothing is stored server side and there is no revocation list.
type TokenIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer signing with secret.
func NewTokenIssuer(secret, issuer string) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

// WithClock returns a copy of the issuer that reads time from now.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *t
	c.now = now
	return &c
}

// Issue returns a signed token for subject that expires ttl from now.
func (t *TokenIssuer) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	// Claims carry whole seconds; truncating first keeps exp at exactly
	// issued+ttl.
	now := t.now().Truncate(time.Second)
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse checks the signature and then the expiry of token and returns its
// subject. Expiry is strict: a token whose exp equals the current second is
// already expired.
func (t *TokenIssuer) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Strict decoding rejects non-zero padding bits, so every bit of the
		// signature segment is covered.
		jwt.WithStrictDecoding(),
		// Expiry is checked below so the boundary is exact.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenInvalidSignature, err)
	}

	if claims.ExpiresAt == nil || !t.now().Before(claims.ExpiresAt.Time) {
		return "", domain.ErrTokenExpired
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return "", fmt.Errorf("%w: unexpected issuer", domain.ErrTokenInvalidSignature)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", domain.ErrTokenInvalidSignature)
	}
	return claims.Subject, nil
}

// IsTokenError reports whether err came from token parsing rather than I/O.
func IsTokenError(err error) bool {
	return errors.Is(err, domain.ErrTokenExpired) || errors.Is(err, domain.ErrTokenInvalidSignature)
}
