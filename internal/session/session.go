// Package session issues and decodes stateless session credentials: signed
// HS256 claims held by the client as an http-only cookie. There is no
// server-side session table.
package session

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kunjika/accounts/internal/errs"
)

// Session lifetimes. Without remember-me the credential is effectively
// permanent, matching the observed 100-year window.
const (
	RememberTTL  = 30 * 24 * time.Hour
	PermanentTTL = 100 * 365 * 24 * time.Hour
)

// Claims is the identity bundle embedded in the session credential.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	XSRFToken string `json:"xsrf_token"`
	ImageURL  string `json:"image_url"`
}

// Service signs and verifies session credentials with a shared secret.
type Service struct {
	signKey []byte
	now     func() time.Time
}

// New constructs a session service around the HS256 signing key.
func New(signKey []byte) *Service {
	return &Service{signKey: signKey, now: time.Now}
}

// Issue builds claims for the user, stamps a fresh anti-CSRF token and
// returns the signed credential together with the claims for immediate use.
func (s *Service) Issue(userID int64, username, email, imageURL string, rememberMe bool) (string, *Claims, error) {
	ttl := PermanentTTL
	if rememberMe {
		ttl = RememberTTL
	}
	xsrf, err := uuid.NewV4()
	if err != nil {
		return "", nil, err
	}
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
		},
		UserID:    userID,
		Email:     email,
		Username:  username,
		XSRFToken: xsrf.String(),
		ImageURL:  imageURL,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Decode verifies the credential and returns its claims. Malformed input,
// a bad signature and an expired credential all map to the same generic
// ErrUnauthorized so the caller cannot tell which check failed.
func (s *Service) Decode(credential string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(credential, claims,
		func(*jwt.Token) (any, error) { return s.signKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !tok.Valid {
		return nil, errs.ErrUnauthorized
	}
	return claims, nil
}
