// Package token issues and verifies expiring HMAC-signed tokens for
// out-of-band actions such as email confirmation. Tokens are stateless: the
// payload, issue time and signature travel together in one opaque string.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/kunjika/accounts/internal/errs"
)

// DefaultTTL is the validity window for confirmation links.
const DefaultTTL = 24 * time.Hour

var enc = base64.RawURLEncoding

// Service signs and verifies single-purpose tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New constructs a token service. ttl <= 0 falls back to DefaultTTL.
func New(secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: secret, ttl: ttl, now: time.Now}
}

// Sign encodes payload with the current time and a MAC over both.
func (s *Service) Sign(payload string) string {
	issued := strconv.FormatInt(s.now().Unix(), 10)
	sig := s.mac(payload, issued)
	return enc.EncodeToString([]byte(payload)) + "." + enc.EncodeToString([]byte(issued)) + "." + enc.EncodeToString(sig)
}

// Verify checks the signature and the validity window and returns the
// payload. The signature is checked first: a tampered token always fails
// with ErrBadSignature, an authentic but stale one with ErrTokenExpired.
func (s *Service) Verify(tok string) (string, error) {
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		return "", errs.ErrBadSignature
	}
	payload, err := enc.DecodeString(parts[0])
	if err != nil {
		return "", errs.ErrBadSignature
	}
	issued, err := enc.DecodeString(parts[1])
	if err != nil {
		return "", errs.ErrBadSignature
	}
	sig, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", errs.ErrBadSignature
	}
	if !hmac.Equal(sig, s.mac(string(payload), string(issued))) {
		return "", errs.ErrBadSignature
	}

	sec, err := strconv.ParseInt(string(issued), 10, 64)
	if err != nil {
		return "", errs.ErrBadSignature
	}
	if s.now().Sub(time.Unix(sec, 0)) > s.ttl {
		return "", errs.ErrTokenExpired
	}
	return string(payload), nil
}

// mac computes HMAC-SHA256 over payload and issue time. The length prefix
// keeps (payload, issued) pairs unambiguous.
func (s *Service) mac(payload, issued string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(strconv.Itoa(len(payload))))
	m.Write([]byte{0})
	m.Write([]byte(payload))
	m.Write([]byte(issued))
	return m.Sum(nil)
}
