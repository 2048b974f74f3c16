// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (tuned for server-side hashing).
const (
	argonTime    uint32 = 3         // iterations
	argonMemory  uint32 = 64 * 1024 // 64 MB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	saltLen = 16
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// hash returns the raw Argon2id digest of password with the given salt.
func hash(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// EncodePassword hashes password with a fresh per-user salt and returns a
// single storable string of the form "salt$digest" (both base64, no padding).
func EncodePassword(password string) (string, error) {
	salt, err := RandBytes(saltLen)
	if err != nil {
		return "", err
	}
	digest := hash([]byte(password), salt)
	enc := base64.RawStdEncoding
	return enc.EncodeToString(salt) + "$" + enc.EncodeToString(digest), nil
}

// VerifyPassword reports whether password matches the encoded "salt$digest"
// string. Comparison is constant-time; malformed encodings never match.
func VerifyPassword(password, encoded string) bool {
	saltPart, digestPart, ok := strings.Cut(encoded, "$")
	if !ok {
		return false
	}
	enc := base64.RawStdEncoding
	salt, err := enc.DecodeString(saltPart)
	if err != nil {
		return false
	}
	want, err := enc.DecodeString(digestPart)
	if err != nil {
		return false
	}
	got := hash([]byte(password), salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}
