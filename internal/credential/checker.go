// Package credential validates the shared exam password.
package credential

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSecretMissing = errors.New("exam password not configured")
	ErrSecretCorrupt = errors.New("exam password is not valid base64")
)

// Checker verifies a candidate password.
type Checker interface {
	Verify(candidate string) bool
}

// SecretChecker compares against either a base64-encoded plaintext secret or
// a bcrypt hash. The hash wins when both are configured.
type SecretChecker struct {
	plain []byte
	hash  []byte
}

// NewSecretChecker builds a checker from configuration values.
func NewSecretChecker(encodedSecret, bcryptHash string) (*SecretChecker, error) {
	if h := strings.TrimSpace(bcryptHash); h != "" {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, fmt.Errorf("exam password hash: %w", err)
		}
		return &SecretChecker{hash: []byte(h)}, nil
	}

	enc := strings.TrimSpace(encodedSecret)
	if enc == "" {
		return nil, ErrSecretMissing
	}
	plain, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSecretCorrupt, err)
	}
	if len(plain) == 0 {
		return nil, ErrSecretMissing
	}
	return &SecretChecker{plain: plain}, nil
}

// Verify reports whether candidate matches. A nil or unconfigured checker
// rejects everything.
func (c *SecretChecker) Verify(candidate string) bool {
	if c == nil {
		return false
	}
	if len(c.hash) > 0 {
		return bcrypt.CompareHashAndPassword(c.hash, []byte(candidate)) == nil
	}
	if len(c.plain) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(c.plain, []byte(candidate)) == 1
}

// HashPassword produces a value for EXAM_PASSWORD_HASH.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hash), err
}

// EncodePassword produces a value for EXAM_PASSWORD_B64.
func EncodePassword(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}
