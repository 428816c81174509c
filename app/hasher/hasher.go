// Package hasher wraps bcrypt for passwords and refresh-token values.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 10

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash fails with bcrypt.ErrPasswordTooLong for inputs over 72 bytes.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (b *Bcrypt) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// TokenHasher feeds bcrypt the SHA-256 hex of a token. Signed tokens are far
// longer than the 72 bytes bcrypt reads, and two tokens for the same user share
// their leading bytes.
type TokenHasher struct {
	inner Hasher
}

func NewTokenHasher(inner Hasher) *TokenHasher {
	return &TokenHasher{inner: inner}
}

func (h *TokenHasher) Hash(tokenValue string) (string, error) {
	return h.inner.Hash(preDigest(tokenValue))
}

func (h *TokenHasher) Verify(tokenValue, digest string) bool {
	return h.inner.Verify(preDigest(tokenValue), digest)
}

func preDigest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
