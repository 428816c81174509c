// Package token issues and verifies the signed, time-limited tokens of a
// session. Access and refresh tokens are signed with distinct secrets so that
// one leaked secret cannot forge the other class.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingSecret = errors.New("token signing secret is not configured")
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Payload is what a verified token carries.
type Payload struct {
	UserID    uint64
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Clock func() time.Time

// Issue signs {sub: userID, jti} with secret, expiring ttl after now.
func Issue(userID uint64, jti string, secret []byte, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", ErrMissingSecret
	}

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks signature and expiry against secret. Every failure other than
// a missing secret is reported as ErrInvalidToken.
func Verify(tokenString string, secret []byte, now time.Time) (*Payload, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	payload := &Payload{
		UserID:    userID,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	return payload, nil
}

type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           Clock
}

type SignerOption func(*Signer)

func WithClock(now Clock) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSigner(cfg config.JWTConfig, opts ...SignerOption) *Signer {
	s := &Signer{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTokenTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTokenTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Signer) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

func (s *Signer) RefreshTokenTTL() time.Duration {
	return s.refreshTTL
}

func (s *Signer) IssueAccessToken(userID uint64, jti string) (string, error) {
	return Issue(userID, jti, s.accessSecret, s.accessTTL, s.now())
}

func (s *Signer) IssueRefreshToken(userID uint64, jti string) (string, error) {
	return Issue(userID, jti, s.refreshSecret, s.refreshTTL, s.now())
}

func (s *Signer) VerifyAccessToken(tokenString string) (*Payload, error) {
	return Verify(tokenString, s.accessSecret, s.now())
}

func (s *Signer) VerifyRefreshToken(tokenString string) (*Payload, error) {
	return Verify(tokenString, s.refreshSecret, s.now())
}
