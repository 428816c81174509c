package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/dto"
	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/hasher"
	"github.com/vibast-solutions/ms-go-jobtracker/app/metrics"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
	"github.com/vibast-solutions/ms-go-jobtracker/app/token"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// RegisterCommand and LoginCommand are built from already validated requests.
type RegisterCommand struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

type LoginCommand struct {
	Email    string
	Password string
}

type SessionService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*dto.TokenPair, error)
	Login(ctx context.Context, cmd LoginCommand) (*dto.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) (uint64, error)
	RevokeSession(ctx context.Context, userID uint64) error
	ValidateAccessToken(tokenString string) (*token.Payload, error)
}

type sessionUserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type sessionRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	Upsert(ctx context.Context, token *entity.RefreshToken) error
	DeleteByUserID(ctx context.Context, userID uint64) (int64, error)
	InTx(ctx context.Context, fn func(tx repository.SessionTx) error) error
}

type tokenSigner interface {
	IssueAccessToken(userID uint64, jti string) (string, error)
	IssueRefreshToken(userID uint64, jti string) (string, error)
	VerifyAccessToken(tokenString string) (*token.Payload, error)
	VerifyRefreshToken(tokenString string) (*token.Payload, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}

type sessionService struct {
	userRepo  sessionUserRepository
	sessions  sessionRepository
	signer    tokenSigner
	passwords hasher.Hasher
	tokens    hasher.Hasher
	now       func() time.Time
}

type SessionServiceOption func(*sessionService)

func WithSessionClock(now func() time.Time) SessionServiceOption {
	return func(s *sessionService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewSessionService(
	userRepo sessionUserRepository,
	sessions sessionRepository,
	signer tokenSigner,
	passwords hasher.Hasher,
	opts ...SessionServiceOption,
) SessionService {
	svc := &sessionService{
		userRepo:  userRepo,
		sessions:  sessions,
		signer:    signer,
		passwords: passwords,
		tokens:    hasher.NewTokenHasher(passwords),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates the user and its first session. Steps after the user row is
// written are not rolled back: a failure there leaves a user without a session,
// who can still log in.
func (s *sessionService) Register(ctx context.Context, cmd RegisterCommand) (pair *dto.TokenPair, err error) {
	defer func() { metrics.ObserveSessionEvent("register", outcomeOf(err)) }()

	passwordHash, err := s.passwords.Hash(cmd.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, err
	}

	now := s.now()
	user := &entity.User{
		Username:     cmd.Username,
		Email:        NormalizeEmail(cmd.Email),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if cmd.DisplayName != "" {
		user.DisplayName = sql.NullString{String: cmd.DisplayName, Valid: true}
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	pair, record, err := s.mintSession(user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Registered user left without a session")
		return nil, err
	}

	if err = s.sessions.Create(ctx, record); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("Registered user left without a session")
		return nil, err
	}

	return pair, nil
}

// Login replaces any previous session of the user, which invalidates every
// refresh token issued before.
func (s *sessionService) Login(ctx context.Context, cmd LoginCommand) (pair *dto.TokenPair, err error) {
	defer func() { metrics.ObserveSessionEvent("login", outcomeOf(err)) }()

	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(cmd.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !s.passwords.Verify(cmd.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, record, err := s.mintSession(user.ID)
	if err != nil {
		return nil, err
	}

	if err = s.sessions.Upsert(ctx, record); err != nil {
		return nil, err
	}

	return pair, nil
}

// Refresh validates the presented refresh token against the stored session
// and rotates it. The session row stays locked from read to rotation, so a
// token can be exchanged at most once.
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (pair *dto.TokenPair, err error) {
	defer func() { metrics.ObserveSessionEvent("refresh", outcomeOf(err)) }()

	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	payload, err := s.verifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	err = s.sessions.InTx(ctx, func(tx repository.SessionTx) error {
		session, err := tx.FindSessionForUpdate(ctx, payload.UserID)
		if err != nil {
			return err
		}
		if !session.Active() {
			return ErrNoSession
		}

		current := session.Record
		if !s.tokens.Verify(refreshToken, current.TokenHash) {
			return ErrRefreshTokenReused
		}
		if payload.JTI != current.JTI {
			return ErrTokenIDMismatch
		}

		next, record, err := s.mintSession(payload.UserID)
		if err != nil {
			return err
		}
		record.ID = current.ID

		rows, err := tx.Rotate(ctx, record, current.JTI)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrRefreshTokenReused
		}

		pair = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// Logout ends the session of the token's subject. Only the signature and
// expiry of the token are checked, not the stored hash or jti, so a rotated
// out but unexpired token still ends the current session.
func (s *sessionService) Logout(ctx context.Context, refreshToken string) (userID uint64, err error) {
	defer func() { metrics.ObserveSessionEvent("logout", outcomeOf(err)) }()

	if refreshToken == "" {
		return 0, ErrLogoutTokenRequired
	}

	payload, err := s.verifyRefreshToken(refreshToken)
	if err != nil {
		return 0, err
	}

	if err = s.RevokeSession(ctx, payload.UserID); err != nil {
		return payload.UserID, err
	}
	return payload.UserID, nil
}

func (s *sessionService) RevokeSession(ctx context.Context, userID uint64) error {
	rows, err := s.sessions.DeleteByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *sessionService) ValidateAccessToken(tokenString string) (*token.Payload, error) {
	payload, err := s.signer.VerifyAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrMissingSecret) {
			return nil, ErrServerMisconfigured
		}
		return nil, ErrInvalidToken
	}
	return payload, nil
}

func (s *sessionService) verifyRefreshToken(refreshToken string) (*token.Payload, error) {
	payload, err := s.signer.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrMissingSecret) {
			return nil, ErrServerMisconfigured
		}
		return nil, ErrInvalidToken
	}
	return payload, nil
}

// mintSession signs a fresh token pair with new jtis and prepares the record
// that makes the refresh token valid.
func (s *sessionService) mintSession(userID uint64) (*dto.TokenPair, *entity.RefreshToken, error) {
	accessJTI := uuid.New().String()
	refreshJTI := uuid.New().String()

	accessToken, err := s.signer.IssueAccessToken(userID, accessJTI)
	if err != nil {
		return nil, nil, s.signingError(err)
	}
	refreshToken, err := s.signer.IssueRefreshToken(userID, refreshJTI)
	if err != nil {
		return nil, nil, s.signingError(err)
	}

	tokenHash, err := s.tokens.Hash(refreshToken)
	if err != nil {
		return nil, nil, err
	}

	pair := &dto.TokenPair{
		UserID:           userID,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        int64(s.signer.AccessTokenTTL().Seconds()),
		RefreshExpiresIn: int64(s.signer.RefreshTokenTTL().Seconds()),
	}
	record := &entity.RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		JTI:       refreshJTI,
		CreatedAt: s.now(),
	}
	return pair, record, nil
}

func (s *sessionService) signingError(err error) error {
	if errors.Is(err, token.ErrMissingSecret) {
		return ErrServerMisconfigured
	}
	return err
}
