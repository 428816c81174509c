package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
)

// RefreshTokenRepository stores at most one refresh-token record per user;
// refresh_tokens.user_id carries a unique key.
type RefreshTokenRepository struct {
	db DBTX
}

// SessionTx is the view of the store a refresh works with while it holds the
// user's row lock.
type SessionTx interface {
	FindSessionForUpdate(ctx context.Context, userID uint64) (entity.Session, error)
	Rotate(ctx context.Context, token *entity.RefreshToken, previousJTI string) (int64, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, jti, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.TokenHash,
		token.JTI,
		token.CreatedAt,
	)
	if err != nil {
		return translateError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	token.ID = uint64(id)
	return nil
}

// Upsert replaces the user's record if one exists. Concurrent upserts for the
// same user resolve as last writer wins.
func (r *RefreshTokenRepository) Upsert(ctx context.Context, token *entity.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, jti, created_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE token_hash = VALUES(token_hash), jti = VALUES(jti), created_at = VALUES(created_at)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.UserID,
		token.TokenHash,
		token.JTI,
		token.CreatedAt,
	)
	return err
}

// InTx runs fn inside a transaction and commits when fn returns nil. A
// repository already bound to a *sql.Tx runs fn on itself.
func (r *RefreshTokenRepository) InTx(ctx context.Context, fn func(tx SessionTx) error) error {
	db, ok := r.db.(txBeginner)
	if !ok {
		return fn(r)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(NewRefreshTokenRepository(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// FindSessionForUpdate locks the user's record until the surrounding
// transaction ends. Use it through InTx.
func (r *RefreshTokenRepository) FindSessionForUpdate(ctx context.Context, userID uint64) (entity.Session, error) {
	query := `
		SELECT id, user_id, token_hash, jti, created_at
		FROM refresh_tokens WHERE user_id = ? FOR UPDATE
	`
	rt := &entity.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.TokenHash,
		&rt.JTI,
		&rt.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.AbsentSession(), nil
	}
	if err != nil {
		return entity.AbsentSession(), err
	}
	return entity.ActiveSession(rt), nil
}

// Rotate swaps hash and jti on the existing record, guarded by the jti it
// was read with. Zero rows affected means the record moved on.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, token *entity.RefreshToken, previousJTI string) (int64, error) {
	query := `UPDATE refresh_tokens SET token_hash = ?, jti = ? WHERE id = ? AND jti = ?`
	result, err := r.db.ExecContext(ctx, query, token.TokenHash, token.JTI, token.ID, previousJTI)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uint64) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`
	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
