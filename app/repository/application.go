package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"

	"github.com/jmoiron/sqlx"
)

const applicationColumns = `id, user_id, company, position, status, location, url, notes, applied_at, created_at, updated_at`

type ApplicationFilter struct {
	Status string
	Limit  int
	Offset int
}

// ApplicationRepository scopes every statement by user_id, so an application
// owned by another user behaves exactly like a missing one.
type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, app *entity.Application) error {
	query := `
		INSERT INTO applications (user_id, company, position, status, location, url, notes, applied_at, created_at, updated_at)
		VALUES (:user_id, :company, :position, :status, :location, :url, :notes, :applied_at, :created_at, :updated_at)
	`
	result, err := r.db.NamedExecContext(ctx, query, app)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	app.ID = uint64(id)
	return nil
}

func (r *ApplicationRepository) FindByIDForUser(ctx context.Context, id, userID uint64) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ? AND user_id = ?`

	var app entity.Application
	err := r.db.GetContext(ctx, &app, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, userID uint64, filter ApplicationFilter) ([]*entity.Application, error) {
	where, args := applicationWhere(userID, filter)
	query := `SELECT ` + applicationColumns + ` FROM applications` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	apps := make([]*entity.Application, 0)
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *ApplicationRepository) CountByUser(ctx context.Context, userID uint64, filter ApplicationFilter) (int64, error) {
	where, args := applicationWhere(userID, filter)
	query := `SELECT COUNT(*) FROM applications` + where

	var total int64
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *ApplicationRepository) Update(ctx context.Context, app *entity.Application) error {
	query := `
		UPDATE applications SET
			company = :company,
			position = :position,
			status = :status,
			location = :location,
			url = :url,
			notes = :notes,
			applied_at = :applied_at,
			updated_at = :updated_at
		WHERE id = :id AND user_id = :user_id
	`
	_, err := r.db.NamedExecContext(ctx, query, app)
	return err
}

func (r *ApplicationRepository) DeleteByIDForUser(ctx context.Context, id, userID uint64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func applicationWhere(userID uint64, filter ApplicationFilter) (string, []any) {
	conditions := []string{"user_id = ?"}
	args := []any{userID}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
