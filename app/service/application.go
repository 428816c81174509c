package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/dto"
	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
)

const (
	DefaultApplicationPageSize = 50
	MaxApplicationPageSize     = 100
)

// ApplicationInput is the full writable state of an application; PUT replaces
// every field with it.
type ApplicationInput struct {
	Company   string
	Position  string
	Status    string
	Location  string
	URL       string
	Notes     string
	AppliedAt *time.Time
}

type ApplicationQuery struct {
	Status string
	Limit  int
	Offset int
}

type ApplicationService interface {
	List(ctx context.Context, userID uint64, query ApplicationQuery) (*dto.ApplicationPage, error)
	Get(ctx context.Context, userID, id uint64) (*entity.Application, error)
	Create(ctx context.Context, userID uint64, input ApplicationInput) (*entity.Application, error)
	Update(ctx context.Context, userID, id uint64, input ApplicationInput) (*entity.Application, error)
	Delete(ctx context.Context, userID, id uint64) error
}

type applicationRepository interface {
	Create(ctx context.Context, app *entity.Application) error
	FindByIDForUser(ctx context.Context, id, userID uint64) (*entity.Application, error)
	ListByUser(ctx context.Context, userID uint64, filter repository.ApplicationFilter) ([]*entity.Application, error)
	CountByUser(ctx context.Context, userID uint64, filter repository.ApplicationFilter) (int64, error)
	Update(ctx context.Context, app *entity.Application) error
	DeleteByIDForUser(ctx context.Context, id, userID uint64) (int64, error)
}

type applicationService struct {
	repo applicationRepository
	now  func() time.Time
}

func NewApplicationService(repo applicationRepository) ApplicationService {
	return &applicationService{repo: repo, now: time.Now}
}

func (s *applicationService) List(ctx context.Context, userID uint64, query ApplicationQuery) (*dto.ApplicationPage, error) {
	filter := repository.ApplicationFilter{
		Status: query.Status,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultApplicationPageSize
	}
	if filter.Limit > MaxApplicationPageSize {
		filter.Limit = MaxApplicationPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	total, err := s.repo.CountByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ApplicationPage{Items: items, Total: total}, nil
}

func (s *applicationService) Get(ctx context.Context, userID, id uint64) (*entity.Application, error) {
	app, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *applicationService) Create(ctx context.Context, userID uint64, input ApplicationInput) (*entity.Application, error) {
	now := s.now()
	app := &entity.Application{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(app, input)

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *applicationService) Update(ctx context.Context, userID, id uint64, input ApplicationInput) (*entity.Application, error) {
	app, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	applyInput(app, input)
	app.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *applicationService) Delete(ctx context.Context, userID, id uint64) error {
	rows, err := s.repo.DeleteByIDForUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func applyInput(app *entity.Application, input ApplicationInput) {
	app.Company = input.Company
	app.Position = input.Position
	app.Status = input.Status
	if app.Status == "" {
		app.Status = entity.ApplicationStatusApplied
	}
	app.Location = nullString(input.Location)
	app.URL = nullString(input.URL)
	app.Notes = nullString(input.Notes)
	app.AppliedAt = sql.NullTime{}
	if input.AppliedAt != nil {
		app.AppliedAt = sql.NullTime{Time: *input.AppliedAt, Valid: true}
	}
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
