package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/repository"
)

// ProfileUpdate carries only the fields the caller sent; nil leaves a field as is.
type ProfileUpdate struct {
	Username    *string
	Email       *string
	DisplayName *string
}

type UserService interface {
	Profile(ctx context.Context, userID uint64) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uint64, update ProfileUpdate) (*entity.User, error)
}

type profileRepository interface {
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
}

type userService struct {
	userRepo profileRepository
}

func NewUserService(userRepo profileRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) Profile(ctx context.Context, userID uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint64, update ProfileUpdate) (*entity.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = NormalizeEmail(*update.Email)
	}
	if update.DisplayName != nil {
		user.DisplayName = sql.NullString{String: *update.DisplayName, Valid: *update.DisplayName != ""}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}
