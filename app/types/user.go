package types

import (
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/labstack/echo/v4"
)

type UpdateProfileRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	DisplayName *string `json:"displayName"`
}

func NewUpdateProfileRequestFromContext(ctx echo.Context) (*UpdateProfileRequest, error) {
	var body UpdateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Username == nil && r.Email == nil && r.DisplayName == nil {
		return errors.New("at least one of username, email or displayName is required")
	}
	if r.Username != nil {
		if err := validateUsername(*r.Username); err != nil {
			return err
		}
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.DisplayName != nil && len(*r.DisplayName) > 255 {
		return errors.New("displayName must be at most 255 characters")
	}

	return nil
}

func (r *UpdateProfileRequest) Command() service.ProfileUpdate {
	update := service.ProfileUpdate{
		Username: r.Username,
		Email:    r.Email,
	}
	if r.DisplayName != nil {
		displayName := strings.TrimSpace(*r.DisplayName)
		update.DisplayName = &displayName
	}
	return update
}
