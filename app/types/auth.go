package types

import (
	"errors"
	"regexp"
	"strings"

	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/labstack/echo/v4"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MaxPasswordBytes  = 72
	MaxEmailLength    = 255
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

func NewRegisterRequestFromContext(ctx echo.Context) (*RegisterRequest, error) {
	var body RegisterRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("username, email and password are required")
	}
	if err := validateUsername(r.Username); err != nil {
		return err
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validatePassword(r.Password); err != nil {
		return err
	}
	if len(r.DisplayName) > 255 {
		return errors.New("displayName must be at most 255 characters")
	}

	return nil
}

func (r *RegisterRequest) Command() service.RegisterCommand {
	return service.RegisterCommand{
		Username:    r.Username,
		Email:       r.Email,
		Password:    r.Password,
		DisplayName: strings.TrimSpace(r.DisplayName),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return errors.New("email and password are required")
	}

	return nil
}

func (r *LoginRequest) Command() service.LoginCommand {
	return service.LoginCommand{
		Email:    r.Email,
		Password: r.Password,
	}
}

func validateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return errors.New("username must be between 3 and 32 characters")
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username may only contain letters, digits, '.', '_' and '-'")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if len(email) > MaxEmailLength {
		return errors.New("email must be at most 255 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return errors.New("email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}
