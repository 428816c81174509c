package http

import (
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
)

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type ProfileResponse struct {
	ID          uint64    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName *string   `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ApplicationResponse struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"userId"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Status    string    `json:"status"`
	Location  *string   `json:"location"`
	URL       *string   `json:"url"`
	Notes     *string   `json:"notes"`
	AppliedAt *string   `json:"appliedAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ApplicationListResponse struct {
	Items []ApplicationResponse `json:"items"`
	Total int64                 `json:"total"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewProfileResponse(user *entity.User) ProfileResponse {
	res := ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if user.DisplayName.Valid {
		res.DisplayName = &user.DisplayName.String
	}
	return res
}

func NewApplicationResponse(app *entity.Application) ApplicationResponse {
	res := ApplicationResponse{
		ID:        app.ID,
		UserID:    app.UserID,
		Company:   app.Company,
		Position:  app.Position,
		Status:    app.Status,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
	if app.Location.Valid {
		res.Location = &app.Location.String
	}
	if app.URL.Valid {
		res.URL = &app.URL.String
	}
	if app.Notes.Valid {
		res.Notes = &app.Notes.String
	}
	if app.AppliedAt.Valid {
		appliedAt := app.AppliedAt.Time.Format("2006-01-02")
		res.AppliedAt = &appliedAt
	}
	return res
}

func NewApplicationListResponse(items []*entity.Application, total int64) ApplicationListResponse {
	res := ApplicationListResponse{
		Items: make([]ApplicationResponse, 0, len(items)),
		Total: total,
	}
	for _, app := range items {
		res.Items = append(res.Items, NewApplicationResponse(app))
	}
	return res
}
