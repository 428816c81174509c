package types

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/entity"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/labstack/echo/v4"
)

const appliedAtLayout = "2006-01-02"

var ErrInvalidApplicationID = errors.New("invalid application id")

type ApplicationRequest struct {
	Company   string  `json:"company"`
	Position  string  `json:"position"`
	Status    string  `json:"status"`
	Location  string  `json:"location"`
	URL       string  `json:"url"`
	Notes     string  `json:"notes"`
	AppliedAt *string `json:"appliedAt"`

	appliedAt *time.Time
}

func NewApplicationRequestFromContext(ctx echo.Context) (*ApplicationRequest, error) {
	var body ApplicationRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ApplicationRequest) Validate() error {
	r.Company = strings.TrimSpace(r.Company)
	r.Position = strings.TrimSpace(r.Position)
	if r.Company == "" || r.Position == "" {
		return errors.New("company and position are required")
	}
	if len(r.Company) > 255 || len(r.Position) > 255 || len(r.Location) > 255 {
		return errors.New("company, position and location must be at most 255 characters")
	}
	if r.Status != "" && !entity.IsValidApplicationStatus(r.Status) {
		return fmt.Errorf("status must be one of %s", strings.Join(entity.ApplicationStatuses, ", "))
	}
	if r.URL != "" {
		parsed, err := url.ParseRequestURI(r.URL)
		if err != nil || parsed.Host == "" {
			return errors.New("url is invalid")
		}
	}
	if r.AppliedAt != nil && *r.AppliedAt != "" {
		appliedAt, err := time.Parse(appliedAtLayout, *r.AppliedAt)
		if err != nil {
			return errors.New("appliedAt must be a date in YYYY-MM-DD format")
		}
		r.appliedAt = &appliedAt
	}

	return nil
}

// Input must be called after Validate.
func (r *ApplicationRequest) Input() service.ApplicationInput {
	return service.ApplicationInput{
		Company:   r.Company,
		Position:  r.Position,
		Status:    r.Status,
		Location:  strings.TrimSpace(r.Location),
		URL:       r.URL,
		Notes:     r.Notes,
		AppliedAt: r.appliedAt,
	}
}

type ListApplicationsRequest struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

func NewListApplicationsRequestFromContext(ctx echo.Context) (*ListApplicationsRequest, error) {
	var query ListApplicationsRequest
	if err := ctx.Bind(&query); err != nil {
		return nil, err
	}

	return &query, nil
}

func (r *ListApplicationsRequest) Validate() error {
	if r.Status != "" && !entity.IsValidApplicationStatus(r.Status) {
		return fmt.Errorf("status must be one of %s", strings.Join(entity.ApplicationStatuses, ", "))
	}
	if r.Limit < 0 || r.Limit > service.MaxApplicationPageSize {
		return errors.New("limit must be between 1 and 100")
	}
	if r.Offset < 0 {
		return errors.New("offset must not be negative")
	}

	return nil
}

func (r *ListApplicationsRequest) Query() service.ApplicationQuery {
	return service.ApplicationQuery{
		Status: r.Status,
		Limit:  r.Limit,
		Offset: r.Offset,
	}
}

func ApplicationIDFromContext(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidApplicationID
	}
	return id, nil
}
