package controller

import (
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"
	"github.com/vibast-solutions/ms-go-jobtracker/app/middleware"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/types"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ApplicationController struct {
	applicationService service.ApplicationService
}

func NewApplicationController(applicationService service.ApplicationService) *ApplicationController {
	return &ApplicationController{applicationService: applicationService}
}

func (c *ApplicationController) List(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	req, err := types.NewListApplicationsRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind list applications query")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid query parameters"})
	}
	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	page, err := c.applicationService.List(ctx.Request().Context(), userID, req.Query())
	if err != nil {
		return writeError(ctx, logrus.WithField("user_id", userID), "List applications", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewApplicationListResponse(page.Items, page.Total))
}

func (c *ApplicationController) Create(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	req, err := types.NewApplicationRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind application request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	entry := logrus.WithField("user_id", userID)
	app, err := c.applicationService.Create(ctx.Request().Context(), userID, req.Input())
	if err != nil {
		return writeError(ctx, entry, "Create application", err)
	}

	entry.WithField("application_id", app.ID).Info("Application created")
	return ctx.JSON(http.StatusCreated, httpdto.NewApplicationResponse(app))
}

func (c *ApplicationController) Get(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	id, err := types.ApplicationIDFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	app, err := c.applicationService.Get(ctx.Request().Context(), userID, id)
	if err != nil {
		return writeError(ctx, logrus.WithFields(logrus.Fields{"user_id": userID, "application_id": id}), "Get application", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewApplicationResponse(app))
}

func (c *ApplicationController) Update(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	id, err := types.ApplicationIDFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	req, err := types.NewApplicationRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind application request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}
	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	entry := logrus.WithFields(logrus.Fields{"user_id": userID, "application_id": id})
	app, err := c.applicationService.Update(ctx.Request().Context(), userID, id, req.Input())
	if err != nil {
		return writeError(ctx, entry, "Update application", err)
	}

	entry.Info("Application updated")
	return ctx.JSON(http.StatusOK, httpdto.NewApplicationResponse(app))
}

func (c *ApplicationController) Delete(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	id, err := types.ApplicationIDFromContext(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	entry := logrus.WithFields(logrus.Fields{"user_id": userID, "application_id": id})
	if err = c.applicationService.Delete(ctx.Request().Context(), userID, id); err != nil {
		return writeError(ctx, entry, "Delete application", err)
	}

	entry.Info("Application deleted")
	return ctx.NoContent(http.StatusNoContent)
}

func unauthorized(ctx echo.Context) error {
	logrus.Warn("Request without user_id in context")
	return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
}
