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

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) Me(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	user, err := c.userService.Profile(ctx.Request().Context(), userID)
	if err != nil {
		return writeError(ctx, logrus.WithField("user_id", userID), "Profile", err)
	}

	return ctx.JSON(http.StatusOK, httpdto.NewProfileResponse(user))
}

func (c *UserController) UpdateMe(ctx echo.Context) error {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return unauthorized(ctx)
	}

	req, err := types.NewUpdateProfileRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind profile update request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("user_id", userID).Debug("Profile update validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	entry := logrus.WithField("user_id", userID)
	user, err := c.userService.UpdateProfile(ctx.Request().Context(), userID, req.Command())
	if err != nil {
		return writeError(ctx, entry, "Profile update", err)
	}

	entry.Info("Profile updated")
	return ctx.JSON(http.StatusOK, httpdto.NewProfileResponse(user))
}
