package controller

import (
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// writeError maps a service error kind to its status. Client errors are logged
// as warnings with the error's own message; anything unknown is a 500 and is
// not echoed back.
func writeError(ctx echo.Context, entry *logrus.Entry, action string, err error) error {
	status, message := statusOf(err)
	switch {
	case status == http.StatusInternalServerError && message == "server misconfigured":
		entry.WithError(err).Error(action + " failed: server misconfigured")
	case status == http.StatusInternalServerError:
		entry.WithError(err).Error(action + " failed")
	default:
		entry.Warn(action + " failed: " + message)
	}
	return ctx.JSON(status, httpdto.ErrorResponse{Error: message})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest, errorMessage(err, service.ErrBadRequest)
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, errorMessage(err, service.ErrUnauthorized)
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, errorMessage(err, service.ErrForbidden)
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, errorMessage(err, service.ErrNotFound)
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, errorMessage(err, service.ErrConflict)
	case errors.Is(err, service.ErrServerMisconfigured):
		return http.StatusInternalServerError, "server misconfigured"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// errorMessage strips the "kind: " prefix a concrete service error carries.
func errorMessage(err, kind error) string {
	return strings.TrimPrefix(err.Error(), kind.Error()+": ")
}
