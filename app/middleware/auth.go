package middleware

import (
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/token"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const ContextKeyUserID = "user_id"

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*token.Payload, error)
}

type AuthMiddleware struct {
	sessionService accessTokenValidator
}

func NewAuthMiddleware(sessionService accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{sessionService: sessionService}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "missing authorization header"})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid authorization header format"})
		}

		payload, err := m.sessionService.ValidateAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, service.ErrServerMisconfigured) {
				logrus.WithError(err).Error("Access token secret is not configured")
				return c.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "server misconfigured"})
			}
			logrus.Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Set(ContextKeyUserID, payload.UserID)

		return next(c)
	}
}

// UserID returns the id RequireAuth stored on the context.
func UserID(c echo.Context) (uint64, bool) {
	userID, ok := c.Get(ContextKeyUserID).(uint64)
	return userID, ok
}
