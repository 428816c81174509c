package controller

import (
	"net/http"
	"time"

	"github.com/vibast-solutions/ms-go-jobtracker/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-jobtracker/app/dto/http"
	"github.com/vibast-solutions/ms-go-jobtracker/app/service"
	"github.com/vibast-solutions/ms-go-jobtracker/app/token"
	"github.com/vibast-solutions/ms-go-jobtracker/app/types"
	"github.com/vibast-solutions/ms-go-jobtracker/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AuthController struct {
	sessionService service.SessionService
	cookie         config.CookieConfig
}

func NewAuthController(sessionService service.SessionService, cookie config.CookieConfig) *AuthController {
	if cookie.Name == "" {
		cookie.Name = config.RefreshCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/auth"
	}
	return &AuthController{sessionService: sessionService, cookie: cookie}
}

func (c *AuthController) Register(ctx echo.Context) error {
	req, err := types.NewRegisterRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("username", req.Username).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	entry := logrus.WithField("username", req.Username)
	entry.Info("Register request received")
	pair, err := c.sessionService.Register(ctx.Request().Context(), req.Command())
	if err != nil {
		return writeError(ctx, entry, "Register", err)
	}

	c.setRefreshCookie(ctx, pair)
	entry.WithField("user_id", pair.UserID).Info("User registered")
	return ctx.JSON(http.StatusCreated, httpdto.AccessTokenResponse{AccessToken: pair.AccessToken})
}

func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	entry := logrus.WithField("email", req.Email)
	entry.Info("Login request received")
	pair, err := c.sessionService.Login(ctx.Request().Context(), req.Command())
	if err != nil {
		return writeError(ctx, entry, "Login", err)
	}

	c.setRefreshCookie(ctx, pair)
	entry.WithField("user_id", pair.UserID).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.AccessTokenResponse{AccessToken: pair.AccessToken})
}

// Refresh reads the refresh token from the cookie only.
func (c *AuthController) Refresh(ctx echo.Context) error {
	logrus.Info("Refresh request received")
	pair, err := c.sessionService.Refresh(ctx.Request().Context(), c.refreshCookie(ctx))
	if err != nil {
		return writeError(ctx, logrus.NewEntry(logrus.StandardLogger()), "Refresh", err)
	}

	c.setRefreshCookie(ctx, pair)
	logrus.WithField("user_id", pair.UserID).Info("Session refreshed")
	return ctx.JSON(http.StatusOK, httpdto.RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (c *AuthController) Logout(ctx echo.Context) error {
	refreshToken := c.refreshCookie(ctx)
	if refreshToken == "" {
		logrus.Debug("Logout without refresh token cookie")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "refresh token cookie is required"})
	}

	userID, err := c.sessionService.Logout(ctx.Request().Context(), refreshToken)
	if err != nil {
		entry := logrus.WithField("user_id", userID)
		status, _ := statusOf(err)
		if status == http.StatusNotFound {
			c.clearRefreshCookie(ctx)
		}
		return writeError(ctx, entry, "Logout", err)
	}

	c.clearRefreshCookie(ctx)
	logrus.WithField("user_id", userID).Info("Logout successful")
	return ctx.NoContent(http.StatusNoContent)
}

func (c *AuthController) refreshCookie(ctx echo.Context) string {
	cookie, err := ctx.Cookie(c.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setRefreshCookie makes the cookie live exactly as long as the refresh token.
func (c *AuthController) setRefreshCookie(ctx echo.Context, pair *dto.TokenPair) {
	maxAge := pair.RefreshExpiresIn
	if maxAge <= 0 {
		maxAge = int64(token.DefaultRefreshTokenTTL / time.Second)
	}
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookie.Name,
		Value:    pair.RefreshToken,
		Path:     c.cookie.Path,
		MaxAge:   int(maxAge),
		HttpOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *AuthController) clearRefreshCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     c.cookie.Name,
		Value:    "",
		Path:     c.cookie.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
