package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/repository"
)

// TokenValidator turns a raw bearer token into its subject.
type TokenValidator interface {
	Validate(raw string) (string, error)
}

// UserLookup resolves a token subject to the stored account.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// Authenticate returns an Echo middleware that validates a Bearer access
// token, loads the user named by its subject and stores it in the context.
// Handlers read it back with CurrentUser.
//
// A missing or invalid token, or a subject without an account, yields 401
// with WWW-Authenticate: Bearer.  An inactive account yields 400.
func Authenticate(tokens TokenValidator, users UserLookup, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, found := strings.Cut(strings.TrimSpace(auth), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return unauthorized(c, "Not authenticated")
			}

			subject, err := tokens.Validate(raw)
			if err != nil {
				return unauthorized(c, "Could not validate credentials")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, err := users.GetByUsername(ctx, subject)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return unauthorized(c, "Could not validate credentials")
				}
				log.WithError(err).Error("auth: user lookup failed")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "Service temporarily unavailable"})
			}
			if !u.IsActive {
				return c.JSON(http.StatusBadRequest, echo.Map{"detail": "Inactive user"})
			}

			SetCurrentUser(c, u)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, detail string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"detail": detail})
}
