package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/activity-tracker/internal/middleware"
	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/repository"
)

// requestTimeout bounds every store call made on behalf of a request.
const requestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}

// invalid answers 422.  ozzo-validation errors are reported per field.
func invalid(c echo.Context, err error) error {
	var ve validation.Errors
	if errors.As(err, &ve) {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"detail": "Validation failed", "errors": ve})
	}
	return detail(c, http.StatusUnprocessableEntity, err.Error())
}

// storeError maps repository failures onto HTTP statuses.  Anything
// unrecognised is logged and reported as a generic 503.
func storeError(c echo.Context, log logrus.FieldLogger, err error, notFound string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return detail(c, http.StatusNotFound, notFound)
	case errors.Is(err, repository.ErrEmailExists):
		return detail(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, repository.ErrUsernameExists):
		return detail(c, http.StatusConflict, "Username already taken")
	case errors.Is(err, repository.ErrConflict):
		return detail(c, http.StatusConflict, "Conflict")
	}
	log.WithError(err).WithField("path", c.Path()).Error("store operation failed")
	return detail(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
}

// currentUser returns the account Authenticate attached to the request.
func currentUser(c echo.Context) (*model.User, error) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, errors.New("no authenticated user in context")
	}
	return u, nil
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, validation.Errors{"id": errors.New("must be a positive integer")}
	}
	return id, nil
}

// bindFailed answers 422 for a body that could not be decoded.
func bindFailed(c echo.Context, err error) error {
	msg := "Invalid request body"
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		msg += ": " + he.Internal.Error()
	}
	return detail(c, http.StatusUnprocessableEntity, msg)
}
