package middleware

// identity.go holds the context keys Authenticate fills in and the helpers
// that read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-tracker/internal/model"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// CurrentUser returns the authenticated user stored by Authenticate.
func CurrentUser(c echo.Context) (*model.User, bool) {
	u, ok := c.Get(userKey).(*model.User)
	return u, ok && u != nil
}

// SetCurrentUser stores u the way Authenticate does.  Tests use it to
// bypass token handling.
func SetCurrentUser(c echo.Context, u *model.User) {
	c.Set(userKey, u)
	c.Set(userIDKey, u.ID)
}

// currentUserID renders the caller's id for cache and rate-limit keys, or
// "anon" before authentication.
func currentUserID(c echo.Context) string {
	if id, ok := c.Get(userIDKey).(uint64); ok && id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
