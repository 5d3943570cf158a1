package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/observability"
	"github.com/iliyamo/activity-tracker/internal/repository"
	"github.com/iliyamo/activity-tracker/internal/utils"
)

// UserStore is the account persistence the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// AuthHandler bundles dependencies for login and account endpoints.
type AuthHandler struct {
	Users  UserStore
	Hasher *utils.PasswordHasher
	Tokens *utils.TokenIssuer
	Log    logrus.FieldLogger
}

func NewAuthHandler(users UserStore, hasher *utils.PasswordHasher, tokens *utils.TokenIssuer, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Users: users, Hasher: hasher, Tokens: tokens, Log: log}
}

// Login: form-encoded username and password in, bearer token out.
func (h *AuthHandler) Login(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	errs := validation.Errors{}
	if username == "" {
		errs["username"] = errors.New("cannot be blank")
	}
	if password == "" {
		errs["password"] = errors.New("cannot be blank")
	}
	if len(errs) > 0 {
		return invalid(c, errs)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.Hasher.VerifyDummy(password)
		return h.badLogin(c)
	case err != nil:
		return storeError(c, h.Log, err, "User not found")
	}
	if !h.Hasher.Verify(password, u.HashedPassword) {
		return h.badLogin(c)
	}

	tok, err := h.Tokens.Issue(u.Username, 0)
	if err != nil {
		h.Log.WithError(err).Error("auth: issue token failed")
		return detail(c, http.StatusInternalServerError, "Could not issue token")
	}
	observability.RecordLogin("success")
	return c.JSON(http.StatusOK, tokenView{AccessToken: tok.Token, TokenType: "bearer"})
}

func (h *AuthHandler) badLogin(c echo.Context) error {
	observability.RecordLogin("invalid")
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return detail(c, http.StatusUnauthorized, "Incorrect username or password")
}

// CreateUser: register an account.  The password is hashed before it
// reaches the store and never echoed back.
func (h *AuthHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return bindFailed(c, err)
	}
	req.normalise()
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	digest, err := h.Hasher.Hash(req.Password)
	if err != nil {
		h.Log.WithError(err).Error("auth: hash password failed")
		return detail(c, http.StatusInternalServerError, "Could not create user")
	}
	u := &model.User{
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		HashedPassword: digest,
		IsActive:       true,
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Users.Create(ctx, u); err != nil {
		return storeError(c, h.Log, err, "User not found")
	}
	return c.JSON(http.StatusCreated, toUserView(u))
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserView(u))
}
