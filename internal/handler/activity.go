package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/observability"
	"github.com/iliyamo/activity-tracker/internal/queue"
	"github.com/iliyamo/activity-tracker/internal/repository"
	"github.com/iliyamo/activity-tracker/internal/utils"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	notFoundActivity = "Activity not found"
)

// ActivityStore is the persistence the activity endpoints need.  Every
// method is scoped by owner.
type ActivityStore interface {
	Create(ctx context.Context, a *model.Activity) error
	GetByIDAndOwner(ctx context.Context, id, userID uint64) (*model.Activity, error)
	ListByOwner(ctx context.Context, userID uint64, f repository.ActivityFilter) ([]model.Activity, error)
	UpdateByIDAndOwner(ctx context.Context, id, userID uint64, p repository.ActivityPatch) (*model.Activity, error)
	DeleteByIDAndOwner(ctx context.Context, id, userID uint64) error
}

// EventPublisher ships activity events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// CacheInvalidator drops a user's cached responses after a write.
type CacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID uint64) error
}

// ActivityHandler serves the activity CRUD and statistics endpoints.
type ActivityHandler struct {
	Activities ActivityStore
	Events     EventPublisher
	Cache      CacheInvalidator
	Log        logrus.FieldLogger
}

func NewActivityHandler(store ActivityStore, events EventPublisher, cache CacheInvalidator, log logrus.FieldLogger) *ActivityHandler {
	if store == nil {
		panic("nil activity store passed to NewActivityHandler")
	}
	return &ActivityHandler{Activities: store, Events: events, Cache: cache, Log: log}
}

// Create handles POST /activities.  When pace is missing it is derived
// from time and distance.
func (h *ActivityHandler) Create(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createActivityReq
	if err := c.Bind(&req); err != nil {
		return bindFailed(c, err)
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	a := req.toModel(u.ID)
	if a.Pace == nil && a.Time != nil {
		pace, err := utils.DerivePace(a.Distance, *a.Time)
		if errors.Is(err, utils.ErrPaceOutOfRange) {
			return invalid(c, validation.Errors{"distance": errors.New("too small to derive a pace from time")})
		}
		if err != nil {
			return invalid(c, validation.Errors{"time": errors.New("unrecognised duration, expected e.g. \"1h 23m\", \"45m\" or \"26m 40s\"")})
		}
		a.Pace = &pace
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Activities.Create(ctx, &a); err != nil {
		return storeError(c, h.Log, err, notFoundActivity)
	}
	h.afterWrite(ctx, queue.ActivityCreated, &a)
	return c.JSON(http.StatusCreated, toActivityView(&a))
}

// List handles GET /activities with skip, limit, year, month and
// activity_type query parameters.
func (h *ActivityHandler) List(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	f, err := parseListFilter(c)
	if err != nil {
		return invalid(c, err)
	}
	if f.Limit == 0 {
		return c.JSON(http.StatusOK, []activityView{})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	list, err := h.Activities.ListByOwner(ctx, u.ID, f)
	if err != nil {
		return storeError(c, h.Log, err, notFoundActivity)
	}
	return c.JSON(http.StatusOK, toActivityViews(list))
}

// Get handles GET /activities/:id.
func (h *ActivityHandler) Get(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return invalid(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	a, err := h.Activities.GetByIDAndOwner(ctx, id, u.ID)
	if err != nil {
		return storeError(c, h.Log, err, notFoundActivity)
	}
	return c.JSON(http.StatusOK, toActivityView(a))
}

// Update handles PUT /activities/:id as a partial update.
func (h *ActivityHandler) Update(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return invalid(c, err)
	}
	var req updateActivityReq
	if err := c.Bind(&req); err != nil {
		return bindFailed(c, err)
	}
	if err := req.Validate(); err != nil {
		return invalid(c, err)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	a, err := h.Activities.UpdateByIDAndOwner(ctx, id, u.ID, req.toPatch())
	if err != nil {
		return storeError(c, h.Log, err, notFoundActivity)
	}
	h.afterWrite(ctx, queue.ActivityUpdated, a)
	return c.JSON(http.StatusOK, toActivityView(a))
}

// Delete handles DELETE /activities/:id.
func (h *ActivityHandler) Delete(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return invalid(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Activities.DeleteByIDAndOwner(ctx, id, u.ID); err != nil {
		return storeError(c, h.Log, err, notFoundActivity)
	}
	h.afterWrite(ctx, queue.ActivityDeleted, &model.Activity{ID: id, UserID: u.ID})
	return c.NoContent(http.StatusNoContent)
}

// afterWrite runs the side effects of a committed write: cache
// invalidation, metrics and the activity event.  None of them can fail
// the request.
func (h *ActivityHandler) afterWrite(ctx context.Context, eventType string, a *model.Activity) {
	now := time.Now().UTC()
	observability.RecordActivityWrite(eventType, now)

	if h.Cache != nil {
		if err := h.Cache.InvalidateUser(ctx, a.UserID); err != nil {
			h.Log.WithError(err).WithField("user_id", a.UserID).Warn("cache invalidation failed")
		}
	}
	if h.Events == nil {
		return
	}
	ev := queue.NewActivityEvent(eventType, a, now)
	// Publishing dials the broker; it must not hold up the response.
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Events.Publish(pctx, ev); err != nil {
			h.Log.WithError(err).WithField("event_id", ev.EventID).Warn("activity event not published")
		}
	}()
}

func parseListFilter(c echo.Context) (repository.ActivityFilter, error) {
	f := repository.ActivityFilter{Limit: defaultListLimit}
	errs := validation.Errors{}
	intParam := func(name string, dst *int, min, max int) {
		raw := c.QueryParam(name)
		if raw == "" {
			return
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs[name] = errors.New("must be an integer")
			return
		}
		if n < min || (max > 0 && n > max) {
			if max > 0 {
				errs[name] = fmt.Errorf("must be between %d and %d", min, max)
			} else {
				errs[name] = fmt.Errorf("must be no less than %d", min)
			}
			return
		}
		*dst = n
	}
	intParam("skip", &f.Skip, 0, 0)
	intParam("limit", &f.Limit, 0, 0)
	intParam("year", &f.Year, 1, 9999)
	intParam("month", &f.Month, 1, 12)
	if raw := c.QueryParam("activity_type"); raw != "" {
		t := model.ActivityType(raw)
		if !t.Valid() {
			errs["activity_type"] = errors.New("must be one of run, workout, cycling")
		} else {
			f.Type = t
		}
	}
	if len(errs) > 0 {
		return f, errs
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	return f, nil
}
