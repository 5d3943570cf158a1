package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-tracker/internal/repository"
	"github.com/iliyamo/activity-tracker/internal/stats"
)

// Overview handles GET /activities/stats/overview.
func (h *ActivityHandler) Overview(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	all, err := h.Activities.ListByOwner(ctx, u.ID, repository.ActivityFilter{WithoutPoints: true})
	if err != nil {
		return storeError(c, h.Log, err, notFoundActivity)
	}
	return c.JSON(http.StatusOK, stats.Overview(all))
}

// Yearly handles GET /activities/stats/yearly.
func (h *ActivityHandler) Yearly(c echo.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	all, err := h.Activities.ListByOwner(ctx, u.ID, repository.ActivityFilter{})
	if err != nil {
		return storeError(c, h.Log, err, notFoundActivity)
	}
	years := stats.Yearly(all)
	out := make([]yearView, 0, len(years))
	for _, y := range years {
		out = append(out, yearView{Year: y.Year, Stats: y.Stats, Activities: toActivityViews(y.Activities)})
	}
	return c.JSON(http.StatusOK, out)
}
