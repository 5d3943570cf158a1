package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/activity-tracker/internal/handler"
)

// RegisterRoutes registers the unauthenticated operational routes: liveness,
// readiness, service info and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/health", h.Ready)
	e.GET("/", h.Root)
	e.GET(h.APIPrefix, h.APIInfo)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers login and account routes under prefix.  Login is
// wrapped by limiter; /users/me needs a bearer token.
func RegisterAuth(e *echo.Echo, prefix string, a *handler.AuthHandler, authn, limiter echo.MiddlewareFunc) {
	e.POST(prefix+"/auth/login", a.Login, limiter)
	e.POST(prefix+"/users", a.CreateUser)
	e.GET(prefix+"/users/me", a.Me, authn)
}

// RegisterActivities registers the activity CRUD and statistics routes.
// Every route requires a bearer token; reads go through the per-user
// response cache.
func RegisterActivities(e *echo.Echo, prefix string, h *handler.ActivityHandler, authn, cache echo.MiddlewareFunc) {
	g := e.Group(prefix+"/activities", authn)
	g.POST("", h.Create)
	g.GET("", h.List, cache)
	g.GET("/stats/overview", h.Overview, cache)
	g.GET("/stats/yearly", h.Yearly, cache)
	g.GET("/:id", h.Get, cache)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
