// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/finbridge/backoffice/internal/config"
	"github.com/finbridge/backoffice/internal/handler"
	"github.com/finbridge/backoffice/internal/middleware"
	"github.com/finbridge/backoffice/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints:
// the health check and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAPI mounts the record APIs under /v1. Every route requires a
// valid access token and a known role; rate limiting applies to the whole
// group, and read endpoints are served through the response cache.
func RegisterAPI(
	e *echo.Echo,
	agents *handler.AgentHandler,
	transactions *handler.TransactionHandler,
	users *handler.UserHandler,
	rdb *redis.Client,
	jwtSecret string,
) {
	rl := config.LoadRateLimitConfig()
	cc := config.LoadCacheConfig()
	// The cache wraps whole entity groups: GETs are served from Redis and
	// every successful mutation evicts its family's entries.
	cached := middleware.Cache(rdb, cc)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole(model.RoleAdmin, model.RoleAgent))
	v1.Use(middleware.RateLimit(rdb, rl))

	// Agents are scoped to the owning admin, so the whole family is
	// admin-only.
	ag := v1.Group("/agents")
	ag.Use(middleware.RequireRole(model.RoleAdmin))
	ag.Use(cached)
	ag.POST("", agents.Create)
	ag.GET("", agents.List)
	ag.GET("/:id", agents.Get)
	ag.PATCH("/:id", agents.Update)
	ag.DELETE("/:id", agents.SoftDelete)
	ag.DELETE("/:id/purge", agents.HardDelete)

	tx := v1.Group("/transactions")
	tx.Use(cached)
	tx.POST("", transactions.Create)
	tx.GET("/:id", transactions.Get)
	tx.GET("/batch/:batchID", transactions.ListByBatch)
	tx.GET("/client/:clientID", transactions.ListByClient)
	tx.DELETE("/:id", transactions.Void)

	// User management is admin-only; the root-admin escalation on top of
	// that is enforced in the service layer, where the target's role is
	// known.
	us := v1.Group("/users")
	us.Use(middleware.RequireRole(model.RoleAdmin))
	us.Use(cached)
	us.POST("", users.Create)
	us.GET("", users.List)
	us.GET("/:id", users.Get)
	us.PATCH("/:id", users.Update)
	us.DELETE("/:id", users.SoftDelete)
	us.POST("/disable", users.SetDisabled)
	us.POST("/reset-password", users.ResetPassword)
}
