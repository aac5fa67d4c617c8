package http

import (
	"time"

	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouteConfig struct {
	APIRateLimit      int
	APIRateWindow     time.Duration
	MutationRateLimit int
	AllowedOrigin     string
	DevMode           bool
	// directory served at /storage, empty to skip
	StorageDir string
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, cfg RouteConfig) {
	r.Use(middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(cfg.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.StorageDir != "" {
		r.Static("/storage", cfg.StorageDir)
	}

	r.GET("/ws", ws.HandleWS(hub, cfg.AllowedOrigin))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, cfg.APIRateWindow))
	registerAPIRoutes(v1, h, cfg)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, cfg RouteConfig) {
	// Auth
	api.POST("/auth", h.Auth)
	if cfg.DevMode {
		api.POST("/auth/dev", h.DevAuth)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT())

	authed.GET("/me", h.Me)
	authed.GET("/me/audit", h.MyAudit)

	// mutations are additionally limited per user, across IPs
	mutationRL := middleware.UserRateLimit(cfg.MutationRateLimit, time.Minute)

	todos := authed.Group("/todos")
	{
		todos.GET("", h.ListTasks)
		todos.POST("", mutationRL, h.CreateTask)
		todos.PUT("/:id", mutationRL, h.UpdateTask)
		todos.POST("/:id/cover", mutationRL, h.ReplaceCover)
		todos.DELETE("/:id", mutationRL, h.DeleteTask)
	}
}
