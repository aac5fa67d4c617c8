package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo_webapp/internal/cache"
	"todo_webapp/internal/config"
	"todo_webapp/internal/db"
	httpServer "todo_webapp/internal/http"
	"todo_webapp/internal/http/handlers"
	"todo_webapp/internal/http/middleware"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/repository"
	"todo_webapp/internal/repository/memory"
	"todo_webapp/internal/service"
	"todo_webapp/internal/storage"
	"todo_webapp/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	service.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	health := handlers.NewHealthHandler(cfg.Version)

	var (
		taskRepo  service.TaskRepository
		userRepo  service.UserStore
		auditRepo service.AuditStore
	)
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		taskRepo = memory.NewTaskRepository()
		userRepo = memory.NewUserRepository()
		auditRepo = memory.NewAuditRepository()
	default:
		dbPool := db.Connect(cfg.DatabaseURL)
		defer dbPool.Close()
		health.AddCheck("database", dbPool.Ping)

		taskRepo = repository.NewTaskRepository(dbPool)
		userRepo = repository.NewUserRepository(dbPool)
		auditRepo = repository.NewAuditRepository(dbPool)
	}

	rdb := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
		health.AddCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	middleware.UseRedis(rdb)

	files, err := storage.NewLocalStore(cfg.StorageDir, cfg.PublicURL)
	if err != nil {
		logger.Fatal("failed to open storage", "dir", cfg.StorageDir, "error", err)
	}

	hub := ws.NewHub()
	audit := service.NewAuditService(auditRepo)
	taskCfg := service.TaskServiceConfig{
		PageSize:      cfg.PageSize,
		MaxCoverBytes: cfg.MaxCoverBytes,
		Notifier:      hub,
		Audit:         audit,
	}
	if rdb != nil {
		taskCfg.Cache = cache.NewListCache(rdb, cfg.ListCacheTTL)
	}
	tasks := service.NewTaskService(taskRepo, files, taskCfg)
	auth := service.NewAuthService(userRepo, audit, cfg.BotToken, cfg.DevMode)

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.MaxCoverBytes + 1<<20

	httpServer.RegisterRoutes(r, handlers.NewHandler(tasks, auth, audit, cfg.MaxCoverBytes), health, hub, httpServer.RouteConfig{
		APIRateLimit:      cfg.APIRateLimit,
		APIRateWindow:     cfg.APIRateWindow,
		MutationRateLimit: cfg.MutationRateLimit,
		AllowedOrigin:     cfg.AllowedOrigin,
		DevMode:           cfg.DevMode,
		StorageDir:        files.Root(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "store", cfg.Store, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
