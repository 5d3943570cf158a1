package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/activity-tracker/internal/config"
	"github.com/iliyamo/activity-tracker/internal/database"
	"github.com/iliyamo/activity-tracker/internal/handler"
	"github.com/iliyamo/activity-tracker/internal/logger"
	"github.com/iliyamo/activity-tracker/internal/middleware"
	"github.com/iliyamo/activity-tracker/internal/queue"
	"github.com/iliyamo/activity-tracker/internal/repository"
	"github.com/iliyamo/activity-tracker/internal/router"
	"github.com/iliyamo/activity-tracker/internal/service"
	"github.com/iliyamo/activity-tracker/internal/utils"
)

func main() {
	log := logger.New()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mysql")
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	migrateCancel()
	if err != nil {
		log.WithError(err).Fatal("failed to apply schema")
	}

	hasher, err := utils.NewPasswordHasher(cfg.Argon2.Memory, cfg.Argon2.Iterations, cfg.Argon2.Parallelism)
	if err != nil {
		log.WithError(err).Fatal("failed to initialise password hasher")
	}
	tokens := utils.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)

	users := repository.NewUserRepo(db)
	activities := repository.NewActivityRepo(db)

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)

	var events handler.EventPublisher = service.NopPublisher{}
	consumerDone := make(chan struct{})
	if cfg.EventsOn {
		events = service.NewAMQPPublisher(cfg.EventsURL, log)
		consumer := &queue.Consumer{URL: cfg.EventsURL, Dir: cfg.AuditLogDir, Log: log}
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("activity consumer stopped")
			}
		}()
	} else {
		close(consumerDone)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	authn := middleware.Authenticate(tokens, users, log)
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, APIPrefix: cfg.APIPrefix, Log: log})
	router.RegisterAuth(e, cfg.APIPrefix, handler.NewAuthHandler(users, hasher, tokens, log), authn, limiter)
	router.RegisterActivities(e, cfg.APIPrefix, handler.NewActivityHandler(activities, events, cache, log), authn, cache.Middleware())

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("activity-tracker listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	<-consumerDone
}
