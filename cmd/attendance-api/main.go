package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-dashboard-api/api/swagger"
	"github.com/noah-isme/attendance-dashboard-api/internal/handler"
	"github.com/noah-isme/attendance-dashboard-api/internal/repository"
	"github.com/noah-isme/attendance-dashboard-api/internal/service"
	"github.com/noah-isme/attendance-dashboard-api/internal/upstream"
	"github.com/noah-isme/attendance-dashboard-api/pkg/cache"
	"github.com/noah-isme/attendance-dashboard-api/pkg/config"
	"github.com/noah-isme/attendance-dashboard-api/pkg/database"
	"github.com/noah-isme/attendance-dashboard-api/pkg/jobs"
	"github.com/noah-isme/attendance-dashboard-api/pkg/logger"
)

// @title Attendance Dashboard API
// @version 1.0.0
// @description Student attendance dashboard backed by the campus portal.
// @BasePath /api/v1
// @schemes http https

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	validate := validator.New()
	readiness := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Attendance.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis, 5*time.Second)
		if err != nil {
			logr.Warn("redis unavailable, attendance cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	if redisClient != nil {
		readiness["redis"] = cacheRepo.Ping
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Attendance.CacheTTL, logr, redisClient != nil)

	var db *sqlx.DB
	if cfg.Database.Enabled {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect database", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
	}

	attendanceParams := service.AttendanceServiceParams{
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
		Config: service.AttendanceServiceConfig{
			ThresholdPercent: cfg.Attendance.ThresholdPercent,
			TopSubjects:      cfg.Attendance.TopSubjects,
			TrendWindow:      cfg.Attendance.TrendWindow,
		},
	}

	var afterShutdown []func()
	if db != nil {
		snapshotRepo := repository.NewSnapshotRepository(db)
		if err := snapshotRepo.EnsureSchema(ctx); err != nil {
			logr.Fatal("failed to prepare snapshot schema", zap.Error(err))
		}
		readiness["database"] = snapshotRepo.Ping
		attendanceParams.History = snapshotRepo
		if cfg.Snapshots.Enabled {
			recorder := service.NewSnapshotRecorder(snapshotRepo, metrics, jobs.QueueConfig{
				Workers:    cfg.Snapshots.Workers,
				MaxRetries: cfg.Snapshots.Retries,
				RetryDelay: cfg.Snapshots.RetryDelay,
			}, logr)
			// Workers keep running through the HTTP drain; serve stops them afterwards.
			recorder.Start(context.WithoutCancel(ctx))
			afterShutdown = append(afterShutdown, recorder.Stop)
			attendanceParams.Snapshots = recorder
		}
	}

	portal := upstream.NewClient(cfg.Upstream, logr,
		upstream.WithMetrics(metrics),
		upstream.WithMaxPhotoBytes(cfg.Photo.MaxBytes),
	)
	attendanceParams.Portal = portal
	attendanceSvc := service.NewAttendanceService(attendanceParams)

	router := newRouter(cfg, routerDeps{
		Attendance: attendanceSvc,
		Photos:     service.NewPhotoService(portal, logr),
		Exports:    service.NewExportService(attendanceSvc, logr, nil, nil),
		Metrics:    metrics,
		Readiness:  readiness,
		Validator:  validate,
		Logger:     logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
	if err := serve(ctx, srv, logr, afterShutdown...); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// serve runs srv until ctx ends, drains it, then runs afterShutdown in order.
func serve(ctx context.Context, srv *http.Server, logr *zap.Logger, afterShutdown ...func()) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
		_ = srv.Close()
	}
	for _, fn := range afterShutdown {
		fn()
	}
	return nil
}
