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
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-register/api/swagger"
	"github.com/noah-isme/attendance-register/internal/handler"
	"github.com/noah-isme/attendance-register/internal/repository"
	"github.com/noah-isme/attendance-register/internal/service"
	"github.com/noah-isme/attendance-register/internal/web"
	"github.com/noah-isme/attendance-register/pkg/cache"
	"github.com/noah-isme/attendance-register/pkg/config"
	"github.com/noah-isme/attendance-register/pkg/database"
	"github.com/noah-isme/attendance-register/pkg/export"
	"github.com/noah-isme/attendance-register/pkg/logger"
)

// @title Attendance Register API
// @version 1.0.0
// @description Student roster and daily attendance register
// @BasePath /
// @schemes http

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	ctx := context.Background()
	if err := repository.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	logr.Info("database ready", zap.String("driver", cfg.Database.Driver), zap.String("path", cfg.Database.Path))

	var (
		metrics  *service.MetricsService
		observer repository.QueryObserver
	)
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
		observer = metrics
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisCache := repository.NewCacheRepository(client, "attendance-register:", logr)
			defer redisCache.Close() //nolint:errcheck
			cacheRepo = redisCache
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	validate := service.NewValidator()
	studentRepo := repository.NewStudentRepository(db, observer)
	attendanceRepo := repository.NewAttendanceRepository(db, observer)

	students := service.NewStudentService(studentRepo, cacheSvc, metrics, validate, logr)
	attendance := service.NewAttendanceService(service.AttendanceServiceParams{
		Repo:      attendanceRepo,
		Students:  students,
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})
	reports := service.NewReportService(students, attendance, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	templates, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Students:       students,
		Attendance:     attendance,
		Reports:        reports,
		Metrics:        metrics,
		DB:             db,
		Flash:          web.NewFlashStore(cfg.SecretKey, time.Minute),
		Templates:      templates,
		Logger:         logr,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logr.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
