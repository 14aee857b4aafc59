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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/step-lms-api/api/swagger"
	"github.com/noah-isme/step-lms-api/internal/handler"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/repository"
	"github.com/noah-isme/step-lms-api/internal/router"
	"github.com/noah-isme/step-lms-api/internal/service"
	"github.com/noah-isme/step-lms-api/pkg/cache"
	"github.com/noah-isme/step-lms-api/pkg/config"
	"github.com/noah-isme/step-lms-api/pkg/database"
	"github.com/noah-isme/step-lms-api/pkg/export"
	"github.com/noah-isme/step-lms-api/pkg/jobs"
	"github.com/noah-isme/step-lms-api/pkg/logger"
)

// @title STEP LMS API
// @version 1.0.0
// @description School learning management backend: student placement, rosters, attendance and dashboards.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	queue := jobs.NewQueue("activity", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	activityRepo := repository.NewActivityRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	activitySvc := service.NewActivityService(activityRepo, queue, logr)
	queue.Handle(service.ActivityJobType, activitySvc.HandleJob)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(repository.NewUserRepository(db), activitySvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	placementSvc := service.NewPlacementService(repository.NewPlacementRepository(db), studentRepo, cacheSvc, activitySvc, metrics, validate, logr, service.PlacementConfig{
		DefaultCapacity: cfg.Placement.DefaultCapacity,
		TempIDPrefix:    cfg.Placement.TempIDPrefix,
		DefaultMode:     models.BulkOperationMode(cfg.Placement.DefaultMode),
	})
	exportSvc := service.NewExportService(placementSvc, logr, export.NewCSVExporter(), export.NewPDFExporter(), export.NewXLSXExporter("Rosters"))
	classSvc := service.NewClassService(repository.NewClassRepository(db), cacheSvc, activitySvc, logr)
	teacherSvc := service.NewTeacherService(repository.NewTeacherRepository(db), cacheSvc, activitySvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, activitySvc, validate, logr, cfg.Import.MaxRows)
	homeroomSvc := service.NewHomeroomService(repository.NewHomeroomRepository(db), repository.NewAttendanceRepository(db), cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(repository.NewDashboardRepository(db), activityRepo, activitySvc, cacheSvc, metrics, validate, logr, service.DashboardServiceConfig{
		CacheTTL:    cfg.Dashboard.CacheTTL,
		RecentLimit: cfg.Dashboard.RecentLimit,
	})
	userSvc := service.NewUserService(repository.NewUserRepository(db), activitySvc, validate, logr)

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	engine := router.Setup(cfg, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		User:      handler.NewUserHandler(userSvc),
		Placement: handler.NewPlacementHandler(placementSvc),
		Export:    handler.NewExportHandler(exportSvc),
		Class:     handler.NewClassHandler(classSvc),
		Teacher:   handler.NewTeacherHandler(teacherSvc),
		Student:   handler.NewStudentHandler(studentSvc, cfg.Import.MaxFileSize),
		Homeroom:  handler.NewHomeroomHandler(homeroomSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, activitySvc),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
	}, authSvc, metrics, logr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
