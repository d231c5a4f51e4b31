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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/mentor-api/api/swagger"
	"github.com/noah-isme/mentor-api/internal/handler"
	internalmiddleware "github.com/noah-isme/mentor-api/internal/middleware"
	"github.com/noah-isme/mentor-api/internal/repository"
	"github.com/noah-isme/mentor-api/internal/service"
	"github.com/noah-isme/mentor-api/pkg/cache"
	"github.com/noah-isme/mentor-api/pkg/config"
	"github.com/noah-isme/mentor-api/pkg/database"
	"github.com/noah-isme/mentor-api/pkg/export"
	"github.com/noah-isme/mentor-api/pkg/jobs"
	"github.com/noah-isme/mentor-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/mentor-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/mentor-api/pkg/middleware/requestid"
)

// @title Mentor API
// @version 1.0.0
// @description Attendance, scoring and progress reporting for tutoring groups
// @BasePath /api/v1
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
		logr.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

type handlers struct {
	groups     *handler.GroupHandler
	students   *handler.StudentHandler
	lessons    *handler.LessonHandler
	scores     *handler.ScoreHandler
	reports    *handler.ReportHandler
	statistics *handler.StatisticsHandler
	metrics    *handler.MetricsHandler
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, "mentor", logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cacheRepo != nil)

	validate := validator.New()

	groupRepo := repository.NewGroupRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	rosterSvc := service.NewRosterService(rosterRepo, metricsSvc, logr)
	scoreSvc := service.NewScoreService(scoreRepo, lessonRepo, cacheSvc, metricsSvc, validate, logr)
	autoSaver := service.NewAutoSaver(scoreSvc, cfg.AutoSave.Delay, metricsSvc, logr)
	lessonSvc := service.NewLessonService(lessonRepo, groupRepo, rosterSvc, scoreRepo, autoSaver, cacheSvc, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, studentRepo, studentRepo, cacheSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	statsSvc := service.NewStatisticsService(groupRepo, studentRepo, scoreRepo, statsRepo, cacheSvc, metricsSvc, logr)
	atRiskSvc := service.NewAtRiskService(statsRepo, cacheSvc, metricsSvc, cfg.AtRisk, logr)
	reportSvc := service.NewReportService(studentRepo, groupRepo, studentRepo, scoreRepo,
		export.NewCSVExporter(), export.NewPDFExporter(), cfg.Reports.DefaultLookback, logr)

	if cfg.AtRisk.Enabled {
		scheduler := jobs.NewScheduler("at-risk", atRiskSvc.HandleJob, jobs.Config{
			MaxRetries: cfg.AtRisk.WorkerRetries,
			Logger:     logr,
		})
		scheduler.Start(ctx, cfg.AtRisk.ScanInterval, service.JobTypeAtRiskScan)
		defer scheduler.Stop()
	}

	h := handlers{
		groups:     handler.NewGroupHandler(groupSvc),
		students:   handler.NewStudentHandler(studentSvc),
		lessons:    handler.NewLessonHandler(lessonSvc),
		scores:     handler.NewScoreHandler(scoreSvc, autoSaver),
		reports:    handler.NewReportHandler(reportSvc),
		statistics: handler.NewStatisticsHandler(statsSvc, atRiskSvc, reportSvc),
		metrics:    handler.NewMetricsHandler(metricsSvc, db),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      newRouter(cfg, logr, metricsSvc, h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	return shutdown(srv, autoSaver, logr)
}

func shutdown(srv *http.Server, autoSaver *service.AutoSaver, logr *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	// Pending score edits must reach the database before the pool closes.
	if err := autoSaver.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush pending scores: %w", err))
	}
	logr.Info("server stopped")
	return errors.Join(errs...)
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())

	groups := api.Group("/groups")
	groups.GET("", h.groups.List)
	groups.POST("", h.groups.Create)
	groups.GET("/statistics", h.statistics.Groups)
	groups.GET("/:id", h.groups.Get)
	groups.PUT("/:id", h.groups.Rename)
	groups.DELETE("/:id", h.groups.Delete)
	groups.GET("/:id/students", h.groups.Members)
	groups.POST("/:id/students", h.groups.AddMember)
	groups.DELETE("/:id/students/:studentId", h.groups.RemoveMember)
	groups.GET("/:id/students/statistics", h.statistics.Students)
	groups.GET("/:id/lessons/statistics", h.statistics.Lessons)

	students := api.Group("/students")
	students.POST("", h.students.Create)
	students.GET("/at-risk", h.statistics.AtRisk)
	students.GET("/:id", h.students.Get)
	students.PUT("/:id", h.students.Update)
	students.GET("/:id/active", h.students.Active)
	students.GET("/:id/payments", h.students.Payments)
	students.POST("/:id/payments", h.students.RecordPayment)

	lessons := api.Group("/lessons")
	lessons.GET("", h.lessons.List)
	lessons.POST("", h.lessons.Create)
	lessons.GET("/:id", h.lessons.Get)
	lessons.PUT("/:id", h.lessons.Update)
	lessons.DELETE("/:id", h.lessons.Delete)
	lessons.POST("/:id/sessions", h.lessons.CreateSession)
	lessons.PUT("/:id/scores", h.scores.Save)
	lessons.POST("/:id/scores/flush", h.scores.Flush)

	api.DELETE("/sessions/:sessionId", h.lessons.DeleteSession)

	reports := api.Group("/reports")
	reports.GET("/students/:id", h.reports.StudentReport)
	reports.GET("/students/:id/export", h.reports.Export)

	api.GET("/dashboard", h.statistics.Dashboard)
	api.GET("/system/metrics", h.metrics.Snapshot)

	return r
}
