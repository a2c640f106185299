package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/adcar/edx-platform/api/swagger"
	"github.com/adcar/edx-platform/internal/handler"
	"github.com/adcar/edx-platform/internal/middleware"
	"github.com/adcar/edx-platform/internal/repository"
	"github.com/adcar/edx-platform/internal/service"
	"github.com/adcar/edx-platform/pkg/cache"
	"github.com/adcar/edx-platform/pkg/config"
	"github.com/adcar/edx-platform/pkg/database"
	"github.com/adcar/edx-platform/pkg/jobs"
	"github.com/adcar/edx-platform/pkg/logger"
	corsmiddleware "github.com/adcar/edx-platform/pkg/middleware/cors"
	reqidmiddleware "github.com/adcar/edx-platform/pkg/middleware/requestid"
	"github.com/adcar/edx-platform/pkg/storage"
)

// @title Learner Dashboard API
// @version 1.0.0
// @description Composed per-learner dashboard status from enrollment, certificate, credit, verification, financial, email and courseware sources.
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	coordinator := service.NewFetchCoordinator(service.CoordinatorParams{
		Certificates: repository.NewCertificateRepository(db),
		Credits:      repository.NewCreditRepository(db),
		Verification: repository.NewVerificationRepository(db),
		Financial:    repository.NewFinancialRepository(db),
		Email:        repository.NewEmailPreferenceRepository(db),
		Courseware:   repository.NewCoursewareRepository(db),
		Metrics:      metrics,
		Logger:       logr,
		Config: service.CoordinatorConfig{
			LookupTimeout:  cfg.Providers.LookupTimeout,
			RenderDeadline: cfg.Providers.RenderDeadline,
		},
	})

	programIndex := service.NewProgramIndex(repository.NewProgramRepository(db), cfg.Catalog.StaleAfter, metrics, logr)
	if err := programIndex.Refresh(ctx); err != nil {
		logr.Warn("initial program catalog load failed, serving empty index", zap.Error(err))
	}
	refreshQueue := jobs.NewQueue("catalog-refresh", programIndex.HandleRefreshJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Catalog.RefreshRetries,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()
	programIndex.ScheduleRefresh(ctx, refreshQueue, cfg.Catalog.RefreshInterval)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Enrollments: repository.NewEnrollmentRepository(db),
		Coordinator: coordinator,
		Programs:    programIndex,
		Cache:       cacheSvc,
		Metrics:     metrics,
		Logger:      logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:          cfg.Dashboard.CacheTTL,
			RequiredProviders: cfg.Providers.Required,
		},
	})

	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, nil)
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(dashboardSvc, store, signer, nil, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr, nil, nil)
		exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval)
		dashboardHandler = handler.NewDashboardHandler(dashboardSvc, exportSvc)
	}
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group("/api/v1")
	api.GET("/export/:token", dashboardHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.Identity(cfg.JWT.Secret))
	authed.GET("/dashboard/status", dashboardHandler.Status)
	authed.DELETE("/dashboard/status", dashboardHandler.Invalidate)
	if cfg.Exports.Enabled {
		authed.POST("/dashboard/export", dashboardHandler.Export)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
