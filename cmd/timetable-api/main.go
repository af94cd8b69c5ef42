package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sakchai-dev/timetable-api/api/swagger"
	"github.com/sakchai-dev/timetable-api/internal/handler"
	"github.com/sakchai-dev/timetable-api/internal/middleware"
	"github.com/sakchai-dev/timetable-api/internal/models"
	"github.com/sakchai-dev/timetable-api/internal/repository"
	"github.com/sakchai-dev/timetable-api/internal/service"
	"github.com/sakchai-dev/timetable-api/pkg/cache"
	"github.com/sakchai-dev/timetable-api/pkg/config"
	"github.com/sakchai-dev/timetable-api/pkg/database"
	"github.com/sakchai-dev/timetable-api/pkg/jobs"
	"github.com/sakchai-dev/timetable-api/pkg/logger"
	corsmiddleware "github.com/sakchai-dev/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sakchai-dev/timetable-api/pkg/middleware/requestid"
	"github.com/sakchai-dev/timetable-api/pkg/storage"
)

// @title Timetable API
// @version 1.0.0
// @description School timetable administration: course requirements, automatic and manual placement, meeting locks, weekly grids and exports.
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services. Metrics and cache come first so everything else can record
	// into them; the timetable view sits between the cache and the services
	// that invalidate it.
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Timetable.CacheTTL, logr, true)

	timetableService := service.NewTimetableService(
		assignmentRepo, classroomRepo, teacherRepo, settingsRepo,
		cacheService, cfg.Timetable.CacheTTL, logr,
	)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "timetable-api",
	})
	teacherService := service.NewTeacherService(teacherRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, validate, logr)
	classroomService := service.NewClassroomService(classroomRepo, validate, logr)
	settingsService := service.NewSettingsService(settingsRepo, validate, logr)
	requirementService := service.NewRequirementService(
		requirementRepo, classroomRepo, subjectRepo, teacherRepo, settingsRepo, validate, logr,
	)

	schedulerService := service.NewSchedulerService(
		requirementRepo, assignmentRepo, classroomRepo, settingsRepo,
		timetableService, metricsService, validate, logr,
	)
	placementService := service.NewPlacementService(
		assignmentRepo, classroomRepo, settingsRepo, timetableService,
		validate, logr, service.PlacementConfig{MaxSharedPerCell: cfg.Scheduler.MaxSharedPerCell},
	)
	globalPlacementService := service.NewGlobalPlacementService(
		assignmentRepo, classroomRepo, settingsRepo, timetableService, validate, logr,
	)
	meetingLockService := service.NewMeetingLockService(
		assignmentRepo, teacherRepo, settingsRepo, timetableService, validate, logr,
	)

	// Export pipeline: renderer, job lifecycle, background queue.
	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportService := service.NewExportService(
		assignmentRepo, classroomRepo, teacherRepo, exportStorage, signer,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
		logr, nil, nil,
	)
	exportWorker := service.NewExportWorker(exportJobRepo, exportService, cfg.Exports.WorkerRetries, logr)
	exportQueue := jobs.NewQueue("exports", exportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		BufferSize: 64,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	exportJobService := service.NewExportJobService(
		exportJobRepo, settingsRepo, exportQueue, exportService, validate, logr,
		service.ExportJobConfig{
			ResultTTL:  cfg.Exports.SignedURLTTL,
			MaxRetries: cfg.Exports.WorkerRetries,
		},
	)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	teacherHandler := handler.NewTeacherHandler(teacherService)
	subjectHandler := handler.NewSubjectHandler(subjectService)
	classroomHandler := handler.NewClassroomHandler(classroomService)
	requirementHandler := handler.NewRequirementHandler(requirementService)
	settingsHandler := handler.NewSettingsHandler(settingsService)
	schedulerHandler := handler.NewSchedulerHandler(schedulerService)
	placementHandler := handler.NewPlacementHandler(placementService)
	globalPlacementHandler := handler.NewGlobalPlacementHandler(globalPlacementService)
	meetingLockHandler := handler.NewMeetingLockHandler(meetingLockService)
	timetableHandler := handler.NewTimetableHandler(timetableService)
	exportHandler := handler.NewExportHandler(exportJobService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Unauthenticated: login and token-signed export downloads.
	api.POST("/auth/login", authHandler.Login)
	api.GET("/exports/download/:token", exportHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authService))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/teachers", teacherHandler.List)
		authed.GET("/teachers/:id", teacherHandler.Get)
		authed.GET("/subjects", subjectHandler.List)
		authed.GET("/subjects/:id", subjectHandler.Get)
		authed.GET("/classrooms", classroomHandler.List)
		authed.GET("/classrooms/:id", classroomHandler.Get)
		authed.GET("/requirements", requirementHandler.List)
		authed.GET("/requirements/:id", requirementHandler.Get)
		authed.GET("/settings", settingsHandler.Get)

		timetables := authed.Group("/timetables", middleware.WithResponseMeta())
		timetables.GET("/classrooms/:id", timetableHandler.ClassroomGrid)
		timetables.GET("/teachers/:id", timetableHandler.TeacherGrid)

		authed.POST("/exports", exportHandler.Create)
		authed.GET("/exports/:id", exportHandler.Status)
	}

	// Everything that mutates master data or the grid is admin-only.
	admin := api.Group("")
	admin.Use(middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.POST("/teachers", teacherHandler.Create)
		admin.PUT("/teachers/:id", teacherHandler.Update)
		admin.DELETE("/teachers/:id", teacherHandler.Deactivate)

		admin.POST("/subjects", subjectHandler.Create)
		admin.PUT("/subjects/:id", subjectHandler.Update)
		admin.DELETE("/subjects/:id", subjectHandler.Delete)

		admin.POST("/classrooms", classroomHandler.Create)
		admin.PUT("/classrooms/:id", classroomHandler.Update)
		admin.DELETE("/classrooms/:id", classroomHandler.Delete)

		admin.POST("/requirements", requirementHandler.Create)
		admin.PUT("/requirements/:id", requirementHandler.Update)
		admin.DELETE("/requirements/:id", requirementHandler.Delete)

		admin.PUT("/settings", settingsHandler.Update)

		admin.POST("/scheduler/run", schedulerHandler.Run)
		admin.POST("/scheduler/global", globalPlacementHandler.Place)

		admin.POST("/assignments", placementHandler.Place)
		admin.DELETE("/assignments/:id", placementHandler.Remove)
		admin.POST("/assignments/clear", placementHandler.Clear)

		admin.POST("/meetings/lock", meetingLockHandler.Lock)
		admin.POST("/meetings/free", meetingLockHandler.Free)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Exports.Enabled {
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exportJobService.RecoverPendingJobs(ctx)
		exportJobService.StartCleanup(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
