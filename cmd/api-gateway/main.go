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

	_ "github.com/flownco2789-ui/codeai/api/swagger"
	"github.com/flownco2789-ui/codeai/internal/repository"
	"github.com/flownco2789-ui/codeai/internal/service"
	"github.com/flownco2789-ui/codeai/pkg/cache"
	"github.com/flownco2789-ui/codeai/pkg/config"
	"github.com/flownco2789-ui/codeai/pkg/database"
	"github.com/flownco2789-ui/codeai/pkg/export"
	"github.com/flownco2789-ui/codeai/pkg/logger"
)

// @title CodeAI Tutoring API
// @version 1.0.0
// @description Tutoring marketplace: applications, enrollments, portal access and progress reports.
// @BasePath /api/v1
// @schemes http https
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Migrations.AutoMigrate {
		migrator, err := database.NewMigrator(db.DB, logr)
		if err != nil {
			logr.Fatal("failed to init migrator", zap.Error(err))
		}
		if err := migrator.Up(ctx); err != nil {
			logr.Fatal("failed to migrate", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, cache and login throttle disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	adminRepo := repository.NewAdminUserRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	studentAppRepo := repository.NewStudentApplicationRepository(db)
	instructorAppRepo := repository.NewInstructorApplicationRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	codeRepo := repository.NewPortalCodeRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.InstructorTTL, logr, cfg.Cache.Enabled && redisClient != nil)
	notifications := service.NewNotificationService(adminRepo, notificationRepo, logr)
	relay := service.NewOutboxRelay(outboxRepo, notifications, service.OutboxRelayConfig{
		Workers:      cfg.Outbox.Workers,
		MaxAttempts:  cfg.Outbox.MaxRetries,
		RetryDelay:   cfg.Outbox.RetryDelay,
		MaxBackoff:   cfg.Outbox.MaxBackoff,
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
	}, metrics, logr)
	var nudger service.Nudger
	if cfg.Outbox.Enabled {
		relay.Start(ctx)
		defer relay.Stop()
		nudger = relay
	}

	credentials := service.NewCredentialService(codeRepo, service.CredentialConfig{
		TTL:      cfg.Portal.CodeTTL,
		HashCost: cfg.Portal.CodeHashCost,
	}, metrics, logr)
	throttle := service.NewLoginThrottle(nil, cfg.Portal.LoginMaxAttempts, cfg.Portal.LoginWindow, metrics, logr)
	if redisClient != nil {
		throttle = service.NewLoginThrottle(cacheRepo, cfg.Portal.LoginMaxAttempts, cfg.Portal.LoginWindow, metrics, logr)
	}

	svc := &services{
		auth: service.NewAuthService(adminRepo, instructorRepo, credentials, throttle, validate, logr, service.AuthConfig{
			Secret:        cfg.JWT.Secret,
			Issuer:        cfg.JWT.Issuer,
			AdminTTL:      cfg.JWT.AdminExpiration,
			InstructorTTL: cfg.JWT.InstructorExpiry,
			PortalTTL:     cfg.JWT.PortalExpiration,
		}),
		intake:         service.NewIntakeService(studentAppRepo, instructorRepo, cacheSvc, nudger, validate, logr),
		instructorApps: service.NewInstructorApplicationService(instructorAppRepo, cacheSvc, nudger, validate, logr),
		enrollments: service.NewEnrollmentService(service.EnrollmentDeps{
			Enrollments:  enrollmentRepo,
			Applications: studentAppRepo,
			Instructors:  instructorRepo,
			Payments:     paymentRepo,
			Credentials:  credentials,
			Commerce:     service.NewCommerceProvider(cfg.Commerce, logr),
			Relay:        nudger,
			Metrics:      metrics,
			Validator:    validate,
			Logger:       logr,
			DefaultTitle: cfg.Commerce.DefaultTitle,
		}),
		reports: service.NewReportService(reportRepo, enrollmentRepo,
			service.NewExportService(export.NewCSVExporter(), export.NewPDFExporter(cfg.Export.PDFFontPath), logr),
			nudger, validate, logr),
		notifications: notifications,
		metrics:       metrics,
		cache:         cacheRepo,
	}

	router := newRouter(cfg, logr, db, svc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
