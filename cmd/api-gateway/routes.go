package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/handler"
	"github.com/flownco2789-ui/codeai/internal/middleware"
	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/internal/repository"
	"github.com/flownco2789-ui/codeai/internal/service"
	"github.com/flownco2789-ui/codeai/pkg/config"
	"github.com/flownco2789-ui/codeai/pkg/logger"
	corsmiddleware "github.com/flownco2789-ui/codeai/pkg/middleware/cors"
	reqidmiddleware "github.com/flownco2789-ui/codeai/pkg/middleware/requestid"
)

type services struct {
	auth           *service.AuthService
	intake         *service.IntakeService
	instructorApps *service.InstructorApplicationService
	enrollments    *service.EnrollmentService
	reports        *service.ReportService
	notifications  *service.NotificationService
	metrics        *service.MetricsService
	cache          *repository.CacheRepository
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, svc *services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svc.metrics))

	ops := handler.NewMetricsHandler(svc.metrics, db, svc.cache, logr)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := handler.NewAuthHandler(svc.auth)
	intake := handler.NewIntakeHandler(svc.intake, svc.instructorApps)
	enrollments := handler.NewEnrollmentHandler(svc.enrollments)
	reports := handler.NewReportHandler(svc.reports)
	notifications := handler.NewNotificationHandler(svc.notifications)

	api := r.Group(cfg.APIPrefix)

	public := api.Group("/public")
	public.POST("/student-applications", intake.CreateStudentApplication)
	public.GET("/instructors", intake.ListInstructors)
	public.POST("/student-applications/:id/select-instructor", enrollments.SelectInstructor)
	public.POST("/instructor-applications", intake.CreateInstructorApplication)
	api.POST("/applications/enroll", intake.LegacyEnroll)

	api.POST("/admin/auth/login", auth.AdminLogin)
	admin := api.Group("/admin", middleware.RequireAudience(svc.auth, models.AudienceAdmin))
	{
		allAdmins := middleware.RequireAdminRoles(models.RoleSuperAdmin, models.RoleSubAdmin, models.RoleInstructorAdmin, models.RoleStudentAdmin)
		instructorDesk := middleware.RequireAdminRoles(models.RoleSuperAdmin, models.RoleSubAdmin, models.RoleInstructorAdmin)
		studentDesk := middleware.RequireAdminRoles(models.RoleSuperAdmin, models.RoleSubAdmin, models.RoleStudentAdmin)
		managers := middleware.RequireAdminRoles(models.RoleSuperAdmin, models.RoleSubAdmin)

		admin.GET("/instructor-applications", instructorDesk, intake.ListInstructorApplications)
		admin.PUT("/instructor-applications/:id/review", instructorDesk, intake.ReviewInstructorApplication)
		admin.GET("/student-applications", studentDesk, intake.ListStudentApplications)
		admin.GET("/enrollments", allAdmins, enrollments.ListAdmin)
		admin.PUT("/enrollments/:id/set-period", studentDesk, enrollments.SetPeriod)
		admin.POST("/enrollments/:id/mark-paid", studentDesk, enrollments.MarkPaid)
		admin.GET("/reports", managers, reports.ListAdmin)
		admin.PUT("/reports/:id/review", managers, reports.Review)
		admin.GET("/notifications", managers, notifications.List)
	}

	api.POST("/instructor/auth/login", auth.InstructorLogin)
	instructor := api.Group("/instructor", middleware.RequireAudience(svc.auth, models.AudienceInstructor))
	{
		instructor.GET("/enrollments", enrollments.ListForInstructor)
		instructor.PUT("/enrollments/:id/consult-done", enrollments.ConsultDone)
		instructor.POST("/enrollments/:id/request-payment", enrollments.RequestPayment)
		instructor.POST("/reports", reports.Submit)
	}

	api.POST("/portal/login", auth.PortalLogin)
	portal := api.Group("/portal", middleware.RequireAudience(svc.auth, models.AudiencePortal))
	{
		portal.GET("/enrollments", enrollments.ListForPortal)
		portal.GET("/enrollments/:id/reports", reports.ListForPortal)
		portal.GET("/enrollments/:id/reports/export", reports.Export)
	}

	return r
}
