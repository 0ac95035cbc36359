package main

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/internal/repository"
	"github.com/flownco2789-ui/codeai/internal/service"
	"github.com/flownco2789-ui/codeai/pkg/config"
	"github.com/flownco2789-ui/codeai/pkg/database"
	"github.com/flownco2789-ui/codeai/pkg/logger"
)

var seedAdmins = []models.AdminUser{
	{Email: "superadmin@codeai.co.kr", Name: "Super Admin", Role: models.RoleSuperAdmin},
	{Email: "subadmin@codeai.co.kr", Name: "Sub Admin", Role: models.RoleSubAdmin},
	{Email: "instadmin@codeai.co.kr", Name: "Instructor Desk", Role: models.RoleInstructorAdmin},
	{Email: "stuadmin@codeai.co.kr", Name: "Student Desk", Role: models.RoleStudentAdmin},
}

// Existing accounts are left untouched so reseeding never resets passwords.
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

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	admins := repository.NewAdminUserRepository(db)
	instructors := repository.NewInstructorRepository(db)

	adminHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		logr.Fatal("failed to hash admin password", zap.Error(err))
	}
	for _, admin := range seedAdmins {
		admin := admin
		_, err := admins.FindByEmail(ctx, admin.Email)
		if err == nil {
			logr.Info("admin exists", zap.String("email", admin.Email))
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			logr.Fatal("failed to look up admin", zap.String("email", admin.Email), zap.Error(err))
		}
		admin.PasswordHash = string(adminHash)
		admin.Active = true
		if err := admins.Upsert(ctx, &admin); err != nil {
			logr.Fatal("failed to seed admin", zap.String("email", admin.Email), zap.Error(err))
		}
		logr.Info("admin seeded", zap.String("email", admin.Email), zap.String("role", string(admin.Role)))
	}

	instructor, err := seedDemoInstructor(ctx, instructors, cfg.Seed.InstructorPassword)
	if err != nil {
		logr.Fatal("failed to seed demo instructor", zap.Error(err))
	}

	if cfg.Seed.DemoPortalPhone != "" {
		credentials := service.NewCredentialService(repository.NewPortalCodeRepository(db), service.CredentialConfig{
			TTL:      cfg.Portal.CodeTTL,
			HashCost: cfg.Portal.CodeHashCost,
		}, nil, logr)
		notifications := service.NewNotificationService(admins, repository.NewNotificationRepository(db), logr)
		seeder := service.NewDemoPortalSeeder(repository.NewStudentApplicationRepository(db), repository.NewEnrollmentRepository(db), credentials, notifications, logr)
		access, err := seeder.Seed(ctx, instructor.ID, cfg.Seed.DemoPortalPhone)
		if err != nil {
			logr.Fatal("failed to seed demo portal access", zap.Error(err))
		}
		if access != nil {
			logr.Info("demo portal code issued",
				zap.Int64("enrollment_id", access.EnrollmentID),
				zap.String("phone", access.Phone),
				zap.String("code", access.Code),
				zap.Time("expires_at", access.ExpiresAt))
		}
	}
	logr.Info("seed done")
}

func seedDemoInstructor(ctx context.Context, repo *repository.InstructorRepository, password string) (*models.Instructor, error) {
	const email = "demo-instructor@codeai.co.kr"
	if existing, err := repo.FindByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	region, education, career, major := "수지", "OO대 컴퓨터공학", "학원/과외 5년", "컴퓨터공학"
	age, gender := 30, models.GenderMale
	instructor := &models.Instructor{
		Profile: models.Profile{
			Name:      "데모강사",
			Phone:     "01000000000",
			Email:     email,
			Subjects:  models.StringList{"파이썬", "웹개발", "알고리즘"},
			Modes:     models.StringList{string(models.ModeRemote), string(models.ModeInPerson1on1)},
			Region:    &region,
			Education: &education,
			Career:    &career,
			Major:     &major,
			Age:       &age,
			Gender:    &gender,
		},
		PasswordHash: string(hash),
		Status:       models.InstructorActive,
	}
	if err := repo.Upsert(ctx, instructor); err != nil {
		return nil, err
	}
	return instructor, nil
}
