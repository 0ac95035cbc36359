package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

type demoApplicationStore interface {
	Create(ctx context.Context, app *models.StudentApplication, events func(id int64) []models.OutboxEvent) error
}

type demoEnrollmentStore interface {
	Select(ctx context.Context, applicationID, instructorID int64,
		guard func(*models.StudentApplication, *models.Instructor) error,
		events func(*models.StudentApplication, *models.Instructor, *models.Enrollment) []models.OutboxEvent) (*models.Enrollment, error)
	ListForPortal(ctx context.Context, phone string) ([]models.PortalEnrollment, error)
}

type codeIssuer interface {
	Issue(ctx context.Context, enrollmentID int64, rawPhone string) (string, *models.PortalAccessCode, error)
}

type ledgerRecorder interface {
	RecordForRoles(ctx context.Context, roles []models.AdminRole, eventType string, payload models.JSONMap) error
	RecordForPhone(ctx context.Context, to string, eventType string, payload models.JSONMap) error
}

// DemoPortalAccess is what the seed command prints for the demo student.
type DemoPortalAccess struct {
	EnrollmentID int64
	Phone        string
	Code         string
	ExpiresAt    time.Time
}

// DemoPortalSeeder opens an enrollment for a demo student and mints a portal
// code for it directly, bypassing the payment flow.
type DemoPortalSeeder struct {
	applications  demoApplicationStore
	enrollments   demoEnrollmentStore
	credentials   codeIssuer
	notifications ledgerRecorder
	logger        *zap.Logger
}

func NewDemoPortalSeeder(applications demoApplicationStore, enrollments demoEnrollmentStore, credentials codeIssuer, notifications ledgerRecorder, logger *zap.Logger) *DemoPortalSeeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemoPortalSeeder{
		applications:  applications,
		enrollments:   enrollments,
		credentials:   credentials,
		notifications: notifications,
		logger:        logger,
	}
}

// Seed returns nil when rawPhone already has an enrollment.
func (s *DemoPortalSeeder) Seed(ctx context.Context, instructorID int64, rawPhone string) (*DemoPortalAccess, error) {
	p := phone.Normalize(rawPhone)
	if !phone.Valid(p) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "demo portal phone must have 10 or 11 digits")
	}

	existing, err := s.enrollments.ListForPortal(ctx, p)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up demo enrollments")
	}
	if len(existing) > 0 {
		s.logger.Info("demo portal enrollment exists", zap.String("phone", phone.Mask(p)), zap.Int64("enrollment_id", existing[0].ID))
		return nil, nil
	}

	app := &models.StudentApplication{
		Name:     "데모학생",
		Phone:    p,
		Subjects: models.StringList{"파이썬"},
		Mode:     models.ModeRemote,
	}
	if err := s.applications.Create(ctx, app, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create demo application")
	}
	enrollment, err := s.enrollments.Select(ctx, app.ID, instructorID, nil, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open demo enrollment")
	}

	plain, record, err := s.credentials.Issue(ctx, enrollment.ID, p)
	if err != nil {
		return nil, err
	}

	if err := s.notifications.RecordForPhone(ctx, p, models.EventPortalCodeIssued, models.JSONMap{
		"enrollmentId": enrollment.ID,
		"portalCode":   plain,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record demo code")
	}
	if err := s.notifications.RecordForRoles(ctx, studentDeskRoles, models.EventStudentSelectedInstructor, models.JSONMap{
		"studentApplicationId": app.ID,
		"enrollmentId":         enrollment.ID,
		"studentName":          app.Name,
		"studentPhone":         p,
		"instructorId":         instructorID,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to notify student desk")
	}

	s.logger.Info("demo portal enrollment seeded", zap.Int64("enrollment_id", enrollment.ID), zap.String("phone", phone.Mask(p)))
	return &DemoPortalAccess{EnrollmentID: enrollment.ID, Phone: p, Code: plain, ExpiresAt: record.ExpiresAt}, nil
}
