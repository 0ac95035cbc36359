package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

type reportStore interface {
	Create(ctx context.Context, report *models.Report, events func(id int64) []models.OutboxEvent) error
	List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	ListApproved(ctx context.Context, enrollmentID int64) ([]models.Report, error)
	Review(ctx context.Context, id int64, status models.ReportStatus, note *string, reviewedAt time.Time) error
}

type enrollmentContextReader interface {
	FindContext(ctx context.Context, id int64) (*models.EnrollmentContext, error)
}

// ReportService gates instructor reports: only APPROVED ones reach the portal.
type ReportService struct {
	reports     reportStore
	enrollments enrollmentContextReader
	exporter    *ExportService
	relay       Nudger
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

func NewReportService(reports reportStore, enrollments enrollmentContextReader, exporter *ExportService, relay Nudger, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(nil, nil, logger)
	}
	if relay == nil {
		relay = noopNudger{}
	}
	return &ReportService{
		reports:     reports,
		enrollments: enrollments,
		exporter:    exporter,
		relay:       relay,
		validator:   validate,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Submit stores a PENDING report for one of the instructor's own enrollments.
func (s *ReportService) Submit(ctx context.Context, instructorID int64, req dto.SubmitReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}
	raw := strings.TrimSpace(string(req.RawData))
	if raw != "" && raw != "null" && !json.Valid([]byte(raw)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rawData must be valid JSON")
	}

	ec, err := s.enrollments.FindContext(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if ec.InstructorID != instructorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another instructor")
	}

	report := &models.Report{
		EnrollmentID: ec.ID,
		InstructorID: instructorID,
		Type:         models.ReportType(req.Type),
		Title:        strings.TrimSpace(req.Title),
		Summary:      optional(req.Summary),
		Feedback:     optional(req.Feedback),
		Score:        req.Score,
	}
	if raw != "" && raw != "null" {
		report.RawData = models.RawJSON(raw)
	}

	err = s.reports.Create(ctx, report, func(id int64) []models.OutboxEvent {
		return []models.OutboxEvent{rolesEvent(models.EventReportSubmitted, reportDeskRoles, models.JSONMap{
			"reportId":     id,
			"enrollmentId": ec.ID,
		})}
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit report")
	}
	s.relay.Nudge()
	return report, nil
}

// Review sets the outcome; reviewing again overwrites the previous one.
func (s *ReportService) Review(ctx context.Context, id int64, req dto.ReviewRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be APPROVED or REJECTED")
	}
	err := s.reports.Review(ctx, id, models.ReportStatus(req.Status), optional(req.Note), s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review report")
	}
	s.logger.Info("report reviewed", zap.Int64("report_id", id), zap.String("status", req.Status))
	return nil
}

func (s *ReportService) ListAdmin(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	reports, err := s.reports.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// ListForPortal returns approved reports of an enrollment owned by rawPhone.
func (s *ReportService) ListForPortal(ctx context.Context, rawPhone string, enrollmentID int64) ([]models.Report, error) {
	if err := s.ensurePortalOwner(ctx, rawPhone, enrollmentID); err != nil {
		return nil, err
	}
	reports, err := s.reports.ListApproved(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

func (s *ReportService) ExportForPortal(ctx context.Context, rawPhone string, enrollmentID int64, format dto.ExportFormat) (*ExportFile, error) {
	reports, err := s.ListForPortal(ctx, rawPhone, enrollmentID)
	if err != nil {
		return nil, err
	}
	return s.exporter.RenderReports(enrollmentID, reports, format)
}

// A missing enrollment is reported as FORBIDDEN so the portal cannot probe ids.
func (s *ReportService) ensurePortalOwner(ctx context.Context, rawPhone string, enrollmentID int64) error {
	ec, err := s.enrollments.FindContext(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrForbidden, "enrollment is not accessible")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if ec.StudentPhone != phone.Normalize(rawPhone) {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment is not accessible")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
