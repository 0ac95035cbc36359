package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/internal/repository"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

const dateLayout = "2006-01-02"

type enrollmentStore interface {
	FindContext(ctx context.Context, id int64) (*models.EnrollmentContext, error)
	Transition(ctx context.Context, id int64, apply func(*models.EnrollmentContext) (*repository.EnrollmentChange, error)) (*models.EnrollmentContext, error)
	Select(ctx context.Context, applicationID, instructorID int64,
		guard func(*models.StudentApplication, *models.Instructor) error,
		events func(*models.StudentApplication, *models.Instructor, *models.Enrollment) []models.OutboxEvent) (*models.Enrollment, error)
	ListAdmin(ctx context.Context) ([]models.EnrollmentDetail, error)
	ListForInstructor(ctx context.Context, instructorID int64) ([]models.InstructorEnrollment, error)
	ListForPortal(ctx context.Context, phone string) ([]models.PortalEnrollment, error)
}

type studentApplicationReader interface {
	FindByID(ctx context.Context, id int64) (*models.StudentApplication, error)
}

type instructorReader interface {
	FindByID(ctx context.Context, id int64) (*models.Instructor, error)
}

type paymentLister interface {
	ListByEnrollments(ctx context.Context, enrollmentIDs []int64) (map[int64][]models.Payment, error)
}

type codePreparer interface {
	Prepare(enrollmentID int64, phone string) (string, *models.PortalAccessCode, error)
}

// EnrollmentDeps wires the enrollment state machine.
type EnrollmentDeps struct {
	Enrollments  enrollmentStore
	Applications studentApplicationReader
	Instructors  instructorReader
	Payments     paymentLister
	Credentials  codePreparer
	Commerce     CommerceProvider
	Relay        Nudger
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
	DefaultTitle string
}

// EnrollmentService owns the enrollment lifecycle
// BEFORE_PAYMENT < CONSULT_DONE < PAYMENT_REQUESTED < PAID.
// Every transition runs under a row lock; a move to a lower rank is a
// CONFLICT while re-entering the current rank is allowed.
type EnrollmentService struct {
	enrollments  enrollmentStore
	applications studentApplicationReader
	instructors  instructorReader
	payments     paymentLister
	credentials  codePreparer
	commerce     CommerceProvider
	relay        Nudger
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	defaultTitle string
	now          func() time.Time
}

func NewEnrollmentService(deps EnrollmentDeps) *EnrollmentService {
	if deps.Validator == nil {
		deps.Validator = NewValidator()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Commerce == nil {
		deps.Commerce = StubCommerce{}
	}
	if deps.Relay == nil {
		deps.Relay = noopNudger{}
	}
	if deps.DefaultTitle == "" {
		deps.DefaultTitle = "CodeAI 수강결제"
	}
	return &EnrollmentService{
		enrollments:  deps.Enrollments,
		applications: deps.Applications,
		instructors:  deps.Instructors,
		payments:     deps.Payments,
		credentials:  deps.Credentials,
		commerce:     deps.Commerce,
		relay:        deps.Relay,
		metrics:      deps.Metrics,
		validator:    deps.Validator,
		logger:       deps.Logger,
		defaultTitle: deps.DefaultTitle,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SelectInstructor pairs an application with an active instructor and opens
// a BEFORE_PAYMENT enrollment.
func (s *EnrollmentService) SelectInstructor(ctx context.Context, applicationID int64, req dto.SelectInstructorRequest) (*dto.SelectInstructorResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor selection")
	}

	if _, err := s.applications.FindByID(ctx, applicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student application")
	}
	instructor, err := s.instructors.FindByID(ctx, req.InstructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor.Status != models.InstructorActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}

	enrollment, err := s.enrollments.Select(ctx, applicationID, req.InstructorID,
		func(app *models.StudentApplication, _ *models.Instructor) error {
			if app.Status == models.ApplicationEnrolled {
				return appErrors.Clone(appErrors.ErrConflict, "student application is already enrolled")
			}
			return nil
		},
		selectionEvents,
	)
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
		case errors.Is(err, sql.ErrNoRows):
			appErr = appErrors.Clone(appErrors.ErrNotFound, "student application or instructor not found")
		default:
			appErr = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select instructor")
		}
		s.metrics.RecordTransition("select_instructor", appErr.Code)
		return nil, appErr
	}

	s.metrics.RecordTransition("select_instructor", "ok")
	s.relay.Nudge()
	s.logger.Info("instructor selected",
		zap.Int64("application_id", applicationID),
		zap.Int64("instructor_id", req.InstructorID),
		zap.Int64("enrollment_id", enrollment.ID))
	return &dto.SelectInstructorResponse{EnrollmentID: enrollment.ID}, nil
}

func selectionEvents(app *models.StudentApplication, instructor *models.Instructor, enrollment *models.Enrollment) []models.OutboxEvent {
	region := ""
	if app.Region != nil {
		region = *app.Region
	}
	return []models.OutboxEvent{
		rolesEvent(models.EventStudentSelectedInstructor, studentDeskRoles, models.JSONMap{
			"studentApplicationId": app.ID,
			"enrollmentId":         enrollment.ID,
			"studentName":          app.Name,
			"studentPhone":         app.Phone,
			"instructorId":         instructor.ID,
			"instructorName":       instructor.Name,
		}),
		phoneEvent(models.EventStudentSelectedInstructorToIn, instructor.Phone, models.JSONMap{
			"enrollmentId": enrollment.ID,
			"studentName":  app.Name,
			"studentPhone": app.Phone,
			"mode":         app.Mode,
			"region":       region,
			"subjects":     []string(app.Subjects),
		}),
	}
}

// ConsultDone records the free consultation for the owning instructor.
func (s *EnrollmentService) ConsultDone(ctx context.Context, enrollmentID, instructorID int64) (*dto.TransitionResponse, error) {
	result, err := s.transition(ctx, "consult_done", enrollmentID, func(ec *models.EnrollmentContext) (*repository.EnrollmentChange, error) {
		if err := ensureOwner(ec, instructorID); err != nil {
			return nil, err
		}
		if err := ensureForward(ec.Status, models.EnrollmentConsultDone); err != nil {
			return nil, err
		}
		now := s.now()
		return &repository.EnrollmentChange{Status: models.EnrollmentConsultDone, ConsultedAt: &now}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.TransitionResponse{EnrollmentID: result.ID, Status: string(result.Status)}, nil
}

// RequestPayment asks the commerce provider for a link and moves the
// enrollment to PAYMENT_REQUESTED. Provider failures only drop the link.
func (s *EnrollmentService) RequestPayment(ctx context.Context, enrollmentID, instructorID int64, req dto.RequestPaymentRequest) (*dto.RequestPaymentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "amount must be a positive number")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = s.defaultTitle
	}

	current, err := s.enrollments.FindContext(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := ensureOwner(current, instructorID); err != nil {
		return nil, err
	}
	if err := ensureForward(current.Status, models.EnrollmentPaymentRequested); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		EnrollmentID: enrollmentID,
		Amount:       req.Amount,
		Title:        title,
		Status:       models.PaymentRequested,
	}
	product, err := s.commerce.CreateProduct(ctx, title, req.Amount, enrollmentID)
	if err != nil {
		s.logger.Warn("commerce provider failed, continuing without payment link",
			zap.String("code", appErrors.ErrUpstreamUnavailable.Code),
			zap.Int64("enrollment_id", enrollmentID),
			zap.Error(err))
		payment.Meta = models.JSONMap{"error": err.Error()}
	} else if product != nil {
		payment.ProductID = product.ProductID
		payment.ProductURL = product.ProductURL
		payment.Meta = product.Raw
		if product.ProductURL != nil {
			payment.Status = models.PaymentProductCreated
		}
	}

	var paymentURL interface{}
	if payment.ProductURL != nil {
		paymentURL = *payment.ProductURL
	}

	_, err = s.transition(ctx, "request_payment", enrollmentID, func(ec *models.EnrollmentContext) (*repository.EnrollmentChange, error) {
		if err := ensureOwner(ec, instructorID); err != nil {
			return nil, err
		}
		if err := ensureForward(ec.Status, models.EnrollmentPaymentRequested); err != nil {
			return nil, err
		}
		return &repository.EnrollmentChange{
			Status:  models.EnrollmentPaymentRequested,
			Payment: payment,
			Events: []models.OutboxEvent{phoneEvent(models.EventPaymentLinkCreated, ec.StudentPhone, models.JSONMap{
				"enrollmentId": ec.ID,
				"amount":       payment.Amount,
				"title":        payment.Title,
				"paymentUrl":   paymentURL,
			})},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.RequestPaymentResponse{
		PaymentID:  payment.ID,
		Status:     string(payment.Status),
		PaymentURL: payment.ProductURL,
	}, nil
}

// MarkPaid confirms payment and issues a portal access code for the student.
// The plaintext code is only ever returned here and in the queued notification.
func (s *EnrollmentService) MarkPaid(ctx context.Context, enrollmentID int64) (*dto.MarkPaidResponse, error) {
	var (
		plain  string
		record *models.PortalAccessCode
	)
	result, err := s.transition(ctx, "mark_paid", enrollmentID, func(ec *models.EnrollmentContext) (*repository.EnrollmentChange, error) {
		if err := ensureForward(ec.Status, models.EnrollmentPaid); err != nil {
			return nil, err
		}
		var err error
		plain, record, err = s.credentials.Prepare(ec.ID, ec.StudentPhone)
		if err != nil {
			return nil, err
		}
		return &repository.EnrollmentChange{
			Status:     models.EnrollmentPaid,
			AccessCode: record,
			Events: []models.OutboxEvent{phoneEvent(models.EventPortalCodeIssued, record.Phone, models.JSONMap{
				"enrollmentId": ec.ID,
				"portalCode":   plain,
			})},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.MarkPaidResponse{
		EnrollmentID: result.ID,
		Status:       string(result.Status),
		PortalCode:   plain,
		ExpiresAt:    record.ExpiresAt,
	}, nil
}

// SetPeriod stores the lesson period without touching the status.
func (s *EnrollmentService) SetPeriod(ctx context.Context, enrollmentID int64, req dto.SetPeriodRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must not be after end date")
	}

	result, err := s.transition(ctx, "set_period", enrollmentID, func(ec *models.EnrollmentContext) (*repository.EnrollmentChange, error) {
		return &repository.EnrollmentChange{Status: ec.Status, StartDate: &start, EndDate: &end}, nil
	})
	if err != nil {
		return nil, err
	}
	return &result.Enrollment, nil
}

func (s *EnrollmentService) ListAdmin(ctx context.Context) ([]models.EnrollmentDetail, error) {
	items, err := s.enrollments.ListAdmin(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return items, nil
}

// ListForInstructor returns the instructor's enrollments with their payments attached.
func (s *EnrollmentService) ListForInstructor(ctx context.Context, instructorID int64) ([]models.InstructorEnrollment, error) {
	items, err := s.enrollments.ListForInstructor(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	grouped, err := s.payments.ListByEnrollments(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	for i := range items {
		items[i].Payments = grouped[items[i].ID]
		if items[i].Payments == nil {
			items[i].Payments = []models.Payment{}
		}
	}
	return items, nil
}

func (s *EnrollmentService) ListForPortal(ctx context.Context, rawPhone string) ([]models.PortalEnrollment, error) {
	items, err := s.enrollments.ListForPortal(ctx, phone.Normalize(rawPhone))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return items, nil
}

// transition runs apply under the enrollment lock and maps storage outcomes to domain errors.
func (s *EnrollmentService) transition(ctx context.Context, name string, enrollmentID int64, apply func(*models.EnrollmentContext) (*repository.EnrollmentChange, error)) (*models.EnrollmentContext, error) {
	var queued bool
	result, err := s.enrollments.Transition(ctx, enrollmentID, func(ec *models.EnrollmentContext) (*repository.EnrollmentChange, error) {
		change, err := apply(ec)
		if err != nil {
			return nil, err
		}
		queued = len(change.Events) > 0
		return change, nil
	})
	if err != nil {
		var appErr *appErrors.Error
		switch {
		case errors.As(err, &appErr):
		case errors.Is(err, sql.ErrNoRows):
			appErr = appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		case errors.Is(err, repository.ErrStaleState):
			appErr = appErrors.Clone(appErrors.ErrConflict, "enrollment changed concurrently, retry")
		default:
			appErr = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s", strings.ReplaceAll(name, "_", " ")))
		}
		s.metrics.RecordTransition(name, appErr.Code)
		if appErr.Status >= 500 {
			s.logger.Error("enrollment transition failed", zap.String("transition", name), zap.Int64("enrollment_id", enrollmentID), zap.Error(err))
		}
		return nil, appErr
	}

	s.metrics.RecordTransition(name, "ok")
	if queued {
		s.relay.Nudge()
	}
	s.logger.Info("enrollment transitioned",
		zap.String("transition", name),
		zap.Int64("enrollment_id", enrollmentID),
		zap.String("status", string(result.Status)))
	return result, nil
}

func ensureOwner(ec *models.EnrollmentContext, instructorID int64) error {
	if ec.InstructorID != instructorID {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another instructor")
	}
	return nil
}

func ensureForward(from, to models.EnrollmentStatus) error {
	if !from.CanMoveTo(to) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("enrollment is %s and cannot move back to %s", from, to))
	}
	return nil
}
