package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

type studentApplicationStore interface {
	Create(ctx context.Context, app *models.StudentApplication, events func(id int64) []models.OutboxEvent) error
	List(ctx context.Context) ([]models.StudentApplication, error)
}

type publicInstructorLister interface {
	ListPublic(ctx context.Context, filter models.InstructorFilter) ([]models.PublicInstructor, error)
}

// IntakeService handles the public side: student applications and the instructor catalog.
type IntakeService struct {
	applications studentApplicationStore
	instructors  publicInstructorLister
	cache        *CacheService
	relay        Nudger
	validator    *validator.Validate
	logger       *zap.Logger
}

func NewIntakeService(applications studentApplicationStore, instructors publicInstructorLister, cache *CacheService, relay Nudger, validate *validator.Validate, logger *zap.Logger) *IntakeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if relay == nil {
		relay = noopNudger{}
	}
	return &IntakeService{
		applications: applications,
		instructors:  instructors,
		cache:        cache,
		relay:        relay,
		validator:    validate,
		logger:       logger,
	}
}

func (s *IntakeService) CreateStudentApplication(ctx context.Context, req dto.CreateStudentApplicationRequest) (*models.StudentApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	app := &models.StudentApplication{
		Name:     strings.TrimSpace(req.Name),
		Phone:    phone.Normalize(req.Phone),
		Subjects: models.StringList(req.Subjects).Clean(models.MaxStudentSubjects),
		Target:   optional(req.Target),
		Mode:     models.DeliveryMode(req.Mode),
		Region:   optional(req.Region),
		Note:     optional(req.Note),
	}

	err := s.applications.Create(ctx, app, func(id int64) []models.OutboxEvent {
		return []models.OutboxEvent{rolesEvent(models.EventStudentApplicationCreated, studentDeskRoles, models.JSONMap{
			"id":       id,
			"name":     app.Name,
			"phone":    app.Phone,
			"subjects": []string(app.Subjects),
			"target":   app.Target,
			"mode":     string(app.Mode),
			"region":   app.Region,
		})}
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}
	s.relay.Nudge()
	s.logger.Info("student application created", zap.Int64("application_id", app.ID))
	return app, nil
}

func (s *IntakeService) ListStudentApplications(ctx context.Context) ([]models.StudentApplication, error) {
	apps, err := s.applications.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	if apps == nil {
		apps = []models.StudentApplication{}
	}
	return apps, nil
}

// ListInstructors serves the public catalog, reading through the cache when enabled.
func (s *IntakeService) ListInstructors(ctx context.Context, filter models.InstructorFilter) ([]models.PublicInstructor, error) {
	key := instructorCacheKey(filter)
	var cached []models.PublicInstructor
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	instructors, err := s.instructors.ListPublic(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}
	if instructors == nil {
		instructors = []models.PublicInstructor{}
	}
	_ = s.cache.Set(ctx, key, instructors, 0)
	return instructors, nil
}
