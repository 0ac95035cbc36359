package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/internal/repository"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/phone"
)

const (
	tempPasswordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	tempPasswordLength   = 10
)

type instructorApplicationStore interface {
	Create(ctx context.Context, app *models.InstructorApplication, events func(id int64) []models.OutboxEvent) error
	List(ctx context.Context) ([]models.InstructorApplication, error)
	Review(ctx context.Context, id int64, decide func(*models.InstructorApplication) (*repository.InstructorApplicationDecision, error)) (*repository.InstructorApplicationDecision, error)
}

// InstructorApplicationService turns reviewed applications into instructor accounts.
type InstructorApplicationService struct {
	applications instructorApplicationStore
	cache        *CacheService
	relay        Nudger
	validator    *validator.Validate
	logger       *zap.Logger
	hashCost     int
	random       io.Reader
	now          func() time.Time
}

func NewInstructorApplicationService(applications instructorApplicationStore, cache *CacheService, relay Nudger, validate *validator.Validate, logger *zap.Logger) *InstructorApplicationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if relay == nil {
		relay = noopNudger{}
	}
	return &InstructorApplicationService{
		applications: applications,
		cache:        cache,
		relay:        relay,
		validator:    validate,
		logger:       logger,
		hashCost:     bcrypt.DefaultCost,
		random:       rand.Reader,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *InstructorApplicationService) Create(ctx context.Context, req dto.CreateInstructorApplicationRequest) (*models.InstructorApplication, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	app := &models.InstructorApplication{Profile: models.Profile{
		Name:      strings.TrimSpace(req.Name),
		Phone:     phone.Normalize(req.Phone),
		Email:     req.Email,
		Subjects:  models.StringList(req.Subjects).Clean(models.MaxInstructorSubjects),
		Modes:     models.StringList(req.Modes).Clean(models.MaxInstructorModes),
		Region:    optional(req.Region),
		Education: optional(req.Education),
		Career:    optional(req.Career),
		Major:     optional(req.Major),
		Age:       req.Age,
		PhotoURL:  optional(req.PhotoURL),
	}}
	if g := strings.TrimSpace(req.Gender); g != "" {
		gender := models.Gender(g)
		app.Gender = &gender
	}

	err := s.applications.Create(ctx, app, func(id int64) []models.OutboxEvent {
		return []models.OutboxEvent{rolesEvent(models.EventInstructorApplicationCreated, instructorDeskRoles, models.JSONMap{
			"id":       id,
			"name":     app.Name,
			"phone":    app.Phone,
			"email":    app.Email,
			"subjects": []string(app.Subjects),
			"modes":    []string(app.Modes),
			"region":   app.Region,
		})}
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor application")
	}
	s.relay.Nudge()
	return app, nil
}

func (s *InstructorApplicationService) List(ctx context.Context) ([]models.InstructorApplication, error) {
	apps, err := s.applications.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor applications")
	}
	if apps == nil {
		apps = []models.InstructorApplication{}
	}
	return apps, nil
}

// Review records the decision. Approval activates the instructor by email with
// a fresh temporary password, which is returned once and sent to the applicant.
func (s *InstructorApplicationService) Review(ctx context.Context, id int64, req dto.ReviewRequest) (*dto.InstructorApplicationReviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be APPROVED or REJECTED")
	}
	status := models.InstructorApplicationStatus(req.Status)
	note := optional(req.Note)

	var tempPassword string
	decision, err := s.applications.Review(ctx, id, func(app *models.InstructorApplication) (*repository.InstructorApplicationDecision, error) {
		decision := &repository.InstructorApplicationDecision{Status: status, Note: note, ReviewedAt: s.now()}
		if status == models.InstructorApplicationRejected {
			decision.Events = []models.OutboxEvent{phoneEvent(models.EventInstructorApplicationRejected, app.Phone, models.JSONMap{"note": note})}
			return decision, nil
		}

		password, err := s.generatePassword()
		if err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
		if err != nil {
			return nil, err
		}
		tempPassword = password
		decision.Instructor = &models.Instructor{Profile: app.Profile, PasswordHash: string(hash), Status: models.InstructorActive}
		decision.Events = []models.OutboxEvent{phoneEvent(models.EventInstructorApplicationApproved, app.Phone, models.JSONMap{
			"email":        app.Email,
			"tempPassword": password,
		})}
		return decision, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review instructor application")
	}
	s.relay.Nudge()

	resp := &dto.InstructorApplicationReviewResponse{Status: string(decision.Status)}
	if decision.Instructor != nil {
		instructorID := decision.Instructor.ID
		resp.InstructorID = &instructorID
		resp.TempPassword = &tempPassword
		_ = s.cache.Invalidate(ctx, instructorCachePrefix+"*")
	}
	s.logger.Info("instructor application reviewed", zap.Int64("application_id", id), zap.String("status", req.Status))
	return resp, nil
}

func (s *InstructorApplicationService) generatePassword() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := 0; i < tempPasswordLength; i++ {
		n, err := rand.Int(s.random, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(tempPasswordAlphabet[n.Int64()])
	}
	b.WriteByte('!')
	return b.String(), nil
}
