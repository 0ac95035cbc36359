package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/internal/repository"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

type memoryInstructorApplications struct {
	apps        map[int64]*models.InstructorApplication
	instructors map[string]*models.Instructor
	outbox      []models.OutboxEvent
}

func newMemoryInstructorApplications() *memoryInstructorApplications {
	return &memoryInstructorApplications{apps: map[int64]*models.InstructorApplication{}, instructors: map[string]*models.Instructor{}}
}

func (m *memoryInstructorApplications) Create(_ context.Context, app *models.InstructorApplication, events func(int64) []models.OutboxEvent) error {
	app.ID = int64(len(m.apps) + 1)
	app.Status = models.InstructorApplicationPending
	cp := *app
	m.apps[app.ID] = &cp
	m.outbox = append(m.outbox, events(app.ID)...)
	return nil
}

func (m *memoryInstructorApplications) List(context.Context) ([]models.InstructorApplication, error) {
	out := make([]models.InstructorApplication, 0, len(m.apps))
	for _, a := range m.apps {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memoryInstructorApplications) Review(_ context.Context, id int64, decide func(*models.InstructorApplication) (*repository.InstructorApplicationDecision, error)) (*repository.InstructorApplicationDecision, error) {
	app, ok := m.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *app
	decision, err := decide(&cp)
	if err != nil {
		return nil, err
	}
	app.Status = decision.Status
	app.ReviewNote = decision.Note
	if decision.Instructor != nil {
		if existing, ok := m.instructors[decision.Instructor.Email]; ok {
			decision.Instructor.ID = existing.ID
		} else {
			decision.Instructor.ID = int64(len(m.instructors) + 50)
		}
		inst := *decision.Instructor
		m.instructors[inst.Email] = &inst
	}
	m.outbox = append(m.outbox, decision.Events...)
	return decision, nil
}

func newTestInstructorApplicationService(store *memoryInstructorApplications, cache *CacheService) *InstructorApplicationService {
	svc := NewInstructorApplicationService(store, cache, nil, nil, nil)
	svc.hashCost = bcrypt.MinCost
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func sampleInstructorApplication() dto.CreateInstructorApplicationRequest {
	return dto.CreateInstructorApplicationRequest{
		Name:     "Lee",
		Phone:    "010 9999 8888",
		Email:    "Lee@Example.com",
		Subjects: []string{"Python"},
		Modes:    []string{"REMOTE", "IN_PERSON_1_1"},
		Gender:   "F",
	}
}

func TestInstructorApplicationServiceCreate(t *testing.T) {
	store := newMemoryInstructorApplications()
	svc := newTestInstructorApplicationService(store, nil)

	app, err := svc.Create(context.Background(), sampleInstructorApplication())
	require.NoError(t, err)

	assert.Equal(t, "lee@example.com", app.Email)
	assert.Equal(t, "01099998888", app.Phone)
	require.NotNil(t, app.Gender)
	require.Len(t, store.outbox, 1)
	assert.Equal(t, models.EventInstructorApplicationCreated, store.outbox[0].EventType)
	assert.ElementsMatch(t, []string{"SUPER_ADMIN", "SUB_ADMIN", "INSTRUCTOR_ADMIN"}, []string(store.outbox[0].Roles))
}

func TestInstructorApplicationServiceCreateTrimsPaddedEmail(t *testing.T) {
	svc := newTestInstructorApplicationService(newMemoryInstructorApplications(), nil)

	req := sampleInstructorApplication()
	req.Email = "  Lee@Example.com \n"
	app, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "lee@example.com", app.Email)
}

func TestInstructorApplicationServiceCreateValidation(t *testing.T) {
	svc := newTestInstructorApplicationService(newMemoryInstructorApplications(), nil)

	req := sampleInstructorApplication()
	req.Modes = []string{"HYBRID"}
	_, err := svc.Create(context.Background(), req)
	assertCode(t, err, appErrors.ErrValidation)

	req = sampleInstructorApplication()
	req.Email = "not-an-email"
	_, err = svc.Create(context.Background(), req)
	assertCode(t, err, appErrors.ErrValidation)
}

func TestInstructorApplicationServiceApproveCreatesInstructor(t *testing.T) {
	store := newMemoryInstructorApplications()
	repo := newMemoryCache()
	repo.items[instructorCachePrefix+"subject=|mode=|region="] = []byte("[]")
	cache := NewCacheService(repo, nil, time.Minute, nil, true)
	svc := newTestInstructorApplicationService(store, cache)
	app, err := svc.Create(context.Background(), sampleInstructorApplication())
	require.NoError(t, err)

	resp, err := svc.Review(context.Background(), app.ID, dto.ReviewRequest{Status: "APPROVED"})
	require.NoError(t, err)

	require.NotNil(t, resp.TempPassword)
	require.NotNil(t, resp.InstructorID)
	assert.Equal(t, "APPROVED", resp.Status)
	assert.Len(t, *resp.TempPassword, tempPasswordLength+1)

	inst := store.instructors["lee@example.com"]
	require.NotNil(t, inst)
	assert.Equal(t, models.InstructorActive, inst.Status)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inst.PasswordHash), []byte(*resp.TempPassword)))

	last := store.outbox[len(store.outbox)-1]
	assert.Equal(t, models.EventInstructorApplicationApproved, last.EventType)
	require.NotNil(t, last.Phone)
	assert.Equal(t, "01099998888", *last.Phone)
	assert.Equal(t, *resp.TempPassword, last.Payload["tempPassword"])
	assert.Empty(t, repo.items)
}

func TestInstructorApplicationServiceReject(t *testing.T) {
	store := newMemoryInstructorApplications()
	svc := newTestInstructorApplicationService(store, nil)
	app, err := svc.Create(context.Background(), sampleInstructorApplication())
	require.NoError(t, err)

	resp, err := svc.Review(context.Background(), app.ID, dto.ReviewRequest{Status: "REJECTED", Note: "incomplete"})
	require.NoError(t, err)

	assert.Nil(t, resp.TempPassword)
	assert.Empty(t, store.instructors)
	last := store.outbox[len(store.outbox)-1]
	assert.Equal(t, models.EventInstructorApplicationRejected, last.EventType)
}

func TestInstructorApplicationServiceReviewErrors(t *testing.T) {
	svc := newTestInstructorApplicationService(newMemoryInstructorApplications(), nil)

	_, err := svc.Review(context.Background(), 1, dto.ReviewRequest{Status: "MAYBE"})
	assertCode(t, err, appErrors.ErrValidation)

	_, err = svc.Review(context.Background(), 404, dto.ReviewRequest{Status: "APPROVED"})
	assertCode(t, err, appErrors.ErrNotFound)
}
