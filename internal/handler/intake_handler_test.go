package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
)

type fakeIntakeSrv struct {
	filter  models.InstructorFilter
	created dto.CreateStudentApplicationRequest
}

func (f *fakeIntakeSrv) CreateStudentApplication(_ context.Context, req dto.CreateStudentApplicationRequest) (*models.StudentApplication, error) {
	f.created = req
	if req.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name required")
	}
	return &models.StudentApplication{ID: 11, Name: req.Name}, nil
}

func (f *fakeIntakeSrv) ListStudentApplications(context.Context) ([]models.StudentApplication, error) {
	return []models.StudentApplication{{ID: 11}}, nil
}

func (f *fakeIntakeSrv) ListInstructors(_ context.Context, filter models.InstructorFilter) ([]models.PublicInstructor, error) {
	f.filter = filter
	return []models.PublicInstructor{{ID: 3, Name: "Lee"}}, nil
}

type fakeInstructorAppSrv struct{}

func (fakeInstructorAppSrv) Create(context.Context, dto.CreateInstructorApplicationRequest) (*models.InstructorApplication, error) {
	return &models.InstructorApplication{ID: 4}, nil
}

func (fakeInstructorAppSrv) List(context.Context) ([]models.InstructorApplication, error) {
	return []models.InstructorApplication{}, nil
}

func (fakeInstructorAppSrv) Review(_ context.Context, id int64, req dto.ReviewRequest) (*dto.InstructorApplicationReviewResponse, error) {
	if id == 404 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor application not found")
	}
	pw := "abcdefghij!"
	return &dto.InstructorApplicationReviewResponse{Status: req.Status, TempPassword: &pw}, nil
}

func TestIntakeHandlerCreateStudentApplication(t *testing.T) {
	h := NewIntakeHandler(&fakeIntakeSrv{}, fakeInstructorAppSrv{})
	c, rec := newTestContext(http.MethodPost, "/public/student-applications", dto.CreateStudentApplicationRequest{Name: "Kim"}, nil, nil)

	h.CreateStudentApplication(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var res dto.CreatedResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, int64(11), res.ID)
}

func TestIntakeHandlerCreateStudentApplicationValidation(t *testing.T) {
	h := NewIntakeHandler(&fakeIntakeSrv{}, fakeInstructorAppSrv{})
	c, rec := newTestContext(http.MethodPost, "/public/student-applications", dto.CreateStudentApplicationRequest{}, nil, nil)

	h.CreateStudentApplication(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error.Code)
}

func TestIntakeHandlerLegacyEnrollMapsForm(t *testing.T) {
	srv := &fakeIntakeSrv{}
	h := NewIntakeHandler(srv, fakeInstructorAppSrv{})
	body := map[string]any{"name": "Kim", "phone": "010-1234-5678", "subject": "Python", "target": "high school", "mode": "IN_PERSON_GROUP"}
	c, rec := newTestContext(http.MethodPost, "/applications/enroll", body, nil, nil)

	h.LegacyEnroll(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, dto.CreateStudentApplicationRequest{
		Name:     "Kim",
		Phone:    "010-1234-5678",
		Subjects: []string{"Python"},
		Target:   "high school",
		Mode:     "REMOTE",
	}, srv.created)
}

func TestIntakeHandlerLegacyEnrollRejectsMalformedBody(t *testing.T) {
	h := NewIntakeHandler(&fakeIntakeSrv{}, fakeInstructorAppSrv{})
	c, rec := newTestContext(http.MethodPost, "/applications/enroll", map[string]any{"subjects": "Python"}, nil, nil)

	h.LegacyEnroll(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Error.Code)
}

func TestIntakeHandlerListInstructorsBindsQuery(t *testing.T) {
	srv := &fakeIntakeSrv{}
	h := NewIntakeHandler(srv, fakeInstructorAppSrv{})
	c, rec := newTestContext(http.MethodGet, "/public/instructors?subject=Python&mode=REMOTE&region=Seoul", nil, nil, nil)

	h.ListInstructors(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.InstructorFilter{Subject: "Python", Mode: "REMOTE", Region: "Seoul"}, srv.filter)
}

func TestIntakeHandlerReviewInstructorApplication(t *testing.T) {
	h := NewIntakeHandler(&fakeIntakeSrv{}, fakeInstructorAppSrv{})

	c, rec := newTestContext(http.MethodPut, "/x", dto.ReviewRequest{Status: "APPROVED"}, nil, idParams("4"))
	h.ReviewInstructorApplication(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodPut, "/x", dto.ReviewRequest{Status: "APPROVED"}, nil, idParams("404"))
	h.ReviewInstructorApplication(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
