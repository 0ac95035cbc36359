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

type fakeEnrollmentSrv struct {
	lastInstructor int64
	lastPhone      string
	paymentReq     dto.RequestPaymentRequest
	err            error
}

func (f *fakeEnrollmentSrv) SelectInstructor(_ context.Context, applicationID int64, req dto.SelectInstructorRequest) (*dto.SelectInstructorResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.SelectInstructorResponse{EnrollmentID: applicationID*10 + req.InstructorID}, nil
}

func (f *fakeEnrollmentSrv) ConsultDone(_ context.Context, enrollmentID, instructorID int64) (*dto.TransitionResponse, error) {
	f.lastInstructor = instructorID
	if f.err != nil {
		return nil, f.err
	}
	return &dto.TransitionResponse{EnrollmentID: enrollmentID, Status: "CONSULT_DONE"}, nil
}

func (f *fakeEnrollmentSrv) RequestPayment(_ context.Context, _, instructorID int64, req dto.RequestPaymentRequest) (*dto.RequestPaymentResponse, error) {
	f.lastInstructor = instructorID
	f.paymentReq = req
	return &dto.RequestPaymentResponse{PaymentID: 1, Status: "REQUESTED"}, f.err
}

func (f *fakeEnrollmentSrv) MarkPaid(_ context.Context, enrollmentID int64) (*dto.MarkPaidResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.MarkPaidResponse{EnrollmentID: enrollmentID, Status: "PAID", PortalCode: "123456"}, nil
}

func (f *fakeEnrollmentSrv) SetPeriod(_ context.Context, enrollmentID int64, _ dto.SetPeriodRequest) (*models.Enrollment, error) {
	return &models.Enrollment{ID: enrollmentID}, f.err
}

func (f *fakeEnrollmentSrv) ListAdmin(context.Context) ([]models.EnrollmentDetail, error) {
	return []models.EnrollmentDetail{{ID: 1}}, f.err
}

func (f *fakeEnrollmentSrv) ListForInstructor(_ context.Context, instructorID int64) ([]models.InstructorEnrollment, error) {
	f.lastInstructor = instructorID
	return []models.InstructorEnrollment{}, f.err
}

func (f *fakeEnrollmentSrv) ListForPortal(_ context.Context, rawPhone string) ([]models.PortalEnrollment, error) {
	f.lastPhone = rawPhone
	return []models.PortalEnrollment{}, f.err
}

var instructorClaims = &models.TokenClaims{Type: models.AudienceInstructor, ID: 7}

func TestEnrollmentHandlerSelectInstructor(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollmentSrv{})
	c, rec := newTestContext(http.MethodPost, "/public/student-applications/3/select-instructor", dto.SelectInstructorRequest{InstructorID: 7}, nil, idParams("3"))

	h.SelectInstructor(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var res dto.SelectInstructorResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, int64(37), res.EnrollmentID)
}

func TestEnrollmentHandlerSelectInstructorBadID(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollmentSrv{})
	c, rec := newTestContext(http.MethodPost, "/x", dto.SelectInstructorRequest{InstructorID: 7}, nil, idParams("abc"))

	h.SelectInstructor(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollmentHandlerConsultDoneUsesTokenIdentity(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(srv)
	c, rec := newTestContext(http.MethodPut, "/instructor/enrollments/5/consult-done", nil, instructorClaims, idParams("5"))

	h.ConsultDone(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), srv.lastInstructor)
}

func TestEnrollmentHandlerConsultDoneForbidden(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollmentSrv{err: appErrors.Clone(appErrors.ErrForbidden, "not yours")})
	c, rec := newTestContext(http.MethodPut, "/x", nil, instructorClaims, idParams("5"))

	h.ConsultDone(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, rec).Error.Code)
}

func TestEnrollmentHandlerRequestPaymentRejectsFractionalAmount(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/x", map[string]interface{}{"amount": 1.5}, instructorClaims, idParams("5"))

	h.RequestPayment(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, srv.lastInstructor)
}

func TestEnrollmentHandlerRequestPayment(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/x", dto.RequestPaymentRequest{Amount: 300000, Title: "March"}, instructorClaims, idParams("5"))

	h.RequestPayment(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(300000), srv.paymentReq.Amount)
}

func TestEnrollmentHandlerMarkPaidReturnsCode(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollmentSrv{})
	c, rec := newTestContext(http.MethodPost, "/x", nil, &models.TokenClaims{Type: models.AudienceAdmin, ID: 1, Role: models.RoleSuperAdmin}, idParams("9"))

	h.MarkPaid(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res dto.MarkPaidResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, "123456", res.PortalCode)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestEnrollmentHandlerPortalListUsesTokenPhone(t *testing.T) {
	srv := &fakeEnrollmentSrv{}
	h := NewEnrollmentHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/portal/enrollments", nil, &models.TokenClaims{Type: models.AudiencePortal, Phone: "01012345678"}, nil)

	h.ListForPortal(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "01012345678", srv.lastPhone)
}

func TestEnrollmentHandlerRequiresClaims(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollmentSrv{})
	c, rec := newTestContext(http.MethodGet, "/instructor/enrollments", nil, nil, nil)

	h.ListForInstructor(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
