package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/pkg/response"
)

type enrollmentService interface {
	SelectInstructor(ctx context.Context, applicationID int64, req dto.SelectInstructorRequest) (*dto.SelectInstructorResponse, error)
	ConsultDone(ctx context.Context, enrollmentID, instructorID int64) (*dto.TransitionResponse, error)
	RequestPayment(ctx context.Context, enrollmentID, instructorID int64, req dto.RequestPaymentRequest) (*dto.RequestPaymentResponse, error)
	MarkPaid(ctx context.Context, enrollmentID int64) (*dto.MarkPaidResponse, error)
	SetPeriod(ctx context.Context, enrollmentID int64, req dto.SetPeriodRequest) (*models.Enrollment, error)
	ListAdmin(ctx context.Context) ([]models.EnrollmentDetail, error)
	ListForInstructor(ctx context.Context, instructorID int64) ([]models.InstructorEnrollment, error)
	ListForPortal(ctx context.Context, rawPhone string) ([]models.PortalEnrollment, error)
}

// EnrollmentHandler drives the enrollment lifecycle for every audience.
type EnrollmentHandler struct {
	service enrollmentService
}

func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// SelectInstructor godoc
// @Summary Pick an instructor for a student application
// @Tags Public
// @Accept json
// @Produce json
// @Param id path int true "Student application ID"
// @Param payload body dto.SelectInstructorRequest true "Instructor"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /public/student-applications/{id}/select-instructor [post]
func (h *EnrollmentHandler) SelectInstructor(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SelectInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid selection payload"))
		return
	}
	res, err := h.service.SelectInstructor(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListAdmin godoc
// @Summary List enrollments
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *EnrollmentHandler) ListAdmin(c *gin.Context) {
	rows, err := h.service.ListAdmin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &response.Page{Limit: 200, Count: len(rows)})
}

// SetPeriod godoc
// @Summary Set lesson period
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param payload body dto.SetPeriodRequest true "Period"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments/{id}/set-period [put]
func (h *EnrollmentHandler) SetPeriod(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SetPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid period payload"))
		return
	}
	enrollment, err := h.service.SetPeriod(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// MarkPaid godoc
// @Summary Confirm payment and issue a portal access code
// @Description The plaintext code appears only in this response.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments/{id}/mark-paid [post]
func (h *EnrollmentHandler) MarkPaid(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.MarkPaid(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ListForInstructor godoc
// @Summary List the instructor's enrollments with payments
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /instructor/enrollments [get]
func (h *EnrollmentHandler) ListForInstructor(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.ListForInstructor(c.Request.Context(), claims.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &response.Page{Limit: 200, Count: len(rows)})
}

// ConsultDone godoc
// @Summary Record the consultation
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /instructor/enrollments/{id}/consult-done [put]
func (h *EnrollmentHandler) ConsultDone(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.service.ConsultDone(c.Request.Context(), id, claims.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// RequestPayment godoc
// @Summary Request payment from the student
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param payload body dto.RequestPaymentRequest true "Amount and title"
// @Success 201 {object} response.Envelope
// @Router /instructor/enrollments/{id}/request-payment [post]
func (h *EnrollmentHandler) RequestPayment(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RequestPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payment payload"))
		return
	}
	res, err := h.service.RequestPayment(c.Request.Context(), id, claims.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListForPortal godoc
// @Summary List the student's enrollments
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /portal/enrollments [get]
func (h *EnrollmentHandler) ListForPortal(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.service.ListForPortal(c.Request.Context(), claims.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &response.Page{Limit: 100, Count: len(rows)})
}
