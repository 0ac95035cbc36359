package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/pkg/response"
)

type intakeService interface {
	CreateStudentApplication(ctx context.Context, req dto.CreateStudentApplicationRequest) (*models.StudentApplication, error)
	ListStudentApplications(ctx context.Context) ([]models.StudentApplication, error)
	ListInstructors(ctx context.Context, filter models.InstructorFilter) ([]models.PublicInstructor, error)
}

type instructorApplicationService interface {
	Create(ctx context.Context, req dto.CreateInstructorApplicationRequest) (*models.InstructorApplication, error)
	List(ctx context.Context) ([]models.InstructorApplication, error)
	Review(ctx context.Context, id int64, req dto.ReviewRequest) (*dto.InstructorApplicationReviewResponse, error)
}

// IntakeHandler serves student and instructor applications and the public catalog.
type IntakeHandler struct {
	intake      intakeService
	instructors instructorApplicationService
}

func NewIntakeHandler(intake intakeService, instructors instructorApplicationService) *IntakeHandler {
	return &IntakeHandler{intake: intake, instructors: instructors}
}

// CreateStudentApplication godoc
// @Summary Submit a student application
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentApplicationRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/student-applications [post]
func (h *IntakeHandler) CreateStudentApplication(c *gin.Context) {
	var req dto.CreateStudentApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid application payload"))
		return
	}
	app, err := h.intake.CreateStudentApplication(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CreatedResponse{ID: app.ID})
}

// LegacyEnroll godoc
// @Summary Submit a student application (v1 form)
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body dto.LegacyEnrollRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications/enroll [post]
func (h *IntakeHandler) LegacyEnroll(c *gin.Context) {
	var req dto.LegacyEnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid application payload"))
		return
	}
	app, err := h.intake.CreateStudentApplication(c.Request.Context(), req.StudentApplication())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CreatedResponse{ID: app.ID})
}

// ListInstructors godoc
// @Summary List active instructors
// @Tags Public
// @Produce json
// @Param subject query string false "Subject"
// @Param mode query string false "Delivery mode"
// @Param region query string false "Region (partial match)"
// @Success 200 {object} response.Envelope
// @Router /public/instructors [get]
func (h *IntakeHandler) ListInstructors(c *gin.Context) {
	var filter models.InstructorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, bindError(err, "invalid filter"))
		return
	}
	instructors, err := h.intake.ListInstructors(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, &response.Page{Limit: 50, Count: len(instructors)})
}

// CreateInstructorApplication godoc
// @Summary Apply as an instructor
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body dto.CreateInstructorApplicationRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/instructor-applications [post]
func (h *IntakeHandler) CreateInstructorApplication(c *gin.Context) {
	var req dto.CreateInstructorApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid application payload"))
		return
	}
	app, err := h.instructors.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CreatedResponse{ID: app.ID})
}

// ListStudentApplications godoc
// @Summary List student applications
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/student-applications [get]
func (h *IntakeHandler) ListStudentApplications(c *gin.Context) {
	apps, err := h.intake.ListStudentApplications(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, &response.Page{Limit: 200, Count: len(apps)})
}

// ListInstructorApplications godoc
// @Summary List instructor applications
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/instructor-applications [get]
func (h *IntakeHandler) ListInstructorApplications(c *gin.Context) {
	apps, err := h.instructors.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, &response.Page{Limit: 200, Count: len(apps)})
}

// ReviewInstructorApplication godoc
// @Summary Approve or reject an instructor application
// @Description Approval returns a one-time temporary password.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Application ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/instructor-applications/{id}/review [put]
func (h *IntakeHandler) ReviewInstructorApplication(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid review payload"))
		return
	}
	res, err := h.instructors.Review(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}
