package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/internal/service"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/response"
)

type reportService interface {
	Submit(ctx context.Context, instructorID int64, req dto.SubmitReportRequest) (*models.Report, error)
	Review(ctx context.Context, id int64, req dto.ReviewRequest) error
	ListAdmin(ctx context.Context, filter models.ReportFilter) ([]models.Report, error)
	ListForPortal(ctx context.Context, rawPhone string, enrollmentID int64) ([]models.Report, error)
	ExportForPortal(ctx context.Context, rawPhone string, enrollmentID int64, format dto.ExportFormat) (*service.ExportFile, error)
}

// ReportHandler exposes instructor progress reports.
type ReportHandler struct {
	service reportService
}

func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Submit godoc
// @Summary Submit a progress report
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitReportRequest true "Report"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /instructor/reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	claims, err := claimsFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid report payload"))
		return
	}
	report, err := h.service.Submit(c.Request.Context(), claims.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// ListAdmin godoc
// @Summary List reports
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Param enrollmentId query int false "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/reports [get]
func (h *ReportHandler) ListAdmin(c *gin.Context) {
	filter := models.ReportFilter{Status: models.ReportStatus(strings.ToUpper(strings.TrimSpace(c.Query("status"))))}
	if raw := c.Query("enrollmentId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "enrollmentId must be a positive integer"))
			return
		}
		filter.EnrollmentID = id
	}
	switch filter.Status {
	case "", models.ReportPending, models.ReportApproved, models.ReportRejected:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown report status"))
		return
	}
	reports, err := h.service.ListAdmin(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, &response.Page{Limit: 200, Count: len(reports)})
}

// Review godoc
// @Summary Approve or reject a report
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Param payload body dto.ReviewRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/reports/{id}/review [put]
func (h *ReportHandler) Review(c *gin.Context) {
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
	if err := h.service.Review(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id, "status": req.Status}, nil)
}

// ListForPortal godoc
// @Summary Approved reports of one of the student's enrollments
// @Tags Portal
// @Produce json
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /portal/enrollments/{id}/reports [get]
func (h *ReportHandler) ListForPortal(c *gin.Context) {
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
	reports, err := h.service.ListForPortal(c.Request.Context(), claims.Phone, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, &response.Page{Limit: 200, Count: len(reports)})
}

// Export godoc
// @Summary Download approved reports
// @Tags Portal
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Enrollment ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /portal/enrollments/{id}/reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
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
	format := dto.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.ExportCSV))))
	file, err := h.service.ExportForPortal(c.Request.Context(), claims.Phone, id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
