package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/internal/dto"
	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/export"
)

var reportExportHeaders = []string{"title", "type", "score", "summary", "feedback", "reviewed_at", "created_at"}

type csvRenderer interface {
	ContentType() string
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	ContentType() string
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders approved reports as CSV or PDF.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

func (s *ExportService) RenderReports(enrollmentID int64, reports []models.Report, format dto.ExportFormat) (*ExportFile, error) {
	data := reportDataset(reports)
	base := fmt.Sprintf("enrollment-%d-reports", enrollmentID)

	var (
		body []byte
		err  error
		file = &ExportFile{}
	)
	switch format {
	case dto.ExportCSV, "":
		body, err = s.csv.Render(data)
		file.Filename, file.ContentType = base+".csv", s.csv.ContentType()
	case dto.ExportPDF:
		body, err = s.pdf.Render(data, fmt.Sprintf("Enrollment #%d progress reports", enrollmentID))
		file.Filename, file.ContentType = base+".pdf", s.pdf.ContentType()
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		s.logger.Error("report export failed", zap.Int64("enrollment_id", enrollmentID), zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	file.Body = body
	return file, nil
}

func reportDataset(reports []models.Report) export.Dataset {
	rows := make([]map[string]string, 0, len(reports))
	for _, r := range reports {
		row := map[string]string{
			"title":      r.Title,
			"type":       string(r.Type),
			"summary":    deref(r.Summary),
			"feedback":   deref(r.Feedback),
			"created_at": r.CreatedAt.Format(time.RFC3339),
		}
		if r.Score != nil {
			row["score"] = strconv.FormatFloat(*r.Score, 'f', -1, 64)
		}
		if r.ReviewedAt != nil {
			row["reviewed_at"] = r.ReviewedAt.Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: reportExportHeaders, Rows: rows}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
