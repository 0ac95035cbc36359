package dto

import "encoding/json"

// SubmitReportRequest is an instructor progress note.
type SubmitReportRequest struct {
	EnrollmentID int64           `json:"enrollmentId" validate:"required,gt=0"`
	Type         string          `json:"type" validate:"required,oneof=PROJECT ALGORITHM"`
	Title        string          `json:"title" validate:"required,max=200"`
	Summary      string          `json:"summary" validate:"omitempty,max=5000"`
	Feedback     string          `json:"feedback" validate:"omitempty,max=5000"`
	Score        *float64        `json:"score" validate:"omitempty,min=0,max=1000"`
	RawData      json.RawMessage `json:"rawData"`
}

// ExportFormat selects the portal report download encoding.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)
