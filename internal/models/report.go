package models

import "time"

type ReportType string

const (
	ReportTypeProject   ReportType = "PROJECT"
	ReportTypeAlgorithm ReportType = "ALGORITHM"
)

func (t ReportType) Valid() bool {
	return t == ReportTypeProject || t == ReportTypeAlgorithm
}

// ReportStatus is the review state; only APPROVED reports reach the portal.
type ReportStatus string

const (
	ReportPending  ReportStatus = "PENDING"
	ReportApproved ReportStatus = "APPROVED"
	ReportRejected ReportStatus = "REJECTED"
)

type Report struct {
	ID           int64        `db:"id" json:"id"`
	EnrollmentID int64        `db:"enrollment_id" json:"enrollment_id"`
	InstructorID int64        `db:"instructor_id" json:"instructor_id"`
	Type         ReportType   `db:"type" json:"type"`
	Title        string       `db:"title" json:"title"`
	Summary      *string      `db:"summary" json:"summary,omitempty"`
	Feedback     *string      `db:"feedback" json:"feedback,omitempty"`
	Score        *float64     `db:"score" json:"score,omitempty"`
	RawData      RawJSON      `db:"raw_data" json:"raw_data,omitempty"`
	Status       ReportStatus `db:"status" json:"status"`
	ReviewNote   *string      `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt   *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

type ReportFilter struct {
	Status       ReportStatus
	EnrollmentID int64
	Limit        int
}
