package dto

// ReviewRequest approves or rejects an instructor application or report.
type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Note   string `json:"note" validate:"omitempty,max=2000"`
}

// InstructorApplicationReviewResponse returns the one-time password on approval.
type InstructorApplicationReviewResponse struct {
	Status       string  `json:"status"`
	InstructorID *int64  `json:"instructorId,omitempty"`
	TempPassword *string `json:"tempPassword"`
}
