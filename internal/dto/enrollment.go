package dto

import "time"

// SetPeriodRequest bounds an enrollment with calendar dates (YYYY-MM-DD).
type SetPeriodRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// RequestPaymentRequest asks the student to pay. Amount is in whole won.
type RequestPaymentRequest struct {
	Amount int64  `json:"amount" validate:"gt=0"`
	Title  string `json:"title" validate:"omitempty,max=200"`
}

type RequestPaymentResponse struct {
	PaymentID  int64   `json:"paymentId"`
	Status     string  `json:"status"`
	PaymentURL *string `json:"paymentUrl"`
}

// MarkPaidResponse carries the freshly minted portal code. It is never retrievable again.
type MarkPaidResponse struct {
	EnrollmentID int64     `json:"enrollmentId"`
	Status       string    `json:"status"`
	PortalCode   string    `json:"portalCode"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type TransitionResponse struct {
	EnrollmentID int64  `json:"enrollmentId"`
	Status       string `json:"status"`
}
