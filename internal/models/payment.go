package models

import "time"

type PaymentStatus string

const (
	PaymentRequested      PaymentStatus = "REQUESTED"
	PaymentProductCreated PaymentStatus = "PRODUCT_CREATED"
)

type Payment struct {
	ID           int64         `db:"id" json:"id"`
	EnrollmentID int64         `db:"enrollment_id" json:"enrollment_id"`
	Amount       int64         `db:"amount" json:"amount"`
	Title        string        `db:"title" json:"title"`
	Status       PaymentStatus `db:"status" json:"status"`
	ProductID    *string       `db:"product_id" json:"product_id,omitempty"`
	ProductURL   *string       `db:"product_url" json:"product_url,omitempty"`
	Meta         JSONMap       `db:"meta" json:"meta,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}
