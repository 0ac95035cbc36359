package models

import "time"

// PortalAccessCode is a hashed, expiring portal passcode. Rows are never deleted.
type PortalAccessCode struct {
	ID           int64      `db:"id" json:"id"`
	EnrollmentID int64      `db:"enrollment_id" json:"enrollment_id"`
	Phone        string     `db:"phone" json:"phone"`
	CodeHash     string     `db:"code_hash" json:"-"`
	ExpiresAt    time.Time  `db:"expires_at" json:"expires_at"`
	LastUsedAt   *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
