package models

import "time"

// Event types recorded in the notification ledger.
const (
	EventStudentApplicationCreated     = "STUDENT_APPLICATION_CREATED"
	EventStudentSelectedInstructor     = "STUDENT_SELECTED_INSTRUCTOR"
	EventStudentSelectedInstructorToIn = "STUDENT_SELECTED_INSTRUCTOR_TO_INSTRUCTOR"
	EventInstructorApplicationCreated  = "INSTRUCTOR_APPLICATION_CREATED"
	EventInstructorApplicationApproved = "INSTRUCTOR_APPLICATION_APPROVED"
	EventInstructorApplicationRejected = "INSTRUCTOR_APPLICATION_REJECTED"
	EventPaymentLinkCreated            = "PAYMENT_LINK_CREATED"
	EventPortalCodeIssued              = "PORTAL_CODE_ISSUED"
	EventReportSubmitted               = "REPORT_SUBMITTED"
)

const (
	ChannelInternal    = "INTERNAL"
	NotificationQueued = "QUEUED"
)

type NotificationLogEntry struct {
	ID        int64     `db:"id" json:"id"`
	Channel   string    `db:"channel" json:"channel"`
	EventType string    `db:"event_type" json:"event_type"`
	ToRole    *string   `db:"to_role" json:"to_role,omitempty"`
	ToPhone   *string   `db:"to_phone" json:"to_phone,omitempty"`
	Payload   JSONMap   `db:"payload" json:"payload"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NotificationFilter struct {
	EventType string
	Phone     string
	Limit     int
}

// OutboxTarget tells the relay how to resolve recipients.
type OutboxTarget string

const (
	OutboxTargetRoles OutboxTarget = "ROLES"
	OutboxTargetPhone OutboxTarget = "PHONE"
)

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "PENDING"
	OutboxDispatched OutboxStatus = "DISPATCHED"
)

// OutboxEvent is a notification intent committed alongside a state change.
type OutboxEvent struct {
	ID            string       `db:"id" json:"id"`
	EventType     string       `db:"event_type" json:"event_type"`
	TargetKind    OutboxTarget `db:"target_kind" json:"target_kind"`
	Roles         StringList   `db:"roles" json:"roles"`
	Phone         *string      `db:"phone" json:"phone,omitempty"`
	Payload       JSONMap      `db:"payload" json:"payload"`
	Status        OutboxStatus `db:"status" json:"status"`
	Attempts      int          `db:"attempts" json:"attempts"`
	LastError     *string      `db:"last_error" json:"last_error,omitempty"`
	NextAttemptAt time.Time    `db:"next_attempt_at" json:"next_attempt_at"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	DispatchedAt  *time.Time   `db:"dispatched_at" json:"dispatched_at,omitempty"`
}

// RolesOf converts stored role names back to typed roles.
func (e OutboxEvent) RolesOf() []AdminRole {
	roles := make([]AdminRole, 0, len(e.Roles))
	for _, r := range e.Roles {
		roles = append(roles, AdminRole(r))
	}
	return roles
}
