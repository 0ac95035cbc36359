package models

import "time"

// DeliveryMode describes how lessons are delivered.
type DeliveryMode string

const (
	ModeRemote        DeliveryMode = "REMOTE"
	ModeInPerson1on1  DeliveryMode = "IN_PERSON_1_1"
	ModeInPersonGroup DeliveryMode = "IN_PERSON_GROUP"
)

// Valid reports enum membership.
func (m DeliveryMode) Valid() bool {
	switch m {
	case ModeRemote, ModeInPerson1on1, ModeInPersonGroup:
		return true
	}
	return false
}

// ApplicationStatus is the student application axis.
type ApplicationStatus string

const (
	ApplicationSubmitted          ApplicationStatus = "SUBMITTED"
	ApplicationInstructorSelected ApplicationStatus = "INSTRUCTOR_SELECTED"
	ApplicationEnrolled           ApplicationStatus = "ENROLLED"
)

const MaxStudentSubjects = 5

type StudentApplication struct {
	ID                   int64             `db:"id" json:"id"`
	Name                 string            `db:"name" json:"name"`
	Phone                string            `db:"phone" json:"phone"`
	Subjects             StringList        `db:"subjects" json:"subjects"`
	Target               *string           `db:"target" json:"target,omitempty"`
	Mode                 DeliveryMode      `db:"mode" json:"mode"`
	Region               *string           `db:"region" json:"region,omitempty"`
	Note                 *string           `db:"note" json:"note,omitempty"`
	Status               ApplicationStatus `db:"status" json:"status"`
	SelectedInstructorID *int64            `db:"selected_instructor_id" json:"selected_instructor_id,omitempty"`
	CreatedAt            time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at" json:"updated_at"`
}
