package models

import "time"

type InstructorStatus string

const (
	InstructorActive   InstructorStatus = "ACTIVE"
	InstructorInactive InstructorStatus = "INACTIVE"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "OTHER"
)

const (
	MaxInstructorSubjects = 8
	MaxInstructorModes    = 3
)

// Profile carries the fields shared by instructors and their applications.
type Profile struct {
	Name      string     `db:"name" json:"name"`
	Phone     string     `db:"phone" json:"phone"`
	Email     string     `db:"email" json:"email"`
	Subjects  StringList `db:"subjects" json:"subjects"`
	Modes     StringList `db:"modes" json:"modes"`
	Region    *string    `db:"region" json:"region,omitempty"`
	Education *string    `db:"education" json:"education,omitempty"`
	Career    *string    `db:"career" json:"career,omitempty"`
	Major     *string    `db:"major" json:"major,omitempty"`
	Age       *int       `db:"age" json:"age,omitempty"`
	Gender    *Gender    `db:"gender" json:"gender,omitempty"`
	PhotoURL  *string    `db:"photo_url" json:"photo_url,omitempty"`
}

type Instructor struct {
	ID int64 `db:"id" json:"id"`
	Profile
	PasswordHash string           `db:"password_hash" json:"-"`
	Status       InstructorStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// PublicInstructor is the catalog view; contact details are withheld.
type PublicInstructor struct {
	ID        int64      `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Subjects  StringList `db:"subjects" json:"subjects"`
	Modes     StringList `db:"modes" json:"modes"`
	Region    *string    `db:"region" json:"region,omitempty"`
	Education *string    `db:"education" json:"education,omitempty"`
	Career    *string    `db:"career" json:"career,omitempty"`
	Major     *string    `db:"major" json:"major,omitempty"`
	Age       *int       `db:"age" json:"age,omitempty"`
	Gender    *Gender    `db:"gender" json:"gender,omitempty"`
	PhotoURL  *string    `db:"photo_url" json:"photo_url,omitempty"`
}

// InstructorFilter narrows the public catalog.
type InstructorFilter struct {
	Subject string `form:"subject"`
	Mode    string `form:"mode"`
	Region  string `form:"region"`
}

type InstructorApplicationStatus string

const (
	InstructorApplicationPending  InstructorApplicationStatus = "PENDING"
	InstructorApplicationApproved InstructorApplicationStatus = "APPROVED"
	InstructorApplicationRejected InstructorApplicationStatus = "REJECTED"
)

type InstructorApplication struct {
	ID int64 `db:"id" json:"id"`
	Profile
	Status     InstructorApplicationStatus `db:"status" json:"status"`
	ReviewNote *string                     `db:"review_note" json:"review_note,omitempty"`
	ReviewedAt *time.Time                  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt  time.Time                   `db:"created_at" json:"created_at"`
}
