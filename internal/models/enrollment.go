package models

import "time"

// EnrollmentStatus is the lifecycle of a student-instructor pairing.
type EnrollmentStatus string

const (
	EnrollmentBeforePayment    EnrollmentStatus = "BEFORE_PAYMENT"
	EnrollmentConsultDone      EnrollmentStatus = "CONSULT_DONE"
	EnrollmentPaymentRequested EnrollmentStatus = "PAYMENT_REQUESTED"
	EnrollmentPaid             EnrollmentStatus = "PAID"
)

var enrollmentRank = map[EnrollmentStatus]int{
	EnrollmentBeforePayment:    0,
	EnrollmentConsultDone:      1,
	EnrollmentPaymentRequested: 2,
	EnrollmentPaid:             3,
}

// Rank orders statuses; unknown values rank -1.
func (s EnrollmentStatus) Rank() int {
	if r, ok := enrollmentRank[s]; ok {
		return r
	}
	return -1
}

// CanMoveTo allows same-rank re-entry and forward moves, never backward ones.
func (s EnrollmentStatus) CanMoveTo(next EnrollmentStatus) bool {
	from, to := s.Rank(), next.Rank()
	return from >= 0 && to >= 0 && to >= from
}

type Enrollment struct {
	ID                   int64            `db:"id" json:"id"`
	StudentApplicationID int64            `db:"student_application_id" json:"student_application_id"`
	InstructorID         int64            `db:"instructor_id" json:"instructor_id"`
	Status               EnrollmentStatus `db:"status" json:"status"`
	StartDate            *time.Time       `db:"start_date" json:"start_date,omitempty"`
	EndDate              *time.Time       `db:"end_date" json:"end_date,omitempty"`
	ConsultedAt          *time.Time       `db:"consulted_at" json:"consulted_at,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentContext is an enrollment locked together with the student contact it belongs to.
type EnrollmentContext struct {
	Enrollment
	StudentName  string `db:"student_name" json:"student_name"`
	StudentPhone string `db:"student_phone" json:"student_phone"`
}

// EnrollmentDetail is the admin listing row.
type EnrollmentDetail struct {
	ID              int64            `db:"id" json:"id"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	StartDate       *time.Time       `db:"start_date" json:"start_date,omitempty"`
	EndDate         *time.Time       `db:"end_date" json:"end_date,omitempty"`
	ConsultedAt     *time.Time       `db:"consulted_at" json:"consulted_at,omitempty"`
	StudentName     string           `db:"student_name" json:"student_name"`
	StudentPhone    string           `db:"student_phone" json:"student_phone"`
	InstructorID    int64            `db:"instructor_id" json:"instructor_id"`
	InstructorName  string           `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string           `db:"instructor_email" json:"instructor_email"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// InstructorEnrollment is what an instructor sees about their own students.
type InstructorEnrollment struct {
	ID                   int64            `db:"id" json:"id"`
	Status               EnrollmentStatus `db:"status" json:"status"`
	StartDate            *time.Time       `db:"start_date" json:"start_date,omitempty"`
	EndDate              *time.Time       `db:"end_date" json:"end_date,omitempty"`
	ConsultedAt          *time.Time       `db:"consulted_at" json:"consulted_at,omitempty"`
	StudentApplicationID int64            `db:"student_application_id" json:"student_application_id"`
	StudentName          string           `db:"student_name" json:"student_name"`
	StudentPhone         string           `db:"student_phone" json:"student_phone"`
	StudentSubjects      StringList       `db:"student_subjects" json:"student_subjects"`
	StudentMode          DeliveryMode     `db:"student_mode" json:"student_mode"`
	StudentRegion        *string          `db:"student_region" json:"student_region,omitempty"`
	Payments             []Payment        `db:"-" json:"payments"`
}

// PortalEnrollment is the student's own view of an enrollment.
type PortalEnrollment struct {
	ID               int64            `db:"id" json:"id"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	StartDate        *time.Time       `db:"start_date" json:"start_date,omitempty"`
	EndDate          *time.Time       `db:"end_date" json:"end_date,omitempty"`
	Mode             DeliveryMode     `db:"mode" json:"mode"`
	InstructorName   string           `db:"instructor_name" json:"instructor_name"`
	InstructorRegion *string          `db:"instructor_region" json:"instructor_region,omitempty"`
}
