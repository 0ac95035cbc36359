package dto

// CreateStudentApplicationRequest is the public enrolment form.
type CreateStudentApplicationRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Phone    string   `json:"phone" validate:"required,phone"`
	Subjects []string `json:"subjects" validate:"required,subjects=5"`
	Target   string   `json:"target" validate:"omitempty,max=100"`
	Mode     string   `json:"mode" validate:"required,oneof=REMOTE IN_PERSON_1_1 IN_PERSON_GROUP"`
	Region   string   `json:"region" validate:"omitempty,max=100"`
	Note     string   `json:"note" validate:"omitempty,max=2000"`
}

// LegacyEnrollRequest is the first-generation enrolment form. It accepts a
// single subject and always books remote lessons.
type LegacyEnrollRequest struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Subject  string   `json:"subject"`
	Subjects []string `json:"subjects"`
	Target   string   `json:"target"`
	Note     string   `json:"note"`
}

// StudentApplication maps the legacy form onto the current one.
func (r LegacyEnrollRequest) StudentApplication() CreateStudentApplicationRequest {
	subjects := r.Subjects
	if len(subjects) == 0 && r.Subject != "" {
		subjects = []string{r.Subject}
	}
	return CreateStudentApplicationRequest{
		Name:     r.Name,
		Phone:    r.Phone,
		Subjects: subjects,
		Target:   r.Target,
		Mode:     "REMOTE",
		Note:     r.Note,
	}
}

// CreateInstructorApplicationRequest is the public instructor sign-up form.
type CreateInstructorApplicationRequest struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Phone     string   `json:"phone" validate:"required,phone"`
	Email     string   `json:"email" validate:"required,email"`
	Subjects  []string `json:"subjects" validate:"required,subjects=8"`
	Modes     []string `json:"modes" validate:"required,min=1,max=3,dive,oneof=REMOTE IN_PERSON_1_1 IN_PERSON_GROUP"`
	Region    string   `json:"region" validate:"omitempty,max=100"`
	Education string   `json:"education" validate:"omitempty,max=200"`
	Career    string   `json:"career" validate:"omitempty,max=2000"`
	Major     string   `json:"major" validate:"omitempty,max=100"`
	Age       *int     `json:"age" validate:"omitempty,min=15,max=100"`
	Gender    string   `json:"gender" validate:"omitempty,oneof=M F OTHER"`
	PhotoURL  string   `json:"photoUrl" validate:"omitempty,url"`
}

// SelectInstructorRequest picks an instructor for an application.
type SelectInstructorRequest struct {
	InstructorID int64 `json:"instructorId" validate:"required,gt=0"`
}

type SelectInstructorResponse struct {
	EnrollmentID int64 `json:"enrollmentId"`
}

// CreatedResponse reports the id of a new record.
type CreatedResponse struct {
	ID int64 `json:"id"`
}
