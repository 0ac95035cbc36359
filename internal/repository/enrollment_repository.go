package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
)

// EnrollmentChange is the outcome of a guarded transition. Zero-valued
// optional fields leave the stored value untouched.
type EnrollmentChange struct {
	Status      models.EnrollmentStatus
	ConsultedAt *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	Payment     *models.Payment
	AccessCode  *models.PortalAccessCode
	Events      []models.OutboxEvent
}

type EnrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentContextQuery = `SELECT e.id, e.student_application_id, e.instructor_id, e.status, e.start_date, e.end_date,
	e.consulted_at, e.created_at, e.updated_at, sa.name AS student_name, sa.phone AS student_phone
FROM enrollments e
JOIN student_applications sa ON sa.id = e.student_application_id
WHERE e.id = $1`

// FindContext loads an enrollment with its student's contact, without locking.
func (r *EnrollmentRepository) FindContext(ctx context.Context, id int64) (*models.EnrollmentContext, error) {
	var ec models.EnrollmentContext
	if err := r.db.GetContext(ctx, &ec, enrollmentContextQuery, id); err != nil {
		return nil, err
	}
	return &ec, nil
}

// Transition locks the enrollment row, lets apply decide the change and
// persists it with any payment, access code and outbox events as one unit.
// sql.ErrNoRows is returned when the enrollment does not exist.
func (r *EnrollmentRepository) Transition(ctx context.Context, id int64, apply func(*models.EnrollmentContext) (*EnrollmentChange, error)) (result *models.EnrollmentContext, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enrollment transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.EnrollmentContext
	if err = tx.GetContext(ctx, &current, enrollmentContextQuery+" FOR UPDATE OF e", id); err != nil {
		return nil, err
	}

	change, err := apply(&current)
	if err != nil {
		return nil, err
	}

	const updateQuery = `UPDATE enrollments
SET status = $2, consulted_at = COALESCE($3, consulted_at), start_date = COALESCE($4, start_date),
	end_date = COALESCE($5, end_date), updated_at = NOW()
WHERE id = $1 AND status = $6`
	res, err := tx.ExecContext(ctx, updateQuery, id, change.Status, change.ConsultedAt, change.StartDate, change.EndDate, current.Status)
	if err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("enrollment rows affected: %w", err)
	}
	if affected == 0 {
		err = ErrStaleState
		return nil, err
	}

	if change.Payment != nil {
		if err = insertPayment(ctx, tx, change.Payment); err != nil {
			return nil, err
		}
	}
	if change.AccessCode != nil {
		if err = insertAccessCode(ctx, tx, change.AccessCode); err != nil {
			return nil, err
		}
	}
	if err = insertOutbox(ctx, tx, change.Events); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enrollment transition: %w", err)
	}

	current.Status = change.Status
	if change.ConsultedAt != nil {
		current.ConsultedAt = change.ConsultedAt
	}
	if change.StartDate != nil {
		current.StartDate = change.StartDate
	}
	if change.EndDate != nil {
		current.EndDate = change.EndDate
	}
	return &current, nil
}

// Select moves an application through INSTRUCTOR_SELECTED to ENROLLED and
// creates its BEFORE_PAYMENT enrollment in one transaction. guard runs with
// the application locked; events is called once the enrollment id is known.
// sql.ErrNoRows is returned when the application or active instructor is missing.
func (r *EnrollmentRepository) Select(
	ctx context.Context,
	applicationID, instructorID int64,
	guard func(*models.StudentApplication, *models.Instructor) error,
	events func(*models.StudentApplication, *models.Instructor, *models.Enrollment) []models.OutboxEvent,
) (enrollment *models.Enrollment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin instructor selection: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var app models.StudentApplication
	if err = tx.GetContext(ctx, &app, `SELECT `+studentApplicationColumns+` FROM student_applications WHERE id = $1 FOR UPDATE`, applicationID); err != nil {
		return nil, err
	}
	var instructor models.Instructor
	if err = tx.GetContext(ctx, &instructor, `SELECT `+instructorColumns+` FROM instructors WHERE id = $1 AND status = 'ACTIVE' FOR SHARE`, instructorID); err != nil {
		return nil, err
	}

	if guard != nil {
		if err = guard(&app, &instructor); err != nil {
			return nil, err
		}
	}

	const selectQuery = `UPDATE student_applications SET status = 'INSTRUCTOR_SELECTED', selected_instructor_id = $2, updated_at = NOW() WHERE id = $1`
	if _, err = tx.ExecContext(ctx, selectQuery, applicationID, instructorID); err != nil {
		return nil, fmt.Errorf("mark instructor selected: %w", err)
	}

	enrollment = &models.Enrollment{
		StudentApplicationID: applicationID,
		InstructorID:         instructorID,
		Status:               models.EnrollmentBeforePayment,
	}
	const insertQuery = `INSERT INTO enrollments (student_application_id, instructor_id, status) VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at`
	if err = tx.QueryRowxContext(ctx, insertQuery, applicationID, instructorID, enrollment.Status).
		Scan(&enrollment.ID, &enrollment.CreatedAt, &enrollment.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert enrollment: %w", err)
	}

	const enrolledQuery = `UPDATE student_applications SET status = 'ENROLLED', updated_at = NOW() WHERE id = $1`
	if _, err = tx.ExecContext(ctx, enrolledQuery, applicationID); err != nil {
		return nil, fmt.Errorf("mark application enrolled: %w", err)
	}

	if events != nil {
		app.Status = models.ApplicationEnrolled
		app.SelectedInstructorID = &instructorID
		if err = insertOutbox(ctx, tx, events(&app, &instructor, enrollment)); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit instructor selection: %w", err)
	}
	return enrollment, nil
}

// ListAdmin returns the 200 most recent enrollments with both parties.
func (r *EnrollmentRepository) ListAdmin(ctx context.Context) ([]models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.status, e.start_date, e.end_date, e.consulted_at, e.created_at,
	sa.name AS student_name, sa.phone AS student_phone,
	i.id AS instructor_id, i.name AS instructor_name, i.email AS instructor_email
FROM enrollments e
JOIN student_applications sa ON sa.id = e.student_application_id
JOIN instructors i ON i.id = e.instructor_id
ORDER BY e.id DESC LIMIT 200`
	var items []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return items, nil
}

// ListForInstructor returns an instructor's enrollments, newest first. Payments are not loaded.
func (r *EnrollmentRepository) ListForInstructor(ctx context.Context, instructorID int64) ([]models.InstructorEnrollment, error) {
	const query = `SELECT e.id, e.status, e.start_date, e.end_date, e.consulted_at, e.student_application_id,
	sa.name AS student_name, sa.phone AS student_phone, sa.subjects AS student_subjects,
	sa.mode AS student_mode, sa.region AS student_region
FROM enrollments e
JOIN student_applications sa ON sa.id = e.student_application_id
WHERE e.instructor_id = $1
ORDER BY e.id DESC LIMIT 200`
	var items []models.InstructorEnrollment
	if err := r.db.SelectContext(ctx, &items, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor enrollments: %w", err)
	}
	return items, nil
}

// ListForPortal returns enrollments whose student application carries phone.
func (r *EnrollmentRepository) ListForPortal(ctx context.Context, phone string) ([]models.PortalEnrollment, error) {
	const query = `SELECT e.id, e.status, e.start_date, e.end_date, sa.mode,
	i.name AS instructor_name, i.region AS instructor_region
FROM enrollments e
JOIN student_applications sa ON sa.id = e.student_application_id
JOIN instructors i ON i.id = e.instructor_id
WHERE sa.phone = $1
ORDER BY e.id DESC LIMIT 100`
	var items []models.PortalEnrollment
	if err := r.db.SelectContext(ctx, &items, query, phone); err != nil {
		return nil, fmt.Errorf("list portal enrollments: %w", err)
	}
	return items, nil
}
