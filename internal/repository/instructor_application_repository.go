package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/pkg/database"
)

const instructorApplicationColumns = `id, name, phone, email, subjects, modes, region, education, career, major, age, gender, photo_url, status, review_note, reviewed_at, created_at`

// InstructorApplicationDecision is what a reviewer decided for a locked application.
type InstructorApplicationDecision struct {
	Status     models.InstructorApplicationStatus
	Note       *string
	ReviewedAt time.Time
	// Instructor is upserted by email when set.
	Instructor *models.Instructor
	Events     []models.OutboxEvent
}

type InstructorApplicationRepository struct {
	db *sqlx.DB
}

func NewInstructorApplicationRepository(db *sqlx.DB) *InstructorApplicationRepository {
	return &InstructorApplicationRepository{db: db}
}

func (r *InstructorApplicationRepository) Create(ctx context.Context, app *models.InstructorApplication, events func(id int64) []models.OutboxEvent) error {
	app.Status = models.InstructorApplicationPending
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO instructor_applications (name, phone, email, subjects, modes, region, education, career, major, age, gender, photo_url, status)
VALUES (:name, :phone, :email, :subjects, :modes, :region, :education, :career, :major, :age, :gender, :photo_url, :status)
RETURNING id, created_at`
		rows, err := sqlx.NamedQueryContext(ctx, tx, query, app)
		if err != nil {
			return fmt.Errorf("insert instructor application: %w", err)
		}
		if rows.Next() {
			err = rows.Scan(&app.ID, &app.CreatedAt)
		}
		rows.Close()
		if err != nil {
			return fmt.Errorf("scan instructor application id: %w", err)
		}
		if events == nil {
			return nil
		}
		return insertOutbox(ctx, tx, events(app.ID))
	})
}

func (r *InstructorApplicationRepository) List(ctx context.Context) ([]models.InstructorApplication, error) {
	query := `SELECT ` + instructorApplicationColumns + ` FROM instructor_applications ORDER BY id DESC LIMIT 200`
	var apps []models.InstructorApplication
	if err := r.db.SelectContext(ctx, &apps, query); err != nil {
		return nil, fmt.Errorf("list instructor applications: %w", err)
	}
	return apps, nil
}

// Review locks the application, asks decide for the outcome and applies it atomically.
// sql.ErrNoRows is returned when the application does not exist.
func (r *InstructorApplicationRepository) Review(ctx context.Context, id int64, decide func(*models.InstructorApplication) (*InstructorApplicationDecision, error)) (decision *InstructorApplicationDecision, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin instructor review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var app models.InstructorApplication
	lockQuery := `SELECT ` + instructorApplicationColumns + ` FROM instructor_applications WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &app, lockQuery, id); err != nil {
		return nil, err
	}

	decision, err = decide(&app)
	if err != nil {
		return nil, err
	}

	const updateQuery = `UPDATE instructor_applications SET status = $2, review_note = $3, reviewed_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateQuery, id, decision.Status, decision.Note, decision.ReviewedAt); err != nil {
		return nil, fmt.Errorf("update instructor application: %w", err)
	}

	if decision.Instructor != nil {
		if err = upsertInstructor(ctx, tx, decision.Instructor); err != nil {
			return nil, err
		}
	}

	if err = insertOutbox(ctx, tx, decision.Events); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit instructor review: %w", err)
	}
	return decision, nil
}
