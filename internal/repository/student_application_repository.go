package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
	"github.com/flownco2789-ui/codeai/pkg/database"
)

const studentApplicationColumns = `id, name, phone, subjects, target, mode, region, note, status, selected_instructor_id, created_at, updated_at`

type StudentApplicationRepository struct {
	db *sqlx.DB
}

func NewStudentApplicationRepository(db *sqlx.DB) *StudentApplicationRepository {
	return &StudentApplicationRepository{db: db}
}

// Create inserts a SUBMITTED application and the events built for its new id in one transaction.
func (r *StudentApplicationRepository) Create(ctx context.Context, app *models.StudentApplication, events func(id int64) []models.OutboxEvent) error {
	app.Status = models.ApplicationSubmitted
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const query = `INSERT INTO student_applications (name, phone, subjects, target, mode, region, note, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`
		if err := tx.QueryRowxContext(ctx, query, app.Name, app.Phone, app.Subjects, app.Target, app.Mode, app.Region, app.Note, app.Status).
			Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return fmt.Errorf("insert student application: %w", err)
		}
		if events == nil {
			return nil
		}
		return insertOutbox(ctx, tx, events(app.ID))
	})
}

func (r *StudentApplicationRepository) FindByID(ctx context.Context, id int64) (*models.StudentApplication, error) {
	query := `SELECT ` + studentApplicationColumns + ` FROM student_applications WHERE id = $1`
	var app models.StudentApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns the 200 most recent applications.
func (r *StudentApplicationRepository) List(ctx context.Context) ([]models.StudentApplication, error) {
	query := `SELECT ` + studentApplicationColumns + ` FROM student_applications ORDER BY id DESC LIMIT 200`
	var apps []models.StudentApplication
	if err := r.db.SelectContext(ctx, &apps, query); err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	return apps, nil
}
