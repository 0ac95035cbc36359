package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
)

const instructorColumns = `id, name, phone, email, password_hash, subjects, modes, region, education, career, major, age, gender, photo_url, status, created_at, updated_at`

type InstructorRepository struct {
	db *sqlx.DB
}

func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

func (r *InstructorRepository) FindByID(ctx context.Context, id int64) (*models.Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE id = $1`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

func (r *InstructorRepository) FindByEmail(ctx context.Context, email string) (*models.Instructor, error) {
	query := `SELECT ` + instructorColumns + ` FROM instructors WHERE LOWER(email) = LOWER($1)`
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, email); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// ListPublic returns up to 50 active instructors, newest first. Instructors
// with no region on file match any region filter.
func (r *InstructorRepository) ListPublic(ctx context.Context, filter models.InstructorFilter) ([]models.PublicInstructor, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(`SELECT id, name, subjects, modes, region, education, career, major, age, gender, photo_url
FROM instructors WHERE status = 'ACTIVE'`)

	if filter.Region != "" {
		args = append(args, "%"+filter.Region+"%")
		fmt.Fprintf(&sb, " AND (region IS NULL OR region = '' OR region ILIKE $%d)", len(args))
	}
	if filter.Subject != "" {
		doc, err := json.Marshal([]string{filter.Subject})
		if err != nil {
			return nil, fmt.Errorf("encode subject filter: %w", err)
		}
		args = append(args, string(doc))
		fmt.Fprintf(&sb, " AND subjects @> $%d::jsonb", len(args))
	}
	if filter.Mode != "" {
		doc, err := json.Marshal([]string{filter.Mode})
		if err != nil {
			return nil, fmt.Errorf("encode mode filter: %w", err)
		}
		args = append(args, string(doc))
		fmt.Fprintf(&sb, " AND modes @> $%d::jsonb", len(args))
	}
	sb.WriteString(" ORDER BY id DESC LIMIT 50")

	var instructors []models.PublicInstructor
	if err := r.db.SelectContext(ctx, &instructors, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	return instructors, nil
}

const upsertInstructorQuery = `INSERT INTO instructors (name, phone, email, password_hash, subjects, modes, region, education, career, major, age, gender, photo_url, status)
VALUES (:name, :phone, :email, :password_hash, :subjects, :modes, :region, :education, :career, :major, :age, :gender, :photo_url, 'ACTIVE')
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, phone = EXCLUDED.phone, password_hash = EXCLUDED.password_hash,
	subjects = EXCLUDED.subjects, modes = EXCLUDED.modes, region = EXCLUDED.region, education = EXCLUDED.education,
	career = EXCLUDED.career, major = EXCLUDED.major, age = EXCLUDED.age, gender = EXCLUDED.gender,
	photo_url = EXCLUDED.photo_url, status = 'ACTIVE', updated_at = NOW()
RETURNING id`

// upsertInstructor activates an instructor keyed by email through ext.
func upsertInstructor(ctx context.Context, ext sqlx.ExtContext, instructor *models.Instructor) error {
	rows, err := sqlx.NamedQueryContext(ctx, ext, upsertInstructorQuery, instructor)
	if err != nil {
		return fmt.Errorf("upsert instructor: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&instructor.ID); err != nil {
			return fmt.Errorf("scan instructor id: %w", err)
		}
	}
	instructor.Status = models.InstructorActive
	return rows.Err()
}

func (r *InstructorRepository) Upsert(ctx context.Context, instructor *models.Instructor) error {
	return upsertInstructor(ctx, r.db, instructor)
}
