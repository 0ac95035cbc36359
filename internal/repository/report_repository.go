package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
)

const reportColumns = `id, enrollment_id, instructor_id, type, title, summary, feedback, score, raw_data, status, review_note, reviewed_at, created_at`

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a PENDING report together with the events built for its id.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report, events func(id int64) []models.OutboxEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin report: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	report.Status = models.ReportPending
	const query = `INSERT INTO reports (enrollment_id, instructor_id, type, title, summary, feedback, score, raw_data, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at`
	if err = tx.QueryRowxContext(ctx, query, report.EnrollmentID, report.InstructorID, report.Type, report.Title,
		report.Summary, report.Feedback, report.Score, report.RawData, report.Status).
		Scan(&report.ID, &report.CreatedAt); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	if events != nil {
		if err = insertOutbox(ctx, tx, events(report.ID)); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	return nil
}

func (r *ReportRepository) List(ctx context.Context, filter models.ReportFilter) ([]models.Report, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.EnrollmentID > 0 {
		args = append(args, filter.EnrollmentID)
		conditions = append(conditions, fmt.Sprintf("enrollment_id = $%d", len(args)))
	}
	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT %d", clampLimit(filter.Limit, 200))

	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ListApproved returns only APPROVED reports for an enrollment, newest first.
func (r *ReportRepository) ListApproved(ctx context.Context, enrollmentID int64) ([]models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE enrollment_id = $1 AND status = 'APPROVED' ORDER BY id DESC`
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list approved reports: %w", err)
	}
	return reports, nil
}

// Review overwrites the review outcome. Re-review is allowed.
func (r *ReportRepository) Review(ctx context.Context, id int64, status models.ReportStatus, note *string, reviewedAt time.Time) error {
	const query = `UPDATE reports SET status = $2, review_note = $3, reviewed_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, note, reviewedAt)
	if err != nil {
		return fmt.Errorf("review report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("review report rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
