package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
)

type PortalCodeRepository struct {
	db *sqlx.DB
}

func NewPortalCodeRepository(db *sqlx.DB) *PortalCodeRepository {
	return &PortalCodeRepository{db: db}
}

func insertAccessCode(ctx context.Context, q sqlx.QueryerContext, code *models.PortalAccessCode) error {
	const query = `INSERT INTO portal_access_codes (enrollment_id, phone, code_hash, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`
	if err := q.QueryRowxContext(ctx, query, code.EnrollmentID, code.Phone, code.CodeHash, code.ExpiresAt).
		Scan(&code.ID, &code.CreatedAt); err != nil {
		return fmt.Errorf("insert portal access code: %w", err)
	}
	return nil
}

// Create persists a standalone code outside any enrollment transition.
func (r *PortalCodeRepository) Create(ctx context.Context, code *models.PortalAccessCode) error {
	return insertAccessCode(ctx, r.db, code)
}

// VerifyLatest locks the most recent code for phone that is unexpired at now
// and hands it to check. When check passes last_used_at is stamped in the
// same transaction. sql.ErrNoRows is returned when no such code exists.
func (r *PortalCodeRepository) VerifyLatest(ctx context.Context, phone string, now time.Time, check func(*models.PortalAccessCode) error) (code *models.PortalAccessCode, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin portal code verify: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const selectQuery = `SELECT id, enrollment_id, phone, code_hash, expires_at, last_used_at, created_at
FROM portal_access_codes
WHERE phone = $1 AND expires_at > $2
ORDER BY id DESC
LIMIT 1
FOR UPDATE`
	var row models.PortalAccessCode
	if err = tx.GetContext(ctx, &row, selectQuery, phone, now); err != nil {
		return nil, err
	}

	if err = check(&row); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE portal_access_codes SET last_used_at = $2 WHERE id = $1`, row.ID, now); err != nil {
		return nil, fmt.Errorf("stamp portal code usage: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit portal code verify: %w", err)
	}
	row.LastUsedAt = &now
	return &row, nil
}
