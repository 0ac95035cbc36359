package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/flownco2789-ui/codeai/internal/models"
)

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func insertPayment(ctx context.Context, q sqlx.QueryerContext, p *models.Payment) error {
	if p.Meta == nil {
		p.Meta = models.JSONMap{}
	}
	const query = `INSERT INTO payments (enrollment_id, amount, title, status, product_id, product_url, meta)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`
	if err := q.QueryRowxContext(ctx, query, p.EnrollmentID, p.Amount, p.Title, p.Status, p.ProductID, p.ProductURL, p.Meta).
		Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListByEnrollments groups payments by enrollment id, oldest first.
func (r *PaymentRepository) ListByEnrollments(ctx context.Context, enrollmentIDs []int64) (map[int64][]models.Payment, error) {
	grouped := make(map[int64][]models.Payment, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return grouped, nil
	}
	const query = `SELECT id, enrollment_id, amount, title, status, product_id, product_url, meta, created_at
FROM payments WHERE enrollment_id = ANY($1) ORDER BY id ASC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, pq.Array(enrollmentIDs)); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	for _, p := range payments {
		grouped[p.EnrollmentID] = append(grouped[p.EnrollmentID], p)
	}
	return grouped, nil
}
