package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/flownco2789-ui/codeai/internal/models"
)

type AdminUserRepository struct {
	db *sqlx.DB
}

func NewAdminUserRepository(db *sqlx.DB) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

// FindByEmail returns the account regardless of its active flag.
func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	const query = `SELECT id, email, password_hash, name, role, phone, is_active, created_at FROM admin_users WHERE LOWER(email) = LOWER($1)`
	var admin models.AdminUser
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// ListContactsByRoles resolves active admins with a phone on file whose role is in roles.
func (r *AdminUserRepository) ListContactsByRoles(ctx context.Context, roles []models.AdminRole) ([]models.AdminContact, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	const query = `SELECT id, role, phone FROM admin_users
WHERE is_active = TRUE AND phone IS NOT NULL AND phone <> '' AND role = ANY($1)
ORDER BY id ASC`
	var contacts []models.AdminContact
	if err := r.db.SelectContext(ctx, &contacts, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("list admin contacts: %w", err)
	}
	return contacts, nil
}

// Upsert creates or refreshes an admin keyed by email.
func (r *AdminUserRepository) Upsert(ctx context.Context, admin *models.AdminUser) error {
	const query = `INSERT INTO admin_users (email, password_hash, name, role, phone, is_active)
VALUES (:email, :password_hash, :name, :role, :phone, :is_active)
ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, name = EXCLUDED.name,
	role = EXCLUDED.role, phone = EXCLUDED.phone, is_active = EXCLUDED.is_active
RETURNING id, created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, admin)
	if err != nil {
		return fmt.Errorf("upsert admin user: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&admin.ID, &admin.CreatedAt); err != nil {
			return fmt.Errorf("scan admin user id: %w", err)
		}
	}
	return rows.Err()
}
