package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
)

// NotificationRepository is the append-only notification ledger.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const insertLedgerQuery = `INSERT INTO notification_logs (channel, event_type, to_role, to_phone, payload, status)
VALUES (:channel, :event_type, :to_role, :to_phone, :payload, :status)`

func insertLedgerEntries(ctx context.Context, ext sqlx.ExtContext, entries []models.NotificationLogEntry) error {
	for i := range entries {
		if _, err := sqlx.NamedExecContext(ctx, ext, insertLedgerQuery, &entries[i]); err != nil {
			return fmt.Errorf("insert notification log: %w", err)
		}
	}
	return nil
}

// Append writes entries atomically.
func (r *NotificationRepository) Append(ctx context.Context, entries []models.NotificationLogEntry) (err error) {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = insertLedgerEntries(ctx, tx, entries); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit notification append: %w", err)
	}
	return nil
}

// List returns the newest ledger entries first.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLogEntry, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.EventType != "" {
		args = append(args, filter.EventType)
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if filter.Phone != "" {
		args = append(args, filter.Phone)
		conditions = append(conditions, fmt.Sprintf("to_phone = $%d", len(args)))
	}

	query := `SELECT id, channel, event_type, to_role, to_phone, payload, status, created_at FROM notification_logs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT %d", clampLimit(filter.Limit, 200))

	var entries []models.NotificationLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list notification logs: %w", err)
	}
	return entries, nil
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
