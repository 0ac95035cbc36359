package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/flownco2789-ui/codeai/internal/models"
)

// OutboxRepository persists notification intents and hands them to the relay.
type OutboxRepository struct {
	db *sqlx.DB
}

func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

const insertOutboxQuery = `INSERT INTO notification_outbox (id, event_type, target_kind, roles, phone, payload, status, attempts, next_attempt_at, created_at)
VALUES (:id, :event_type, :target_kind, :roles, :phone, :payload, :status, 0, :next_attempt_at, :created_at)`

// insertOutbox writes events through the caller's transaction.
func insertOutbox(ctx context.Context, tx sqlx.ExtContext, events []models.OutboxEvent) error {
	now := time.Now().UTC()
	for i := range events {
		ev := &events[i]
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.Roles == nil {
			ev.Roles = models.StringList{}
		}
		ev.Status = models.OutboxPending
		ev.CreatedAt = now
		ev.NextAttemptAt = now
		if _, err := sqlx.NamedExecContext(ctx, tx, insertOutboxQuery, ev); err != nil {
			return fmt.Errorf("insert outbox event %s: %w", ev.EventType, err)
		}
	}
	return nil
}

// ClaimNext locks the oldest due event, skipping rows other workers hold, and
// passes it to materialize. Returned ledger entries are written and the event
// marked DISPATCHED in the same transaction. When materialize fails the attempt
// is recorded, the event rescheduled retryAfter(attempts) later, and the error
// returned. Events stay PENDING until dispatched. found is false when nothing
// is due.
func (r *OutboxRepository) ClaimNext(ctx context.Context, retryAfter func(attempts int) time.Duration, materialize func(models.OutboxEvent) ([]models.NotificationLogEntry, error)) (found bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin outbox claim: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const claimQuery = `SELECT id, event_type, target_kind, roles, phone, payload, status, attempts, last_error, next_attempt_at, created_at, dispatched_at
FROM notification_outbox
WHERE status = 'PENDING' AND next_attempt_at <= NOW()
ORDER BY next_attempt_at ASC, created_at ASC
LIMIT 1
FOR UPDATE SKIP LOCKED`
	var ev models.OutboxEvent
	if err = tx.GetContext(ctx, &ev, claimQuery); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return false, nil
		}
		return false, fmt.Errorf("claim outbox event: %w", err)
	}

	entries, procErr := materialize(ev)
	if procErr != nil {
		const failQuery = `UPDATE notification_outbox SET attempts = attempts + 1, last_error = $2, next_attempt_at = $3 WHERE id = $1`
		next := time.Now().UTC().Add(retryAfter(ev.Attempts + 1))
		if _, err = tx.ExecContext(ctx, failQuery, ev.ID, truncate(procErr.Error(), 500), next); err != nil {
			return true, fmt.Errorf("record outbox failure: %w", err)
		}
		if err = tx.Commit(); err != nil {
			return true, fmt.Errorf("commit outbox failure: %w", err)
		}
		return true, procErr
	}

	if err = insertLedgerEntries(ctx, tx, entries); err != nil {
		return true, err
	}

	const doneQuery = `UPDATE notification_outbox SET status = 'DISPATCHED', attempts = attempts + 1, last_error = NULL, dispatched_at = NOW() WHERE id = $1`
	if _, err = tx.ExecContext(ctx, doneQuery, ev.ID); err != nil {
		return true, fmt.Errorf("mark outbox dispatched: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return true, fmt.Errorf("commit outbox dispatch: %w", err)
	}
	return true, nil
}

// CountPending reports the relay backlog.
func (r *OutboxRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notification_outbox WHERE status = 'PENDING'`); err != nil {
		return 0, fmt.Errorf("count pending outbox: %w", err)
	}
	return n, nil
}

// truncate caps s at n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
