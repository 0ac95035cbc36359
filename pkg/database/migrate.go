package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded goose migrations.
type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewMigrator(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return &Migrator{db: db, logger: logger}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, err := m.Version(ctx)
	if err == nil {
		m.logger.Info("migrations applied", zap.Int64("version", version))
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	if err := goose.DownContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	return nil
}

func (m *Migrator) Status(ctx context.Context) error {
	if err := goose.StatusContext(ctx, m.db, migrationsDir); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get migration version: %w", err)
	}
	return version, nil
}
