package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/mysql/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

func prepare(driver string, log *zap.Logger) (string, error) {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(zap.NewStdLog(log.Named("goose")))
	if err := goose.SetDialect(driver); err != nil {
		return "", err
	}
	return "migrations/" + driver, nil
}

// Migrate applies every pending migration of the driver's dialect.
func Migrate(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	dir, err := prepare(driver, log)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	dir, err := prepare(driver, log)
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	dir, err := prepare(driver, log)
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, db, dir)
}
