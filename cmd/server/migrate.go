package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	step := func(use, short string, fn func(context.Context, *sql.DB, string, *zap.Logger) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := a.openDB()
				if err != nil {
					return err
				}
				defer db.Close()
				return fn(cmd.Context(), db, a.cfg.DB.Driver, a.log)
			},
		}
	}
	cmd.AddCommand(
		step("up", "Apply all pending migrations", database.Migrate),
		step("down", "Roll back the latest migration", database.Rollback),
		step("status", "Print the migration status", database.Status),
	)
	return cmd
}
