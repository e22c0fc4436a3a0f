// Command server runs the quiz API and its maintenance tasks.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/quiz-api/internal/config"
	"github.com/iliyamo/quiz-api/internal/database"
	"github.com/iliyamo/quiz-api/internal/logger"
)

const serviceName = "quiz-api"

// app is what every subcommand shares once the root has loaded it.
type app struct {
	cfg config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "quiz-api",
		Short:         "Quiz platform API server and tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.Env, cfg.LogLevel)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	cmd.AddCommand(
		newServeCommand(a),
		newWorkerCommand(a),
		newMigrateCommand(a),
		newSeedCommand(a),
		newImportCommand(a),
	)
	return cmd
}

func (a *app) openDB() (*sql.DB, error) {
	db, err := database.Open(a.cfg.DB.Driver, a.cfg.DB.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.DB.Driver, err)
	}
	return db, nil
}

// inTx runs fn in one transaction, committing only when it succeeds.
func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
