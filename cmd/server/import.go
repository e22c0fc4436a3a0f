package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/quiz-api/internal/importer"
	"github.com/iliyamo/quiz-api/internal/service"
)

func newImportCommand(a *app) *cobra.Command {
	var (
		amount   int
		category int
		owner    string
	)
	cmd := &cobra.Command{
		Use:   "import-questions",
		Short: "Import trivia questions from opentdb",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var ownerID *int64
			if owner != "" {
				users := service.NewUserService(db, a.cfg.Tokens(), a.cfg.BcryptCost, nil, service.SystemClock, a.log)
				u, err := users.FindByEmail(ctx, owner)
				if err != nil {
					return err
				}
				if u == nil {
					return fmt.Errorf("no user with email %s", owner)
				}
				ownerID = &u.ID
			}

			im := importer.New(importer.NewClient(a.cfg.OpenTDBURL), service.SystemClock, a.log)
			var res importer.Result
			err = inTx(ctx, db, func(tx *sql.Tx) error {
				res, err = im.Import(ctx, tx, ownerID, amount, category)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %d, inserted %d, skipped %d\n", res.Fetched, res.Inserted, res.Skipped)
			return nil
		},
	}
	cmd.Flags().IntVar(&amount, "amount", 50, "Number of questions to request (opentdb allows up to 50)")
	cmd.Flags().IntVar(&category, "category", 0, "opentdb category id, 0 for any")
	cmd.Flags().StringVar(&owner, "owner", "", "Email of the user who owns the imported questions")
	return cmd
}
