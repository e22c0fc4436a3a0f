package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/quiz-api/internal/seed"
	"github.com/iliyamo/quiz-api/internal/service"
)

func newSeedCommand(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the bootstrap users and categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := seed.Default()
			if file != "" {
				raw, rerr := os.ReadFile(file)
				if rerr != nil {
					return rerr
				}
				doc, err = seed.Parse(raw)
			}
			if err != nil {
				return err
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			var res seed.Result
			err = inTx(cmd.Context(), db, func(tx *sql.Tx) error {
				res, err = seed.New(tx, a.cfg.BcryptCost, service.SystemClock, a.log).Run(cmd.Context(), doc)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d categories\n", res.Users, res.Categories)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Seed YAML to use instead of the built-in one")
	return cmd
}
