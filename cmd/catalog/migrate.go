package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/PKayu/cannabis-compare-sub000/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the catalog schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := database.Open(ctx, databaseConfig(cfg), logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrate(cfg, db, logger); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}
