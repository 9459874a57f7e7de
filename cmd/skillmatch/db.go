package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillmatch/internal/app"
	"skillmatch/internal/database"
	"skillmatch/internal/database/seeder"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Migrate, then load the skill vocabulary into the skills table",
	RunE:  runSeed,
}

func init() {
	migrateCmd.Flags().Bool("status", false, "list pending migrations without applying them")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

func withDB(cmd *cobra.Command, fn func(ctx context.Context, db database.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	db, err := app.OpenDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(ctx, db)
}

func withMigratedDB(cmd *cobra.Command, fn func(ctx context.Context, db database.DB) error) error {
	return withDB(cmd, func(ctx context.Context, db database.DB) error {
		if _, err := app.Migrate(ctx, db); err != nil {
			return err
		}
		return fn(ctx, db)
	})
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	statusOnly, _ := cmd.Flags().GetBool("status")
	out := cmd.OutOrStdout()

	return withDB(cmd, func(ctx context.Context, db database.DB) error {
		if statusOnly {
			r, err := app.Migrations(db)
			if err != nil {
				return err
			}
			pending, err := r.Pending(ctx, db.SQLDB())
			if err != nil {
				return err
			}
			for _, m := range pending {
				fmt.Fprintf(out, "pending V%d %s\n", m.Version, m.Name)
			}
			fmt.Fprintf(out, "%d pending migrations (%s)\n", len(pending), db.Dialect())
			return nil
		}

		n, err := app.Migrate(ctx, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d migrations applied (%s)\n", n, db.Dialect())
		return nil
	})
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	vocab, err := app.LoadVocabulary(cfg.Matching)
	if err != nil {
		return err
	}

	return withMigratedDB(cmd, func(ctx context.Context, db database.DB) error {
		r := seeder.Runner{Seeders: seeder.Defaults(vocab), Logger: zap.NewNop()}
		added, err := r.Run(ctx, db)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d new skills (vocabulary has %d)\n", added, vocab.Len())
		return nil
	})
}
