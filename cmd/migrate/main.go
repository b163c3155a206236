package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/scopeforge/engine/pkg/config"
	"github.com/scopeforge/engine/pkg/database"
	"github.com/scopeforge/engine/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the scopeforge database schema",
		SilenceUsage: true,
	}
	root.AddCommand(newUpCmd(), newCheckCmd())
	return root
}

func newUpCmd() *cobra.Command {
	var skipCustom bool
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Create or update every table, then apply custom SQL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, log, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := runMigrations(db, !skipCustom); err != nil {
				log.Error("migration failed", zap.Error(err))
				return err
			}
			log.Info("migrations completed", zap.Int("models", len(registerModels())))
			fmt.Fprintln(cmd.OutOrStdout(), "migrations completed")
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipCustom, "skip-custom", false, "only run AutoMigrate")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report tables that AutoMigrate would create",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, _, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer logger.Sync()

			missing := missingTables(db)
			for _, name := range missing {
				fmt.Fprintf(cmd.OutOrStdout(), "missing table: %s\n", name)
			}
			if len(missing) > 0 {
				return fmt.Errorf("%d tables missing", len(missing))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func connect(ctx context.Context) (*gorm.DB, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return nil, nil, err
	}
	return db, log, nil
}
