package main

import (
	"context"
	"fmt"

	"github.com/abduss/linkbucket/internal/config"
	"github.com/abduss/linkbucket/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbPool.Close()

	if err := storage.Migrate(ctx, dbPool, zap.L()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	zap.L().Info("schema up to date")
	return nil
}
