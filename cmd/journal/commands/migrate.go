package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Create or update the database schema.

The DDL is idempotent: existing tables and indexes are left alone,
so the command is safe to run on every deploy.

Example:
  go run ./cmd/journal migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Journal Schema Migration ===")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Migrate(ctx, db.Pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	fmt.Println("✅ Schema is up to date")
	return nil
}
