package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/database"
)

// seedAdminCmd represents the seed-admin command
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the first admin account",
	Long: `Create an admin user directly in the database.

Registration through the API always assigns the user role, so the
first admin has to be seeded from the command line.

Example:
  go run ./cmd/journal seed-admin --email admin@example.com --password changeme123`,
	RunE: runSeedAdmin,
}

var (
	seedEmail    string
	seedPassword string
	seedName     string
)

func init() {
	rootCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "admin email (required)")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "admin password (required)")
	seedAdminCmd.Flags().StringVar(&seedName, "name", "Admin", "admin display name")
	seedAdminCmd.MarkFlagRequired("email")
	seedAdminCmd.MarkFlagRequired("password")
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Journal Admin Seed ===")

	if len(seedPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &store.User{
		UserID:    uuid.NewString(),
		FirstName: seedName,
		Email:     seedEmail,
		Password:  hash,
		Role:      store.RoleAdmin,
		IsActive:  true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := store.NewUserRepository(db.Pool)
	if err := users.Create(ctx, admin); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("a user with email %s already exists", seedEmail)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("✅ Admin account created (%s)\n", seedEmail)
	fmt.Printf("   user_id: %s\n", admin.UserID)
	return nil
}
