package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradewise/journal/internal/analytics"
	"github.com/tradewise/journal/internal/api"
	"github.com/tradewise/journal/internal/api/handlers"
	"github.com/tradewise/journal/internal/auth"
	"github.com/tradewise/journal/internal/leaderboard"
	"github.com/tradewise/journal/internal/scheduler"
	"github.com/tradewise/journal/internal/scheduler/jobs"
	"github.com/tradewise/journal/internal/store"
	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/database"
	"github.com/tradewise/journal/pkg/logger"
	"github.com/tradewise/journal/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Start the trading journal REST API server.

This command:
- Serves the auth, trades, leaderboard and admin endpoints
- Starts the maintenance scheduler (announcement sweep)
- Shuts down gracefully on SIGINT/SIGTERM

Example:
  go run ./cmd/journal api
  go run ./cmd/journal api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to Redis (no-op client when disabled)
	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	if redisClient.Enabled() {
		log.Info("Connected to Redis")
	} else {
		log.Warn("Redis disabled, reset tokens and rate limits are per-process")
	}

	// 5. Create repositories
	userRepo := store.NewUserRepository(db.Pool)
	tradeRepo := store.NewTradeRepository(db.Pool)
	loginRepo := store.NewLoginRepository(db.Pool)
	announcementRepo := store.NewAnnouncementRepository(db.Pool)
	credentialRepo := store.NewCredentialRepository(db.Pool)

	// 6. Create auth services
	tokens := auth.NewTokenService(cfg)
	reset := auth.NewResetManager(redis.NewTokenStore(redisClient, "reset"), cfg.Auth.ResetTokenTTL)

	// 7. Create domain services
	engine := leaderboard.NewEngine(userRepo, tradeRepo, log)
	analyticsSvc := analytics.NewService(userRepo, tradeRepo, log)

	// 8. Create handlers
	h := api.Handlers{
		Auth:          handlers.NewAuthHandler(userRepo, loginRepo, tokens, reset, log),
		Trades:        handlers.NewTradeHandler(tradeRepo, log),
		Leaderboard:   handlers.NewLeaderboardHandler(engine, log),
		Admin:         handlers.NewAdminHandler(userRepo, tradeRepo, loginRepo, analyticsSvc, log),
		Announcements: handlers.NewAnnouncementHandler(announcementRepo, log),
		Broker:        handlers.NewBrokerHandler(credentialRepo, log),
	}

	// 9. Create router and server
	router := api.NewRouter(h, tokens, userRepo, redisClient, cfg, log)
	server := api.New(cfg, log, router)

	// 10. Start the maintenance scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewAnnouncementSweepJob(announcementRepo, log)); err != nil {
		return fmt.Errorf("register sweep job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 11. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
