package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/logger"
)

// testLoggerCmd represents the test-logger command
var testLoggerCmd = &cobra.Command{
	Use:   "test-logger",
	Short: "Test the structured logger",
	Long: `Exercise the structured logging output.

This command:
- Tests JSON and console formats
- Tests log levels
- Tests structured field and error logging

Example:
  go run ./cmd/journal test-logger`,
	RunE: runTestLogger,
}

func init() {
	rootCmd.AddCommand(testLoggerCmd)
}

func runTestLogger(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Journal Logger Test ===")

	fmt.Println("1. JSON Format (Production)")
	fmt.Println("--------------------------------")
	prodLog := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})
	prodLog.Info("Service started")
	prodLog.Warn("High memory usage detected")
	prodLog.Error("Failed to reach Redis")
	fmt.Println()

	fmt.Println("2. Console Format (Development)")
	fmt.Println("--------------------------------")
	devLog := logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "console",
	})
	devLog.Debug("Debugging application flow")
	devLog.Info("Request received from client")
	devLog.Warn("Cache miss, fetching from database")
	fmt.Println()

	fmt.Println("3. Structured Logging with Fields")
	fmt.Println("--------------------------------")
	prodLog.WithField("user_id", "8f14e45f-ceea-4672-a274-cb6e0f9b7d5f").Info("User logged in")
	prodLog.WithFields(map[string]interface{}{
		"trade_no":   1042,
		"symbol":     "EURUSD",
		"net_profit": 132.50,
	}).Info("Trade recorded")
	prodLog.WithField("module", "leaderboard").
		WithField("metric", "net_profit").
		Info("Rankings computed")
	fmt.Println()

	fmt.Println("4. Error Logging")
	fmt.Println("--------------------------------")
	err := errors.New("connection timeout")
	prodLog.WithError(err).Error("Failed to record login attempt")
	prodLog.WithError(err).
		WithFields(map[string]interface{}{
			"retry_count": 3,
			"timeout_ms":  5000,
		}).
		Error("Connection failed after retries")

	fmt.Println("\n✅ All logger tests completed!")
	return nil
}
