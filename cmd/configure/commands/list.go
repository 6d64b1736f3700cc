package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voiceboard/voiceboard/internal/config"
	"github.com/voiceboard/voiceboard/internal/database"
)

// NewListCmd creates a command that prints all stored configuration.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored configuration",
		Long:  "Print the CORS and rate limit configuration currently stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			ctx := context.Background()

			corsRepo := database.NewCorsConfigRepository(db)
			cors, err := corsRepo.Get(ctx)
			if err != nil {
				return fmt.Errorf("get cors config: %w", err)
			}
			if cors == nil {
				fmt.Println("CORS: not configured (using FRONTEND_URL fallback)")
			} else {
				fmt.Println("CORS:")
				fmt.Printf("  Allowed origins: %s\n", cors.AllowedOrigins)
				fmt.Printf("  Allow credentials: %v\n", cors.AllowCredentials)
				fmt.Printf("  Max age: %d\n", cors.MaxAge)
			}

			rateRepo := database.NewRatelimitConfigRepository(db)
			rate, err := rateRepo.Get(ctx)
			if err != nil {
				return fmt.Errorf("get ratelimit config: %w", err)
			}
			if rate == nil {
				fmt.Println("Rate limit: not configured (using default)")
			} else {
				fmt.Println("Rate limit:")
				fmt.Printf("  Rate: %s\n", rate.Rate)
			}

			return nil
		},
	}
}
