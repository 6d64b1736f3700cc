package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/voiceboard/voiceboard/internal/config"
	"github.com/voiceboard/voiceboard/internal/database"
	"github.com/voiceboard/voiceboard/internal/models"
)

// settingsFile is the YAML shape accepted by the apply command.
type settingsFile struct {
	Cors *struct {
		AllowedOrigins   []string `yaml:"allowed_origins"`
		AllowCredentials bool     `yaml:"allow_credentials"`
		MaxAge           int      `yaml:"max_age"`
	} `yaml:"cors"`
	Ratelimit *struct {
		Rate string `yaml:"rate"`
	} `yaml:"ratelimit"`
}

// NewApplyCmd creates a command that applies settings from a YAML file.
func NewApplyCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply configuration from a YAML file",
		Long:  "Read CORS and rate limit settings from a YAML file and store them in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read settings file: %w", err)
			}

			var settings settingsFile
			if err := yaml.Unmarshal(raw, &settings); err != nil {
				return fmt.Errorf("parse settings file: %w", err)
			}
			if settings.Cors == nil && settings.Ratelimit == nil {
				return fmt.Errorf("settings file contains neither cors nor ratelimit section")
			}

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

			if settings.Cors != nil {
				if len(settings.Cors.AllowedOrigins) == 0 {
					return fmt.Errorf("cors.allowed_origins cannot be empty")
				}
				maxAge := settings.Cors.MaxAge
				if maxAge == 0 {
					maxAge = 300
				}
				repo := database.NewCorsConfigRepository(db)
				c := &models.CorsConfig{
					AllowedOrigins:   strings.Join(settings.Cors.AllowedOrigins, ","),
					AllowCredentials: settings.Cors.AllowCredentials,
					MaxAge:           maxAge,
				}
				if err := repo.Set(ctx, c); err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				fmt.Println("CORS configuration applied.")
			}

			if settings.Ratelimit != nil {
				repo := database.NewRatelimitConfigRepository(db)
				c := &models.RatelimitConfig{Rate: settings.Ratelimit.Rate}
				if err := repo.Set(ctx, c); err != nil {
					return fmt.Errorf("set ratelimit config: %w", err)
				}
				fmt.Println("Rate limit configuration applied.")
			}

			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to YAML settings file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
