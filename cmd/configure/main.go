package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voiceboard/voiceboard/cmd/configure/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "voiceboard-configure",
		Short: "Configuration tool for the Voiceboard API",
		Long:  "CLI tool for managing CORS and rate limit settings stored in the database",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewApplyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
