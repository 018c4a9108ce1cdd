package main

import (
	"fmt"
	"os"

	"github.com/benvon/portfolio-api/cmd/configure/commands"
	"github.com/benvon/portfolio-api/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	config.LoadDotEnv()

	var rootCmd = &cobra.Command{
		Use:   "portfolio-configure",
		Short: "Administration tool for the Portfolio API",
		Long:  "CLI tool for running migrations, reviewing contact submissions and clearing rate limits",
	}

	rootCmd.AddCommand(commands.NewMigrateCmd(commands.OpenDatabase))
	rootCmd.AddCommand(commands.NewSubmissionsCmd(commands.OpenSubmissions))
	rootCmd.AddCommand(commands.NewRatelimitCmd(commands.OpenRateLimitStore))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
