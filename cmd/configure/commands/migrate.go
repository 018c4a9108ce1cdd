package commands

import (
	"context"
	"fmt"

	"github.com/benvon/portfolio-api/internal/database"
	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd(open func() (*database.DB, error)) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  "Create the contact_submissions schema, applying each embedded migration at most once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger.New("configure", debug, logger.FormatConsole)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync(log) }()

			db, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			applied, err := db.Migrate(context.Background(), log)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s).\n", applied)
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
