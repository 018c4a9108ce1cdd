package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/portfolio-api/internal/ratelimit"
	"github.com/spf13/cobra"
)

// RateLimitStoreOpener opens the contact rate limit store and returns its closer.
type RateLimitStoreOpener func() (ratelimit.Store, func() error, error)

// NewRatelimitCmd creates the ratelimit command with show and reset subcommands.
func NewRatelimitCmd(open RateLimitStoreOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect or clear contact form rate limits",
		Long:  "Show or reset the fixed-window counter of one client address. Requires the redis backend.",
	}
	cmd.AddCommand(newRatelimitShowCmd(open))
	cmd.AddCommand(newRatelimitResetCmd(open))
	return cmd
}

func newRatelimitShowCmd(open RateLimitStoreOpener) *cobra.Command {
	var client string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current window for a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			client = strings.TrimSpace(client)
			store, closeFn, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			entry, ok, err := store.Get(context.Background(), client)
			if err != nil {
				return fmt.Errorf("failed to read rate limit: %w", err)
			}
			out := cmd.OutOrStdout()
			if !ok || entry.Expired(time.Now()) {
				fmt.Fprintf(out, "No active window for %s\n", client)
				return nil
			}
			fmt.Fprintf(out, "Client:  %s\nCount:   %d\nResets:  %s\n",
				client, entry.Count, entry.ResetTime.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "Client address as seen by the server (required)")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}

func newRatelimitResetCmd(open RateLimitStoreOpener) *cobra.Command {
	var client string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the window for a client so it may submit again",
		RunE: func(cmd *cobra.Command, args []string) error {
			client = strings.TrimSpace(client)
			store, closeFn, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			if err := store.Delete(context.Background(), client); err != nil {
				return fmt.Errorf("failed to reset rate limit: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rate limit cleared for %s.\n", client)
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "Client address as seen by the server (required)")
	_ = cmd.MarkFlagRequired("client")
	return cmd
}
