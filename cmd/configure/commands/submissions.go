package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benvon/portfolio-api/internal/database"
	"github.com/benvon/portfolio-api/internal/logger"
	"github.com/benvon/portfolio-api/internal/models"
	"github.com/benvon/portfolio-api/internal/validation"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SubmissionsOpener opens the submission repository and returns its closer.
type SubmissionsOpener func() (database.ContactSubmissionRepositoryInterface, func() error, error)

// Output formats.
const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"
)

type submissionView struct {
	ID        string `json:"id" yaml:"id"`
	Status    string `json:"status" yaml:"status"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	Message   string `json:"message" yaml:"message"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

func newSubmissionView(s *models.ContactSubmission) submissionView {
	return submissionView{
		ID:        s.ID.String(),
		Status:    string(s.Status),
		Name:      s.Name,
		Email:     s.Email,
		Message:   s.Message,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewSubmissionsCmd creates the submissions command with list, set-status and stats subcommands.
func NewSubmissionsCmd(open SubmissionsOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Review contact form submissions",
	}
	cmd.AddCommand(newSubmissionsListCmd(open))
	cmd.AddCommand(newSubmissionsSetStatusCmd(open))
	cmd.AddCommand(newSubmissionsStatsCmd(open))
	return cmd
}

func newSubmissionsListCmd(open SubmissionsOpener) *cobra.Command {
	var (
		status string
		limit  int
		offset int
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := database.ListOptions{Limit: limit, Offset: offset}
			if status != "" {
				if err := validation.ValidateSubmissionStatus(status); err != nil {
					return err
				}
				s := models.SubmissionStatus(status)
				opts.Status = &s
			}
			if err := checkOutput(output); err != nil {
				return err
			}

			repo, closeFn, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			subs, total, err := repo.List(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list submissions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(subs) == 0 && output == outputTable {
				fmt.Fprintln(out, "No submissions found")
				return nil
			}
			views := make([]submissionView, 0, len(subs))
			for _, s := range subs {
				views = append(views, newSubmissionView(s))
			}
			switch output {
			case outputYAML:
				return yaml.NewEncoder(out).Encode(views)
			case outputJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(views)
			}
			writeSubmissionTable(out, views)
			fmt.Fprintf(out, "\nShowing %d of %d\n", len(views), total)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (unread, read, archived)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, yaml, json)")
	return cmd
}

func newSubmissionsSetStatusCmd(open SubmissionsOpener) *cobra.Command {
	var id, status string
	cmd := &cobra.Command{
		Use:   "set-status",
		Short: "Mark a submission read, unread or archived",
		RunE: func(cmd *cobra.Command, args []string) error {
			subID, err := uuid.Parse(strings.TrimSpace(id))
			if err != nil {
				return fmt.Errorf("--id must be a UUID: %w", err)
			}
			if err := validation.ValidateSubmissionStatus(status); err != nil {
				return err
			}

			repo, closeFn, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			sub, err := repo.UpdateStatus(context.Background(), subID, models.SubmissionStatus(status))
			if err != nil {
				return fmt.Errorf("failed to update submission: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submission %s from %s is now %s.\n",
				sub.ID, logger.MaskEmail(sub.Email), sub.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Submission ID (required)")
	cmd.Flags().StringVar(&status, "status", "", "New status: unread, read or archived (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newSubmissionsStatsCmd(open SubmissionsOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count submissions by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeFn, err := open()
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			stats, err := repo.CountByStatus(context.Background())
			if err != nil {
				return fmt.Errorf("failed to count submissions: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, s := range models.SubmissionStatuses {
				fmt.Fprintf(out, "%-9s %d\n", s, stats[s])
			}
			fmt.Fprintf(out, "%-9s %d\n", "total", stats.Total())
			return nil
		},
	}
}

func checkOutput(output string) error {
	switch output {
	case outputTable, outputYAML, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (table, yaml, json)", output)
	}
}

func writeSubmissionTable(out io.Writer, views []submissionView) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tNAME\tEMAIL\tMESSAGE")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.Status, v.CreatedAt, v.Name, v.Email, preview(v.Message, 40))
	}
	_ = tw.Flush()
}

// preview flattens and shortens a message to max runes.
func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
