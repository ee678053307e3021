package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ReopenOptions carries the reopen flags.
type ReopenOptions struct {
	*RootOptions
	As string
}

// NewReopenCommand flips a completed row back to open.
func NewReopenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReopenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reopen <task-id>",
		Short: "Reopen your part of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReopen(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.As, "as", "", "reopen another person's row (admins only)")
	return cmd
}

func runReopen(cmd *cobra.Command, opts *ReopenOptions, taskID string) error {
	s, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(opts.RootOptions)
	defer cancel()

	if _, err := loadBoard(ctx, s); err != nil {
		return err
	}

	as, err := resolveProfile(s.client.Profiles(), opts.As)
	if err != nil {
		return fmt.Errorf("no such person %q", opts.As)
	}

	row, err := s.client.Reopen(ctx, taskID, as)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.AsJSON {
		return writeJSON(out, row)
	}
	fmt.Fprintf(out, "reopened %s for %s\n", taskID, row.AssigneeID)
	return nil
}
