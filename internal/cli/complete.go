package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CompleteOptions carries the completion flags.
type CompleteOptions struct {
	*RootOptions
	Note string
	As   string
}

// NewCompleteCommand marks the caller's own row on a task complete. Admins
// can complete on behalf of another person with --as.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark your part of a task done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.Note, "note", "", "completion note")
	cmd.Flags().StringVar(&opts.As, "as", "", "complete another person's row (admins only)")
	return cmd
}

func runComplete(cmd *cobra.Command, opts *CompleteOptions, taskID string) error {
	s, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(opts.RootOptions)
	defer cancel()

	// The toggle resolves its row against local state, so read first.
	if _, err := loadBoard(ctx, s); err != nil {
		return err
	}

	as, err := resolveProfile(s.client.Profiles(), opts.As)
	if err != nil {
		return fmt.Errorf("no such person %q", opts.As)
	}

	row, err := s.client.Complete(ctx, taskID, as, opts.Note)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.AsJSON {
		return writeJSON(out, row)
	}
	fmt.Fprintf(out, "completed %s for %s\n", taskID, row.AssigneeID)
	return nil
}
