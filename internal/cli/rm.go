package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRemoveCommand deletes a task and every assignment row on it.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task for everyone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, rootOpts, args[0])
		},
	}
}

func runRemove(cmd *cobra.Command, opts *RootOptions, taskID string) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(opts)
	defer cancel()

	if err := s.client.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", taskID)
	return nil
}
