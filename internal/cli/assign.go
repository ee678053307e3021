package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AssignOptions carries the assignee-set flags.
type AssignOptions struct {
	*RootOptions
	To []string
}

// NewAssignCommand replaces a task's assignee set. The --to flags name the
// complete set after the change; people not listed lose their row. No --to at
// all clears the task.
func NewAssignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssignOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assign <task-id> --to <person> [--to <person>...]",
		Short: "Replace who holds a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringSliceVar(&opts.To, "to", nil, "assignee after the change, repeatable")
	return cmd
}

func runAssign(cmd *cobra.Command, opts *AssignOptions, taskID string) error {
	s, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(opts.RootOptions)
	defer cancel()

	// Read first so the reported diff is against fresh state.
	if _, err := loadBoard(ctx, s); err != nil {
		return err
	}

	desired := make([]string, 0, len(opts.To))
	for _, ref := range opts.To {
		id, err := resolveProfile(s.client.Profiles(), ref)
		if err != nil {
			return fmt.Errorf("no such person %q", ref)
		}
		desired = append(desired, id)
	}

	result, err := s.client.SyncAssignees(ctx, taskID, desired)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.AsJSON {
		return writeJSON(out, result)
	}
	renderSyncResult(out, taskID, result)
	return nil
}
