package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/splitlist/taskboard/client"
	"github.com/splitlist/taskboard/domain"
)

// CreateOptions carries the task-drafting flags.
type CreateOptions struct {
	*RootOptions
	Note     string
	Due      string
	Category string
	Assign   []string
}

// NewCreateCommand drafts a new task.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.Note, "note", "", "free-form note")
	cmd.Flags().StringVar(&opts.Due, "due", "", "due date, 2006-01-02 or RFC 3339")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category id or name")
	cmd.Flags().StringSliceVar(&opts.Assign, "assign", nil, "assignee, repeatable")
	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions, title string) error {
	due, err := domain.ParseDue(opts.Due)
	if err != nil {
		return err
	}

	s, err := openSession(opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(opts.RootOptions)
	defer cancel()

	// The directory turns names in --category and --assign into ids; without
	// it those flags still take raw ids.
	if err := s.client.RefreshDirectory(ctx); err != nil {
		s.logger.Debug("directory refresh failed", zap.Error(err))
	}

	draft := client.TaskDraft{Title: title, Note: opts.Note, Due: due}
	if draft.CategoryID, err = resolveCategory(s.client.Categories(), opts.Category); err != nil {
		return fmt.Errorf("unknown category %q", opts.Category)
	}
	for _, ref := range opts.Assign {
		id, err := resolveProfile(s.client.Profiles(), ref)
		if err != nil {
			return fmt.Errorf("unknown assignee %q", ref)
		}
		draft.AssigneeIDs = append(draft.AssigneeIDs, id)
	}

	task, err := s.client.CreateTask(ctx, draft)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.AsJSON {
		return writeJSON(out, task)
	}
	fmt.Fprint(out, "created ")
	renderTask(out, task)
	return nil
}
