package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splitlist/taskboard/client"
	"github.com/splitlist/taskboard/domain"
)

// ListOptions carries the self-board filter flags.
type ListOptions struct {
	*RootOptions
	Due      string
	Category string
	Search   string
	All      bool
}

// NewListCommand renders the viewer's own board.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show your own board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}
	addFilterFlags(cmd, &opts.Due, &opts.Category, &opts.Search, &opts.All)
	return cmd
}

func addFilterFlags(cmd *cobra.Command, due, category, search *string, all *bool) {
	cmd.Flags().StringVar(due, "due", "", "due filter: all, today, late_today, late, no_due or not_due_yet")
	cmd.Flags().StringVar(category, "category", "", "only tasks in this category (id or name)")
	cmd.Flags().StringVar(search, "search", "", "only tasks whose title, note or category name matches")
	cmd.Flags().BoolVar(all, "all", false, "include completed tasks")
}

func buildFilter(due, search string, all bool) (client.Filter, error) {
	f := client.Filter{
		Due:           domain.DueFilter(due),
		Search:        search,
		ShowCompleted: all,
	}
	if !f.Due.Valid() {
		return client.Filter{}, fmt.Errorf("unknown due filter %q", due)
	}
	return f, nil
}

func runList(cmd *cobra.Command, opts *ListOptions) error {
	filter, err := buildFilter(opts.Due, opts.Search, opts.All)
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

	notice, err := loadBoard(ctx, s)
	if err != nil {
		return err
	}

	if filter.CategoryID, err = resolveCategory(s.client.Categories(), opts.Category); err != nil {
		return fmt.Errorf("unknown category %q", opts.Category)
	}

	view := s.client.SelfView(filter)
	out := cmd.OutOrStdout()
	if opts.AsJSON {
		return writeJSON(out, view)
	}
	printNotice(out, notice)
	renderSelfView(out, view)
	return nil
}
