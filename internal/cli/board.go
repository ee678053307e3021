package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splitlist/taskboard/client"
)

// BoardOptions carries the per-person board flags.
type BoardOptions struct {
	*RootOptions
	Due      string
	Category string
	Search   string
	All      bool
	Bucket   string
}

// NewBoardCommand renders the admin per-person board.
func NewBoardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BoardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show everyone's tasks, one bucket per person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBoard(cmd, opts)
		},
	}
	addFilterFlags(cmd, &opts.Due, &opts.Category, &opts.Search, &opts.All)
	cmd.Flags().StringVar(&opts.Bucket, "bucket", "", "show a single bucket: a person or \"unassigned\"")
	return cmd
}

func runBoard(cmd *cobra.Command, opts *BoardOptions) error {
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

	only := opts.Bucket
	if only != "" && only != client.BucketUnassigned {
		if only, err = resolveProfile(s.client.Profiles(), only); err != nil {
			return fmt.Errorf("no such person %q", opts.Bucket)
		}
	}

	view, err := s.client.AdminView(filter, only)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.AsJSON {
		return writeJSON(out, view)
	}
	printNotice(out, notice)
	renderAdminView(out, view)
	return nil
}
