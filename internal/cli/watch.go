package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/splitlist/taskboard/client"
)

// WatchOptions carries the watch flags.
type WatchOptions struct {
	*RootOptions
	Interval time.Duration
	Due      string
	Category string
	Search   string
	All      bool
}

// NewWatchCommand keeps the board on screen, repainting after each scheduled
// refresh until interrupted.
func NewWatchCommand(rootOpts *RootOptions, defaultInterval time.Duration) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow your board, refreshing on an interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}
	cmd.Flags().DurationVar(&opts.Interval, "interval", defaultInterval, "time between refreshes")
	addFilterFlags(cmd, &opts.Due, &opts.Category, &opts.Search, &opts.All)
	return cmd
}

func runWatch(cmd *cobra.Command, opts *WatchOptions) error {
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
	notice, err := loadBoard(ctx, s)
	cancel()
	if err != nil {
		return err
	}

	if filter.CategoryID, err = resolveCategory(s.client.Categories(), opts.Category); err != nil {
		return fmt.Errorf("unknown category %q", opts.Category)
	}

	out := cmd.OutOrStdout()
	repaint := func() {
		fmt.Fprintf(out, "\n-- %s --\n", time.Now().Format("15:04:05"))
		renderSelfView(out, s.client.SelfView(filter))
	}

	printNotice(out, notice)
	repaint()

	refresher := client.NewRefresher(s.client, opts.Interval, repaint, s.logger)
	if err := refresher.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	<-sigCh

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	return refresher.Stop(stopCtx)
}
