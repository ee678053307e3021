// Package cli implements the boardctl command tree. Every subcommand builds
// its client from the shared root flags, whose defaults come from the same
// environment configuration the server reads.
package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/splitlist/taskboard/internal/config"
)

// RootOptions holds the flags shared by every subcommand.
type RootOptions struct {
	ServerURL    string
	TokenPath    string
	SnapshotPath string
	Timeout      time.Duration
	Verbose      bool
	AsJSON       bool
}

// NewRootCommand builds the boardctl command tree.
func NewRootCommand() *cobra.Command {
	cfg := config.MustLoad()
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "boardctl",
		Short: "Task board client",
		Long: `boardctl talks to a task board server: it keeps a local copy of your
tasks, renders your own list or the per-person board, and pushes edits,
completions and assignee changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", cfg.Client.ServerURL, "board server base URL")
	cmd.PersistentFlags().StringVar(&opts.TokenPath, "token-file", cfg.Client.TokenPath, "where the login token is kept")
	cmd.PersistentFlags().StringVar(&opts.SnapshotPath, "snapshot-file", cfg.Client.SnapshotPath, "local last-known-state cache")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", cfg.Client.RequestTimeout, "per-request timeout")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.AsJSON, "json", false, "emit JSON instead of text")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewBoardCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewCompleteCommand(opts))
	cmd.AddCommand(NewReopenCommand(opts))
	cmd.AddCommand(NewAssignCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts, cfg.Client.RefreshInterval))

	return cmd
}
