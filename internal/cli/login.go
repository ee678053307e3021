package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/splitlist/taskboard/client/rest"
)

// LoginOptions carries the login flags.
type LoginOptions struct {
	*RootOptions
	TTL time.Duration
}

// NewLoginCommand starts a session and stores its grant in the token file.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login <profile-id-or-email>",
		Short: "Start a session and store its token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts, args[0])
		},
	}
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 30*24*time.Hour, "how long the session stays valid")
	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions, profileRef string) error {
	log := newCLILogger(opts.RootOptions)
	defer log.Sync()

	ctx, cancel := commandContext(opts.RootOptions)
	defer cancel()

	source := rest.New(opts.ServerURL, rest.Options{Timeout: opts.Timeout, Logger: log})
	grant, err := source.Login(ctx, profileRef, opts.TTL)
	if err != nil {
		return err
	}
	if grant.Profile == nil || grant.Session == nil {
		return fmt.Errorf("server returned an incomplete login grant")
	}

	if err := saveCredentials(opts.TokenPath, credentials{
		Token:     grant.Token,
		SessionID: grant.Session.ID,
		Profile:   *grant.Profile,
	}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s (%s), session valid until %s\n",
		grant.Profile.DisplayName, grant.Profile.Role,
		grant.Session.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}
