package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/splitlist/taskboard/domain"
)

// NewWhoamiCommand resolves the identity behind the stored token.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored token acts as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWhoami(cmd, rootOpts)
		},
	}
}

func runWhoami(cmd *cobra.Command, opts *RootOptions) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext(opts)
	defer cancel()

	out := cmd.OutOrStdout()
	profile, err := s.source.Whoami(ctx)
	if err != nil {
		if !domain.IsDomainError(err, domain.ErrCodeTransient) {
			return err
		}
		// Unreachable server: fall back to what login stored.
		profile = &s.creds.Profile
		fmt.Fprintln(out, "offline: showing the stored identity")
	}

	if opts.AsJSON {
		return writeJSON(out, profile)
	}
	fmt.Fprintf(out, "%s  %s  role=%s\n", profile.ID, profile.DisplayName, profile.Role)
	return nil
}
