package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRevokeSessionsCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <username>",
		Short: "Log a user out of every session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			subject := args[0]
			if err := a.SessionService.RevokeAllForSubject(cmd.Context(), subject); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "all sessions of %q revoked\n", subject)
			return nil
		},
	}
}
