package cmd

import (
	"fmt"

	"github.com/mparreirinha/expensetrackerapp/internal/seeding"
	"github.com/spf13/cobra"
)

func newSeedAdminCmd(open appOpener) *cobra.Command {
	var username, email, password string

	c := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account if it does not exist",
		Long: `Creates an ADMIN user. Flags override ADMIN_USERNAME, ADMIN_EMAIL and
ADMIN_PASSWORD from the environment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()

			seed := seeding.AdminSeed{
				Username: firstNonEmpty(username, a.Config.AdminUsername),
				Email:    firstNonEmpty(email, a.Config.AdminEmail),
				Password: firstNonEmpty(password, a.Config.AdminPassword),
			}
			created, err := seeding.SeedDefaultAdmin(cmd.Context(), a.UserRepo, a.Hasher, seed)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "admin %q created\n", seed.Username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "user %q already exists\n", seed.Username)
			}
			return nil
		},
	}
	c.Flags().StringVar(&username, "username", "", "admin username")
	c.Flags().StringVar(&email, "email", "", "admin email")
	c.Flags().StringVar(&password, "password", "", "admin password")
	return c
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
