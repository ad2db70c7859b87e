package cmd

import (
	"os"

	"github.com/mparreirinha/expensetrackerapp/internal/app"
	"github.com/mparreirinha/expensetrackerapp/internal/config"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
	"github.com/spf13/cobra"
)

// appOpener builds the application for a command. Tests replace it with an
// in-process App.
type appOpener func() (*app.App, error)

func openFromEnvironment() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.NewApp(cfg)
}

func newRootCmd(open appOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "expensectl",
		Short: "Operator tools for the expense tracker backend",
		Long: `Administrative commands that act directly on the credential store and
the session registry configured through the usual environment variables.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newSeedAdminCmd(open))
	rootCmd.AddCommand(newRevokeSessionsCmd(open))
	return rootCmd
}

func Execute() {
	utils.InitLogger("expensectl")
	if err := newRootCmd(openFromEnvironment).Execute(); err != nil {
		os.Exit(1)
	}
}
