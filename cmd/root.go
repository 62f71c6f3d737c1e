package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hp",
		Short:         "H.A.U.L. PASS member portal (hp): requests, billing and tracking",
		Long:          "hp is the H.A.U.L. PASS member portal client: sign in with a magic link, submit and track emergency logistics requests, and review billing from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newRequestsCmd(app),
		newBillingCmd(app),
		newTrackingCmd(app),
		newAccountCmd(app),
		newSignupCmd(app),
	)

	return rootCmd
}
