package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/ezlumper/haulpass-cli/internal/ports"
	"github.com/spf13/cobra"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Show and update the company account profile",
	}

	cmd.AddCommand(newAccountShowCmd(app), newAccountUpdateCmd(app), newAccountSyncCmd(app))

	return cmd
}

func newAccountShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current account profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := app.gateway(cmd.Context())
			if err != nil {
				return err
			}

			_, state, err := resolveReady(cmd.Context(), gw)
			if err != nil {
				return err
			}

			return writeAccount(cmd, state, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newAccountUpdateCmd(app *app) *cobra.Command {
	var update ports.AccountUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update company profile fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := app.gateway(cmd.Context())
			if err != nil {
				return err
			}

			resolver, _, err := resolveReady(cmd.Context(), gw)
			if err != nil {
				return err
			}

			account := application.NewAccountService(gw, resolver)
			state, err := account.Update(cmd.Context(), update)
			if err != nil {
				return err
			}

			return writeAccount(cmd, state, false)
		},
	}

	cmd.Flags().StringVar(&update.CompanyName, "company-name", "", "Company display name")
	cmd.Flags().StringVar(&update.BillingEmail, "billing-email", "", "Billing contact email")
	cmd.Flags().StringVar(&update.BillingPhone, "billing-phone", "", "Billing contact phone")
	cmd.Flags().StringVar(&update.UserPhone, "phone", "", "Your contact phone")

	return cmd
}

func newAccountSyncCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull the latest subscription state from the billing provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := app.gateway(cmd.Context())
			if err != nil {
				return err
			}

			resolver, _, err := resolveReady(cmd.Context(), gw)
			if err != nil {
				return err
			}

			account := application.NewAccountService(gw, resolver)
			state, err := account.Sync(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Subscription state synced.")
			return writeAccount(cmd, state, false)
		},
	}
}

func writeAccount(cmd *cobra.Command, state application.SessionState, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(state.Session)
	}

	company := state.Session.Company
	user := state.Session.User

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "member:        %s\n", company.MemberNumber)
	_, _ = fmt.Fprintf(out, "company:       %s\n", company.Name)
	_, _ = fmt.Fprintf(out, "plan:          %s\n", company.PlanType)
	_, _ = fmt.Fprintf(out, "credits:       %d\n", company.Credits)
	_, _ = fmt.Fprintf(out, "card on file:  %t\n", company.CardOnFile)
	_, _ = fmt.Fprintf(out, "billing email: %s\n", company.BillingEmail)
	_, _ = fmt.Fprintf(out, "billing phone: %s\n", company.BillingPhone)
	_, _ = fmt.Fprintf(out, "user:          %s (%s)\n", user.Email, user.Role)
	if user.Phone != "" {
		_, _ = fmt.Fprintf(out, "user phone:    %s\n", user.Phone)
	}
	return nil
}
