package cmd

import (
	"encoding/json"
	"fmt"

	portaladapter "github.com/ezlumper/haulpass-cli/internal/adapters/render/portal"
	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newRequestsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"req"},
		Short:   "List and submit service requests",
	}

	cmd.AddCommand(newRequestsListCmd(app), newRequestsCreateCmd(app))

	return cmd
}

func newRequestsListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List current and previous service requests",
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

			lifecycle := application.NewLifecycleService(gw, resolver)
			list, err := lifecycle.List(cmd.Context())
			if err != nil {
				return err
			}

			return writeRequestList(cmd, app, list, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newRequestsCreateCmd(app *app) *cobra.Command {
	var (
		tier        int
		name        string
		contact     string
		destination string
		payment     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a new service request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := application.SubmitInput{
				RequestorName:      name,
				RequestorContact:   contact,
				DestinationAddress: destination,
			}

			var err error
			if input.Tier, err = parseTier(tier); err != nil {
				return err
			}
			if input.PaymentPreference, err = parsePayment(payment); err != nil {
				return err
			}

			return runRequestsCreate(cmd, app, input)
		},
	}

	cmd.Flags().IntVar(&tier, "tier", 0, "Response tier (1-4)")
	cmd.Flags().StringVar(&name, "name", "", "Requestor name")
	cmd.Flags().StringVar(&contact, "contact", "", "Requestor email or phone")
	cmd.Flags().StringVar(&destination, "destination", "", "Full destination address")
	cmd.Flags().StringVar(&payment, "payment", "credits", "Payment preference: credits, credits-plus-diff or bill-full")
	_ = cmd.MarkFlagRequired("tier")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("contact")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}

func runRequestsCreate(cmd *cobra.Command, app *app, input application.SubmitInput) error {
	gw, err := app.gateway(cmd.Context())
	if err != nil {
		return err
	}

	resolver, _, err := resolveReady(cmd.Context(), gw)
	if err != nil {
		return err
	}

	lifecycle := application.NewLifecycleService(gw, resolver)

	var result application.SubmitResult
	submit := func() error {
		var submitErr error
		result, submitErr = lifecycle.Submit(cmd.Context(), input)
		return submitErr
	}

	if err := runSubmitSpinner(cmd.Context(), cmd.ErrOrStderr(), submit); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Request %s submitted.\n", result.RequestID)

	if result.ListErr != nil {
		// the submission is accepted; the reload failure must not hide it
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: reload request list: %v\n", result.ListErr)
		return nil
	}

	return writeRequestList(cmd, app, result.List, false)
}

func writeRequestList(cmd *cobra.Command, app *app, list application.RequestList, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	rendered, err := portaladapter.RenderRequests(list, app.renderOptions())
	if err != nil {
		return fmt.Errorf("render requests: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func parseTier(tier int) (domain.RequestTier, error) {
	switch tier {
	case 1:
		return domain.Tier1, nil
	case 2:
		return domain.Tier2, nil
	case 3:
		return domain.Tier3, nil
	case 4:
		return domain.Tier4, nil
	default:
		return "", fmt.Errorf("invalid tier %d: expected 1-4", tier)
	}
}

func parsePayment(payment string) (domain.PaymentPreference, error) {
	switch payment {
	case "credits":
		return domain.PayCredits, nil
	case "credits-plus-diff":
		return domain.PayCreditsPlusDiff, nil
	case "bill-full":
		return domain.PayBillFull, nil
	default:
		return "", fmt.Errorf("invalid payment preference %q: expected credits, credits-plus-diff or bill-full", payment)
	}
}
