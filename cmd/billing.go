package cmd

import (
	"encoding/json"
	"fmt"

	portaladapter "github.com/ezlumper/haulpass-cli/internal/adapters/render/portal"
	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newBillingCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Show billing history, totals and invoice links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, err := app.gateway(cmd.Context())
			if err != nil {
				return err
			}

			if _, _, err := resolveReady(cmd.Context(), gw); err != nil {
				return err
			}

			ledger := application.NewLedgerService(gw)
			statement, err := ledger.Statement(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(statement)
			}

			rendered, err := portaladapter.RenderStatement(statement, func(id string) string {
				return gw.InvoiceURL(domain.RequestID(id))
			}, app.renderOptions())
			if err != nil {
				return fmt.Errorf("render billing: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
