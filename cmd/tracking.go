package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	portaladapter "github.com/ezlumper/haulpass-cli/internal/adapters/render/portal"
	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newTrackingCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tracking [request-id]",
		Short: "Show the live-tracking map for a request",
		Long:  "Shows the crew position feed for one request. Without an argument the first active request is tracked, falling back to the most recent one.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := app.gateway(cmd.Context())
			if err != nil {
				return err
			}

			resolver, _, err := resolveReady(cmd.Context(), gw)
			if err != nil {
				return err
			}

			var id domain.RequestID
			if len(args) == 1 {
				id = domain.RequestID(args[0])
			} else {
				lifecycle := application.NewLifecycleService(gw, resolver)
				list, err := lifecycle.List(cmd.Context())
				if err != nil {
					return err
				}

				selected, ok := application.DefaultSelection(list.All)
				if !ok {
					return errors.New("no requests to track")
				}
				id = selected
			}

			projector := application.NewTrackingProjector(gw)
			state := projector.Select(cmd.Context(), id)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}

			rendered, err := portaladapter.RenderTracking(state, app.renderOptions())
			if err != nil {
				return fmt.Errorf("render tracking: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
