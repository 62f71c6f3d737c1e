package cmd

import (
	"encoding/json"
	"fmt"

	portaladapter "github.com/ezlumper/haulpass-cli/internal/adapters/render/portal"
	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"overview"},
		Short:   "Show the member overview: plan, credits and recent requests",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

type statusOutput struct {
	Session  application.SessionState
	Requests application.RequestList
}

// runStatus renders every session phase instead of failing: an expired cookie
// shows the sign-in hint, a backend outage shows the resolver's message.
func runStatus(cmd *cobra.Command, app *app, asJSON bool) error {
	gw, err := app.gateway(cmd.Context())
	if err != nil {
		return err
	}

	resolver := application.NewSessionResolver(gw)
	state := resolver.Resolve(cmd.Context())

	var list application.RequestList
	if state.Phase == application.SessionReady {
		lifecycle := application.NewLifecycleService(gw, resolver)
		list, err = lifecycle.List(cmd.Context())
		if err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(statusOutput{Session: state, Requests: list})
	}

	rendered, err := portaladapter.RenderOverview(state, list, app.renderOptions())
	if err != nil {
		return fmt.Errorf("render overview: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
