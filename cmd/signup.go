package cmd

import (
	"fmt"

	"github.com/ezlumper/haulpass-cli/internal/adapters/signup"
	"github.com/spf13/cobra"
)

func newSignupCmd(app *app) *cobra.Command {
	var listenAddr string
	var viewportWidth int

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Serve the hosted signup form locally",
		Long:  "Serves a local page embedding the hosted signup form. Height messages posted by the form are validated against the configured origin and frame before the embed is resized.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := signup.Start(signup.Config{
				ListenAddr:     listenAddr,
				FormURL:        app.signup.FormURL,
				OriginFragment: app.signup.OriginFragment,
				FrameID:        app.signup.FrameID,
				ViewportWidth:  viewportWidth,
			})
			if err != nil {
				return err
			}
			defer func() { _ = server.Close() }()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signup form at %s (Ctrl+C to stop)\n", server.URL())

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", app.signup.ListenAddr, "Local listen address")
	cmd.Flags().IntVar(&viewportWidth, "width", 1280, "Viewport width used for the fallback embed height")

	return cmd
}
