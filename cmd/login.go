package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ezlumper/haulpass-cli/internal/application"
	"github.com/ezlumper/haulpass-cli/internal/domain"
	"github.com/ezlumper/haulpass-cli/internal/ports"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the member portal",
	}

	cmd.AddCommand(newLoginRequestCmd(app), newLoginCookieCmd(app))

	return cmd
}

func newLoginRequestCmd(app *app) *cobra.Command {
	var memberNumber string
	var email string

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a magic sign-in link by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			memberNumber = strings.TrimSpace(memberNumber)
			email = strings.TrimSpace(email)
			if memberNumber == "" {
				return &domain.ValidationError{Field: "member number", Reason: "must not be empty"}
			}
			if len(email) <= 3 {
				return &domain.ValidationError{Field: "email", Reason: "enter a full email address"}
			}

			gw := app.newGateway("")
			if err := gw.RequestMagicLink(cmd.Context(), memberNumber, email); err != nil {
				return fmt.Errorf("request magic link: %w", err)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(),
				"Sign-in link sent to %s.\nOpen it, then copy the portal session cookie into `hp login cookie`.\n", email)
			return err
		},
	}

	cmd.Flags().StringVar(&memberNumber, "member", "", "H.A.U.L. PASS member number")
	cmd.Flags().StringVar(&email, "email", "", "Account email the link is sent to")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLoginCookieCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "cookie",
		Short: "Store a portal session cookie and verify it",
		Long:  "Stores the session cookie issued by the magic-link sign-in. Pass it with --value or pipe it on stdin; the cookie is verified against the backend before it is saved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cookie := strings.TrimSpace(value)
			if cookie == "" {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					cookie = strings.TrimSpace(scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read cookie from stdin: %w", err)
				}
			}
			if cookie == "" {
				return errors.New("no cookie provided: use --value or pipe it on stdin")
			}

			return runLoginCookie(cmd, app, cookie)
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Session cookie value (reads stdin when omitted)")

	return cmd
}

func runLoginCookie(cmd *cobra.Command, app *app, cookie string) error {
	resolver := application.NewSessionResolver(app.newGateway(cookie))
	state := resolver.Resolve(cmd.Context())

	switch state.Phase {
	case application.SessionReady:
	case application.SessionUnauthenticated:
		return errors.New("cookie rejected by the backend: request a fresh sign-in link")
	default:
		return errors.New(state.Message)
	}

	snapshot := state.Session
	profile := ports.Profile{
		Cookie:   cookie,
		Snapshot: &snapshot,
		SavedAt:  app.clock.Now(),
	}
	if err := app.store.Save(cmd.Context(), profile); err != nil {
		return fmt.Errorf("save session profile: %w", err)
	}

	company := state.Session.Company
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Signed in as member %s (%s).\n", company.MemberNumber, company.Name)
	return err
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the portal session and forget the stored cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := app.store.Load(cmd.Context())
			switch {
			case errors.Is(err, domain.ErrSessionNotFound):
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return err
			case err != nil:
				return fmt.Errorf("load session profile: %w", err)
			}

			// server-side revocation is best effort; the local cookie is
			// cleared regardless
			logoutCtx, cancel := contextWithTimeout(cmd, 10*time.Second)
			defer cancel()
			if err := app.newGateway(profile.Cookie).Logout(logoutCtx); err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: backend logout failed: %v\n", err)
			}

			if err := app.store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear session profile: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return err
		},
	}
}
