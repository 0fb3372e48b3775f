package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/supasaas/pkg/auth"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign up, sign in and manage the current user",
	}

	var password string
	signUp := &cobra.Command{
		Use:   "signup <email>",
		Short: "Register a new user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.auth().SignUp(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			if resp.Session != nil {
				if err := app.saveSession(args[0]); err != nil {
					return err
				}
			}
			printSuccess(cmd.OutOrStdout(), "Signed up %s", args[0])
			return nil
		},
	}
	signUp.Flags().StringVarP(&password, "password", "p", "", "password for the new user")
	_ = signUp.MarkFlagRequired("password")

	var signInPassword string
	signIn := &cobra.Command{
		Use:   "signin <email>",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.auth().SignIn(cmd.Context(), args[0], signInPassword); err != nil {
				return err
			}
			if err := app.saveSession(args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Signed in as %s", args[0])
			return nil
		},
	}
	signIn.Flags().StringVarP(&signInPassword, "password", "p", "", "account password")
	_ = signIn.MarkFlagRequired("password")

	signOut := &cobra.Command{
		Use:   "signout",
		Short: "Revoke and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.auth().SignOut(cmd.Context())
			app.store.Remove(app.cfg.Supabase.URL)
			if err := app.store.SaveCredentials(); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}

	var domain string
	resetPassword := &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Send a password recovery email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := domain
			if d == "" {
				d = app.cfg.Auth.RedirectDomain
			}
			if d == "" {
				return fmt.Errorf("--domain is required when auth.redirect_domain is not configured")
			}
			if err := app.auth().ResetPassword(cmd.Context(), args[0], d); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Recovery email sent to %s", args[0])
			return nil
		},
	}
	resetPassword.Flags().StringVar(&domain, "domain", "", "application URL hosting reset-password.html")

	updateUser := &cobra.Command{
		Use:   "update-user <json>",
		Short: `Update the signed-in user, e.g. '{"data":{"name":"John"}}'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			updates, err := parseObject("updates", args[0])
			if err != nil {
				return err
			}
			user, err := app.auth().UpdateUser(cmd.Context(), updates)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), user)
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := app.client.Session()
			if s == nil {
				return fmt.Errorf("not signed in; run 'supasaas auth signin'")
			}
			claims, err := s.Claims()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render("Session"))
			printField(w, "User", claims.Subject)
			printField(w, "Email", claims.Email)
			printField(w, "Role", claims.Role)
			exp := s.Expiry()
			status := "valid"
			if s.Expired(time.Now()) {
				status = "expired"
			}
			if !exp.IsZero() {
				printField(w, "Expires", fmt.Sprintf("%s (%s)", exp.Format(time.RFC3339), status))
			}
			return nil
		},
	}

	cmd.AddCommand(signUp, signIn, signOut, resetPassword, updateUser, whoami)
	return cmd
}

// saveSession persists the client's current session for the project.
func (a *App) saveSession(email string) error {
	s := a.client.Session()
	if s == nil {
		return nil
	}
	a.store.Set(a.cfg.Supabase.URL, auth.NewCredentials(email, s))
	return a.store.SaveCredentials()
}
