package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-projects/internal/app"
	"github.com/noah-isme/gema-projects/internal/dto"
)

func newLoginCommand(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			return c.printWhoami(cmd)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func newSignupCommand(c *cli) *cobra.Command {
	var req dto.SignupRequest
	var role string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = dto.Role(role)
			if err := c.app.Session.Signup(cmd.Context(), req); err != nil {
				return err
			}
			return c.printWhoami(cmd)
		},
	}

	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "account password")
	cmd.Flags().StringVarP(&req.Name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&role, "role", "r", string(dto.RoleLearner), "learner or instructor")
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.printWhoami(cmd)
		},
	}
}

func (c *cli) printWhoami(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	state := c.app.Session.State()

	switch app.SelectView(state) {
	case app.ViewLanding:
		fmt.Fprintln(out, "Not signed in. Use `gema-projects login` or `gema-projects signup`.")
	case app.ViewLoading:
		fmt.Fprintln(out, "Loading...")
	case app.ViewSignInAgain:
		fmt.Fprintln(out, "Stored session has no user. Use `gema-projects login` to sign in again.")
	default:
		fmt.Fprintf(out, "Signed in as %s (%s)\n", state.User.Name, state.User.Role)
	}
	return nil
}
