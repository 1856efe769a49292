package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in and switch to the remote backend",
	Long: `Sign in with an email address. Logged-in sessions store tasks and
the memo in the remote backend; guest data stays local and is not merged.

Examples:
  oicomi login me@example.com -p secret`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		id, err := app.Provider.SignIn(cmd.Context(), args[0], loginPassword)
		if err != nil {
			return fmt.Errorf("failed to sign in: %w", err)
		}

		fmt.Printf("Signed in as %s\n", id.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and switch back to local guest data",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		if err := app.Provider.SignOut(cmd.Context()); err != nil {
			return fmt.Errorf("failed to sign out: %w", err)
		}

		fmt.Println("Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity the session is bound to",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized")
		}

		id := app.Session.Current()
		if !id.IsLoggedIn {
			fmt.Println("guest (local storage)")
			return nil
		}
		fmt.Printf("%s (%s)\n", id.Email, id.ID)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password")
	AddCommand(loginCmd)
	AddCommand(logoutCmd)
	AddCommand(whoamiCmd)
}
