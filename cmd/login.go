package cmd

import (
	"fmt"

	"github.com/envault/envault/internal/ui"
	"github.com/envault/envault/internal/workflows"

	"github.com/spf13/cobra"
)

var loginEmail string

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	_ = loginCmd.MarkFlagRequired("email")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password: ")
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Logging in...")
		defer cleanup()

		result, err := engine.Login(cmd.Context(), workflows.LoginOptions{
			Email:    loginEmail,
			Password: password,
		})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Login failed: " + err.Error()
			return err
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Logged in as " + ui.Highlight.Sprint(result.Email) + "\n" +
			ui.Muted.Sprint(fmt.Sprintf("%d workspace(s)", len(result.Workspaces)))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and remove local credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Logging out...")
		defer cleanup()

		if err := engine.Logout(cmd.Context()); err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Logout failed: " + err.Error()
			return err
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Logged out; local credentials removed"
		return nil
	},
}
