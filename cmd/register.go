package cmd

import (
	"github.com/envault/envault/internal/ui"
	"github.com/envault/envault/internal/workflows"

	"github.com/spf13/cobra"
)

var registerEmail string

func init() {
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "account email")
	_ = registerCmd.MarkFlagRequired("email")
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	Long: `Creates an account. The encryption keys are generated on this machine:
the password never leaves it in usable form, and the private key is
uploaded only in encrypted form.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptNewPassword()
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Creating account...")
		defer cleanup()

		result, err := engine.Register(cmd.Context(), workflows.RegisterOptions{
			Email:    registerEmail,
			Password: password,
		})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Registration failed: " + err.Error()
			return err
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Account created for " + ui.Highlight.Sprint(result.Email) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("envault init") + " inside a project to start storing secrets"
		return nil
	},
}
