package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/envault/envault/internal/ui"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show login and project binding state",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := engine.Status(cmd.Context())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read status: %v", err)
		}

		var out strings.Builder
		if result.LoggedIn {
			out.WriteString(ui.Success.Sprint("✓") + " Logged in as " + ui.Highlight.Sprint(result.Email) + "\n")
			if time.Now().Before(result.TokenExpiresAt) {
				out.WriteString(ui.Muted.Sprintf("session valid until %s", result.TokenExpiresAt.Local().Format(time.RFC822)) + "\n")
			} else {
				out.WriteString(ui.Muted.Sprint("session expired; it will refresh on the next command") + "\n")
			}
		} else {
			out.WriteString(ui.Error.Sprint("✗") + " Not logged in\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("envault login") + "\n")
		}

		if result.Project != nil {
			out.WriteString(ui.Success.Sprint("✓") + " Project " + ui.Highlight.Sprint(result.Project.Name) +
				ui.Muted.Sprintf(" workspace %s", result.Project.WorkspaceID) + "\n")
		} else {
			out.WriteString(ui.Muted.Sprint("no project bound in this directory") + "\n")
		}

		fmt.Print(out.String())
		return nil
	},
}
