package cmd

import (
	"github.com/envault/envault/internal/ui"
	"github.com/envault/envault/internal/workflows"

	"github.com/spf13/cobra"
)

var initName string

func init() {
	initCmd.Flags().StringVarP(&initName, "name", "n", "", "project name (defaults to the directory name)")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a project and bind this directory to it",
	Long: `Creates a project in your personal workspace and writes
.envault/project.toml so commands in this directory know where secrets
live. The project stays private until you invite someone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Initializing project...")
		defer cleanup()

		result, err := engine.InitProject(cmd.Context(), workflows.InitProjectOptions{Name: initName})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Init failed: " + err.Error()
			return err
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Project " + ui.Highlight.Sprint(result.ProjectName) + " created\n" +
			ui.Info.Sprint("→") + " Store a secret with " + ui.Code.Sprint("envault set KEY=VALUE")
		return nil
	},
}
