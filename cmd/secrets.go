package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/envault/envault/internal/ui"
	"github.com/envault/envault/internal/workflows"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set KEY=VALUE",
	Short: "Encrypt and store one secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value, ok := strings.Cut(args[0], "=")
		if !ok || key == "" {
			return Logger.ErrorfAndReturn("expected KEY=VALUE, got %q", args[0])
		}

		spinner, cleanup := startSpinner("Encrypting and storing secret...")
		defer cleanup()

		result, err := engine.SetSecret(cmd.Context(), workflows.SetSecretOptions{Key: key, Value: value})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Failed to store " + ui.Highlight.Sprint(key) + ": " + err.Error()
			return err
		}
		spinner.FinalMSG = ui.Success.Sprint("✓") + " Stored " + ui.Highlight.Sprint(result.Key) +
			ui.Muted.Sprintf(" key version %d", result.KeyVersion)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Fetch and decrypt one secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := engine.GetSecret(cmd.Context(), workflows.GetSecretOptions{Key: args[0]})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to fetch %s: %v", args[0], err)
		}

		// Value only, so the output can be piped or substituted.
		fmt.Println(result.Value)
		return nil
	},
}

var pushCmd = &cobra.Command{
	Use:   "push KEY=VALUE [KEY=VALUE...]",
	Short: "Encrypt and store a batch of secrets",
	Long: `Encrypts and uploads each given secret. Every secret is its own
idempotent upsert, so rerunning a push after a failure is safe.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parsePairs(args)
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Encrypting and pushing secrets...")
		defer cleanup()

		result, err := engine.Push(cmd.Context(), workflows.PushOptions{Secrets: pairs})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Push failed: " + err.Error()
			return err
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + fmt.Sprintf(" Pushed %d secret(s): ", len(result.Pushed)) +
			ui.Highlight.Sprint(strings.Join(result.Pushed, ", "))
		return nil
	},
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch and decrypt all project secrets",
	Long: `Fetches every secret of the bound project, decrypts locally, and
prints KEY=VALUE lines to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := engine.Pull(cmd.Context())
		if err != nil {
			return Logger.ErrorfAndReturn("pull failed: %v", err)
		}

		names := make([]string, 0, len(result.Secrets))
		for name := range result.Secrets {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s=%s\n", name, result.Secrets[name])
		}
		return nil
	},
}
