package cmd

import (
	"fmt"
	"strings"

	"github.com/envault/envault/internal/ui"
	"github.com/envault/envault/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	inviteRole     string
	removeNoRotate bool
)

func init() {
	workspaceInviteCmd.Flags().StringVarP(&inviteRole, "role", "r", "member", "role to grant: admin, member, or read_only")
	workspaceRemoveCmd.Flags().BoolVar(&removeNoRotate, "no-rotate", false, "skip the key rotation after removal")

	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceMembersCmd)
	workspaceCmd.AddCommand(workspaceInviteCmd)
	workspaceCmd.AddCommand(workspaceRemoveCmd)
	workspaceCmd.AddCommand(workspaceRotateCmd)
}

var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Manage workspaces and who can read your secrets",
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your workspace memberships",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := engine.ListWorkspaces(cmd.Context())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to list workspaces: %v", err)
		}

		var out strings.Builder
		for _, ws := range records {
			out.WriteString(ui.Highlight.Sprint(ws.ID) +
				ui.Muted.Sprintf(" %s, key version %d", ws.Kind, ws.KeyVersion) + "\n")
		}
		if len(records) == 0 {
			out.WriteString(ui.Muted.Sprint("no workspaces") + "\n")
		}
		fmt.Print(out.String())
		return nil
	},
}

var workspaceMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List members of the bound project's workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := engine.ListMembers(cmd.Context())
		if err != nil {
			return Logger.ErrorfAndReturn("failed to list members: %v", err)
		}

		var out strings.Builder
		for _, member := range records {
			marker := ui.Success.Sprint("✓")
			if member.Status != "active" {
				marker = ui.Error.Sprint("✗")
			}
			out.WriteString(marker + " " + ui.Highlight.Sprint(member.Email) +
				ui.Muted.Sprintf(" %s, %s", member.Role, member.Status) + "\n")
		}
		fmt.Print(out.String())
		return nil
	},
}

var workspaceInviteCmd = &cobra.Command{
	Use:   "invite EMAIL",
	Short: "Share the bound project with another account",
	Long: `Grants another account access to the project's secrets. The first
invite on a private project migrates it to a shared workspace under a
fresh key; later invites seal the existing key for the new member.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Inviting member...")
		defer cleanup()

		result, err := engine.Invite(cmd.Context(), workflows.InviteOptions{
			Email: args[0],
			Role:  inviteRole,
		})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Invite failed: " + err.Error()
			return err
		}

		msg := ui.Success.Sprint("✓") + " Invited " + ui.Highlight.Sprint(args[0]) +
			ui.Muted.Sprintf(" role %s", inviteRole)
		if result.Migrated {
			msg += "\n" + ui.Info.Sprint("→") + " Project migrated to shared workspace " +
				ui.Highlight.Sprint(result.WorkspaceID) +
				ui.Muted.Sprintf(" key version %d", result.KeyVersion)
		}
		spinner.FinalMSG = msg
		return nil
	},
}

var workspaceRemoveCmd = &cobra.Command{
	Use:   "remove EMAIL",
	Short: "Remove a member from the bound project's workspace",
	Long: `Revokes a member's access. By default the workspace key is rotated
afterwards so the removed member's key copy goes stale; --no-rotate skips
that, leaving them able to decrypt previously fetched ciphertexts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Removing member...")
		defer cleanup()

		result, err := engine.RemoveMember(cmd.Context(), workflows.RemoveMemberOptions{
			Email:  args[0],
			Rotate: !removeNoRotate,
		})
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Remove failed: " + err.Error()
			return err
		}

		msg := ui.Success.Sprint("✓") + " Removed " + ui.Highlight.Sprint(args[0])
		if result.Rotated {
			msg += ui.Muted.Sprintf(" key rotated to version %d", result.NewKeyVersion)
		} else {
			msg += "\n" + ui.Warning.Sprint("!") + " Key not rotated; they can still decrypt ciphertexts fetched earlier"
		}
		spinner.FinalMSG = msg
		return nil
	},
}

var workspaceRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the workspace key and re-encrypt all secrets",
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, cleanup := startSpinner("Rotating workspace key...")
		defer cleanup()

		result, err := engine.RotateKey(cmd.Context())
		if err != nil {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " Rotation failed: " + err.Error()
			return err
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") +
			fmt.Sprintf(" Rotated to key version %d: %d secret(s) across %d project(s), %d member(s) re-issued",
				result.NewKeyVersion, result.SecretsRotated, result.ProjectsRotated, result.Members)
		return nil
	},
}
