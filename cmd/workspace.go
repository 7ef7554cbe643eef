package cmd

import (
	"fmt"
	"strings"

	"github.com/iksnae/code-assistant/internal"
	"github.com/spf13/cobra"
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage knowledge-base workspaces",
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		names, err := newManager().ListWorkspaces(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list workspaces: %w", err)
		}

		if len(names) == 0 {
			internal.PrintInfo(out, "No workspaces found")
			return nil
		}

		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Workspaces (%s)", countStyle.Render(fmt.Sprint(len(names))))))
		for _, name := range names {
			marker := " "
			if workspaceName != "" && internal.Slug(name) == internal.Slug(workspaceName) {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, workspaceStyle.Render(name))
		}
		return nil
	},
}

var workspaceCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		if err := newManager().CreateWorkspace(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to create workspace %q: %w", name, err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created workspace %s", name))
		return nil
	},
}

var workspaceDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		if err := newManager().DeleteWorkspace(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to delete workspace %q: %w", name, err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted workspace %s", name))
		return nil
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceListCmd, workspaceCreateCmd, workspaceDeleteCmd)
	rootCmd.AddCommand(workspaceCmd)
}
