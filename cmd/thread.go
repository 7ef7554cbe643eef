package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/iksnae/code-assistant/internal"
	"github.com/spf13/cobra"
)

var historyRender bool

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Manage the chat threads of a workspace",
}

var threadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the threads of --workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}
		threads, err := newManager().ListThreads(cmd.Context(), ws)
		if err != nil {
			return fmt.Errorf("failed to list threads: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(threads) == 0 {
			internal.PrintInfo(out, fmt.Sprintf("No threads in workspace %s", ws))
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Threads in %s (%s)", workspaceStyle.Render(ws), countStyle.Render(fmt.Sprint(len(threads))))))
		for _, name := range threads {
			fmt.Fprintf(out, "  %s\n", titleStyle.Render(name))
		}
		return nil
	},
}

var threadCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a thread in --workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openWorkspace()
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")
		if err := m.CreateThread(cmd.Context(), name); err != nil {
			if errors.Is(err, internal.ErrNameConflict) {
				return fmt.Errorf("a thread named %q already exists in %s", name, workspaceName)
			}
			return fmt.Errorf("failed to create thread %q: %w", name, err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created thread %s", name))
		return nil
	},
}

var threadDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a thread of --workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openWorkspace()
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")
		if err := m.DeleteThread(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to delete thread %q: %w", name, err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted thread %s", name))
		return nil
	},
}

var threadHistoryCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Show the message history of a thread",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openWorkspace()
		if err != nil {
			return err
		}
		name := strings.Join(args, " ")
		if err := m.SelectThread(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to load history of %q: %w", name, err)
		}
		return printHistory(cmd.OutOrStdout(), name, m.Snapshot().History, historyRender)
	},
}

func printHistory(out io.Writer, thread string, history []internal.ChatMessage, render bool) error {
	if len(history) == 0 {
		internal.PrintInfo(out, fmt.Sprintf("Thread %s has no messages", thread))
		return nil
	}

	if render {
		var md strings.Builder
		fmt.Fprintf(&md, "# %s\n\n", thread)
		for _, msg := range history {
			label := "User"
			if msg.Sender == internal.SenderAssistant {
				label = "Assistant"
			}
			fmt.Fprintf(&md, "**%s:**\n\n%s\n\n---\n\n", label, msg.Text)
		}
		return renderMarkdown(out, md.String())
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s (%s messages)", thread, countStyle.Render(fmt.Sprint(len(history))))))
	for _, msg := range history {
		fmt.Fprintf(out, "\n%s:\n%s\n", senderLabel(msg.Sender), msg.Text)
	}
	return nil
}

// renderMarkdown writes md through glamour, falling back to the plain text
func renderMarkdown(out io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		internal.LogDebug("Markdown renderer unavailable: %v", err)
		_, err = io.WriteString(out, md)
		return err
	}
	rendered, err := r.Render(md)
	if err != nil {
		internal.LogDebug("Failed to render markdown: %v", err)
		rendered = md
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func init() {
	threadHistoryCmd.Flags().BoolVar(&historyRender, "render", false, "Render the history as markdown")
	threadCmd.AddCommand(threadListCmd, threadCreateCmd, threadDeleteCmd, threadHistoryCmd)
	rootCmd.AddCommand(threadCmd)
}
