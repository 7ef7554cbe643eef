package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/code-assistant/internal"
	"github.com/iksnae/code-assistant/internal/kb"
	"github.com/spf13/cobra"
)

var (
	chatThread      string
	chatMode        string
	chatRender      bool
	chatShowHistory bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a message to a thread and print the reply",
	Long: `Send a message to a thread of --workspace and print the reply.

In chat mode the model answers freely; in query mode it answers only from
the workspace's indexed documents. Without a message argument the message
is read from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := internal.ParseMode(chatMode)
		if !ok {
			return fmt.Errorf("invalid --mode %q (supported: chat, query)", chatMode)
		}
		if chatThread == "" {
			return fmt.Errorf("--thread is required: %w", kb.ErrNoThread)
		}

		message := strings.Join(args, " ")
		if message == "" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read message: %w", err)
			}
			message = strings.TrimSpace(string(data))
		}

		m, err := openWorkspace()
		if err != nil {
			return err
		}
		if err := m.SelectThread(cmd.Context(), chatThread); err != nil {
			internal.LogWarn("Could not load history of %s: %v", chatThread, err)
		}

		out := cmd.OutOrStdout()
		var reply string
		sendErr := internal.ShowProgress(cmd.Context(), "Waiting for reply", func() error {
			var err error
			reply, err = m.SendChatMessage(cmd.Context(), message, mode)
			return err
		})

		if chatShowHistory {
			if err := printHistory(out, chatThread, m.Snapshot().History, chatRender); err != nil {
				return err
			}
		} else if sendErr == nil {
			if err := printReply(out, reply, chatRender); err != nil {
				return err
			}
		}

		if sendErr != nil {
			if !chatShowHistory && requestFailed(sendErr) {
				internal.PrintError(out, kb.FallbackReply)
			}
			return fmt.Errorf("chat request failed: %w", sendErr)
		}
		return nil
	},
}

// requestFailed reports whether err came from the remote call rather than from
// rejected input or a missing selection
func requestFailed(err error) bool {
	return errors.Is(err, internal.ErrServiceUnavailable) || errors.Is(err, internal.ErrMalformedResponse)
}

func printReply(out io.Writer, reply string, render bool) error {
	if render {
		return renderMarkdown(out, reply)
	}
	fmt.Fprintf(out, "%s:\n%s\n", senderLabel(internal.SenderAssistant), reply)
	return nil
}

func init() {
	chatCmd.Flags().StringVarP(&chatThread, "thread", "t", "", "Thread to send the message to")
	chatCmd.Flags().StringVarP(&chatMode, "mode", "m", string(internal.ModeChat), "Chat mode: chat or query")
	chatCmd.Flags().BoolVar(&chatRender, "render", false, "Render the reply as markdown")
	chatCmd.Flags().BoolVar(&chatShowHistory, "history", false, "Print the whole thread history after the reply")
	rootCmd.AddCommand(chatCmd)
}
