package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/code-assistant/internal"
	"github.com/iksnae/code-assistant/internal/completion"
	"github.com/spf13/cobra"
)

var (
	completeLang  string
	completeDelay time.Duration
	completeApply bool
)

var languageByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".rs":   "rust",
	".rb":   "ruby",
	".sh":   "shellscript",
}

var completeCmd = &cobra.Command{
	Use:   "complete [file]",
	Short: "Ask the LLM for an inline completion of a source file",
	Long: `Load a source file (or stdin) into an editor buffer and print the inline
completion the assistant offers at the end of it.

The request is sent once the buffer has been quiet for the completion delay,
with the trailing lines of the file as context.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, name, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		lang := completeLang
		if lang == "" {
			lang = languageFor(name)
		}

		delay := cfg.Completion.Delay
		if completeDelay > 0 {
			delay = completeDelay
		}

		buf := completion.NewBuffer(lang, "")
		assistant := completion.New(buf, newLLM(), completion.Options{
			Delay:    delay,
			MaxLines: cfg.Completion.MaxLines,
		})
		defer assistant.Close()

		responded := make(chan error, 1)
		assistant.OnResponse(func(err error) {
			select {
			case responded <- err:
			default:
			}
		})

		buf.SetContent(content)
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case err := <-responded:
			if err != nil {
				return fmt.Errorf("completion request failed: %w", err)
			}
		}

		items := buf.Suggestions()
		if len(items) == 0 {
			return fmt.Errorf("no completion was produced for %s", name)
		}

		out := cmd.OutOrStdout()
		if completeApply {
			buf.Insert(items[0].Text)
			_, err := io.WriteString(out, buf.Content())
			return err
		}
		internal.LogDebug("Completion offered at line %d, column %d", items[0].At.Line, items[0].At.Column)
		fmt.Fprintln(out, items[0].Text)
		return nil
	},
}

// readSource returns the content of the file named by args[0], or of stdin
func readSource(cmd *cobra.Command, args []string) (content, name string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}

func languageFor(name string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(name))]; ok {
		return lang
	}
	return "plaintext"
}

func init() {
	completeCmd.Flags().StringVarP(&completeLang, "lang", "l", "", "Language ID of the buffer (default: from the file extension)")
	completeCmd.Flags().DurationVar(&completeDelay, "delay", 0, "Quiet period before the request (default: completion.delay from config)")
	completeCmd.Flags().BoolVar(&completeApply, "apply", false, "Print the file with the completion inserted")
	rootCmd.AddCommand(completeCmd)
}
