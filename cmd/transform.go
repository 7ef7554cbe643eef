package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iksnae/code-assistant/internal"
	"github.com/iksnae/code-assistant/internal/transform"
	"github.com/spf13/cobra"
)

var (
	transformTarget string
	transformLines  string
	transformDiff   bool
	transformList   bool
)

var transformCmd = &cobra.Command{
	Use:   "transform [file]",
	Short: "Translate, explain or comment a code snippet",
	Long: `Send a code snippet (a file, a line range of it, or stdin) to the LLM and
print the answer for the chosen target: another language, "explain" or
"comment". Use --list-targets to see the picker's options.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if transformList {
			for _, target := range transform.Targets() {
				fmt.Fprintln(out, target)
			}
			return nil
		}
		if transformTarget == "" {
			return fmt.Errorf("--target is required (one of %s)", strings.Join(transform.Targets(), ", "))
		}

		content, _, err := readSource(cmd, args)
		if err != nil {
			return err
		}
		selection, err := selectLines(content, transformLines)
		if err != nil {
			return err
		}

		panel := transform.NewPanel(transform.NewDispatcher(newLLM()))
		if err := panel.Open(selection); err != nil {
			return err
		}

		var res transform.Result
		err = internal.ShowProgress(cmd.Context(), "Transforming to "+transformTarget, func() error {
			var pickErr error
			res, pickErr = panel.Pick(cmd.Context(), transformTarget)
			return pickErr
		})
		if err != nil {
			return fmt.Errorf("transform failed: %w", err)
		}

		if transformDiff {
			fmt.Fprint(out, transform.FormatDiff(transform.Diff(selection, res.Text)))
			return nil
		}
		fmt.Fprintln(out, res.Text)
		return nil
	},
}

// selectLines returns the 1-based inclusive line range "a:b" of content.
// Either bound may be omitted; an empty spec selects everything.
func selectLines(content, spec string) (string, error) {
	if spec == "" {
		return content, nil
	}
	from, to, ok := strings.Cut(spec, ":")
	if !ok {
		return "", fmt.Errorf("invalid --lines %q, want start:end", spec)
	}

	lines := strings.Split(content, "\n")
	start, end := 1, len(lines)
	var err error
	if from != "" {
		if start, err = strconv.Atoi(from); err != nil {
			return "", fmt.Errorf("invalid --lines start %q: %w", from, err)
		}
	}
	if to != "" {
		if end, err = strconv.Atoi(to); err != nil {
			return "", fmt.Errorf("invalid --lines end %q: %w", to, err)
		}
	}
	if start < 1 || end > len(lines) || start > end {
		return "", fmt.Errorf("--lines %q is outside 1:%d", spec, len(lines))
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

func init() {
	transformCmd.Flags().StringVarP(&transformTarget, "target", "t", "", "Target language, \"explain\" or \"comment\"")
	transformCmd.Flags().StringVar(&transformLines, "lines", "", "Line range start:end to send instead of the whole input")
	transformCmd.Flags().BoolVar(&transformDiff, "diff", false, "Print a line diff against the input")
	transformCmd.Flags().BoolVar(&transformList, "list-targets", false, "List the available targets")
	rootCmd.AddCommand(transformCmd)
}
