package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckLLM     bool
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the configuration and the remote services",
	Long: `Check the health of code-assistant by verifying:
  • Configuration loading and credentials
  • Knowledge-base reachability and workspace count
  • Documents and threads of --workspace, when given
  • The LLM service, when --llm is given

This command is useful for debugging connection issues, especially in CI/CD environments.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := cmd.Context()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Code Assistant Health Check"))
		fmt.Fprintln(out)

		failures := 0
		fail := func(msg string, err error) {
			failures++
			fmt.Fprintln(out, errorStyle.Render("❌ "+msg+":"), err)
		}

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Config file: %s\n", configPath)
			fmt.Fprintf(out, "   Knowledge base: %s\n", cfg.KnowledgeBase.BaseURL)
			fmt.Fprintf(out, "   LLM: %s (model %s)\n", cfg.LLM.BaseURL, cfg.LLM.Model)
			fmt.Fprintf(out, "   Completion delay: %s, lines: %d\n", cfg.Completion.Delay, cfg.Completion.MaxLines)
		}
		warnIfEmpty(out, cfg.KnowledgeBase.APIKey, "Knowledge-base API key is not set (KB_API_KEY)")
		warnIfEmpty(out, cfg.LLM.APIKey, "LLM API key is not set (LLM_API_KEY)")
		fmt.Fprintln(out)

		// Step 2: Knowledge base
		fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting the knowledge base..."))
		m := newManager()
		names, err := m.ListWorkspaces(ctx)
		if err != nil {
			fail("Knowledge base unreachable", err)
		} else {
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Knowledge base reachable (%d workspaces)", len(names))))
			if healthcheckVerbose {
				for _, name := range names {
					fmt.Fprintf(out, "   • %s\n", name)
				}
			}
		}
		fmt.Fprintln(out)

		// Step 3: Workspace
		if workspaceName != "" && err == nil {
			fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Step 3: Checking workspace %s...", workspaceName)))
			if docs, err := m.ListDocuments(ctx, workspaceName); err != nil {
				fail("Failed to list documents", err)
			} else {
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d documents", len(docs))))
			}
			if threads, err := m.ListThreads(ctx, workspaceName); err != nil {
				fail("Failed to list threads", err)
			} else {
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d threads", len(threads))))
			}
			fmt.Fprintln(out)
		}

		// Step 4: LLM
		if healthcheckLLM {
			fmt.Fprintln(out, infoStyle.Render("Step 4: Contacting the LLM..."))
			client := newLLM()
			llmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			start := time.Now()
			_, err := client.Complete(llmCtx, "Reply with OK.")
			cancel()
			if err != nil {
				fail("LLM request failed", err)
			} else {
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %s answered in %s", client.Model(), time.Since(start).Round(time.Millisecond))))
			}
			fmt.Fprintln(out)
		}

		if failures > 0 {
			return fmt.Errorf("health check failed with %d error(s)", failures)
		}
		fmt.Fprintln(out, successStyle.Render("✅ All checks passed"))
		return nil
	},
}

func warnIfEmpty(out io.Writer, value, msg string) {
	if value == "" {
		fmt.Fprintln(out, warningStyle.Render("⚠️  "+msg))
	}
}

func init() {
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed information")
	healthcheckCmd.Flags().BoolVar(&healthcheckLLM, "llm", false, "Also send a test prompt to the LLM")
	rootCmd.AddCommand(healthcheckCmd)
}
