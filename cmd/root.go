package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/code-assistant/internal"
	"github.com/iksnae/code-assistant/internal/kb"
	"github.com/iksnae/code-assistant/internal/llm"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	configPath    string
	workspaceName string
	version       string = "dev"
	commit        string = "unknown"
	date          string = "unknown"

	// cfg is loaded once per invocation before any subcommand runs
	cfg = internal.DefaultConfig()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "code-assistant",
	Short: "Chat with a document knowledge base and get LLM code help",
	Long: `A CLI client for a document knowledge base and an LLM code assistant.

Knowledge base:
  • Create, list and delete workspaces
  • Upload, index, list and remove documents
  • Manage chat threads, read their history and chat in chat or query mode
  • Export a thread transcript (jsonl, md, yaml, json, sqlite)

Code assistant:
  • Debounced inline completion of a source file
  • Transform a snippet into another language, explain it or comment it

Quick Start:
  code-assistant workspace list
  code-assistant -w docs thread history general
  code-assistant -w docs chat --thread general "What does the README say?"
  code-assistant complete main.go`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)
		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer internal.SyncLogs()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", internal.DefaultConfigPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&workspaceName, "workspace", "w", "", "Workspace to operate on")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

func newManager() *kb.Manager {
	return kb.NewManager(kb.NewClient(cfg.KnowledgeBase))
}

func newLLM() *llm.Client {
	return llm.NewClient(cfg.LLM)
}

// requireWorkspace returns the --workspace value or an error naming the flag
func requireWorkspace() (string, error) {
	if workspaceName == "" {
		return "", fmt.Errorf("--workspace is required: %w", kb.ErrNoWorkspace)
	}
	return workspaceName, nil
}

// openWorkspace selects the --workspace workspace and waits until its documents
// and threads have been loaded
func openWorkspace() (*kb.Manager, error) {
	ws, err := requireWorkspace()
	if err != nil {
		return nil, err
	}
	m := newManager()
	m.SelectWorkspace(ws)
	m.Wait()
	return m, nil
}
