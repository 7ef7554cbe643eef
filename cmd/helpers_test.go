package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/iksnae/code-assistant/internal"
	"github.com/iksnae/code-assistant/testutil"
)

// resetFlags restores every flag variable and the help and version switches,
// since rootCmd is shared between tests
func resetFlags() {
	verbose = false
	workspaceName = ""
	historyRender = false
	chatThread, chatMode, chatRender, chatShowHistory = "", string(internal.ModeChat), false, false
	completeLang, completeDelay, completeApply = "", 0, false
	transformTarget, transformLines, transformDiff, transformList = "", "", false, false
	format, outputDir, exportThread, exportAll = "md", "./exports", "", false
	healthcheckVerbose, healthcheckLLM = false, false

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		for _, name := range []string{"help", "version"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set("false")
			}
		}
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// setupServices points the configuration at fresh fake services
func setupServices(t *testing.T) (*testutil.FakeKB, *testutil.FakeLLM) {
	t.Helper()
	kb := testutil.NewFakeKB(t)
	llm := testutil.NewFakeLLM(t, "return 42")
	t.Setenv("KB_BASE_URL", kb.BaseURL())
	t.Setenv("KB_API_KEY", testutil.FakeKBAPIKey)
	t.Setenv("LLM_BASE_URL", llm.BaseURL())
	t.Setenv("LLM_API_KEY", "test-llm-key")
	return kb, llm
}

// executeCommand runs rootCmd with args and returns everything it printed
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	configFile := filepath.Join(t.TempDir(), "missing.yaml")
	rootCmd.SetArgs(append([]string{"--config", configFile}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}
