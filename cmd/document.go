package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/iksnae/code-assistant/internal"
	"github.com/iksnae/code-assistant/internal/kb"
	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"document", "documents"},
	Short:   "Manage the documents of a workspace",
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents of --workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}
		docs, err := newManager().ListDocuments(cmd.Context(), ws)
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		printDocuments(cmd.OutOrStdout(), ws, docs)
		return nil
	},
}

var documentRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Reload the document list of --workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openWorkspace()
		if err != nil {
			return err
		}
		docs, err := m.RefreshDocuments(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to refresh documents: %w", err)
		}
		printDocuments(cmd.OutOrStdout(), workspaceName, docs)
		return nil
	},
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload files and index them into --workspace",
	Long: `Upload files to the knowledge base and index them into --workspace.

A file that was uploaded but could not be indexed is reported with its
storage location so it can be indexed again later.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openWorkspace()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			res, err := uploadFile(cmd, m, path)
			var upErr *internal.UploadError
			switch {
			case err == nil:
				internal.PrintSuccess(out, fmt.Sprintf("Uploaded %s as %s", path, res.Location))
			case errors.As(err, &upErr) && upErr.Phase == "index":
				failed++
				internal.PrintWarning(out, fmt.Sprintf("Uploaded %s as %s but indexing failed: %v", path, res.Location, upErr.Err))
			default:
				failed++
				internal.PrintError(out, fmt.Sprintf("Failed to upload %s: %v", path, err))
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d uploads did not complete", failed, len(args))
		}
		return nil
	},
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove <path>...",
	Short: "Remove documents by their knowledge-base path",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		for _, path := range args {
			if err := m.RemoveDocument(cmd.Context(), path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
			internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Removed %s", path))
		}
		return nil
	},
}

func uploadFile(cmd *cobra.Command, m *kb.Manager, path string) (kb.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return kb.UploadResult{}, err
	}
	defer f.Close()

	var res kb.UploadResult
	err = internal.ShowProgress(cmd.Context(), "Uploading "+filepath.Base(path), func() error {
		var uploadErr error
		res, uploadErr = m.UploadDocument(cmd.Context(), filepath.Base(path), f)
		return uploadErr
	})
	return res, err
}

func printDocuments(out io.Writer, ws string, docs []internal.Document) {
	if len(docs) == 0 {
		internal.PrintInfo(out, fmt.Sprintf("No documents in workspace %s", ws))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Documents in %s (%s)", workspaceStyle.Render(ws), countStyle.Render(fmt.Sprint(len(docs))))))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tID\tPUBLISHED\tPATH")
	for _, doc := range docs {
		published := doc.PublishedAt
		if published == "" {
			published = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", titleStyle.Render(doc.Title), idStyle.Render(doc.ID), dateStyle.Render(published), doc.Path)
	}
	_ = w.Flush()
}

func init() {
	documentCmd.AddCommand(documentListCmd, documentRefreshCmd, documentUploadCmd, documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}
