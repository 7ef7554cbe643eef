package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/iksnae/code-assistant/internal"
	"github.com/iksnae/code-assistant/internal/export"
	"github.com/iksnae/code-assistant/internal/kb"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	format       string
	outputDir    string
	exportThread string
	exportAll    bool
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export thread transcripts to file",
	Long: `Export the history of a thread of --workspace to jsonl, md, yaml, json or sqlite.

Use --thread for one thread or --all for every thread of the workspace.
With --output - a single transcript is written to stdout. The sqlite format
appends to <output>/<workspace>.db so repeated exports build an archive.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := requireWorkspace()
		if err != nil {
			return err
		}
		if exportThread == "" && !exportAll {
			return fmt.Errorf("either --thread or --all is required")
		}

		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		m := newManager()
		threads := []string{exportThread}
		if exportAll {
			threads, err = m.ListThreads(cmd.Context(), ws)
			if err != nil {
				return fmt.Errorf("failed to list threads: %w", err)
			}
			if len(threads) == 0 {
				internal.PrintInfo(cmd.OutOrStdout(), fmt.Sprintf("No threads in workspace %s", ws))
				return nil
			}
		}

		transcripts, err := loadTranscripts(cmd.Context(), m, ws, threads)
		if err != nil {
			return err
		}

		if outputDir == "-" {
			if len(transcripts) != 1 {
				return fmt.Errorf("--output - needs exactly one thread, got %d", len(transcripts))
			}
			return exporter.Export(transcripts[0], cmd.OutOrStdout())
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for _, t := range transcripts {
			path, err := writeTranscript(cmd.Context(), exporter, t)
			if err != nil {
				return err
			}
			internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Exported %s (%d messages) to %s", t.Thread, len(t.Messages), path))
		}
		return nil
	},
}

// loadTranscripts fetches the histories of threads concurrently, keeping their order
func loadTranscripts(ctx context.Context, m *kb.Manager, ws string, threads []string) ([]*internal.Transcript, error) {
	exportedAt := time.Now().Format(time.RFC3339)
	transcripts := make([]*internal.Transcript, len(threads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, thread := range threads {
		g.Go(func() error {
			history, err := m.GetThreadHistory(gctx, ws, thread)
			if err != nil {
				return fmt.Errorf("failed to load history of %q: %w", thread, err)
			}
			transcripts[i] = internal.NewTranscript(ws, thread, history, exportedAt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return transcripts, nil
}

func writeTranscript(ctx context.Context, exporter export.Exporter, t *internal.Transcript) (string, error) {
	if archive, ok := exporter.(*export.SQLiteExporter); ok {
		path := filepath.Join(outputDir, fileSafe(t.Workspace)+"."+exporter.Extension())
		if err := archive.ExportToFile(ctx, t, path); err != nil {
			return "", &internal.ExportError{Format: format, Path: path, Err: err}
		}
		return path, nil
	}

	path := filepath.Join(outputDir, fmt.Sprintf("%s-%s.%s", fileSafe(t.Workspace), fileSafe(t.Thread), exporter.Extension()))
	f, err := os.Create(path)
	if err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	defer f.Close()

	if err := exporter.Export(t, f); err != nil {
		return "", &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return path, nil
}

func fileSafe(name string) string {
	s := strings.Trim(unsafeFileChars.ReplaceAllString(internal.Slug(name), "-"), "-.")
	if s == "" {
		return "untitled"
	}
	return s
}

func init() {
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format: "+strings.Join(export.Formats, ", "))
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "./exports", "Output directory, or - for stdout")
	exportCmd.Flags().StringVarP(&exportThread, "thread", "t", "", "Thread to export")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export every thread of the workspace")
	rootCmd.AddCommand(exportCmd)
}
