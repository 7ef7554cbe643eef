package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/code-assistant/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
		notWant    []string
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript("general"),
			want: []string{
				"# Thread general",
				"**Workspace:** test-workspace",
				"**Messages:** 2",
				"## Messages",
				"**User:**",
				"Hello, how are you?",
				"**Assistant:**",
			},
		},
		{
			name:       "without workspace or export time",
			transcript: &internal.Transcript{Thread: "bare"},
			want:       []string{"# Thread bare", "**Messages:** 0"},
			notWant:    []string{"**Workspace:**", "**Exported:**"},
		},
		{
			name:       "export time shown",
			transcript: internal.NewTranscript("ws", "t", nil, "2024-01-01T00:00:00Z"),
			want:       []string{"**Exported:** 2024-01-01T00:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}

			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("MarkdownExporter.Export() error = %v", err)
			}

			output := buf.String()
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(output, notWantStr) {
					t.Errorf("Output should not contain %q, got:\n%s", notWantStr, output)
				}
			}
		})
	}
}

func TestMarkdownExporter_Extension(t *testing.T) {
	exporter := &MarkdownExporter{}
	if got := exporter.Extension(); got != "md" {
		t.Errorf("MarkdownExporter.Extension() = %v, want md", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		notWant []string
	}{
		{
			name:  "basic text",
			input: "Hello world",
			want:  []string{"Hello world"},
		},
		{
			name:    "markdown bold",
			input:   "This is **bold** text",
			want:    []string{"\\*\\*bold\\*\\*"},
			notWant: []string{"**bold**"},
		},
		{
			name:    "markdown underline",
			input:   "This is __underlined__ text",
			want:    []string{"\\_\\_underlined\\_\\_"},
			notWant: []string{"__underlined__"},
		},
		{
			name:  "code block preserved",
			input: "```go\nx := a**b\n```",
			want:  []string{"```go", "x := a**b", "```"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := escapeMarkdown(tt.input)
			for _, wantStr := range tt.want {
				if !strings.Contains(got, wantStr) {
					t.Errorf("escapeMarkdown() should contain %q, got: %s", wantStr, got)
				}
			}
			for _, notWantStr := range tt.notWant {
				if strings.Contains(got, notWantStr) {
					t.Errorf("escapeMarkdown() should not contain %q, got: %s", notWantStr, got)
				}
			}
		})
	}
}
