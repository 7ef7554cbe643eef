package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/code-assistant/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
	}{
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithMessages("t1", []internal.ChatMessage{}),
			want:       []string{},
		},
		{
			name:       "transcript with messages",
			transcript: internal.CreateTestTranscript("t2"),
			want: []string{
				`"sender":"user"`,
				`"sender":"assistant"`,
				`"thread":"t2"`,
			},
		},
		{
			name: "multiline text",
			transcript: internal.CreateTestTranscriptWithMessages("t3", []internal.ChatMessage{
				{Sender: internal.SenderAssistant, Text: "line one\nline two"},
			}),
			want: []string{`"text":"line one\nline two"`, `"index":0`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			if err := exporter.Export(tt.transcript, &buf); err != nil {
				t.Fatalf("JSONLExporter.Export() error = %v", err)
			}

			output := buf.String()
			if len(tt.transcript.Messages) == 0 {
				if output != "" {
					t.Errorf("Empty transcript should produce empty output, got: %q", output)
				}
				return
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != len(tt.transcript.Messages) {
				t.Errorf("got %d lines, want one per message (%d)", len(lines), len(tt.transcript.Messages))
			}
			for i, line := range lines {
				var msg map[string]interface{}
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Errorf("Line %d is not valid JSON: %v", i, err)
				}
				if _, ok := msg["sender"]; !ok {
					t.Errorf("Line %d missing 'sender' field", i)
				}
				if _, ok := msg["text"]; !ok {
					t.Errorf("Line %d missing 'text' field", i)
				}
			}

			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q", wantStr)
				}
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
