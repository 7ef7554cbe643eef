package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/code-assistant/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

// Export writes one object per message, tagged with its thread and position
func (e *JSONLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, msg := range transcript.Messages {
		obj := map[string]interface{}{
			"index":  i,
			"sender": msg.Sender,
			"text":   msg.Text,
		}
		if transcript.Thread != "" {
			obj["thread"] = transcript.Thread
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message %d: %w", i, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
