package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/code-assistant/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export writes a header followed by the messages separated by rules
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Thread %s\n\n", transcript.Thread)

	if transcript.Workspace != "" {
		_, _ = fmt.Fprintf(w, "**Workspace:** %s  \n", transcript.Workspace)
	}
	if transcript.Metadata.ExportedAt != "" {
		_, _ = fmt.Fprintf(w, "**Exported:** %s  \n", transcript.Metadata.ExportedAt)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range transcript.Messages {
		_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", senderLabel(msg.Sender), escapeMarkdown(msg.Text))

		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func senderLabel(s internal.Sender) string {
	switch s {
	case internal.SenderUser:
		return "User"
	case internal.SenderAssistant:
		return "Assistant"
	default:
		return string(s)
	}
}

// escapeMarkdown escapes bold/underline markers outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
