package internal

import "strings"

// Sender identifies who wrote a chat message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Mode selects how the knowledge base answers a chat message
type Mode string

const (
	// ModeChat lets the model reason freely, independent of workspace documents
	ModeChat Mode = "chat"
	// ModeQuery grounds answers strictly in the workspace's indexed documents
	ModeQuery Mode = "query"
)

// ParseMode converts a user-supplied string to a Mode
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeChat:
		return ModeChat, true
	case ModeQuery:
		return ModeQuery, true
	default:
		return "", false
	}
}

// ChatMessage is one entry of a thread's history
type ChatMessage struct {
	Text   string `json:"text" yaml:"text"`
	Sender Sender `json:"sender" yaml:"sender"`
}

// Document is an ingested document of a workspace
type Document struct {
	Path        string `json:"path" yaml:"path"`
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	PublishedAt string `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// Slug normalizes a workspace name for use in requests
func Slug(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Transcript is an exportable snapshot of one thread's history
type Transcript struct {
	Workspace string             `json:"workspace" yaml:"workspace"`
	Thread    string             `json:"thread" yaml:"thread"`
	Messages  []ChatMessage      `json:"messages" yaml:"messages"`
	Metadata  TranscriptMetadata `json:"metadata" yaml:"metadata"`
}

// TranscriptMetadata contains additional transcript information
type TranscriptMetadata struct {
	ExportedAt   string `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
	MessageCount int    `json:"message_count" yaml:"message_count"`
}

// NewTranscript builds a transcript from a reconstructed history
func NewTranscript(workspace, thread string, messages []ChatMessage, exportedAt string) *Transcript {
	msgs := make([]ChatMessage, len(messages))
	copy(msgs, messages)
	return &Transcript{
		Workspace: workspace,
		Thread:    thread,
		Messages:  msgs,
		Metadata: TranscriptMetadata{
			ExportedAt:   exportedAt,
			MessageCount: len(msgs),
		},
	}
}
