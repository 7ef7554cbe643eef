package internal

import (
	"time"
)

// CreateTestTranscript creates a test transcript with sample data
func CreateTestTranscript(thread string) *Transcript {
	return NewTranscript("test-workspace", thread, []ChatMessage{
		{Sender: SenderUser, Text: "Hello, how are you?"},
		{Sender: SenderAssistant, Text: "I'm doing well, thank you!"},
	}, time.Now().Format(time.RFC3339))
}

// CreateTestTranscriptWithMessages creates a test transcript with custom messages
func CreateTestTranscriptWithMessages(thread string, messages []ChatMessage) *Transcript {
	return NewTranscript("test-workspace", thread, messages, "")
}
