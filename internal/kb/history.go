package kb

import "github.com/iksnae/code-assistant/internal"

// ReconstructHistory converts the flat content list returned for a thread into
// chat messages.
//
// The knowledge base stores a thread as strictly alternating prompt/response
// entries starting with the prompt, and does not return a sender field. The sender
// is therefore derived from position alone: even indexes are the user, odd indexes
// the assistant. A history containing injected or non-alternating entries would be
// misattributed; that is a contract of the remote service, not something repaired
// here.
func ReconstructHistory(contents []string) []internal.ChatMessage {
	messages := make([]internal.ChatMessage, 0, len(contents))
	for i, content := range contents {
		messages = append(messages, internal.ChatMessage{
			Text:   content,
			Sender: senderAt(i),
		})
	}
	return messages
}

func senderAt(index int) internal.Sender {
	if index%2 == 0 {
		return internal.SenderUser
	}
	return internal.SenderAssistant
}
