package ai

import (
	"bytes"
	"context"
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// CompletionProvider is the remote completion capability backing the
// assistant panel.
type CompletionProvider interface {
	// Complete sends the conversation (ending with the user's latest
	// message) and returns the assistant's reply.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// Transcriber is the speech-to-text capability. Implementations may
// substitute any engine that maps audio bytes to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio *bytes.Reader) (string, error)
}
