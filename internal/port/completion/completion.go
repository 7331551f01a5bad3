// Package completion defines the port for the language-model completion
// service consumed by the gateway.
package completion

import "context"

// ChatMessage is one entry of the prompt sent to the completion service.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Completer produces the next assistant turn for an ordered prompt.
type Completer interface {
	CreateCompletion(ctx context.Context, messages []ChatMessage) (string, error)
}
