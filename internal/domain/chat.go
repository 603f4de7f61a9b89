package domain

import "context"

// ChatRole is the speaker of a chat message.
type ChatRole string

// Chat roles.
const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatRequest is a single chat completion call. The provider's wire
// protocol is opaque to the core; this is the whole contract.
type ChatRequest struct {
	System      string
	Messages    []ChatMessage
	Temperature float32
	MaxTokens   int
	// JSONMode constrains the provider to emit a single JSON object.
	JSONMode bool
}

// ChatCompleter produces a full completion for a request.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}
