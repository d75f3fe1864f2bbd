// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI, Anthropic or
// a local Ollama instance) behind a single blocking completion call. orderbot
// uses it for spelling correction only, so the interface stays small: one
// request, one text reply.
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	// ErrNoMessages is returned for a request without messages.
	ErrNoMessages = errors.New("llm: request has no messages")

	// ErrEmptyReply is returned when a backend answers without any choice.
	ErrEmptyReply = errors.New("llm: reply has no choices")
)

// Message is a single message in the conversation sent to the model.
type Message struct {
	// Role is one of [RoleSystem], [RoleUser] or [RoleAssistant].
	Role string

	// Content is the text content of the message.
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is an optional instruction sent before Messages.
	SystemPrompt string

	// Messages is the ordered conversation. The last message is usually from
	// the "user" role.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0]. Zero
	// leaves the provider default in place.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means provider
	// default.
	MaxTokens int

	// JSON asks the backend to constrain its output to a JSON object when it
	// supports doing so. Backends without such a mode ignore it.
	JSON bool
}

// Conversation returns the messages to send, with SystemPrompt first when
// set. It fails with [ErrNoMessages] for an empty request and rejects roles
// other than system, user and assistant.
func (r CompletionRequest) Conversation() ([]Message, error) {
	if len(r.Messages) == 0 {
		return nil, ErrNoMessages
	}
	out := make([]Message, 0, len(r.Messages)+1)
	if r.SystemPrompt != "" {
		out = append(out, Message{Role: RoleSystem, Content: r.SystemPrompt})
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
			out = append(out, m)
		default:
			return nil, fmt.Errorf("llm: message %d: unknown role %q", i, m.Role)
		}
	}
	return out, nil
}

// CompletionResponse is returned by [Provider.Complete].
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response. It
	// returns promptly with an error when ctx is cancelled.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Model returns the model name requests are sent to.
	Model() string
}
