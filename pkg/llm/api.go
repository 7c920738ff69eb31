// Package llm provides a provider-agnostic interface for language model
// completion clients.
package llm

import (
	"context"
	"fmt"
)

// Role identifies who authored a conversation message.
type Role string

const (
	// RoleSystem is an instruction message.
	RoleSystem Role = "system"
	// RoleUser is a message from the application.
	RoleUser Role = "user"
	// RoleAssistant is a prior model response.
	RoleAssistant Role = "assistant"
)

const (
	// DefaultMaxTokens caps completion length when a request does not set one.
	DefaultMaxTokens = 2048

	// DefaultTemperature balances variety in question wording with focus.
	DefaultTemperature = 0.3
)

// Message is one entry in a completion conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest describes a completion call.
type CompletionRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string
}

// Client is implemented by each provider wrapper.
type Client interface {
	// Complete generates a completion synchronously.
	Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error)

	// ModelName returns the configured model identifier.
	ModelName() string
}

// NewRequest builds a request with default limits.
func NewRequest(messages ...Message) CompletionRequest {
	return CompletionRequest{
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SplitSystem separates system instructions from conversation messages, for
// providers that take the system prompt as a top-level parameter.
func SplitSystem(messages []Message) (system string, rest []Message, err error) {
	if len(messages) == 0 {
		return "", nil, fmt.Errorf("message list cannot be empty")
	}
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	if len(rest) == 0 {
		return "", nil, fmt.Errorf("must have at least one non-system message")
	}
	return system, rest, nil
}
