// Package ollama wraps the Ollama API as an llm.Client, for running the
// interview against a locally hosted model.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"interviewd/pkg/llm"
)

// DefaultHostURL is the standard local Ollama endpoint.
const DefaultHostURL = "http://localhost:11434"

// Client adapts the Ollama chat API to the llm.Client interface.
type Client struct {
	client *api.Client
	model  string
}

// New creates a client for the given host URL and model. An unparseable
// host URL falls back to the local default.
func New(hostURL, model string) *Client {
	if hostURL == "" {
		hostURL = DefaultHostURL
	}
	parsed, err := url.Parse(hostURL)
	if err != nil {
		parsed, _ = url.Parse(DefaultHostURL)
	}
	return &Client{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if len(in.Messages) == 0 {
		return llm.CompletionResponse{}, fmt.Errorf("message list cannot be empty")
	}

	messages := make([]api.Message, 0, len(in.Messages))
	for _, msg := range in.Messages {
		messages = append(messages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]any{
			"temperature": in.Temperature,
			"num_predict": in.MaxTokens,
		},
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("ollama completion failed: %w", err)
	}
	if response.Message.Content == "" {
		return llm.CompletionResponse{}, fmt.Errorf("empty response from Ollama")
	}

	return llm.CompletionResponse{Content: response.Message.Content}, nil
}

// ModelName implements llm.Client.
func (c *Client) ModelName() string {
	return c.model
}
