// Package anthropic wraps the Anthropic SDK as an llm.Client.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"interviewd/pkg/llm"
)

// Client adapts the Anthropic Messages API to the llm.Client interface.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a client for the given API key and model.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	// Anthropic takes the system prompt as a top-level parameter and
	// requires user/assistant alternation in the messages array.
	system, rest, err := llm.SplitSystem(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("invalid message sequence: %w", err)
	}

	messages := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case llm.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   int64(in.MaxTokens),
		Temperature: anthropic.Float(float64(in.Temperature)),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system, Type: "text"}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("anthropic completion failed: %w", err)
	}

	var content string
	for i := range resp.Content {
		if text := resp.Content[i].Text; text != "" {
			content += text
		}
	}
	if content == "" {
		return llm.CompletionResponse{}, fmt.Errorf("empty response from Anthropic API")
	}

	return llm.CompletionResponse{Content: content}, nil
}

// ModelName implements llm.Client.
func (c *Client) ModelName() string {
	return string(c.model)
}
