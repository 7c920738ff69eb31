// Package google wraps the Google GenAI SDK as an llm.Client.
package google

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"interviewd/pkg/llm"
)

// Client adapts the Gemini API to the llm.Client interface.
type Client struct {
	client *genai.Client
	apiKey string
	model  string
}

// New creates a client for the given API key and model. Client creation
// needs a context, so the underlying client is built on first use.
func New(apiKey, model string) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
	}
}

// Complete implements llm.Client.
func (c *Client) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	if c.client == nil {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return llm.CompletionResponse{}, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		c.client = client
	}

	system, rest, err := llm.SplitSystem(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("invalid message sequence: %w", err)
	}

	contents := make([]*genai.Content, 0, len(rest))
	for _, msg := range rest {
		role := genai.RoleUser
		if msg.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	//nolint:gosec // MaxTokens is bounded well below int32 range
	config := &genai.GenerateContentConfig{
		Temperature:     &in.Temperature,
		MaxOutputTokens: int32(in.MaxTokens),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return llm.CompletionResponse{}, fmt.Errorf("gemini completion failed: %w", err)
	}
	if result == nil || result.Text() == "" {
		return llm.CompletionResponse{}, fmt.Errorf("empty response from Gemini API")
	}

	return llm.CompletionResponse{Content: result.Text()}, nil
}

// ModelName implements llm.Client.
func (c *Client) ModelName() string {
	return c.model
}
