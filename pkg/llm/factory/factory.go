// Package factory constructs llm.Client instances for the configured
// provider.
package factory

import (
	"fmt"

	"interviewd/pkg/llm"
	"interviewd/pkg/llm/anthropic"
	"interviewd/pkg/llm/google"
	"interviewd/pkg/llm/ollama"
	"interviewd/pkg/llm/openai"
)

// NewClient builds the provider client described by opts.
func NewClient(provider llm.Provider, opts llm.Options) (llm.Client, error) {
	if err := opts.Validate(provider); err != nil {
		return nil, fmt.Errorf("invalid client options: %w", err)
	}

	switch provider {
	case llm.ProviderAnthropic:
		return anthropic.New(opts.APIKey, opts.Model), nil
	case llm.ProviderOpenAI:
		return openai.New(opts.APIKey, opts.Model), nil
	case llm.ProviderGoogle:
		return google.New(opts.APIKey, opts.Model), nil
	case llm.ProviderOllama:
		return ollama.New(opts.HostURL, opts.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
