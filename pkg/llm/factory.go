package llm

import "fmt"

// Provider identifies a completion backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
	ProviderOllama    Provider = "ollama"
)

// Options carries provider-independent client settings.
type Options struct {
	APIKey  string
	Model   string
	HostURL string // Ollama only
}

// Validate checks the options for the given provider.
func (o *Options) Validate(provider Provider) error {
	if o.Model == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if provider != ProviderOllama && o.APIKey == "" {
		return fmt.Errorf("API key cannot be empty for provider %s", provider)
	}
	return nil
}
