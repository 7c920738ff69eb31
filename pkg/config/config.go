// Package config loads and validates interviewd configuration. Settings come
// from an optional YAML file with environment variable overrides; secrets
// (API keys) live in an encrypted secrets file or the environment, never in
// config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"interviewd/pkg/interview"
	"interviewd/pkg/llm"
	"interviewd/pkg/logx"
)

// Defaults applied when the config file and environment are silent.
const (
	DefaultListenAddr      = ":8080"
	DefaultDBPath          = "interviewd.db"
	DefaultProvider        = "anthropic"
	DefaultModel           = "claude-sonnet-4-5"
	DefaultApprovalTimeout = 15 * time.Minute
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// StorageConfig configures the session store.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, google, ollama
	Model    string `yaml:"model"`
	Host     string `yaml:"host"` // ollama only
}

// ApprovalConfig configures the human review gate.
type ApprovalConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	WebhookURL string        `yaml:"webhook_url"` // empty means log-only notification
}

// InterviewConfig configures the interview content.
type InterviewConfig struct {
	Topic   string             `yaml:"topic"`   // skill domain, e.g. "Excel"
	Weights map[string]float64 `yaml:"weights"` // optional per-dimension override
}

// Config is the full interviewd configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Approval  ApprovalConfig  `yaml:"approval"`
	Interview InterviewConfig `yaml:"interview"`
}

// Load reads the config file at path (if it exists), applies defaults, then
// environment overrides. A missing file is not an error; the defaults plus
// environment make a runnable config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			logx.Infof("loaded config from %s", path)
		case os.IsNotExist(err):
			logx.Debugf("config file %s not found, using defaults", path)
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = DefaultDBPath
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultProvider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.Approval.Timeout <= 0 {
		c.Approval.Timeout = DefaultApprovalTimeout
	}
}

func (c *Config) applyEnvOverrides() {
	overrideString(&c.Server.ListenAddr, "INTERVIEWD_LISTEN_ADDR")
	overrideString(&c.Storage.DBPath, "INTERVIEWD_DB_PATH")
	overrideString(&c.LLM.Provider, "INTERVIEWD_LLM_PROVIDER")
	overrideString(&c.LLM.Model, "INTERVIEWD_LLM_MODEL")
	overrideString(&c.LLM.Host, "INTERVIEWD_LLM_HOST")
	overrideString(&c.Approval.WebhookURL, "INTERVIEWD_APPROVAL_WEBHOOK")
	overrideString(&c.Interview.Topic, "INTERVIEWD_TOPIC")

	if v := os.Getenv("INTERVIEWD_APPROVAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Approval.Timeout = d
		} else {
			logx.Warnf("ignoring invalid INTERVIEWD_APPROVAL_TIMEOUT %q", v)
		}
	}
}

func overrideString(target *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*target = v
	}
}

// Validate rejects configs that cannot produce a working process.
func (c *Config) Validate() error {
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderGoogle, llm.ProviderOllama:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm model cannot be empty")
	}
	if c.Approval.Timeout <= 0 {
		return fmt.Errorf("approval timeout must be positive")
	}
	if _, err := c.ScoringPolicy(); err != nil {
		return err
	}
	return nil
}

// ScoringPolicy returns the default policy with any configured weight
// overrides applied. Overridden weights must still sum to 1.
func (c *Config) ScoringPolicy() (interview.ScoringPolicy, error) {
	policy := interview.DefaultScoringPolicy()
	if c.Interview.Topic != "" {
		policy.Topic = c.Interview.Topic
	}
	if len(c.Interview.Weights) == 0 {
		return policy, nil
	}

	for name, weight := range c.Interview.Weights {
		dim := interview.Dimension(name)
		if _, ok := policy.Weights[dim]; !ok {
			return interview.ScoringPolicy{}, fmt.Errorf("unknown scoring dimension %q", name)
		}
		policy.Weights[dim] = weight
	}
	if err := policy.Validate(); err != nil {
		return interview.ScoringPolicy{}, fmt.Errorf("invalid scoring weights: %w", err)
	}
	return policy, nil
}

// APIKeyEnvVar returns the canonical environment variable / secret name for
// the configured provider. Ollama needs no key.
func (c *Config) APIKeyEnvVar() string {
	switch llm.Provider(c.LLM.Provider) {
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderGoogle:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}
