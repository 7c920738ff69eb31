package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewd/pkg/interview"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.Server.ListenAddr)
	assert.Equal(t, DefaultDBPath, cfg.Storage.DBPath)
	assert.Equal(t, DefaultProvider, cfg.LLM.Provider)
	assert.Equal(t, DefaultModel, cfg.LLM.Model)
	assert.Equal(t, DefaultApprovalTimeout, cfg.Approval.Timeout)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProvider, cfg.LLM.Provider)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen_addr: ":9090"
llm:
  provider: ollama
  model: llama3.2
  host: http://localhost:11434
approval:
  timeout: 5m
interview:
  topic: SQL
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.Equal(t, 5*time.Minute, cfg.Approval.Timeout)
	assert.Equal(t, "SQL", cfg.Interview.Topic)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("INTERVIEWD_LLM_PROVIDER", "openai")
	t.Setenv("INTERVIEWD_LLM_MODEL", "gpt-4o")
	t.Setenv("INTERVIEWD_APPROVAL_TIMEOUT", "30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.Approval.Timeout)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("INTERVIEWD_LLM_PROVIDER", "mystery")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm provider")
}

func TestScoringPolicyCarriesTopic(t *testing.T) {
	cfg := &Config{Interview: InterviewConfig{Topic: "SQL"}}
	policy, err := cfg.ScoringPolicy()
	require.NoError(t, err)
	assert.Equal(t, "SQL", policy.Topic)

	cfg = &Config{}
	policy, err = cfg.ScoringPolicy()
	require.NoError(t, err)
	assert.Equal(t, interview.DefaultTopic, policy.Topic)
}

func TestScoringPolicyWeightOverride(t *testing.T) {
	cfg := &Config{Interview: InterviewConfig{Weights: map[string]float64{
		"theoretical_knowledge":         0.30,
		"practical_application":         0.40,
		"advanced_skills":               0.20,
		"communication_problem_solving": 0.10,
	}}}

	policy, err := cfg.ScoringPolicy()
	require.NoError(t, err)
	assert.InDelta(t, 0.30, policy.Weights[interview.DimensionTheory], 1e-9)
	assert.InDelta(t, 0.10, policy.Weights[interview.DimensionCommunication], 1e-9)
}

func TestScoringPolicyRejectsBadWeights(t *testing.T) {
	cfg := &Config{Interview: InterviewConfig{Weights: map[string]float64{
		"theoretical_knowledge": 0.90,
	}}}
	_, err := cfg.ScoringPolicy()
	require.Error(t, err)

	cfg = &Config{Interview: InterviewConfig{Weights: map[string]float64{
		"charisma": 0.25,
	}}}
	_, err = cfg.ScoringPolicy()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scoring dimension")
}

func TestAPIKeyEnvVar(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{Provider: "anthropic"}}
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.APIKeyEnvVar())

	cfg.LLM.Provider = "ollama"
	assert.Empty(t, cfg.APIKeyEnvVar())
}
