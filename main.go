// interviewd runs the interview orchestration service: an LLM-driven skills
// interview with a human approval checkpoint before results are released.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"interviewd/pkg/api"
	"interviewd/pkg/approval"
	"interviewd/pkg/config"
	"interviewd/pkg/interview"
	"interviewd/pkg/interviewer"
	"interviewd/pkg/llm"
	"interviewd/pkg/llm/factory"
	"interviewd/pkg/logx"
	"interviewd/pkg/metrics"
	"interviewd/pkg/persistence"
)

func main() {
	if err := run(); err != nil {
		logx.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dataDir := flag.String("data-dir", ".", "directory holding the database and secrets")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *debug {
		logx.SetDebug(true)
	}

	// .env is optional; environment always wins over it.
	if err := godotenv.Load(); err == nil {
		logx.Debugf("loaded .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	if err := loadSecrets(*dataDir); err != nil {
		return err
	}

	apiKey := ""
	if envVar := cfg.APIKeyEnvVar(); envVar != "" {
		apiKey, err = config.GetSecret(envVar)
		if err != nil {
			return fmt.Errorf("missing API key for provider %s: %w", cfg.LLM.Provider, err)
		}
	}

	client, err := factory.NewClient(llm.Provider(cfg.LLM.Provider), llm.Options{
		APIKey:  apiKey,
		Model:   cfg.LLM.Model,
		HostURL: cfg.LLM.Host,
	})
	if err != nil {
		return err
	}

	store, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var notifier approval.Notifier
	if cfg.Approval.WebhookURL != "" {
		notifier = approval.NewWebhookNotifier(cfg.Approval.WebhookURL)
	} else {
		notifier = approval.NewLogNotifier()
	}
	gate := approval.NewGate(notifier, cfg.Approval.Timeout)

	policy, err := cfg.ScoringPolicy()
	if err != nil {
		return err
	}

	engine := interview.NewEngine(store, interviewer.New(client, cfg.Interview.Topic), gate, policy)
	engine.SetRecorder(metrics.NewRecorder())

	server := api.NewServer(cfg.Server.ListenAddr, engine, gate)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logx.Infof("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadSecrets decrypts the secrets file when one exists, prompting for the
// password without echo. Without a secrets file, keys come from the
// environment.
func loadSecrets(dataDir string) error {
	if !config.SecretsFileExists(dataDir) {
		return nil
	}

	password := os.Getenv("INTERVIEWD_SECRETS_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Secrets password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(string(raw))
	}

	secrets, err := config.DecryptSecretsFile(dataDir, password)
	if err != nil {
		return err
	}
	config.SetDecryptedSecrets(secrets)
	logx.Infof("🔐 loaded %d secrets", len(secrets))
	return nil
}
