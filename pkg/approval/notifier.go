package approval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"interviewd/pkg/logx"
)

// LogNotifier announces review requests on the process log. Reviewers watch
// the session list and post their decision through the API.
type LogNotifier struct {
	logger *logx.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: logx.NewLogger("review")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(req ReviewRequest) error {
	n.logger.Info("📋 review requested for session %s", req.ConversationID)
	n.logger.Info("%s", req.Summary)
	return nil
}

// WebhookNotifier POSTs review requests to a reviewer endpoint. Delivery
// failure is a gate fault, which the caller resolves as a bypass.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *logx.Logger
}

// NewWebhookNotifier creates a notifier for the given endpoint URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logx.NewLogger("review"),
	}
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(req ReviewRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal review request: %w", err)
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to deliver review request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reviewer endpoint returned status %d", resp.StatusCode)
	}

	n.logger.Info("review request for %s delivered to %s", req.ConversationID, n.url)
	return nil
}
