// Package notify delivers pass-completion events to an external
// webhook. Delivery is best-effort: failures are logged, never
// returned, so a dead webhook cannot fail a batch pass.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adlens/spend-cli/internal/config"
)

// Event describes a completed pass run.
type Event struct {
	Pass       string         `json:"pass"`
	Scope      string         `json:"scope,omitempty"`
	Status     string         `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stats      map[string]any `json:"stats,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Notifier posts Events to the configured webhook URL.
type Notifier struct {
	cfg    config.NotifyConfig
	client *http.Client
}

// NewNotifier creates a Notifier. A zero TimeoutSecs defaults to 10s.
func NewNotifier(cfg config.NotifyConfig) *Notifier {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// PassComplete sends a completion event. It returns true if the event
// was delivered, false if notification is disabled or delivery failed.
func (n *Notifier) PassComplete(ctx context.Context, event Event) bool {
	if n.cfg.WebhookURL == "" {
		return false
	}

	if err := n.post(ctx, event); err != nil {
		zap.L().Warn("notify: webhook delivery failed",
			zap.String("pass", event.Pass),
			zap.Error(err),
		)
		return false
	}
	zap.L().Info("notify: event delivered",
		zap.String("pass", event.Pass),
		zap.String("status", event.Status),
	)
	return true
}

func (n *Notifier) post(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return eris.Wrap(err, "notify: marshal event")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
