// Package notify posts build status transitions to webhook URLs.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// EventBuildStatus is the event name of every webhook payload.
const EventBuildStatus = "build.status"

// WebhookEvent represents the payload sent to webhook URLs.
type WebhookEvent struct {
	Event          string `json:"event"`
	ResourceID     string `json:"resource_id"`
	CommitID       string `json:"commit_id"`
	BuildID        string `json:"build_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// WebhookConfig holds the list of configured webhook URLs.
type WebhookConfig struct {
	URLs       []string
	Timeout    time.Duration // per request, default 10s
	MaxRetries int           // default 2
	Backoff    time.Duration // base delay, grows linearly; default 1s
}

// WebhookNotifier sends HTTP POST notifications to configured webhook URLs.
type WebhookNotifier struct {
	config  WebhookConfig
	client  *http.Client
	logger  *slog.Logger
	pending sync.WaitGroup
}

// NewWebhookNotifier creates a webhook notifier. Returns nil if no URLs are configured.
func NewWebhookNotifier(cfg *WebhookConfig, logger *slog.Logger) *WebhookNotifier {
	if cfg == nil || len(cfg.URLs) == 0 {
		return nil
	}
	c := *cfg
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookNotifier{
		config: c,
		client: &http.Client{Timeout: c.Timeout},
		logger: logger,
	}
}

// Notify sends one event per transition to all configured URLs.
// Delivery runs asynchronously; Wait blocks until it is done.
func (wn *WebhookNotifier) Notify(transitions ...Transition) {
	if wn == nil {
		return
	}
	for _, tr := range transitions {
		event := &WebhookEvent{
			Event:          EventBuildStatus,
			ResourceID:     tr.ResourceID,
			CommitID:       tr.CommitID,
			BuildID:        tr.BuildID,
			Status:         string(tr.Status),
			PreviousStatus: string(tr.PreviousStatus),
			Timestamp:      tr.At.UTC().Format(time.RFC3339),
		}
		if tr.At.IsZero() {
			event.Timestamp = time.Now().UTC().Format(time.RFC3339)
		}

		wn.pending.Add(1)
		go func() {
			defer wn.pending.Done()
			wn.send(event)
		}()
	}
}

// Wait blocks until every queued delivery finished.
func (wn *WebhookNotifier) Wait() {
	if wn == nil {
		return
	}
	wn.pending.Wait()
}

// send delivers the webhook event to all configured URLs.
func (wn *WebhookNotifier) send(event *WebhookEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		wn.logger.Error("webhook: marshal event", "error", err)
		return
	}

	for _, url := range wn.config.URLs {
		if err := wn.post(url, data); err != nil {
			wn.logger.Warn("webhook: delivery failed", "url", url, "build", event.BuildID, "error", err)
		} else {
			wn.logger.Debug("webhook: delivered", "url", url, "build", event.BuildID, "status", event.Status)
		}
	}
}

// post sends a single webhook POST, retrying network errors and 5xx responses.
func (wn *WebhookNotifier) post(url string, data []byte) error {
	var lastErr error
	for attempt := 0; attempt <= wn.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * wn.config.Backoff)
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "amp/1.0")

		resp, err := wn.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return lastErr // don't retry 4xx
		}
	}

	return lastErr
}
