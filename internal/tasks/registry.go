// Package tasks provides the built-in TaskHandler implementations a
// cmd/worker binary registers by default.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vin-jex/job-orchestrator/internal/worker"
)

// SendWebhookInput is the payload shape for SendWebhook.
type SendWebhookInput struct {
	URL  string          `json:"url"`
	Body json.RawMessage `json:"body"`
}

// SendWebhook POSTs Body to URL, failing the job on any non-2xx response
// so the worker's retry/backoff handles transient delivery failures.
func SendWebhook(ctx context.Context, payload []byte, helpers *worker.Helpers) error {
	var input SendWebhookInput
	if err := json.Unmarshal(payload, &input); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, input.URL, bytes.NewReader(input.Body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivering webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	helpers.Logger().Info("webhook delivered", "url", input.URL, "status", resp.StatusCode)
	return nil
}

// NoopInput is the payload shape for Noop.
type NoopInput struct {
	Message string `json:"message"`
}

// Noop logs its payload's message and succeeds; it fails only when a
// non-empty payload is not valid JSON. Useful for smoke tests and local
// development registries.
func Noop(ctx context.Context, payload []byte, helpers *worker.Helpers) error {
	var input NoopInput
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &input); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
	}

	helpers.Logger().Info("noop task ran", "message", input.Message)
	return nil
}

// DefaultRegistry returns the built-in task identifiers and their
// handlers, ready to be extended by a cmd/worker binary with
// application-specific handlers.
func DefaultRegistry() worker.TaskRegistry {
	return worker.TaskRegistry{
		"send_webhook": SendWebhook,
		"noop":         Noop,
	}
}
