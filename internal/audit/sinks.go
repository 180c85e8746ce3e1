package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soyeahso/chainsense/internal/logging"
)

// LogSink writes each event as a structured log line.
func LogSink(log *logging.Logger) Sink {
	sub := log.Sub("audit.events")
	return func(_ context.Context, ev Event) error {
		sub.Info().
			Str("event", ev.Name).
			Str("session", ev.SessionID).
			Str("correlation", ev.CorrelationID).
			Interface("data", ev.Data).
			Msg("conversation event")
		return nil
	}
}

// WebhookSink posts each event as JSON to an external collector.
func WebhookSink(url string, timeout time.Duration) Sink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context, ev Event) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook delivery failed: %w", err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("webhook rejected event (%d)", resp.StatusCode)
		}
		return nil
	}
}
