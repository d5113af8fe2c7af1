// Package notifications pushes scan alerts to an ntfy topic.
package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"arb-profit-bot/internal/retry"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
}

func NewClient(baseURL, topic string, enabled bool) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		topic:   topic,
		enabled: enabled,
	}
}

// Notify delivers one message. Failures are logged and swallowed so a
// flaky push service never interrupts a scan.
func (c *Client) Notify(ctx context.Context, message string, isError bool) {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping")
		return
	}

	_, err := retry.WithRetry(ctx, retry.Notify, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, message, isError)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Notification delivery failed")
	}
}

func (c *Client) send(ctx context.Context, message string, isError bool) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	if isError {
		req.Header.Set("Priority", "high")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	log.Debug().
		Int("status_code", resp.StatusCode).
		Msg("Notification sent")
	return nil
}
