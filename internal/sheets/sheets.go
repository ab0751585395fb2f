// Package sheets mirrors submissions to a spreadsheet webhook.
// Calls are best-effort; the caller decides whether a failure matters.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haimn/showerparty/internal/domain"
)

const defaultTimeout = 5 * time.Second

type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

type Client struct {
	url     string
	timeout time.Duration
	hc      *http.Client
}

func New(c Config) *Client {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}

	return &Client{
		url:     strings.TrimSpace(c.WebhookURL),
		timeout: c.Timeout,
		hc:      &http.Client{},
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool {
	return c.url != ""
}

type appendPayload struct {
	ActivityType domain.ActivityType `json:"activityType"`
	Name         string              `json:"name"`
	Data         map[string]any      `json:"data"`
	SubmittedAt  time.Time           `json:"submittedAt"`
}

// Append posts one submission row to the webhook.
func (c *Client) Append(ctx context.Context, sub domain.Submission) error {
	if !c.Enabled() {
		return fmt.Errorf("sheets: webhook not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(appendPayload{
		ActivityType: sub.Activity,
		Name:         sub.Name,
		Data:         sub.Data,
		SubmittedAt:  sub.CreateTime,
	})
	if err != nil {
		return fmt.Errorf("sheets: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sheets: webhook status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return nil
}
