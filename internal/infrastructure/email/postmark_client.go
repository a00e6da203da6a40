// Package email implements the outbound gateway client against a
// Postmark-shaped HTTP API. This is the one ambient piece left on the
// standard library's net/http — see DESIGN.md for why.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	domainemail "newsletter/internal/domain/email"
)

// Config configures the gateway binding.
type Config struct {
	BaseURL            string
	SenderEmail        string
	AuthorizationToken string
	Timeout            time.Duration
}

// Client sends email through a Postmark-compatible HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a Client with the configured per-call timeout.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

var _ domainemail.Gateway = (*Client)(nil)

// sendEmailRequest mirrors the Postmark wire contract's Pascal-cased
// field names.
type sendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// Send posts one email to the gateway. Any non-2xx response or transport
// failure (including a timeout) is wrapped as domainemail.RetryableError;
// the delivery worker treats it as a transient failure to back off and
// retry, never as fatal.
func (c *Client) Send(ctx context.Context, msg domainemail.Message) error {
	body, err := json.Marshal(sendEmailRequest{
		From:     c.cfg.SenderEmail,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTMLBody,
		TextBody: msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("marshal send email request: %w", err)
	}

	url := c.cfg.BaseURL + "/email"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.cfg.AuthorizationToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domainemail.RetryableError{Cause: fmt.Errorf("send email: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domainemail.RetryableError{
			Cause: fmt.Errorf("send email: gateway returned status %d", resp.StatusCode),
		}
	}
	return nil
}
