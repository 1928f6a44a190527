// Package push delivers Farcaster frame notifications. One Send covers one
// batch of recipients; tokens are grouped by the notification URL their
// client handed out, and each URL gets a single POST with at most
// MaxTokensPerRequest tokens.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/domain/notification"
)

// MaxTokensPerRequest is the Farcaster notification endpoint limit.
const MaxTokensPerRequest = 100

type Config struct {
	TargetURL string        `mapstructure:"target_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

var _ notification.Sender = (*Client)(nil)

type Client struct {
	http      *http.Client
	targetURL string
	log       *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		targetURL: cfg.TargetURL,
		log:       log.With(zap.String("component", "push.client")),
	}
}

type request struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}

type response struct {
	Result struct {
		SuccessfulTokens  []string `json:"successfulTokens"`
		InvalidTokens     []string `json:"invalidTokens"`
		RateLimitedTokens []string `json:"rateLimitedTokens"`
	} `json:"result"`
}

func (c *Client) Send(ctx context.Context, recipients []notification.Recipient, title, body string) error {
	if len(recipients) == 0 {
		return nil
	}
	if len(recipients) > MaxTokensPerRequest {
		return fmt.Errorf("batch of %d exceeds token limit %d", len(recipients), MaxTokensPerRequest)
	}

	// Clients may point their tokens at different notification endpoints.
	byURL := make(map[string][]string)
	for _, r := range recipients {
		byURL[r.Details.URL] = append(byURL[r.Details.URL], r.Details.Token)
	}

	for url, tokens := range byURL {
		if err := c.post(ctx, url, tokens, title, body); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, tokens []string, title, body string) error {
	payload, err := json.Marshal(request{
		NotificationID: uuid.NewString(),
		Title:          title,
		Body:           body,
		TargetURL:      c.targetURL,
		Tokens:         tokens,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification endpoint %s: status %d: %s", url, resp.StatusCode, raw)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		// Some clients answer 200 with an empty body; treat as delivered.
		c.log.Debug("unparseable push response", zap.String("url", url), zap.Error(err))
		return nil
	}
	c.log.Info("batch delivered",
		zap.String("url", url),
		zap.Int("tokens", len(tokens)),
		zap.Int("successful", len(out.Result.SuccessfulTokens)),
		zap.Int("invalid", len(out.Result.InvalidTokens)),
		zap.Int("rate_limited", len(out.Result.RateLimitedTokens)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
