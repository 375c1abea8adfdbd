package summarizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dinewise/dinewise-server/internal/domain"
	"github.com/dinewise/dinewise-server/internal/ratelimit"
)

const limiterKey = "llm"

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client calls a chat completions endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger
}

var _ Summarizer = (*Client)(nil)

// New creates a Client. It returns ErrNotConfigured when cfg has no API key.
// limiter may be nil.
func New(cfg Config, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Summarize asks the model to describe restaurants. The result has code
// fences removed; an empty completion is ErrEmptyResponse.
func (c *Client) Summarize(ctx context.Context, restaurants []domain.Restaurant, prefs domain.Preferences) (string, error) {
	raw, err := c.Complete(ctx, BuildMessages(restaurants, prefs))
	if err != nil {
		return "", err
	}
	summary := ParseSummary(raw)
	if summary == "" {
		return "", ErrEmptyResponse
	}
	return summary, nil
}

// Complete sends messages and returns the first choice's content. Network
// errors, 429 and 5xx responses are retried up to MaxRetries times.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.cfg.RetryBackoff
			c.logger.Warn("completion attempt failed, retrying",
				"attempt", attempt,
				"wait", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		content, retry, err := c.do(ctx, body)
		if err == nil {
			return content, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, body []byte) (string, bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, limiterKey); err != nil {
			return "", false, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("completion response",
		"model", c.cfg.Model,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", false, ErrUnauthorized
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	default:
		return "", false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, providerMessage(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", false, fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, ErrEmptyResponse
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}

// providerMessage extracts error.message from an error body, falling back to
// the raw text.
func providerMessage(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
