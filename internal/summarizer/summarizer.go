// Package summarizer produces a short narrative over a finished
// recommendation list using an OpenAI-compatible chat completions API
// (Groq by default).
//
// The model only ever sees the restaurants it is given and is instructed
// never to mention others. Callers treat any failure as "no summary".
package summarizer

import (
	"context"
	"errors"
	"time"

	"github.com/dinewise/dinewise-server/internal/domain"
)

// Defaults for the Groq-hosted model.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.3
	DefaultMaxRetries  = 2
	DefaultTimeout     = 30 * time.Second
)

// Sentinel errors.
var (
	ErrNotConfigured = errors.New("summarizer: no API key configured")
	ErrRateLimited   = errors.New("summarizer: rate limited by provider")
	ErrUnauthorized  = errors.New("summarizer: provider rejected credentials")
	ErrServer        = errors.New("summarizer: provider error")
	ErrEmptyResponse = errors.New("summarizer: empty response")
)

// Summarizer writes narrative text about a fixed candidate list.
type Summarizer interface {
	Summarize(ctx context.Context, restaurants []domain.Restaurant, prefs domain.Preferences) (string, error)
}

// Config configures the HTTP client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	MaxRetries   int
	RetryBackoff time.Duration
	// HTTPTimeout bounds one HTTP attempt. The caller's context bounds the
	// whole call including retries.
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = DefaultTimeout
	}
	return c
}
