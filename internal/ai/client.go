// Package ai wraps the external language-model service behind a small client
// with retry, backoff, and per-attempt timeouts.
//
// AI availability is an explicit capability: a nil *Client means the feature
// is not configured and callers take their deterministic path. The classifier
// and mapper both degrade to heuristics when a call here fails; an AI outage
// must never fail an import job.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config holds the completion-service settings.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	VerifierModel string // optional second pass for mapping consensus
	MaxAttempts   int
	RetryBackoff  time.Duration
	Timeout       time.Duration
}

// Client calls an OpenAI-compatible completion endpoint.
type Client struct {
	llm           llms.Model
	model         string
	verifierModel string
	attempts      int
	backoff       time.Duration
	timeout       time.Duration
}

// New builds a client from config. It returns (nil, nil) when no API key is
// configured: callers treat a nil client as "AI path disabled".
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}

	c := &Client{
		llm:           model,
		model:         cfg.Model,
		verifierModel: cfg.VerifierModel,
		attempts:      cfg.MaxAttempts,
		backoff:       cfg.RetryBackoff,
		timeout:       cfg.Timeout,
	}
	if c.attempts <= 0 {
		c.attempts = 3
	}
	if c.backoff <= 0 {
		c.backoff = 2 * time.Second
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	return c, nil
}

// HasVerifier reports whether a second mapping model is configured.
func (c *Client) HasVerifier() bool {
	return c != nil && c.verifierModel != ""
}

// Complete sends a prompt to the primary model.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt, c.model)
}

// CompleteVerifier sends a prompt to the verifier model.
func (c *Client) CompleteVerifier(ctx context.Context, prompt string) (string, error) {
	if !c.HasVerifier() {
		return "", errors.New("no verifier model configured")
	}
	return c.complete(ctx, prompt, c.verifierModel)
}

// complete retries with linear backoff, each attempt under its own timeout.
func (c *Client) complete(ctx context.Context, prompt, model string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := llms.GenerateFromSinglePrompt(attemptCtx, c.llm, prompt, llms.WithModel(model))
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		slog.Warn("completion attempt failed",
			"model", model,
			"attempt", attempt,
			"error", err,
		)
		if attempt < c.attempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.attempts, lastErr)
}
