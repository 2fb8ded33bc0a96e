// Package openai implements domain.AIClient against any OpenAI-compatible
// chat completions API.
package openai

import (
	"context"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interview-engine/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-engine/internal/config"
	"github.com/fairyhunter13/ai-interview-engine/internal/domain"
)

const providerLabel = "openai"

// Client calls the chat completions endpoint and returns raw message content.
// Transport failures retry with exponential backoff; 4xx responses are
// permanent. A circuit breaker fails fast during sustained provider outages.
type Client struct {
	cfg     config.Config
	hc      *http.Client
	breaker *observability.CircuitBreaker
	counter *tokencount.Counter
}

// New constructs a client; callers should gate construction on
// cfg.AIEnabled().
func New(cfg config.Config) *Client {
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.AITimeout},
		breaker: observability.NewCircuitBreaker("openai-chat", 5, 30*time.Second),
		counter: tokencount.NewCounter(),
	}
}

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// CompleteJSON sends a system+user chat request asking for a JSON object and
// returns the assistant message content.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("op=openai.complete: %w", domain.ErrAIUnavailable)
	}

	body := map[string]any{
		"model":           c.cfg.OpenAIModel,
		"temperature":     0.2,
		"max_tokens":      maxTokens,
		"response_format": map[string]string{"type": "json_object"},
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
	}
	b, _ := json.Marshal(body)

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	op := func() error {
		start := time.Now()
		// fresh request each attempt so a consumed body is never reused
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+"/chat/completions", bytes.NewReader(b))
		if err != nil {
			return backoff.Permanent(err)
		}
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")

		resp, err := c.hc.Do(r)
		observability.AIRequestsTotal.WithLabelValues(providerLabel, "chat").Inc()
		observability.AIRequestDuration.WithLabelValues(providerLabel, "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			slog.Warn("ai provider rate limited",
				slog.String("provider", providerLabel),
				slog.Int("status", resp.StatusCode))
			return fmt.Errorf("rate limited: %d", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			slog.Warn("ai provider rejected request",
				slog.String("provider", providerLabel),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(payload, 512)))
			return backoff.Permanent(fmt.Errorf("chat status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			slog.Error("ai provider non-2xx",
				slog.String("provider", providerLabel),
				slog.Int("status", resp.StatusCode),
				slog.String("body", snippet(payload, 512)))
			return fmt.Errorf("chat status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(payload, &out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	err := c.breaker.Call(func() error {
		return backoff.Retry(op, backoff.WithContext(c.backoffConfig(), ctx))
	})
	if err != nil {
		return "", fmt.Errorf("op=openai.complete: %w: %v", domain.ErrAIUnavailable, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("op=openai.complete: %w: empty choices", domain.ErrSchemaInvalid)
	}
	content := out.Choices[0].Message.Content

	usage := c.counter.MeasureUsage(systemPrompt, userPrompt, content, c.cfg.OpenAIModel)
	observability.ObserveAITokens(providerLabel, usage.Model, usage.PromptTokens, usage.CompletionTokens)
	slog.Debug("ai chat completed",
		slog.String("model", usage.Model),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens))

	return content, nil
}

func snippet(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}

var _ domain.AIClient = (*Client)(nil)
