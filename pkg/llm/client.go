package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lkmbench/lkmbench/pkg/metrics"
)

// Client is the front door to a generation backend. It rate-limits and
// circuit-breaks requests, accounts prompt tokens, and converts transport
// failures into an error string instead of an error value: the training loop
// treats any returned text as code to evaluate, and the analyzers degrade
// gracefully when that text is a failure message.
type Client struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	encoder  *tiktoken.Tiktoken
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// ClientOption customizes the client.
type ClientOption func(*Client)

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithRateLimit bounds requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient wraps a provider. The breaker opens after repeated transport
// failures so a dead backend fails fast instead of eating the full timeout
// on every iteration.
func NewClient(provider Provider, logger *zap.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     provider.Name(),
		Interval: 30 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generator circuit breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	// cl100k_base is close enough for accounting across backends
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		c.encoder = enc
	} else {
		logger.Warn("token encoder unavailable, falling back to length estimate", zap.Error(err))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate requests code for the prompt and always returns a string: the
// generated text on success, or a failure message standing in for code.
func (c *Client) Generate(ctx context.Context, prompt, model, systemPrompt string) string {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Sprintf("Error communicating with generator: %v", err)
	}

	promptTokens := c.countTokens(systemPrompt) + c.countTokens(prompt)
	if c.metrics != nil {
		c.metrics.GeneratorPromptTokens.WithLabelValues(model).Add(float64(promptTokens))
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.provider.Chat(ctx, model, systemPrompt, prompt)
	})
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.GeneratorRequestsTotal.WithLabelValues(model, status).Inc()
		c.metrics.GeneratorRequestSeconds.WithLabelValues(model).Observe(elapsed.Seconds())
	}
	c.logger.Info("generator request finished",
		zap.String("backend", c.provider.Name()),
		zap.String("model", model),
		zap.String("status", status),
		zap.Int("prompt_tokens", promptTokens),
		zap.Duration("duration", elapsed))

	if err != nil {
		return fmt.Sprintf("Error communicating with generator: %v", err)
	}
	return out.(string)
}

func (c *Client) countTokens(text string) int {
	if text == "" {
		return 0
	}
	if c.encoder != nil {
		return len(c.encoder.Encode(text, nil, nil))
	}
	// rough 4-chars-per-token estimate
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
