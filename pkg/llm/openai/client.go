// Package openai adapts github.com/sashabaranov/go-openai to the llm.Provider
// contract, against any OpenAI-compatible chat completion endpoint (a
// locally served instruction-tuned model, in the common case).
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ilkoid/logwright/pkg/llm"
)

// Client implements llm.Provider over a single OpenAI-compatible endpoint.
//
// An optional rate limiter (Config.RatePerSecond) throttles this
// client's outbound chat requests; each Client has its own limiter, and
// none is built when RatePerSecond is not positive. The client is
// stateless across calls: nothing about a query survives past the
// returned Message.
type Client struct {
	inner       *openai.Client
	model       string
	temperature float64
	maxTokens   int
	limiter     *rate.Limiter
}

// Config captures the per-model settings used to build a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int

	// RatePerSecond bounds outbound requests/sec for this client. A
	// non-positive value disables throttling (unlimited rate, still
	// serialized through the underlying http.Client's own pool).
	RatePerSecond float64
	Burst         int
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	oaCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaCfg.BaseURL = cfg.BaseURL
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		inner:       openai.NewClientWithConfig(oaCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		limiter:     limiter,
	}
}

// Generate sends messages to the configured chat completion endpoint and
// returns the model's single response message. Supported opts are
// llm.GenerateOption values; anything else is ignored.
func (c *Client) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	genOpts := llm.GenerateOptions{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, o := range opts {
		if fn, ok := o.(llm.GenerateOption); ok {
			fn(&genOpts)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return llm.Message{}, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       genOpts.Model,
		Messages:    toAPIMessages(messages),
		Temperature: float32(genOpts.Temperature),
		MaxTokens:   genOpts.MaxTokens,
	}

	resp, err := c.inner.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Message{}, fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llm.Message{}, fmt.Errorf("chat completion response had no choices")
	}

	return llm.Message{
		Role:    llm.RoleAssistant,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

func toAPIMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return out
}

var _ llm.Provider = (*Client)(nil)
