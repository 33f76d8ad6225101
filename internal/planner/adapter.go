// Package planner wraps the external LLM chat endpoint used to decide
// the next action of the ReAct loop: it sends a prompt, strips
// reasoning markers, extracts and validates the trailing JSON
// decision, and retries transient failures within a small bound.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/pkg/llm"
	"github.com/ilkoid/logwright/pkg/obslog"
	"github.com/ilkoid/logwright/pkg/utils"
)

// reasoningTagRe matches opening/closing reasoning-marker tags. Content
// between a matching pair is treated as chain-of-thought and discarded
// before JSON extraction; the model is instructed to keep its
// "thinking" inside one of these delimiter pairs.
var reasoningTagRe = regexp.MustCompile(`(?is)<\s*(think|thinking|reasoning)\s*>.*?<\s*/\s*(?:think|thinking|reasoning)\s*>`)

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 2048
	maxRetries         = 3
	retryBaseDelay     = 200 * time.Millisecond
)

// Adapter wraps an llm.Provider with the planner's request shape and
// decision-parsing pipeline. The same Adapter instance may back both
// the planner role and the analyzer role (§6 of the domain contract
// allows them to be identical); construct two Adapters over two
// llm.Provider values when they differ.
type Adapter struct {
	provider    llm.Provider
	systemPrompt string
	model       string
	temperature float64
	maxTokens   int
}

// Config configures an Adapter.
type Config struct {
	SystemPrompt string
	Model        string
	Temperature  float64 // 0 means defaultTemperature
	MaxTokens    int     // 0 means defaultMaxTokens
}

// SetSystemPrompt replaces the Adapter's system message, sent ahead of
// every Decide call. Intended to be called once during startup wiring
// (e.g. once the tool Registry the prompt advertises is built),
// before any concurrent Decide call begins.
func (a *Adapter) SetSystemPrompt(prompt string) {
	a.systemPrompt = prompt
}

// New builds an Adapter over provider.
func New(provider llm.Provider, cfg Config) *Adapter {
	temp := cfg.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Adapter{
		provider:     provider,
		systemPrompt: cfg.SystemPrompt,
		model:        cfg.Model,
		temperature:  temp,
		maxTokens:    maxTokens,
	}
}

// Decide sends prompt as the user turn and returns the parsed
// Decision. On repeated transient I/O failure or on invalid/unparsable
// output, it returns a Decision whose Action is logmodel.InvalidAction
// rather than an error — the orchestrator is the one that counts
// consecutive invalid decisions and aborts.
func (a *Adapter) Decide(ctx context.Context, prompt string) logmodel.Decision {
	messages := []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}
	if a.systemPrompt != "" {
		messages = append([]llm.Message{{Role: llm.RoleSystem, Content: a.systemPrompt}}, messages...)
	}

	reply, err := a.generateWithRetry(ctx, messages)
	if err != nil {
		obslog.Warn("planner: generation failed after retries", "err", err)
		return invalidDecision()
	}

	return parseDecision(reply.Content)
}

// Analyze sends prompt as a one-off analysis request and returns the
// raw reply text, bypassing decision parsing entirely — analyze_logs
// wants prose/structured JSON of its own shape, not a Decision.
func (a *Adapter) Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
	reply, err := a.generateWithRetry(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("analyzer generation: %w", err)
	}
	return stripReasoningMarkers(reply.Content), nil
}

func (a *Adapter) generateWithRetry(ctx context.Context, messages []llm.Message) (llm.Message, error) {
	opts := []any{
		llm.WithModel(a.model),
		llm.WithTemperature(a.temperature),
		llm.WithMaxTokens(a.maxTokens),
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return llm.Message{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		reply, err := a.provider.Generate(ctx, messages, opts...)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		obslog.Debug("planner: retrying generation", "attempt", attempt+1, "err", err)
	}
	return llm.Message{}, lastErr
}

// stripReasoningMarkers removes content between recognized reasoning
// delimiter pairs, leaving the "final" content.
func stripReasoningMarkers(text string) string {
	return strings.TrimSpace(reasoningTagRe.ReplaceAllString(text, ""))
}

func invalidDecision() logmodel.Decision {
	return logmodel.Decision{Action: logmodel.InvalidAction}
}

// rawDecision mirrors the wire shape of a Decision before validation.
type rawDecision struct {
	Reasoning string         `json:"reasoning"`
	Action    string         `json:"action"`
	Params    map[string]any `json:"params"`
}

// parseDecision strips reasoning markers, extracts the last balanced
// JSON object, and validates it into a Decision. Any failure yields
// the __invalid__ sentinel decision.
func parseDecision(text string) logmodel.Decision {
	cleaned := stripReasoningMarkers(text)
	cleaned = utils.CleanJsonBlock(cleaned)

	objText := utils.ExtractLastJSONObject(cleaned)
	if objText == "" {
		return invalidDecision()
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(objText), &raw); err != nil {
		return invalidDecision()
	}

	if raw.Action == "" {
		return invalidDecision()
	}
	if raw.Params == nil {
		raw.Params = map[string]any{}
	}

	return logmodel.Decision{
		Reasoning: raw.Reasoning,
		Action:    raw.Action,
		Params:    raw.Params,
	}
}
