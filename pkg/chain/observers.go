package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/logwright/pkg/events"
)

// EmitterIterationObserver sends per-iteration progress events to an
// events.Emitter, if one is configured. A nil emitter makes every
// method a no-op, so callers never need a nil check of their own.
type EmitterIterationObserver struct {
	emitter events.Emitter
}

// NewEmitterIterationObserver builds an observer over emitter (which
// may be nil).
func NewEmitterIterationObserver(emitter events.Emitter) *EmitterIterationObserver {
	return &EmitterIterationObserver{emitter: emitter}
}

// EmitThinking reports that the orchestrator is about to ask the
// planner for the next decision.
func (o *EmitterIterationObserver) EmitThinking(ctx context.Context, query string) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type:      events.EventThinking,
		Data:      events.ThinkingData{Query: query},
		Timestamp: time.Now(),
	})
}

// EmitToolCall reports the tool and parameters the planner decided on.
func (o *EmitterIterationObserver) EmitToolCall(ctx context.Context, toolName string, params map[string]any) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type:      events.EventToolCall,
		Data:      events.ToolCallData{ToolName: toolName, Args: fmt.Sprintf("%v", params)},
		Timestamp: time.Now(),
	})
}

// EmitToolResult reports a tool's outcome message.
func (o *EmitterIterationObserver) EmitToolResult(ctx context.Context, toolName, message string) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type:      events.EventToolResult,
		Data:      events.ToolResultData{ToolName: toolName, Result: message},
		Timestamp: time.Now(),
	})
}

// EmitMessage reports the final answer text.
func (o *EmitterIterationObserver) EmitMessage(ctx context.Context, content string) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(ctx, events.Event{
		Type:      events.EventMessage,
		Data:      events.MessageData{Content: content},
		Timestamp: time.Now(),
	})
}
