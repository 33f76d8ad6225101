package chain

import (
	"time"

	"github.com/ilkoid/logwright/internal/querystate"
	"github.com/ilkoid/logwright/pkg/events"
)

// ReActExecution is the per-query runtime state: everything one
// Execute call needs that must not leak between queries. ReActCycle
// (the immutable template) builds one per call; ReActExecutor mutates
// it as the loop progresses. Keeping all mutable runtime data here —
// rather than on ReActExecutor itself — is what makes concurrent
// Execute calls over one ReActCycle safe: each call gets its own
// ReActExecution and nothing is shared.
type ReActExecution struct {
	input  ChainInput
	state  *querystate.State
	config ReActCycleConfig

	emitter           events.Emitter
	iterationObserver *EmitterIterationObserver

	startTime time.Time

	consecutiveFailures int
	finalSignal         ExecutionSignal
	toolSequence        []string

	guard cycleGuard
}

// newReActExecution builds a fresh execution for one query.
func newReActExecution(input ChainInput, state *querystate.State, config ReActCycleConfig, emitter events.Emitter) *ReActExecution {
	return &ReActExecution{
		input:             input,
		state:             state,
		config:            config,
		emitter:           emitter,
		iterationObserver: NewEmitterIterationObserver(emitter),
		startTime:         time.Now(),
		guard:             newCycleGuard(config.CycleGuardWindow, config.CycleGuardRepeats),
	}
}

// recordTool appends toolName to the sequence of invoked tools, used
// for best-effort finalization and for the returned ChainOutput.
func (e *ReActExecution) recordTool(toolName string) {
	e.toolSequence = append(e.toolSequence, toolName)
}
