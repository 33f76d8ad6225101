// Package chain implements the ReAct (Reasoning + Acting) orchestrator:
// a stateful controller that builds a curated prompt per iteration,
// asks the LLM Planner Adapter for a Decision, dispatches the named
// tool (auto-injecting implicit state inputs), and commits the result
// back to State, repeating until a finalize_answer decision arrives or
// the iteration budget runs out.
//
// # Template vs Execution
//
// ReActCycle is an immutable template built once at startup and shared
// across concurrent queries: it holds the tool registry, the Entity
// Catalog, the Log Store, the LLM adapters, the Smart Summarizer, and
// the Context Builder. Every call to Execute builds a fresh
// ReActExecution — the per-query runtime state — so concurrent queries
// never share mutable data.
package chain

import (
	"context"
	"fmt"

	ctxbuilder "github.com/ilkoid/logwright/internal/context"
	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logstore"
	"github.com/ilkoid/logwright/internal/planner"
	"github.com/ilkoid/logwright/internal/querystate"
	"github.com/ilkoid/logwright/internal/summarizer"
	"github.com/ilkoid/logwright/pkg/events"
	"github.com/ilkoid/logwright/pkg/obslog"
	"github.com/ilkoid/logwright/pkg/tools"
)

// ReActCycle is the immutable per-process template for running queries.
type ReActCycle struct {
	config   ReActCycleConfig
	registry *tools.Registry
	store    *logstore.Store
	builder  *ctxbuilder.Builder
	executor *ReActExecutor
	emitter  events.Emitter
}

// NewReActCycle wires a ReActCycle from its process-wide dependencies.
// plannerAdapter backs the planner role (§4.8); the analyzer role is
// owned directly by the analyze_logs tool and is not used here.
func NewReActCycle(
	config ReActCycleConfig,
	registry *tools.Registry,
	store *logstore.Store,
	catalog *entitycatalog.Catalog,
	plannerAdapter *planner.Adapter,
	summarizerInstance *summarizer.Summarizer,
	emitter events.Emitter,
) (*ReActCycle, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestrator config: %w", err)
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if store == nil {
		return nil, fmt.Errorf("log store is required")
	}
	if plannerAdapter == nil {
		return nil, fmt.Errorf("planner adapter is required")
	}

	builder := ctxbuilder.New(catalog, registry)
	plannerAdapter.SetSystemPrompt(builder.SystemPrompt())
	decide := &decisionStep{builder: builder, planner: plannerAdapter}
	dispatch := &dispatchStep{registry: registry, summarizer: summarizerInstance, timeout: config.DefaultToolTimeout}

	return &ReActCycle{
		config:   config,
		registry: registry,
		store:    store,
		builder:  builder,
		executor: NewReActExecutor(decide, dispatch),
		emitter:  emitter,
	}, nil
}

// Execute runs one query to completion, bounded by config.Timeout.
func (c *ReActCycle) Execute(ctx context.Context, input ChainInput) (ChainOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	state := querystate.New(c.store.Header(), c.config.SummaryThresholdRows)
	exec := newReActExecution(input, state, c.config, c.emitter)

	obslog.Info("query started", "query_id", state.QueryID().String(), "query", input.UserQuery)
	out, err := c.executor.Execute(ctx, exec)
	obslog.Info("query finished", "query_id", state.QueryID().String(), "signal", out.Signal.String(), "iterations", out.Iterations)
	return out, err
}

var _ Chain = (*ReActCycle)(nil)
