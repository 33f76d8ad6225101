package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/querystate"
	"github.com/ilkoid/logwright/internal/summarizer"
	"github.com/ilkoid/logwright/pkg/tools"
)

// dispatchStep resolves a Decision's named tool, auto-injects implicit
// state inputs, runs it under a per-call timeout, and commits the
// result to State. It is the DISPATCH/auto-inject/execute/UPDATE_STATE
// portion of the orchestrator's per-iteration algorithm.
type dispatchStep struct {
	registry   *tools.Registry
	summarizer *summarizer.Summarizer
	timeout    time.Duration
}

// dispatchOutcome reports what happened so the executor can update its
// own bookkeeping (history, cycle guard, tool sequence).
type dispatchOutcome struct {
	result    logmodel.ToolResult
	toolName  string
	params    map[string]any
	injected  []string
	knownTool bool
}

// Execute resolves decision.Action against the registry, auto-injects
// any declared-but-omitted "logs"/"values" parameter from State, and
// runs the tool under a cancellable timeout. An unknown tool name is
// not a Go error: it comes back as a dispatchOutcome whose result is
// ok=false, so the caller can record history and keep looping.
func (s *dispatchStep) Execute(ctx context.Context, exec *ReActExecution, decision logmodel.Decision) dispatchOutcome {
	tool, err := s.registry.Get(decision.Action)
	if err != nil {
		return dispatchOutcome{
			toolName: decision.Action,
			params:   decision.Params,
			result:   logmodel.ToolResult{OK: false, Message: fmt.Sprintf("unknown tool %q", decision.Action)},
		}
	}

	params, injected := s.autoInject(tool.Definition(), decision.Params, exec.state)

	result, err := s.runWithTimeout(ctx, tool, params)
	if err != nil {
		// context cancellation/deadline: propagate as a failed, non-ok
		// result rather than surfacing a Go error up the call stack —
		// the executor decides whether cancellation ends the query.
		result = logmodel.ToolResult{OK: false, Message: err.Error()}
	}

	s.commit(exec.state, exec.input.UserQuery, fieldNameParam(params), result)

	return dispatchOutcome{
		result:    result,
		toolName:  decision.Action,
		params:    params,
		injected:  injected,
		knownTool: true,
	}
}

// autoInject fills in the "logs" and "values" parameters from State
// when the tool declares them and the planner omitted them (§4.9 step
// 6). It also promotes an obviously-too-small supplied sample (a
// one- or two-element list) up to the full State value, the way an
// analyst would override a lazy first guess.
func (s *dispatchStep) autoInject(def tools.ToolDefinition, params map[string]any, st *querystate.State) (map[string]any, []string) {
	out := make(map[string]any, len(params)+2)
	for k, v := range params {
		out[k] = v
	}

	var injected []string

	if def.RequiresLogs {
		if _, ok := out["logs"]; !ok {
			if ws := st.CurrentLogs(); ws != nil {
				out["logs"] = ws
				injected = append(injected, "logs")
			}
		}
	}

	if def.RequiresValues {
		if _, ok := out["values"]; !ok {
			if last, dataType := st.LastResult(); last != nil && isListResult(dataType) {
				out["values"] = last
				injected = append(injected, "values")
			}
		} else if looksLikeTinySample(out["values"]) {
			if last, dataType := st.LastResult(); last != nil && isListResult(dataType) {
				out["values"] = last
				injected = append(injected, "values (replaced tiny sample)")
			}
		}
	}

	return out, injected
}

func isListResult(dt logmodel.DataType) bool {
	return dt == logmodel.DataRawValues || dt == logmodel.DataUniqueValues
}

// looksLikeTinySample reports whether v is a one- or two-element
// string list, the shape of a throwaway placeholder sample rather than
// a deliberate filter.
func looksLikeTinySample(v any) bool {
	list, ok := v.([]string)
	if !ok {
		return false
	}
	return len(list) > 0 && len(list) <= 2
}

// runWithTimeout runs tool.Execute on its own goroutine so a stuck
// tool can be abandoned at the deadline instead of blocking the whole
// query indefinitely.
func (s *dispatchStep) runWithTimeout(ctx context.Context, tool tools.Tool, params map[string]any) (logmodel.ToolResult, error) {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	toolCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result logmodel.ToolResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := tool.Execute(toolCtx, params)
		done <- outcome{result, err}
	}()

	select {
	case <-toolCtx.Done():
		if toolCtx.Err() == context.DeadlineExceeded {
			return logmodel.ToolResult{}, fmt.Errorf("tool execution timed out after %v", timeout)
		}
		return logmodel.ToolResult{}, toolCtx.Err()
	case out := <-done:
		return out.result, out.err
	}
}

// commit applies result to State, wiring the Smart Summarizer in as
// the UpdateFromResult callback so tabular results above the
// configured threshold are summarized without State importing the
// summarizer package directly.
func (s *dispatchStep) commit(st *querystate.State, query, fieldName string, result logmodel.ToolResult) {
	st.UpdateFromResult(result, querystate.UpdateOptions{
		FieldName: fieldName,
		Summarize: func(ws *logmodel.WorkingSet) string {
			if s.summarizer == nil {
				return ""
			}
			return s.summarizer.Summarize(ws, query).SummaryText
		},
	})
}

// fieldNameParam returns params["field_name"] when present and a
// string; only a few tools (parse_json_field, grep_and_parse) declare
// it, and only their output should update a field-extraction record.
func fieldNameParam(params map[string]any) string {
	if v, ok := params["field_name"].(string); ok {
		return v
	}
	return ""
}
