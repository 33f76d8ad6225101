package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/pkg/events"
	"github.com/ilkoid/logwright/pkg/obslog"
)

// ReActExecutor runs the iteration loop described in the orchestrator's
// per-iteration algorithm: BUILD_CONTEXT, ASK_LLM, PARSE_DECISION,
// DISPATCH (with auto-injection), UPDATE_STATE, cycle guard, and
// termination checks. It is stateless; all mutable data lives on the
// ReActExecution passed to Execute, so one ReActExecutor is reused
// across concurrent queries.
type ReActExecutor struct {
	decide   *decisionStep
	dispatch *dispatchStep
}

// NewReActExecutor builds a ReActExecutor over the given steps.
func NewReActExecutor(decide *decisionStep, dispatch *dispatchStep) *ReActExecutor {
	return &ReActExecutor{decide: decide, dispatch: dispatch}
}

// Execute drives exec's query to completion.
func (e *ReActExecutor) Execute(ctx context.Context, exec *ReActExecution) (ChainOutput, error) {
	iteration := 0
	for {
		if ctx.Err() != nil {
			return e.finish(exec, iteration, "cancelled", SignalCancelled), nil
		}

		iteration = exec.state.BeginIteration()
		if iteration > exec.config.MaxIterations {
			return e.finish(exec, iteration-1, e.bestEffortAnswer(exec), SignalBudgetExhausted), nil
		}

		exec.iterationObserver.EmitThinking(ctx, exec.input.UserQuery)
		decision := e.decide.Execute(ctx, exec, iteration)

		if decision.Action == logmodel.InvalidAction {
			exec.consecutiveFailures++
			obslog.Warn("orchestrator: invalid planner decision", "iteration", iteration, "consecutive_failures", exec.consecutiveFailures)
			if exec.consecutiveFailures >= exec.config.MaxConsecutiveFailures {
				return ChainOutput{}, fmt.Errorf("planner produced %d consecutive invalid decisions", exec.consecutiveFailures)
			}
			continue
		}
		exec.consecutiveFailures = 0

		if decision.Action == logmodel.FinalizeAction {
			answer, _ := decision.Params["answer"].(string)
			return e.finish(exec, iteration, answer, SignalFinalAnswer), nil
		}

		exec.iterationObserver.EmitToolCall(ctx, decision.Action, decision.Params)

		outcome := e.dispatch.Execute(ctx, exec, decision)
		exec.recordTool(outcome.toolName)
		exec.state.RecordHistory(logmodel.ToolHistoryEntry{
			ToolName:    outcome.toolName,
			Params:      outcome.params,
			SummaryText: outcome.result.Message,
			OK:          outcome.result.OK,
		})

		exec.iterationObserver.EmitToolResult(ctx, outcome.toolName, outcome.result.Message)

		if !outcome.knownTool {
			continue
		}

		if exec.guard.Record(outcome.toolName, outcome.params, exec.state) {
			obslog.Warn("orchestrator: cycle guard tripped", "tool", outcome.toolName, "iteration", iteration)
			return e.finish(exec, iteration, e.bestEffortAnswer(exec), SignalCycleGuard), nil
		}
	}
}

// finish builds the ChainOutput for a query that has stopped looping,
// and emits the terminal events.
func (e *ReActExecutor) finish(exec *ReActExecution, iterations int, result string, signal ExecutionSignal) ChainOutput {
	exec.finalSignal = signal
	exec.iterationObserver.EmitMessage(context.Background(), result)

	output := ChainOutput{
		Result:       result,
		Iterations:   iterations,
		Duration:     time.Since(exec.startTime),
		ToolSequence: exec.toolSequence,
		Signal:       signal,
	}
	e.notifyDone(exec, output)
	return output
}

func (e *ReActExecutor) notifyDone(exec *ReActExecution, output ChainOutput) {
	if exec.emitter == nil {
		return
	}
	exec.emitter.Emit(context.Background(), events.Event{
		Type:      events.EventDone,
		Data:      events.MessageData{Content: output.Result},
		Timestamp: time.Now(),
	})
}

// bestEffortAnswer synthesizes a result string from State when the
// loop ends without a finalize_answer decision (budget exhausted or
// cycle guard tripped): it uses the message of the most recent
// successful history entry that has one, whatever its result type,
// and a fixed message when there is none.
func (e *ReActExecutor) bestEffortAnswer(exec *ReActExecution) string {
	history := exec.state.ToolHistory()
	for i := len(history) - 1; i >= 0; i-- {
		entry := history[i]
		if entry.OK && entry.SummaryText != "" {
			return fmt.Sprintf("best-effort answer (no finalize_answer decision): %s", entry.SummaryText)
		}
	}
	return "unable to produce an answer before the loop stopped"
}
