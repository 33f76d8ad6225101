package chain

import (
	"context"

	ctxbuilder "github.com/ilkoid/logwright/internal/context"
	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/planner"
)

// decisionStep renders the per-iteration prompt and asks the planner
// for the next Decision. It is the BUILD_CONTEXT/ASK_LLM/PARSE_DECISION
// portion of the orchestrator's per-iteration algorithm.
type decisionStep struct {
	builder *ctxbuilder.Builder
	planner *planner.Adapter
}

// Execute builds the prompt from state and returns the planner's
// parsed decision. Execute never fails: an unparsable or I/O-erroring
// planner turn comes back as a Decision whose Action is
// logmodel.InvalidAction, and the caller counts consecutive failures.
func (s *decisionStep) Execute(ctx context.Context, exec *ReActExecution, iteration int) logmodel.Decision {
	prompt := s.builder.Build(exec.input.UserQuery, iteration, exec.config.MaxIterations, exec.state)
	return s.planner.Decide(ctx, prompt)
}
