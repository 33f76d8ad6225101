package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctxbuilder "github.com/ilkoid/logwright/internal/context"
	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/planner"
	"github.com/ilkoid/logwright/internal/querystate"
	"github.com/ilkoid/logwright/pkg/llm"
	"github.com/ilkoid/logwright/pkg/tools"
)

// scriptedProvider returns one reply per call, in order, then repeats
// the last reply for any further calls.
type scriptedProvider struct {
	replies []llm.Message
	calls   int
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	i := p.calls
	if i >= len(p.replies) {
		i = len(p.replies) - 1
	}
	p.calls++
	return p.replies[i], nil
}

func newTestExecutor(t *testing.T, provider llm.Provider, registry *tools.Registry) *ReActExecutor {
	t.Helper()
	adapter := planner.New(provider, planner.Config{})
	builder := ctxbuilder.New(entitycatalog.New(entitycatalog.Config{}), registry)
	decide := &decisionStep{builder: builder, planner: adapter}
	dispatch := &dispatchStep{registry: registry}
	return NewReActExecutor(decide, dispatch)
}

func decisionReply(action, paramsJSON string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Content: `{"reasoning":"r","action":"` + action + `","params":` + paramsJSON + `}`}
}

func TestExecutor_FinalizesOnFinalizeAnswer(t *testing.T) {
	provider := &scriptedProvider{replies: []llm.Message{
		decisionReply("finalize_answer", `{"answer":"there were 3 errors"}`),
	}}
	executor := newTestExecutor(t, provider, tools.NewRegistry())

	state := querystate.New([]string{"payload"}, 50)
	exec := newReActExecution(ChainInput{UserQuery: "how many errors?"}, state, NewReActCycleConfig(), nil)

	out, err := executor.Execute(context.Background(), exec)

	require.NoError(t, err)
	assert.Equal(t, "there were 3 errors", out.Result)
	assert.Equal(t, SignalFinalAnswer, out.Signal)
	assert.Equal(t, 1, out.Iterations)
}

func TestExecutor_DispatchesToolThenFinalizes(t *testing.T) {
	tool := &recordingTool{
		def:    tools.ToolDefinition{Name: "grep_logs"},
		result: logmodel.ToolResult{OK: true, Message: "found 3 matches"},
	}
	registry := newRegistryWith(tool)

	provider := &scriptedProvider{replies: []llm.Message{
		decisionReply("grep_logs", `{"pattern":"ERROR"}`),
		decisionReply("finalize_answer", `{"answer":"3 errors found"}`),
	}}
	executor := newTestExecutor(t, provider, registry)

	state := querystate.New([]string{"payload"}, 50)
	exec := newReActExecution(ChainInput{UserQuery: "how many errors?"}, state, NewReActCycleConfig(), nil)

	out, err := executor.Execute(context.Background(), exec)

	require.NoError(t, err)
	assert.Equal(t, "3 errors found", out.Result)
	assert.Equal(t, []string{"grep_logs"}, out.ToolSequence)
	assert.Len(t, state.ToolHistory(), 1)
}

func TestExecutor_AbortsOnConsecutiveInvalidDecisions(t *testing.T) {
	provider := &scriptedProvider{replies: []llm.Message{
		{Role: llm.RoleAssistant, Content: "garbage"},
	}}
	cfg := NewReActCycleConfig()
	cfg.MaxConsecutiveFailures = 2
	executor := newTestExecutor(t, provider, tools.NewRegistry())

	state := querystate.New([]string{"payload"}, 50)
	exec := newReActExecution(ChainInput{UserQuery: "q"}, state, cfg, nil)

	_, err := executor.Execute(context.Background(), exec)

	assert.Error(t, err)
}

func TestExecutor_ExhaustsBudgetAndSynthesizesBestEffort(t *testing.T) {
	tool := &recordingTool{
		def:    tools.ToolDefinition{Name: "grep_logs"},
		result: logmodel.ToolResult{OK: true, Message: "3 matches so far"},
	}
	registry := newRegistryWith(tool)

	provider := &scriptedProvider{replies: []llm.Message{
		decisionReply("grep_logs", `{"pattern":"ERROR"}`),
	}}
	cfg := NewReActCycleConfig()
	cfg.MaxIterations = 2
	executor := newTestExecutor(t, provider, registry)

	state := querystate.New([]string{"payload"}, 50)
	exec := newReActExecution(ChainInput{UserQuery: "q"}, state, cfg, nil)

	out, err := executor.Execute(context.Background(), exec)

	require.NoError(t, err)
	assert.Equal(t, SignalBudgetExhausted, out.Signal)
	assert.Contains(t, out.Result, "3 matches so far")
}

func TestExecutor_CycleGuardStopsLivelock(t *testing.T) {
	tool := &recordingTool{
		def:    tools.ToolDefinition{Name: "grep_logs"},
		result: logmodel.ToolResult{OK: true, Message: "no new matches"},
	}
	registry := newRegistryWith(tool)

	provider := &scriptedProvider{replies: []llm.Message{
		decisionReply("grep_logs", `{"pattern":"ERROR"}`),
	}}
	cfg := NewReActCycleConfig()
	cfg.MaxIterations = 20
	cfg.CycleGuardWindow = 5
	cfg.CycleGuardRepeats = 3
	executor := newTestExecutor(t, provider, registry)

	state := querystate.New([]string{"payload"}, 50)
	exec := newReActExecution(ChainInput{UserQuery: "q"}, state, cfg, nil)

	out, err := executor.Execute(context.Background(), exec)

	require.NoError(t, err)
	assert.Equal(t, SignalCycleGuard, out.Signal)
	assert.LessOrEqual(t, out.Iterations, 3)
}
