package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	ctxbuilder "github.com/ilkoid/logwright/internal/context"
	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/planner"
	"github.com/ilkoid/logwright/internal/querystate"
	"github.com/ilkoid/logwright/pkg/llm"
	"github.com/ilkoid/logwright/pkg/tools"
)

type fixedProvider struct {
	reply llm.Message
}

func (p fixedProvider) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	return p.reply, nil
}

func TestDecisionStep_ParsesToolDecision(t *testing.T) {
	reply := llm.Message{Role: llm.RoleAssistant, Content: `{"reasoning":"need to search","action":"grep_logs","params":{"pattern":"ERROR"}}`}
	adapter := planner.New(fixedProvider{reply: reply}, planner.Config{})
	step := &decisionStep{builder: ctxbuilder.New(entitycatalog.New(entitycatalog.Config{}), tools.NewRegistry()), planner: adapter}

	state := querystate.New([]string{"payload"}, 50)
	exec := newReActExecution(ChainInput{UserQuery: "how many errors today?"}, state, NewReActCycleConfig(), nil)

	decision := step.Execute(context.Background(), exec, 1)

	assert.Equal(t, "grep_logs", decision.Action)
	assert.Equal(t, "ERROR", decision.Params["pattern"])
}

func TestDecisionStep_InvalidReplyYieldsInvalidAction(t *testing.T) {
	reply := llm.Message{Role: llm.RoleAssistant, Content: "not json at all"}
	adapter := planner.New(fixedProvider{reply: reply}, planner.Config{})
	step := &decisionStep{builder: ctxbuilder.New(entitycatalog.New(entitycatalog.Config{}), tools.NewRegistry()), planner: adapter}

	state := querystate.New([]string{"payload"}, 50)
	exec := newReActExecution(ChainInput{UserQuery: "anything?"}, state, NewReActCycleConfig(), nil)

	decision := step.Execute(context.Background(), exec, 1)

	assert.Equal(t, logmodel.InvalidAction, decision.Action)
}
