package logtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/planner"
	"github.com/ilkoid/logwright/pkg/llm"
)

type fixedProvider struct {
	reply llm.Message
}

func (p fixedProvider) Generate(ctx context.Context, messages []llm.Message, opts ...any) (llm.Message, error) {
	return p.reply, nil
}

func TestAnalyzeLogsTool_ReturnsModelAnalysis(t *testing.T) {
	adapter := planner.New(fixedProvider{reply: llm.Message{Role: llm.RoleAssistant, Content: "recurring timeout pattern on node-3"}}, planner.Config{})
	tool := NewAnalyzeLogsTool(adapter, "payload", 0)

	ws := wsFromRows([]string{"payload"}, []string{"2026-01-01T00:00:00Z ERROR {}"})
	res, err := tool.Execute(context.Background(), map[string]any{"query": "why is node-3 failing?", "logs": ws})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "recurring timeout pattern on node-3", res.Message)
	assert.Equal(t, logmodel.DataAnalysis, res.DataType)
}

func TestAnalyzeLogsTool_RequiresLogs(t *testing.T) {
	adapter := planner.New(fixedProvider{}, planner.Config{})
	tool := NewAnalyzeLogsTool(adapter, "payload", 0)

	res, err := tool.Execute(context.Background(), map[string]any{"query": "anything wrong?"})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestSampleForAnalysis_ReturnsAllWhenUnderCap(t *testing.T) {
	ws := wsFromRows([]string{"payload"},
		[]string{"2026-01-01T00:00:00Z INFO {}"},
		[]string{"2026-01-01T00:00:01Z ERROR {}"},
	)
	sample := sampleForAnalysis(ws, "payload", 10)
	assert.Len(t, sample, 2)
}

func TestSampleForAnalysis_CapsAndPrefersSeverity(t *testing.T) {
	var rows [][]string
	for i := 0; i < 20; i++ {
		rows = append(rows, []string{"2026-01-01T00:00:00Z INFO {}"})
	}
	rows = append(rows, []string{"2026-01-01T00:00:00Z ERROR {}"})
	ws := wsFromRows([]string{"payload"}, rows...)

	sample := sampleForAnalysis(ws, "payload", 5)
	assert.Len(t, sample, 5)

	foundError := false
	for _, row := range sample {
		if row.Values[0] == "2026-01-01T00:00:00Z ERROR {}" {
			foundError = true
		}
	}
	assert.True(t, foundError, "severity-ranked fill should include the one ERROR row")
}
