package logtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/logwright/internal/logmodel"
)

func TestExtractUniqueTool_DeduplicatesPreservingOrder(t *testing.T) {
	tool := NewExtractUniqueTool("payload")
	res, err := tool.Execute(context.Background(), map[string]any{
		"values": []string{"b", "a", "b", "a", "c"},
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"b", "a", "c"}, res.Data)
	assert.Equal(t, logmodel.DataUniqueValues, res.DataType)
}

func TestExtractUniqueTool_NoValuesFails(t *testing.T) {
	tool := NewExtractUniqueTool("payload")
	res, err := tool.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestExtractUniqueTool_AutoPromotesFieldNameMistake(t *testing.T) {
	tool := NewExtractUniqueTool("payload")
	ws := wsFromRows([]string{"payload"},
		[]string{`{"CmMacAddress":"a"}`},
		[]string{`{"CmMacAddress":"b"}`},
		[]string{`{"CmMacAddress":"a"}`},
	)
	res, err := tool.Execute(context.Background(), map[string]any{
		"values": []string{"CmMacAddress"},
		"logs":   ws,
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"a", "b"}, res.Data)
	assert.Contains(t, res.Message, "auto-parsed field")
}

func TestCountValuesTool_ReportsUniqueAndTotal(t *testing.T) {
	tool := NewCountValuesTool("payload")
	res, err := tool.Execute(context.Background(), map[string]any{
		"values": []string{"a", "b", "a"},
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, logmodel.CountResult{Unique: 2, Total: 3}, res.Data)
	assert.Equal(t, logmodel.DataFinalCount, res.DataType)
}

func TestCountValuesTool_NoValuesFails(t *testing.T) {
	tool := NewCountValuesTool("payload")
	res, err := tool.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestResolveValuesInput_RealValuesNotTreatedAsFieldName(t *testing.T) {
	values, note, err := resolveValuesInput(map[string]any{
		"values": []string{"alpha", "beta"},
	}, "payload")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, values)
	assert.Empty(t, note)
}

func TestLooksLikeFieldNameMistake_RequiresLogsAndShape(t *testing.T) {
	assert.True(t, looksLikeFieldNameMistake([]string{"CmMacAddress"}, true))
	assert.False(t, looksLikeFieldNameMistake([]string{"CmMacAddress"}, false))
	assert.False(t, looksLikeFieldNameMistake([]string{"not pascal"}, true))
	assert.False(t, looksLikeFieldNameMistake([]string{"a", "b", "c", "d", "e", "f"}, true))
}
