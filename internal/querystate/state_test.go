package querystate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/logwright/internal/logmodel"
)

func workingSet(n int) *logmodel.WorkingSet {
	ws := &logmodel.WorkingSet{Header: []string{"a"}}
	for i := 0; i < n; i++ {
		ws.Rows = append(ws.Rows, logmodel.LogRow{Header: ws.Header, Values: []string{"v"}})
	}
	return ws
}

func TestUpdateFromResult_SmallTabularNoSummary(t *testing.T) {
	s := New([]string{"a", "b"}, 50)
	s.UpdateFromResult(logmodel.ToolResult{OK: true, Data: workingSet(5), DataType: logmodel.DataRawLogs}, UpdateOptions{
		Summarize: func(*logmodel.WorkingSet) string { t.Fatal("should not summarize below threshold"); return "" },
	})
	require.NotNil(t, s.CurrentLogs())
	assert.Len(t, s.CurrentLogs().Rows, 5)
	assert.Empty(t, s.CurrentSummary())
}

func TestUpdateFromResult_LargeTabularTriggersSummary(t *testing.T) {
	s := New([]string{"a"}, 10)
	called := false
	s.UpdateFromResult(logmodel.ToolResult{OK: true, Data: workingSet(20), DataType: logmodel.DataRawLogs}, UpdateOptions{
		Summarize: func(ws *logmodel.WorkingSet) string { called = true; return "summary text" },
	})
	assert.True(t, called)
	assert.Equal(t, "summary text", s.CurrentSummary())
}

func TestUpdateFromResult_CapturesUpToTwoSamplesOnFirstSet(t *testing.T) {
	s := New(nil, 50)
	s.UpdateFromResult(logmodel.ToolResult{OK: true, Data: workingSet(5), DataType: logmodel.DataRawLogs}, UpdateOptions{})
	assert.Len(t, s.LogSamples(), 2)

	s.UpdateFromResult(logmodel.ToolResult{OK: true, Data: workingSet(1), DataType: logmodel.DataRawLogs}, UpdateOptions{})
	assert.Len(t, s.LogSamples(), 2, "samples captured only on first population")
}

func TestUpdateFromResult_NonTabularLeavesCurrentLogsUntouched(t *testing.T) {
	s := New(nil, 50)
	s.UpdateFromResult(logmodel.ToolResult{OK: true, Data: workingSet(3), DataType: logmodel.DataRawLogs}, UpdateOptions{})
	s.UpdateFromResult(logmodel.ToolResult{OK: true, Data: []string{"x", "y"}, DataType: logmodel.DataRawValues}, UpdateOptions{FieldName: "CpeMacAddress"})

	require.NotNil(t, s.CurrentLogs())
	assert.Len(t, s.CurrentLogs().Rows, 3)

	last, dt := s.LastResult()
	assert.Equal(t, logmodel.DataRawValues, dt)
	assert.Equal(t, []string{"x", "y"}, last)
}

func TestUpdateFromResult_FieldExtractionRawThenUnique(t *testing.T) {
	s := New(nil, 50)
	s.UpdateFromResult(logmodel.ToolResult{Data: []string{"a", "a", "b"}, DataType: logmodel.DataRawValues}, UpdateOptions{FieldName: "CpeMacAddress"})

	rec, ok := s.FieldExtraction("CpeMacAddress")
	require.True(t, ok)
	assert.Equal(t, 3, rec.RawCount)
	assert.False(t, rec.IsDeduplicated)
	assert.Nil(t, rec.UniqueCount)

	s.UpdateFromResult(logmodel.ToolResult{Data: []string{"a", "b"}, DataType: logmodel.DataUniqueValues}, UpdateOptions{FieldName: "CpeMacAddress"})
	rec, ok = s.FieldExtraction("CpeMacAddress")
	require.True(t, ok)
	assert.True(t, rec.IsDeduplicated)
	require.NotNil(t, rec.UniqueCount)
	assert.Equal(t, 2, *rec.UniqueCount)
}

func TestBeginIteration_Monotonic(t *testing.T) {
	s := New(nil, 50)
	assert.Equal(t, 1, s.BeginIteration())
	assert.Equal(t, 2, s.BeginIteration())
	assert.Equal(t, 2, s.Iteration())
}

func TestRecordHistory_LengthMatchesIterationAfterStep(t *testing.T) {
	s := New(nil, 50)
	s.BeginIteration()
	s.RecordHistory(logmodel.ToolHistoryEntry{ToolName: "grep_logs", OK: true})
	assert.Len(t, s.ToolHistory(), s.Iteration())
}

func TestRecordHistory_StampsIteration(t *testing.T) {
	s := New(nil, 50)
	s.BeginIteration()
	s.BeginIteration()
	s.RecordHistory(logmodel.ToolHistoryEntry{ToolName: "count_values"})
	hist := s.ToolHistory()
	require.Len(t, hist, 1)
	assert.Equal(t, 2, hist[0].Iteration)
}
