package context

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/querystate"
	"github.com/ilkoid/logwright/pkg/tools"
)

func testCatalog() *entitycatalog.Catalog {
	return entitycatalog.New(entitycatalog.Config{
		Aliases: map[string][]string{
			"cable_modem": {"modem", "cm_mac", "modem_mac"},
		},
		Relationships: map[string][]string{
			"cable_modem": {"cpe"},
		},
	})
}

// fakeTool is a minimal tools.Tool used only to give the test Builder
// a non-empty catalog to render.
type fakeTool struct{ def tools.ToolDefinition }

func (t fakeTool) Definition() tools.ToolDefinition { return t.def }

func (t fakeTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	return logmodel.ToolResult{}, nil
}

func testRegistry() *tools.Registry {
	r := tools.NewRegistry()
	_ = r.Register(fakeTool{def: tools.ToolDefinition{
		Name:        "grep_logs",
		Description: "search logs for a pattern",
		Parameters: []tools.ParamSpec{
			{Name: "pattern", Type: tools.ParamString, Required: true},
		},
	}})
	return r
}

func sampleWorkingSet(n int) *logmodel.WorkingSet {
	header := []string{"timestamp", "modem_mac", "payload"}
	rows := make([]logmodel.LogRow, n)
	for i := range rows {
		rows[i] = logmodel.LogRow{Header: header, Values: []string{"t", "AA:BB", "msg"}}
	}
	return &logmodel.WorkingSet{Header: header, Rows: rows}
}

func TestBuild_IncludesQueryAndIteration(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New([]string{"timestamp", "modem_mac"}, 50)

	out := b.Build("how many unique modems?", 2, 8, st)
	assert.Contains(t, out, "Query: how many unique modems?")
	assert.Contains(t, out, "Iteration: 2/8")
}

func TestBuild_NoHistoryShowsPlaceholder(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New(nil, 50)

	out := b.Build("query", 1, 8, st)
	assert.Contains(t, out, "(none yet)")
}

func TestBuild_HistoryWindowCapsAtFive(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New(nil, 50)
	for i := 0; i < 8; i++ {
		st.BeginIteration()
		st.RecordHistory(logmodel.ToolHistoryEntry{ToolName: "grep_logs", OK: true, SummaryText: "ok"})
	}

	out := b.Build("query", 9, 20, st)
	assert.Equal(t, 5, strings.Count(out, "grep_logs("))
}

func TestRenderParams_RedactsLongList(t *testing.T) {
	params := map[string]any{"values": []string{"a", "b", "c", "d", "e", "f", "g"}}
	out := renderParams(params)
	assert.Contains(t, out, "{7 items}")
}

func TestRenderParams_KeepsShortList(t *testing.T) {
	params := map[string]any{"values": []string{"a", "b"}}
	out := renderParams(params)
	assert.Contains(t, out, "[a,b]")
}

func TestBuild_UsesSummaryWhenPresent(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New([]string{"timestamp", "modem_mac"}, 1)
	st.UpdateFromResult(logmodel.ToolResult{
		OK:       true,
		Data:     sampleWorkingSet(5),
		DataType: logmodel.DataRawLogs,
	}, querystate.UpdateOptions{Summarize: func(*logmodel.WorkingSet) string { return "5 rows, mostly ERROR" }})

	out := b.Build("query", 1, 8, st)
	assert.Contains(t, out, "5 rows, mostly ERROR")
}

func TestBuild_BuiltInSummaryWhenBelowThreshold(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New([]string{"timestamp", "modem_mac"}, 50)
	st.UpdateFromResult(logmodel.ToolResult{
		OK:       true,
		Data:     sampleWorkingSet(3),
		DataType: logmodel.DataRawLogs,
	}, querystate.UpdateOptions{})

	out := b.Build("query", 1, 8, st)
	assert.Contains(t, out, "3 row(s) loaded")
	assert.Contains(t, out, "cable_modem: modem_mac")
}

func TestBuild_FieldExtractionStatusRawVsUnique(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New([]string{"modem_mac"}, 50)
	st.UpdateFromResult(logmodel.ToolResult{OK: true, Data: []string{"a", "a", "b"}, DataType: logmodel.DataRawValues},
		querystate.UpdateOptions{FieldName: "modem_mac"})

	out := b.Build("query", 1, 8, st)
	assert.Contains(t, out, "modem_mac: 3 raw (may contain duplicates)")

	st.UpdateFromResult(logmodel.ToolResult{OK: true, Data: []string{"a", "b"}, DataType: logmodel.DataUniqueValues},
		querystate.UpdateOptions{FieldName: "modem_mac"})
	out = b.Build("query", 2, 8, st)
	assert.Contains(t, out, "modem_mac: 2 unique")
}

func TestSelectHint_UniqueQueryWithNoFieldParsedHintsParse(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New([]string{"modem_mac"}, 50)
	st.UpdateFromResult(logmodel.ToolResult{OK: true, Data: sampleWorkingSet(3), DataType: logmodel.DataRawLogs}, querystate.UpdateOptions{})

	hint := b.selectHint("how many unique modem values do we see?", st)
	require.NotEmpty(t, hint)
	assert.Contains(t, hint, "modem_mac")
}

func TestSelectHint_ParsedNotDedupedHintsCountValues(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New([]string{"modem_mac"}, 50)
	st.UpdateFromResult(logmodel.ToolResult{OK: true, Data: []string{"a", "a", "b"}, DataType: logmodel.DataRawValues},
		querystate.UpdateOptions{FieldName: "modem_mac"})

	hint := b.selectHint("how many unique modem readings?", st)
	assert.Contains(t, hint, "count_values")
}

func TestSelectHint_PerGroupHintsAggregator(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New(nil, 50)

	hint := b.selectHint("how many errors per modem?", st)
	assert.Contains(t, hint, "aggregation")
}

func TestSelectHint_NoMatchYieldsEmpty(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New(nil, 50)

	hint := b.selectHint("show me the logs", st)
	assert.Empty(t, hint)
}

func TestBuild_NeverMentionsEcosystemJargon(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New([]string{"modem_mac"}, 50)
	st.UpdateFromResult(logmodel.ToolResult{OK: true, Data: sampleWorkingSet(3), DataType: logmodel.DataRawLogs}, querystate.UpdateOptions{})
	st.UpdateFromResult(logmodel.ToolResult{OK: true, Data: []string{"a", "b"}, DataType: logmodel.DataRawValues}, querystate.UpdateOptions{FieldName: "modem_mac"})

	// "json" is excluded from the denylist: the format instruction is
	// required to name the JSON object shape the planner must reply
	// with, which is a wire-format requirement, not language/library
	// jargon leaking from the implementation.
	denylist := []string{
		"golang", "regex", "csv", "yaml", "struct", "goroutine",
		"python", "javascript", "sdk", "library", "package", "function",
		"variable", "compile", "runtime error", "stack trace", "http",
	}

	out := strings.ToLower(b.Build("how many unique modem readings per region?", 1, 8, st))
	for _, term := range denylist {
		assert.NotContains(t, out, term, "rendered prompt should not mention %q", term)
	}
}

func TestBuild_EndsWithFormatInstruction(t *testing.T) {
	b := New(testCatalog(), testRegistry())
	st := querystate.New(nil, 50)

	out := b.Build("query", 1, 8, st)
	assert.True(t, strings.HasSuffix(out, formatInstruction))
}
