package logtools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/planner"
	"github.com/ilkoid/logwright/pkg/tools"
)

const defaultAnalysisCap = 50

const analyzeSystemPrompt = "You are a log analysis assistant. Given a sample of log lines and the " +
	"question a user asked, identify recurring patterns, anomalies, and a likely root-cause hypothesis. " +
	"Respond with a short, human-readable summary; do not repeat the raw lines back verbatim."

// AnalyzeLogsTool asks the LLM to perform a deeper read of a working
// set than the mechanical tools can: patterns, anomalies, a root-cause
// hypothesis. It uses the same provider as the planner but a distinct
// prompt and call shape — a one-off analysis request, not a Decision.
type AnalyzeLogsTool struct {
	adapter       *planner.Adapter
	payloadColumn string
	sampleCap     int
}

// NewAnalyzeLogsTool builds an analyze_logs tool. sampleCap bounds how many
// rows are sent to the model when the working set is larger; 0 uses
// defaultAnalysisCap.
func NewAnalyzeLogsTool(adapter *planner.Adapter, payloadColumn string, sampleCap int) *AnalyzeLogsTool {
	if sampleCap <= 0 {
		sampleCap = defaultAnalysisCap
	}
	return &AnalyzeLogsTool{adapter: adapter, payloadColumn: payloadColumn, sampleCap: sampleCap}
}

func (t *AnalyzeLogsTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "analyze_logs",
		Description:  "Ask for a deep read of the current result set: recurring patterns, anomalies, and a likely root cause.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "query", Type: tools.ParamString, Description: "Original user query, for context."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to analyze. Defaults to the current result set."},
		},
	}
}

func (t *AnalyzeLogsTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available; run grep_logs first"}, nil
	}

	sample := sampleForAnalysis(ws, t.payloadColumn, t.sampleCap)
	userPrompt := buildAnalysisPrompt(paramString(params, "query"), sample)

	analysis, err := t.adapter.Analyze(ctx, analyzeSystemPrompt, userPrompt)
	if err != nil {
		if ctx.Err() != nil {
			return logmodel.ToolResult{}, ctx.Err()
		}
		return logmodel.ToolResult{OK: false, Message: fmt.Sprintf("analysis failed: %s", err)}, nil
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  analysis,
		Data:     analysis,
		DataType: logmodel.DataAnalysis,
	}, nil
}

// sampleForAnalysis picks up to cap rows from ws, preferring higher
// severities and a spread across the time range, when ws is larger
// than cap; otherwise it returns every row.
func sampleForAnalysis(ws *logmodel.WorkingSet, payloadColumn string, sampleCap int) []logmodel.LogRow {
	if len(ws.Rows) <= sampleCap {
		return ws.Rows
	}

	type scored struct {
		row   logmodel.LogRow
		idx   int
		score int
	}
	ranked := make([]scored, len(ws.Rows))
	for i, row := range ws.Rows {
		raw, _ := row.Get(payloadColumn)
		event := logmodel.ParsePayload(raw)
		ranked[i] = scored{row: row, idx: i, score: logmodel.SeverityRank(event.Severity)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].idx < ranked[j].idx
	})

	picked := make(map[int]bool, sampleCap)
	var out []logmodel.LogRow

	// Reserve a third of the budget for even spread across the
	// original row order, so the sample isn't only the highest
	// severities clustered at one point in time.
	spreadBudget := sampleCap / 3
	if spreadBudget > 0 {
		step := len(ws.Rows) / spreadBudget
		if step < 1 {
			step = 1
		}
		for i := 0; i < len(ws.Rows) && len(out) < spreadBudget; i += step {
			if !picked[i] {
				picked[i] = true
				out = append(out, ws.Rows[i])
			}
		}
	}

	for _, r := range ranked {
		if len(out) >= sampleCap {
			break
		}
		if !picked[r.idx] {
			picked[r.idx] = true
			out = append(out, r.row)
		}
	}

	return out
}

func buildAnalysisPrompt(query string, rows []logmodel.LogRow) string {
	var sb strings.Builder
	if query != "" {
		fmt.Fprintf(&sb, "Question: %s\n\n", query)
	}
	fmt.Fprintf(&sb, "Sample of %d log line(s):\n", len(rows))
	for _, row := range rows {
		sb.WriteString(renderRowForAnalysis(row))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderRowForAnalysis(row logmodel.LogRow) string {
	parts := make([]string, 0, len(row.Header))
	for i, h := range row.Header {
		if i < len(row.Values) {
			parts = append(parts, h+"="+row.Values[i])
		}
	}
	return strings.Join(parts, " ")
}
