package logtools

import (
	"context"
	"fmt"
	"sort"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/summarizer"
	"github.com/ilkoid/logwright/pkg/tools"
)

// CountUniquePerGroupTool groups the current working set by one field
// and counts distinct values of another within each group.
type CountUniquePerGroupTool struct{}

// NewCountUniquePerGroupTool builds a count_unique_per_group tool.
func NewCountUniquePerGroupTool() *CountUniquePerGroupTool { return &CountUniquePerGroupTool{} }

func (t *CountUniquePerGroupTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "count_unique_per_group",
		Description:  "Group rows by one field and count distinct values of another field within each group.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "group_by", Type: tools.ParamString, Required: true, Description: "Field to group rows by."},
			{Name: "count_field", Type: tools.ParamString, Required: true, Description: "Field whose distinct values are counted per group."},
			{Name: "top_n", Type: tools.ParamInt, Default: defaultTopN, Description: "Number of groups to report. Default 10."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to group. Defaults to the current result set."},
		},
	}
}

func (t *CountUniquePerGroupTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available; run grep_logs first"}, nil
	}
	groupBy := paramString(params, "group_by")
	countField := paramString(params, "count_field")
	if groupBy == "" || countField == "" {
		return logmodel.ToolResult{OK: false, Message: "group_by and count_field are required"}, nil
	}
	groupCol, err := resolveField(ws.Header, groupBy)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}
	countCol, err := resolveField(ws.Header, countField)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}

	sets := make(map[string]map[string]bool)
	var order []string
	for _, row := range ws.Rows {
		groupVal, ok := row.Get(groupCol)
		if !ok || groupVal == "" {
			continue
		}
		countVal, ok := row.Get(countCol)
		if !ok || countVal == "" {
			continue
		}
		if sets[groupVal] == nil {
			sets[groupVal] = make(map[string]bool)
			order = append(order, groupVal)
		}
		sets[groupVal][countVal] = true
	}

	groups := make([]logmodel.GroupCount, 0, len(order))
	for _, key := range order {
		groups = append(groups, logmodel.GroupCount{Key: key, Count: len(sets[key])})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})

	topN := paramInt(params, "top_n", defaultTopN)
	if topN > 0 && len(groups) > topN {
		groups = groups[:topN]
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("unique %s counted across %d %s group(s)", countField, len(groups), groupBy),
		Data:     groups,
		DataType: logmodel.DataAggregated,
	}, nil
}

// AggregateByFieldTool performs a simple group-count over one field.
type AggregateByFieldTool struct{}

// NewAggregateByFieldTool builds an aggregate_by_field tool.
func NewAggregateByFieldTool() *AggregateByFieldTool { return &AggregateByFieldTool{} }

func (t *AggregateByFieldTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "aggregate_by_field",
		Description:  "Count rows grouped by one field's value, sorted descending.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "field_name", Type: tools.ParamString, Required: true, Description: "Field to group rows by."},
			{Name: "top_n", Type: tools.ParamInt, Default: defaultTopN, Description: "Number of groups to report. Default 10."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to group. Defaults to the current result set."},
		},
	}
}

func (t *AggregateByFieldTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available; run grep_logs first"}, nil
	}
	fieldName := paramString(params, "field_name")
	if fieldName == "" {
		return logmodel.ToolResult{OK: false, Message: "field_name is required"}, nil
	}
	col, err := resolveField(ws.Header, fieldName)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}

	counts := make(map[string]int)
	var order []string
	for _, row := range ws.Rows {
		v, ok := row.Get(col)
		if !ok || v == "" {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	groups := make([]logmodel.GroupCount, 0, len(order))
	for _, key := range order {
		groups = append(groups, logmodel.GroupCount{Key: key, Count: counts[key]})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})

	topN := paramInt(params, "top_n", defaultTopN)
	if topN > 0 && len(groups) > topN {
		groups = groups[:topN]
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("%d distinct %s value(s) across %d row(s)", len(groups), fieldName, len(ws.Rows)),
		Data:     groups,
		DataType: logmodel.DataAggregated,
	}, nil
}

// SummarizeLogsTool runs the Smart Summarizer over the current working
// set on demand, independent of the automatic threshold-triggered
// summary State maintains.
type SummarizeLogsTool struct {
	summarizer *summarizer.Summarizer
}

// NewSummarizeLogsTool builds a summarize_logs tool.
func NewSummarizeLogsTool(s *summarizer.Summarizer) *SummarizeLogsTool {
	return &SummarizeLogsTool{summarizer: s}
}

func (t *SummarizeLogsTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "summarize_logs",
		Description:  "Produce a statistics overview of the current result set: counts, severities, time range, and top entities.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "query", Type: tools.ParamString, Description: "Original user query, for context."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to summarize. Defaults to the current result set."},
		},
	}
}

func (t *SummarizeLogsTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available; run grep_logs first"}, nil
	}
	summary := t.summarizer.Summarize(ws, paramString(params, "query"))

	return logmodel.ToolResult{
		OK:       true,
		Message:  summary.SummaryText,
		Data:     summary,
		DataType: logmodel.DataMetadata,
	}, nil
}
