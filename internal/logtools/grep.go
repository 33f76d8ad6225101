package logtools

import (
	"context"
	"fmt"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/logstore"
	"github.com/ilkoid/logwright/pkg/tools"
)

// GrepLogsTool streams the log file for rows whose selected columns
// match a pattern. Duplicates are possible: the same pattern can match
// the same opaque token repeated across many rows.
type GrepLogsTool struct {
	store *logstore.Store
}

// NewGrepLogsTool builds a grep_logs tool over store.
func NewGrepLogsTool(store *logstore.Store) *GrepLogsTool {
	return &GrepLogsTool{store: store}
}

func (t *GrepLogsTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "grep_logs",
		Description: "Search the log file for rows matching a pattern; returns raw matching rows (may contain duplicates).",
		Parameters: []tools.ParamSpec{
			{Name: "pattern", Type: tools.ParamString, Required: true, Description: "Substring or regular expression to match."},
			{Name: "case_sensitive", Type: tools.ParamBool, Description: "Match case-sensitively. Default false."},
			{Name: "regex", Type: tools.ParamBool, Description: "Treat pattern as a regular expression. Default false."},
			{Name: "max_results", Type: tools.ParamInt, Description: "Stop after this many matches."},
			{Name: "columns", Type: tools.ParamStringList, Description: "Restrict matching to these columns. Default all columns."},
		},
	}
}

func (t *GrepLogsTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	pattern := paramString(params, "pattern")
	if pattern == "" {
		return logmodel.ToolResult{OK: false, Message: "pattern is required"}, nil
	}
	columns, _ := paramStringSlice(params, "columns")

	result, err := t.store.Search(ctx, logstore.SearchParams{
		Pattern:       pattern,
		Columns:       columns,
		CaseSensitive: paramBool(params, "case_sensitive"),
		Regex:         paramBool(params, "regex"),
		MaxMatches:    paramInt(params, "max_results", 0),
	})
	if err != nil {
		if ctx.Err() != nil {
			return logmodel.ToolResult{}, ctx.Err()
		}
		return logmodel.ToolResult{OK: false, Message: fmt.Sprintf("search failed: %s", err)}, nil
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("found %d matching row(s) (may contain duplicates); scanned %d lines", len(result.WorkingSet.Rows), result.LinesScanned),
		Data:     result.WorkingSet,
		DataType: logmodel.DataRawLogs,
	}, nil
}

// GrepAndParseTool is a convenience composition of grep_logs +
// parse_json_field, optionally deduplicating, semantically equivalent
// to calling the two tools in sequence.
type GrepAndParseTool struct {
	store *logstore.Store
}

// NewGrepAndParseTool builds a grep_and_parse tool over store.
func NewGrepAndParseTool(store *logstore.Store) *GrepAndParseTool {
	return &GrepAndParseTool{store: store}
}

func (t *GrepAndParseTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "grep_and_parse",
		Description: "Search the log file for a pattern and extract a named payload field from the matches in one step.",
		Parameters: []tools.ParamSpec{
			{Name: "pattern", Type: tools.ParamString, Required: true, Description: "Substring or regular expression to match."},
			{Name: "field_name", Type: tools.ParamString, Required: true, Description: "Payload field to extract from each match."},
			{Name: "unique_only", Type: tools.ParamBool, Description: "Deduplicate extracted values. Default false."},
			{Name: "case_sensitive", Type: tools.ParamBool, Description: "Match case-sensitively. Default false."},
			{Name: "regex", Type: tools.ParamBool, Description: "Treat pattern as a regular expression. Default false."},
			{Name: "max_results", Type: tools.ParamInt, Description: "Stop after this many matching rows."},
		},
	}
}

func (t *GrepAndParseTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	pattern := paramString(params, "pattern")
	fieldName := paramString(params, "field_name")
	if pattern == "" || fieldName == "" {
		return logmodel.ToolResult{OK: false, Message: "pattern and field_name are required"}, nil
	}

	result, err := t.store.Search(ctx, logstore.SearchParams{
		Pattern:       pattern,
		CaseSensitive: paramBool(params, "case_sensitive"),
		Regex:         paramBool(params, "regex"),
		MaxMatches:    paramInt(params, "max_results", 0),
	})
	if err != nil {
		if ctx.Err() != nil {
			return logmodel.ToolResult{}, ctx.Err()
		}
		return logmodel.ToolResult{OK: false, Message: fmt.Sprintf("search failed: %s", err)}, nil
	}

	values, err := extractField(result.WorkingSet, t.store.PayloadColumn(), fieldName)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}

	uniqueOnly := paramBool(params, "unique_only")
	if uniqueOnly {
		unique := dedupePreserveOrder(values)
		return logmodel.ToolResult{
			OK:       true,
			Message:  fmt.Sprintf("extracted %d unique %s value(s) from %d matching row(s)", len(unique), fieldName, len(result.WorkingSet.Rows)),
			Data:     unique,
			DataType: logmodel.DataUniqueValues,
		}, nil
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("extracted %d %s value(s) from %d matching row(s) (may contain duplicates)", len(values), fieldName, len(result.WorkingSet.Rows)),
		Data:     values,
		DataType: logmodel.DataRawValues,
	}, nil
}
