package logtools

import (
	"context"
	"fmt"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/pkg/tools"
)

// resolveValuesInput centralizes the two related auto-corrections
// extract_unique and count_values both apply: if the caller passed a
// short list of PascalCase tokens (a likely field-name mistake) and
// logs are available, the field is implicitly parsed instead; absent
// that, the raw values param (already auto-injected from State's last
// result by the orchestrator when omitted) is used as-is.
func resolveValuesInput(params map[string]any, payloadColumn string) ([]string, string, error) {
	values, _ := paramStringSlice(params, "values")
	ws := paramWorkingSet(params)

	if looksLikeFieldNameMistake(values, ws != nil) {
		fieldName := values[0]
		parsed, err := extractField(ws, payloadColumn, fieldName)
		if err != nil {
			return nil, "", err
		}
		return parsed, fmt.Sprintf(" (auto-parsed field %q instead of treating it as a value list)", fieldName), nil
	}

	return values, "", nil
}

// ExtractUniqueTool deduplicates a list of values, preserving the
// order of first occurrence.
type ExtractUniqueTool struct {
	payloadColumn string
}

// NewExtractUniqueTool builds an extract_unique tool.
func NewExtractUniqueTool(payloadColumn string) *ExtractUniqueTool {
	return &ExtractUniqueTool{payloadColumn: payloadColumn}
}

func (t *ExtractUniqueTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:           "extract_unique",
		Description:    "Deduplicate a list of values, keeping the order of first occurrence.",
		RequiresValues: true,
		Parameters: []tools.ParamSpec{
			{Name: "values", Type: tools.ParamStringList, Description: "Values to deduplicate. Defaults to the last result if omitted."},
		},
	}
}

func (t *ExtractUniqueTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	values, note, err := resolveValuesInput(params, t.payloadColumn)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}
	if len(values) == 0 {
		return logmodel.ToolResult{OK: false, Message: "no values available to deduplicate"}, nil
	}

	unique := dedupePreserveOrder(values)
	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("%d unique value(s) out of %d%s", len(unique), len(values), note),
		Data:     unique,
		DataType: logmodel.DataUniqueValues,
	}, nil
}

// CountValuesTool counts the number of distinct values in a list,
// reporting both the unique count and the total input count.
type CountValuesTool struct {
	payloadColumn string
}

// NewCountValuesTool builds a count_values tool.
func NewCountValuesTool(payloadColumn string) *CountValuesTool {
	return &CountValuesTool{payloadColumn: payloadColumn}
}

func (t *CountValuesTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:           "count_values",
		Description:    "Count unique values in a list; returns both the unique count and the total number seen.",
		RequiresValues: true,
		Parameters: []tools.ParamSpec{
			{Name: "values", Type: tools.ParamStringList, Description: "Values to count. Defaults to the last result if omitted."},
		},
	}
}

func (t *CountValuesTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	values, note, err := resolveValuesInput(params, t.payloadColumn)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}
	if len(values) == 0 {
		return logmodel.ToolResult{OK: false, Message: "no values available to count"}, nil
	}

	unique := dedupePreserveOrder(values)
	result := logmodel.CountResult{Unique: len(unique), Total: len(values)}
	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("%d unique out of %d total%s", result.Unique, result.Total, note),
		Data:     result,
		DataType: logmodel.DataFinalCount,
	}, nil
}
