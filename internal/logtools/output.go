package logtools

import (
	"context"
	"fmt"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/pkg/tools"
)

const defaultMaxSamples = 20

// ReturnLogsTool formats up to max_samples rows of the current working
// set for direct display, without altering State.
type ReturnLogsTool struct{}

// NewReturnLogsTool builds a return_logs tool.
func NewReturnLogsTool() *ReturnLogsTool { return &ReturnLogsTool{} }

func (t *ReturnLogsTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "return_logs",
		Description:  "Format up to max_samples rows of the current result set for display.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "max_samples", Type: tools.ParamInt, Default: defaultMaxSamples, Description: "Number of rows to format. Default 20."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to format. Defaults to the current result set."},
		},
	}
}

func (t *ReturnLogsTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available; run grep_logs first"}, nil
	}
	maxSamples := paramInt(params, "max_samples", defaultMaxSamples)
	if maxSamples < 0 {
		maxSamples = 0
	}

	rows := ws.Rows
	truncated := false
	if maxSamples > 0 && len(rows) > maxSamples {
		rows = rows[:maxSamples]
		truncated = true
	}

	formatted := make([]string, len(rows))
	for i, row := range rows {
		formatted[i] = renderRowForAnalysis(row)
	}

	message := fmt.Sprintf("%d row(s) formatted", len(formatted))
	if truncated {
		message = fmt.Sprintf("%s (truncated from %d)", message, len(ws.Rows))
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  message,
		Data:     formatted,
		DataType: logmodel.DataFormatted,
	}, nil
}

// FinalizeAnswerTool is the terminal action: it carries the natural-
// language answer out of the loop. The orchestrator recognizes this
// action by name and stops iterating the moment it is decided; the
// tool itself performs no further work beyond validating its input.
type FinalizeAnswerTool struct{}

// NewFinalizeAnswerTool builds a finalize_answer tool.
func NewFinalizeAnswerTool() *FinalizeAnswerTool { return &FinalizeAnswerTool{} }

func (t *FinalizeAnswerTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        "finalize_answer",
		Description: "End the loop and report the final answer to the user's question.",
		Parameters: []tools.ParamSpec{
			{Name: "answer", Type: tools.ParamString, Required: true, Description: "The final natural-language answer."},
			{Name: "confidence", Type: tools.ParamFloat, Description: "Optional confidence in [0,1]."},
		},
	}
}

func (t *FinalizeAnswerTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	answer := paramString(params, "answer")
	if answer == "" {
		return logmodel.ToolResult{OK: false, Message: "answer is required"}, nil
	}
	confidence := paramFloat(params, "confidence", -1)
	if confidence != -1 && (confidence < 0 || confidence > 1) {
		return logmodel.ToolResult{OK: false, Message: "confidence must be within [0,1]"}, nil
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  answer,
		Data:     answer,
		DataType: logmodel.DataTerminal,
	}, nil
}
