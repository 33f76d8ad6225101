package logtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/pkg/tools"
)

// extractField best-effort-parses the payload column of every row in
// ws and returns the named field's string value for each row that has
// it. Field-name matching against the decoded payload keys is
// case-insensitive. Rows whose payload does not carry the field are
// skipped, not substituted with an empty string.
func extractField(ws *logmodel.WorkingSet, payloadColumn, fieldName string) ([]string, error) {
	col, err := resolveField(ws.Header, payloadColumn)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, row := range ws.Rows {
		raw, ok := row.Get(col)
		if !ok {
			continue
		}
		event := logmodel.ParsePayload(raw)
		if v, ok := lookupFieldCaseInsensitive(event.Fields, fieldName); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func lookupFieldCaseInsensitive(fields map[string]string, name string) (string, bool) {
	if v, ok := fields[name]; ok {
		return v, true
	}
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// ParseJSONFieldTool extracts a named payload field from every row of
// the current working set. Field values are returned in row order,
// duplicates included — dedup is a separate, explicit step
// (extract_unique).
type ParseJSONFieldTool struct {
	payloadColumn string
}

// NewParseJSONFieldTool builds a parse_json_field tool. payloadColumn
// names the column holding the embedded-JSON event payload.
func NewParseJSONFieldTool(payloadColumn string) *ParseJSONFieldTool {
	return &ParseJSONFieldTool{payloadColumn: payloadColumn}
}

func (t *ParseJSONFieldTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "parse_json_field",
		Description:  "Extract a named field from the JSON payload of every row in the current result set.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "field_name", Type: tools.ParamString, Required: true, Description: "Payload field to extract, matched case-insensitively."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to parse. Defaults to the current result set."},
		},
	}
}

func (t *ParseJSONFieldTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	fieldName := paramString(params, "field_name")
	if fieldName == "" {
		return logmodel.ToolResult{OK: false, Message: "field_name is required"}, nil
	}
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available to parse; run grep_logs first"}, nil
	}

	values, err := extractField(ws, t.payloadColumn, fieldName)
	if err != nil {
		return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("extracted %d %s value(s) from %d row(s) (may contain duplicates)", len(values), fieldName, len(ws.Rows)),
		Data:     values,
		DataType: logmodel.DataRawValues,
	}, nil
}
