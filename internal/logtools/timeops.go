package logtools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/pkg/tools"
)

// rowTime best-effort-extracts the leading timestamp of a row's
// payload column, returning nil if unparsable.
func rowTime(row logmodel.LogRow, payloadColumn string) *time.Time {
	raw, ok := row.Get(payloadColumn)
	if !ok {
		return nil
	}
	return logmodel.ParsePayload(raw).Timestamp
}

// SortByTimeTool reorders the current working set by its best-effort
// parsed timestamp. Rows with an unparsable timestamp sort to the end,
// in their original relative order.
type SortByTimeTool struct {
	payloadColumn string
}

// NewSortByTimeTool builds a sort_by_time tool.
func NewSortByTimeTool(payloadColumn string) *SortByTimeTool {
	return &SortByTimeTool{payloadColumn: payloadColumn}
}

func (t *SortByTimeTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "sort_by_time",
		Description:  "Sort the current result set by timestamp, ascending; rows without a parsable timestamp sort last.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "descending", Type: tools.ParamBool, Description: "Sort newest first. Default false (oldest first)."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to sort. Defaults to the current result set."},
		},
	}
}

func (t *SortByTimeTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available; run grep_logs first"}, nil
	}
	descending := paramBool(params, "descending")

	type timedRow struct {
		row logmodel.LogRow
		ts  *time.Time
		idx int
	}
	rows := make([]timedRow, len(ws.Rows))
	for i, row := range ws.Rows {
		rows[i] = timedRow{row: row, ts: rowTime(row, t.payloadColumn), idx: i}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].ts, rows[j].ts
		if a == nil && b == nil {
			return rows[i].idx < rows[j].idx
		}
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if descending {
			return a.After(*b)
		}
		return a.Before(*b)
	})

	out := &logmodel.WorkingSet{Header: ws.Header, Rows: make([]logmodel.LogRow, len(rows))}
	for i, r := range rows {
		out.Rows[i] = r.row
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("sorted %d row(s) by time", len(out.Rows)),
		Data:     out,
		DataType: logmodel.DataRawLogs,
	}, nil
}

// ExtractTimeRangeTool filters the current working set to rows whose
// timestamp falls within an inclusive range.
type ExtractTimeRangeTool struct {
	payloadColumn string
}

// NewExtractTimeRangeTool builds an extract_time_range tool.
func NewExtractTimeRangeTool(payloadColumn string) *ExtractTimeRangeTool {
	return &ExtractTimeRangeTool{payloadColumn: payloadColumn}
}

func (t *ExtractTimeRangeTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:         "extract_time_range",
		Description:  "Filter the current result set to rows within an inclusive time range. Accepts ISO-8601 times or the relative forms now, now-Nh, now-Nm.",
		RequiresLogs: true,
		Parameters: []tools.ParamSpec{
			{Name: "from", Type: tools.ParamString, Description: "Inclusive lower bound. Omit for no lower bound."},
			{Name: "to", Type: tools.ParamString, Description: "Inclusive upper bound. Omit for no upper bound."},
			{Name: "logs", Type: tools.ParamTable, Description: "Rows to filter. Defaults to the current result set."},
		},
	}
}

func (t *ExtractTimeRangeTool) Execute(ctx context.Context, params map[string]any) (logmodel.ToolResult, error) {
	ws := paramWorkingSet(params)
	if ws == nil {
		return logmodel.ToolResult{OK: false, Message: "no logs available; run grep_logs first"}, nil
	}

	now := time.Now()
	var from, to *time.Time
	if s := paramString(params, "from"); s != "" {
		parsed, err := parseTimeBound(s, now)
		if err != nil {
			return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
		}
		from = parsed
	}
	if s := paramString(params, "to"); s != "" {
		parsed, err := parseTimeBound(s, now)
		if err != nil {
			return logmodel.ToolResult{OK: false, Message: err.Error()}, nil
		}
		to = parsed
	}

	out := &logmodel.WorkingSet{Header: ws.Header}
	for _, row := range ws.Rows {
		ts := rowTime(row, t.payloadColumn)
		if ts == nil {
			continue
		}
		if from != nil && ts.Before(*from) {
			continue
		}
		if to != nil && ts.After(*to) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	return logmodel.ToolResult{
		OK:       true,
		Message:  fmt.Sprintf("%d row(s) within the requested time range out of %d", len(out.Rows), len(ws.Rows)),
		Data:     out,
		DataType: logmodel.DataRawLogs,
	}, nil
}

// parseTimeBound parses an absolute RFC3339 timestamp or one of the
// relative forms now, now-Nh, now-Nm, relative to now.
func parseTimeBound(s string, now time.Time) (*time.Time, error) {
	if s == "now" {
		return &now, nil
	}
	if strings.HasPrefix(s, "now-") {
		spec := s[len("now-"):]
		if strings.HasSuffix(spec, "h") {
			n, err := strconv.Atoi(strings.TrimSuffix(spec, "h"))
			if err != nil {
				return nil, fmt.Errorf("invalid relative time %q", s)
			}
			t := now.Add(-time.Duration(n) * time.Hour)
			return &t, nil
		}
		if strings.HasSuffix(spec, "m") {
			n, err := strconv.Atoi(strings.TrimSuffix(spec, "m"))
			if err != nil {
				return nil, fmt.Errorf("invalid relative time %q", s)
			}
			t := now.Add(-time.Duration(n) * time.Minute)
			return &t, nil
		}
		return nil, fmt.Errorf("invalid relative time %q", s)
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: must be RFC3339 or now/now-Nh/now-Nm", s)
	}
	return &t, nil
}
