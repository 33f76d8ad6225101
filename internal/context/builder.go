// Package context renders the fixed per-iteration prompt consumed by
// the LLM Planner Adapter: the original query, the iteration counter,
// the compact action catalog (when a registry is set), a window of
// recent tool history, a compact view of the current state, a single
// actionable hint, and the output-format instruction.
//
// Hint selection is a type switch over a small closed set of cases
// (query features crossed with state features), not a chain of ad hoc
// string checks — new hint rules are added as new cases, never as
// another nested if.
package context

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/querystate"
	"github.com/ilkoid/logwright/pkg/tools"
)

const (
	maxHistoryEntries = 5
	maxSampleRows     = 3
	longParamListSize = 6
)

// Builder renders prompts from per-query State plus the process-wide
// Entity Catalog and tool Registry.
type Builder struct {
	catalog  *entitycatalog.Catalog
	registry *tools.Registry
}

// New builds a Builder over catalog and registry. registry may be nil
// in tests that don't exercise the action catalog or system prompt.
func New(catalog *entitycatalog.Catalog, registry *tools.Registry) *Builder {
	return &Builder{catalog: catalog, registry: registry}
}

// systemPreamble states the agent's role once; the tool catalog that
// follows it in SystemPrompt is the part that actually tells the
// planner which actions and params exist.
const systemPreamble = "You are a log-analysis agent. Each turn you choose exactly one action " +
	"from the catalog below and supply its params as a JSON object. You never invent an action " +
	"name or a param name that isn't listed."

// SystemPrompt renders the planner's system message: the role preamble
// plus the full tool catalog (name, description, every param with its
// type and required/default status). Built once per ReActCycle and
// reused for every iteration of every query — unlike Build's output,
// it does not vary per call.
func (b *Builder) SystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(systemPreamble)
	sb.WriteString("\n\nAvailable actions:\n\n")
	if b.registry != nil {
		sb.WriteString(b.registry.DetailedCatalog())
	}
	return sb.String()
}

// Build renders the full prompt for one iteration.
func (b *Builder) Build(query string, iteration, maxIterations int, st *querystate.State) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	fmt.Fprintf(&sb, "Iteration: %d/%d\n\n", iteration, maxIterations)

	if b.registry != nil {
		sb.WriteString("Available actions (see system prompt for full signatures):\n")
		sb.WriteString(b.registry.CompactCatalog())
		sb.WriteString("\n")
	}

	sb.WriteString("Previous actions:\n")
	sb.WriteString(renderHistory(st.ToolHistory()))
	sb.WriteString("\n")

	sb.WriteString("Current state:\n")
	sb.WriteString(b.renderState(st))
	sb.WriteString("\n")

	if hint := b.selectHint(query, st); hint != "" {
		fmt.Fprintf(&sb, "Hint: %s\n\n", hint)
	}

	sb.WriteString(formatInstruction)
	return sb.String()
}

const formatInstruction = "Respond with a single JSON object with keys \"reasoning\", \"action\", \"params\". " +
	"You may think inside <think>...</think> markers before the object, but the JSON object must be the " +
	"last non-whitespace content in your response. Keep any thinking to at most two sentences."

// renderHistory renders up to the last maxHistoryEntries history
// entries, one per line, oldest first.
func renderHistory(history []logmodel.ToolHistoryEntry) string {
	if len(history) == 0 {
		return "  (none yet)\n"
	}
	start := 0
	if len(history) > maxHistoryEntries {
		start = len(history) - maxHistoryEntries
	}
	var sb strings.Builder
	for _, entry := range history[start:] {
		summary := entry.SummaryText
		if !entry.OK && summary == "" {
			summary = "failed"
		}
		fmt.Fprintf(&sb, "  Step %d: %s(%s) -> %s\n", entry.Iteration, entry.ToolName, renderParams(entry.Params), summary)
	}
	return sb.String()
}

// renderParams renders a params map as key=value pairs in sorted key
// order, redacting any value that would print long (large inline
// lists become a count placeholder).
func renderParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+redactValue(params[k]))
	}
	return strings.Join(parts, ", ")
}

func redactValue(v any) string {
	switch val := v.(type) {
	case []string:
		if len(val) > longParamListSize {
			return fmt.Sprintf("{%d items}", len(val))
		}
		return "[" + strings.Join(val, ",") + "]"
	case []any:
		if len(val) > longParamListSize {
			return fmt.Sprintf("{%d items}", len(val))
		}
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = fmt.Sprintf("%v", e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		s := fmt.Sprintf("%v", val)
		if len(s) > 80 {
			return s[:77] + "..."
		}
		return s
	}
}

// renderState renders CurrentSummary verbatim when present; otherwise
// it builds a compact view from the working set, field extractions,
// and last result.
func (b *Builder) renderState(st *querystate.State) string {
	if summary := st.CurrentSummary(); summary != "" {
		return summary + "\n"
	}

	var sb strings.Builder

	ws := st.CurrentLogs()
	if ws == nil {
		sb.WriteString("  No logs loaded yet.\n")
	} else {
		fmt.Fprintf(&sb, "  %d row(s) loaded.\n", len(ws.Rows))
		for i, row := range st.LogSamples() {
			if i >= maxSampleRows {
				break
			}
			fmt.Fprintf(&sb, "  Sample: %s\n", renderRow(row))
		}
		grouped := b.catalog.GroupColumns(ws.Header)
		if len(grouped) > 0 {
			sb.WriteString("  Available fields by kind:\n")
			kinds := make([]string, 0, len(grouped))
			for k := range grouped {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)
			for _, k := range kinds {
				fmt.Fprintf(&sb, "    %s: %s\n", k, strings.Join(grouped[k], ", "))
			}
		}
	}

	extractions := st.FieldExtractions()
	if len(extractions) > 0 {
		fields := make([]string, 0, len(extractions))
		for f := range extractions {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		sb.WriteString("  Field extractions:\n")
		for _, f := range fields {
			rec := extractions[f]
			if rec.IsDeduplicated && rec.UniqueCount != nil {
				fmt.Fprintf(&sb, "    %s: %d unique\n", f, *rec.UniqueCount)
			} else {
				fmt.Fprintf(&sb, "    %s: %d raw (may contain duplicates)\n", f, rec.RawCount)
			}
		}
	}

	if lastResult, dataType := st.LastResult(); dataType != "" {
		fmt.Fprintf(&sb, "  Last result: %s (%s)\n", dataType, describeShape(lastResult))
	}

	return sb.String()
}

func renderRow(row logmodel.LogRow) string {
	parts := make([]string, 0, len(row.Header))
	for i, h := range row.Header {
		if i < len(row.Values) {
			parts = append(parts, h+"="+row.Values[i])
		}
	}
	return strings.Join(parts, " ")
}

func describeShape(data any) string {
	switch v := data.(type) {
	case []string:
		return strconv.Itoa(len(v)) + " value(s)"
	case logmodel.CountResult:
		return fmt.Sprintf("%d unique of %d", v.Unique, v.Total)
	case []logmodel.GroupCount:
		return strconv.Itoa(len(v)) + " group(s)"
	default:
		return "value"
	}
}

// hintCase is a closed set of recognized (query, state) situations the
// builder knows how to produce a hint for.
type hintCase int

const (
	hintNone hintCase = iota
	hintParseField
	hintCountValues
	hintUseAggregator
)

// selectHint classifies the current (query, state) pair into a
// hintCase and renders it. Rules are evaluated in priority order;
// the first match wins.
func (b *Builder) selectHint(query string, st *querystate.State) string {
	lowerQuery := strings.ToLower(query)
	wantsUnique := strings.Contains(lowerQuery, "unique") || strings.Contains(lowerQuery, "count")
	wantsPerGroup := strings.Contains(lowerQuery, "per ") || strings.Contains(lowerQuery, "for each")

	fieldName, parsedField := fieldInProgress(st)

	switch {
	case wantsUnique && !parsedField:
		if kind, field, ok := b.matchQueryField(query, st); ok {
			return renderHint(hintParseField, field, kind)
		}
	case parsedField && wantsUnique && !fieldDeduplicated(st, fieldName):
		return renderHint(hintCountValues, fieldName, "")
	case wantsPerGroup:
		return renderHint(hintUseAggregator, "", "")
	}
	return ""
}

func renderHint(c hintCase, field, kind string) string {
	switch c {
	case hintParseField:
		return fmt.Sprintf("the query asks about %s; parse the %q field before counting.", kind, field)
	case hintCountValues:
		return fmt.Sprintf("%q has been extracted but not deduplicated; call count_values on it next.", field)
	case hintUseAggregator:
		return "the query asks for a per-group breakdown; use an aggregation tool instead of counting a single total."
	default:
		return ""
	}
}

// fieldInProgress reports whether any field has an extraction record
// yet, and returns an arbitrary one (deterministically, the
// lexicographically smallest field name) when more than one exists.
func fieldInProgress(st *querystate.State) (string, bool) {
	extractions := st.FieldExtractions()
	if len(extractions) == 0 {
		return "", false
	}
	fields := make([]string, 0, len(extractions))
	for f := range extractions {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields[0], true
}

func fieldDeduplicated(st *querystate.State, field string) bool {
	rec, ok := st.FieldExtraction(field)
	return ok && rec.IsDeduplicated
}

// matchQueryField finds an Entity Kind mentioned in the query text and
// returns one of the currently available columns belonging to that
// kind, preferring a column present in the current working set's
// header over the full Log Store field list.
func (b *Builder) matchQueryField(query string, st *querystate.State) (kind, field string, ok bool) {
	kinds := b.catalog.KindsMentioned(query)
	if len(kinds) == 0 {
		return "", "", false
	}

	header := st.AvailableFields()
	if ws := st.CurrentLogs(); ws != nil {
		header = ws.Header
	}
	grouped := b.catalog.GroupColumns(header)

	for _, k := range kinds {
		if cols, exists := grouped[k]; exists && len(cols) > 0 {
			return k, cols[0], true
		}
	}
	return "", "", false
}
