// Package querystate holds per-query mutable state: the current
// working set, the last non-tabular result, field-extraction tracking,
// tool history, and the iteration counter.
//
// State is owned exclusively by the orchestrator (single-writer); tools
// and the summarizer read snapshots or return values that the
// orchestrator commits via UpdateFromResult. All accessors are
// synchronized so a State can be inspected from a concurrent
// diagnostic/observer goroutine without racing the writer.
package querystate

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ilkoid/logwright/internal/logmodel"
)

// DefaultSummaryThreshold is the default row count above which tabular
// output also gets a Smart Summarizer pass stored in CurrentSummary.
const DefaultSummaryThreshold = 50

// State is per-query memory. Create one with New per incoming query and
// discard it when the query returns.
type State struct {
	mu sync.RWMutex

	queryID         uuid.UUID
	availableFields []string
	summaryThreshold int

	currentLogs     *logmodel.WorkingSet
	logSamples      []logmodel.LogRow
	lastResult      any
	lastResultType  logmodel.DataType
	fieldExtractions map[string]logmodel.FieldExtraction
	toolHistory     []logmodel.ToolHistoryEntry
	iteration       int
	currentSummary  string
}

// New creates an empty State for one query. availableFields is the Log
// Store's header, captured once at query start.
func New(availableFields []string, summaryThreshold int) *State {
	if summaryThreshold <= 0 {
		summaryThreshold = DefaultSummaryThreshold
	}
	return &State{
		queryID:          uuid.New(),
		availableFields:  append([]string(nil), availableFields...),
		summaryThreshold: summaryThreshold,
		fieldExtractions: make(map[string]logmodel.FieldExtraction),
	}
}

// QueryID returns the id generated for this query when New built it.
// The orchestrator logs it when the query starts and finishes, so the
// log lines of concurrent queries can be told apart. Tool-history
// entries and emitted events do not carry it.
func (s *State) QueryID() uuid.UUID {
	return s.queryID
}

// AvailableFields returns the Log Store's column names.
func (s *State) AvailableFields() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.availableFields...)
}

// CurrentLogs returns the active working set, or nil if none.
func (s *State) CurrentLogs() *logmodel.WorkingSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentLogs
}

// LogSamples returns up to two raw rows captured when CurrentLogs was
// first populated, used by the Context Builder's built-in summary.
func (s *State) LogSamples() []logmodel.LogRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]logmodel.LogRow(nil), s.logSamples...)
}

// LastResult returns the most recent non-tabular tool output and its
// data type.
func (s *State) LastResult() (any, logmodel.DataType) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult, s.lastResultType
}

// FieldExtraction returns the tracked extraction record for fieldName
// (case-sensitive key, callers should pass the canonical column name).
func (s *State) FieldExtraction(fieldName string) (logmodel.FieldExtraction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.fieldExtractions[fieldName]
	return rec, ok
}

// FieldExtractions returns a copy of the full field-extraction table.
func (s *State) FieldExtractions() map[string]logmodel.FieldExtraction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]logmodel.FieldExtraction, len(s.fieldExtractions))
	for k, v := range s.fieldExtractions {
		out[k] = v
	}
	return out
}

// ToolHistory returns the append-only history of tool invocations so far.
func (s *State) ToolHistory() []logmodel.ToolHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]logmodel.ToolHistoryEntry(nil), s.toolHistory...)
}

// Iteration returns the current 0-based iteration counter.
func (s *State) Iteration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.iteration
}

// CurrentSummary returns the Smart Summarizer's last output, or "" if
// none has been produced yet.
func (s *State) CurrentSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSummary
}

// BeginIteration increments the iteration counter and returns the new
// value. The orchestrator calls this exactly once per loop pass.
func (s *State) BeginIteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iteration++
	return s.iteration
}

// RecordHistory appends one history entry. Every tool invocation,
// successful or not, appends exactly one entry.
func (s *State) RecordHistory(entry logmodel.ToolHistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Iteration = s.iteration
	s.toolHistory = append(s.toolHistory, entry)
}

// UpdateOptions carries everything UpdateFromResult needs beyond the
// ToolResult itself.
type UpdateOptions struct {
	// FieldName, when non-empty, names the field a raw_values/unique_values
	// result was extracted from, so the field-extraction record can be
	// updated.
	FieldName string
	// Summarize is called to produce a Smart Summarizer summary when
	// tabular output exceeds the configured threshold. Kept as a
	// callback so State has no import-time dependency on the
	// summarizer package.
	Summarize func(ws *logmodel.WorkingSet) string
}

// UpdateFromResult applies a tool's ToolResult to State per the update
// rules: tabular output replaces CurrentLogs (and is summarized above
// the row threshold); non-tabular output replaces LastResult and may
// update a field-extraction record. CurrentLogs is left untouched by
// non-tabular updates.
func (s *State) UpdateFromResult(result logmodel.ToolResult, opts UpdateOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch result.DataType {
	case logmodel.DataRawLogs:
		ws, ok := result.Data.(*logmodel.WorkingSet)
		if !ok || ws == nil {
			return
		}
		first := s.currentLogs == nil
		s.currentLogs = ws
		if first {
			n := len(ws.Rows)
			if n > 2 {
				n = 2
			}
			s.logSamples = append([]logmodel.LogRow(nil), ws.Rows[:n]...)
		}
		if len(ws.Rows) > s.summaryThreshold && opts.Summarize != nil {
			s.currentSummary = opts.Summarize(ws)
		} else {
			s.currentSummary = ""
		}

	case logmodel.DataRawValues, logmodel.DataUniqueValues:
		s.lastResult = result.Data
		s.lastResultType = result.DataType
		if opts.FieldName != "" {
			values, _ := result.Data.([]string)
			rec := s.fieldExtractions[opts.FieldName]
			if result.DataType == logmodel.DataRawValues {
				rec.RawCount = len(values)
				rec.IsDeduplicated = false
				rec.UniqueCount = nil
			} else {
				rec.IsDeduplicated = true
				n := len(values)
				rec.UniqueCount = &n
			}
			s.fieldExtractions[opts.FieldName] = rec
		}

	default:
		s.lastResult = result.Data
		s.lastResultType = result.DataType
	}
}
