package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/ilkoid/logwright/internal/querystate"
)

// guardEntry is one recorded tool dispatch, used to detect livelock:
// the same tool called with the same parameters while State never
// actually changes.
type guardEntry struct {
	toolName    string
	paramsHash  string
	stateMarker string
}

// cycleGuard tracks the last window dispatches and reports when the
// same (tool, params) combination has repeated `repeats` times within
// that window with no observed change to State.
type cycleGuard struct {
	window  int
	repeats int
	history []guardEntry
}

func newCycleGuard(window, repeats int) cycleGuard {
	if repeats <= 0 {
		repeats = 3
	}
	if window <= 0 {
		window = repeats * 2
	}
	return cycleGuard{window: window, repeats: repeats}
}

// Record appends the outcome of a dispatch and reports whether the
// guard has now tripped.
func (g *cycleGuard) Record(toolName string, params map[string]any, st *querystate.State) bool {
	entry := guardEntry{
		toolName:    toolName,
		paramsHash:  paramsHash(params),
		stateMarker: stateMarker(st),
	}
	g.history = append(g.history, entry)

	start := 0
	if len(g.history) > g.window {
		start = len(g.history) - g.window
	}
	window := g.history[start:]

	matches := 0
	for _, h := range window {
		if h.toolName == entry.toolName && h.paramsHash == entry.paramsHash && h.stateMarker == entry.stateMarker {
			matches++
		}
	}
	return matches >= g.repeats
}

// paramsHash renders params as sorted key=value pairs and hashes them,
// so parameter order and map iteration never affect the result.
func paramsHash(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, params[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// stateMarker fingerprints the parts of State the guard cares about:
// the identity of the current working set (a new one is a different
// pointer) and a hash of the last non-tabular result.
func stateMarker(st *querystate.State) string {
	ws := st.CurrentLogs()
	last, dataType := st.LastResult()

	h := sha256.New()
	fmt.Fprintf(h, "logs=%p;", ws)
	fmt.Fprintf(h, "result_type=%s;", dataType)
	fmt.Fprintf(h, "result=%v;", last)
	return hex.EncodeToString(h.Sum(nil))
}
