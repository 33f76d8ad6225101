package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/querystate"
)

func TestCycleGuard_TripsOnRepeatedToolWithNoStateChange(t *testing.T) {
	guard := newCycleGuard(5, 3)
	st := querystate.New([]string{"payload"}, 50)
	params := map[string]any{"pattern": "ERROR"}

	assert.False(t, guard.Record("grep_logs", params, st))
	assert.False(t, guard.Record("grep_logs", params, st))
	assert.True(t, guard.Record("grep_logs", params, st))
}

func TestCycleGuard_DoesNotTripWhenParamsDiffer(t *testing.T) {
	guard := newCycleGuard(5, 3)
	st := querystate.New([]string{"payload"}, 50)

	assert.False(t, guard.Record("grep_logs", map[string]any{"pattern": "ERROR"}, st))
	assert.False(t, guard.Record("grep_logs", map[string]any{"pattern": "WARN"}, st))
	assert.False(t, guard.Record("grep_logs", map[string]any{"pattern": "ERROR"}, st))
}

func TestCycleGuard_DoesNotTripWhenStateChanges(t *testing.T) {
	guard := newCycleGuard(5, 3)
	st := querystate.New([]string{"payload"}, 50)
	params := map[string]any{"pattern": "ERROR"}

	assert.False(t, guard.Record("grep_logs", params, st))

	ws := &logmodel.WorkingSet{Header: []string{"payload"}, Rows: []logmodel.LogRow{{Header: []string{"payload"}, Values: []string{"x"}}}}
	st.UpdateFromResult(logmodel.ToolResult{OK: true, DataType: logmodel.DataRawLogs, Data: ws}, querystate.UpdateOptions{})
	assert.False(t, guard.Record("grep_logs", params, st))

	assert.False(t, guard.Record("grep_logs", params, st))
}

func TestCycleGuard_WindowSlidesOutOldEntries(t *testing.T) {
	guard := newCycleGuard(2, 2)
	st := querystate.New([]string{"payload"}, 50)
	params := map[string]any{"pattern": "ERROR"}

	assert.False(t, guard.Record("grep_logs", params, st))
	assert.False(t, guard.Record("other_tool", map[string]any{"n": 1}, st))
	assert.False(t, guard.Record("other_tool", map[string]any{"n": 2}, st))
	// The first grep_logs call is outside the 2-entry window by now.
	assert.False(t, guard.Record("grep_logs", params, st))
}

func TestParamsHash_IsOrderIndependent(t *testing.T) {
	a := paramsHash(map[string]any{"x": 1, "y": "z"})
	b := paramsHash(map[string]any{"y": "z", "x": 1})
	assert.Equal(t, a, b)
}

func TestParamsHash_DiffersOnValueChange(t *testing.T) {
	a := paramsHash(map[string]any{"pattern": "ERROR"})
	b := paramsHash(map[string]any{"pattern": "WARN"})
	assert.NotEqual(t, a, b)
}
