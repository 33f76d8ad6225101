package logtools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/logwright/internal/logmodel"
	"github.com/ilkoid/logwright/internal/logstore"
)

func writeTestLog(t *testing.T, rows string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "log.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0644))
	return path
}

const modemLog = `timestamp,level,payload
2026-01-01T00:00:00Z,INFO,"2026-01-01T00:00:00Z INFO {""CmMacAddress"":""2c:ab:a4:47:1a:d0""}"
2026-01-01T00:00:01Z,ERROR,"2026-01-01T00:00:01Z ERROR {""CmMacAddress"":""2c:ab:a4:47:1a:d0""}"
2026-01-01T00:00:02Z,INFO,"2026-01-01T00:00:02Z INFO {""CmMacAddress"":""2c:ab:a4:47:1a:d1""}"
`

func openTestStore(t *testing.T, rows string) *logstore.Store {
	t.Helper()
	s, err := logstore.Open(writeTestLog(t, rows), "payload", 0)
	require.NoError(t, err)
	return s
}

func TestGrepLogsTool_FindsMatches(t *testing.T) {
	tool := NewGrepLogsTool(openTestStore(t, modemLog))
	res, err := tool.Execute(context.Background(), map[string]any{"pattern": "ERROR"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	ws := res.Data.(*logmodel.WorkingSet)
	assert.Len(t, ws.Rows, 1)
}

func TestGrepLogsTool_RequiresPattern(t *testing.T) {
	tool := NewGrepLogsTool(openTestStore(t, modemLog))
	res, err := tool.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestGrepAndParseTool_ExtractsUniqueValues(t *testing.T) {
	tool := NewGrepAndParseTool(openTestStore(t, modemLog))
	res, err := tool.Execute(context.Background(), map[string]any{
		"pattern":     "CmMacAddress",
		"field_name":  "CmMacAddress",
		"unique_only": true,
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"2c:ab:a4:47:1a:d0", "2c:ab:a4:47:1a:d1"}, res.Data)
}

func TestGrepAndParseTool_RawKeepsDuplicates(t *testing.T) {
	tool := NewGrepAndParseTool(openTestStore(t, modemLog))
	res, err := tool.Execute(context.Background(), map[string]any{
		"pattern":    "CmMacAddress",
		"field_name": "CmMacAddress",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2c:ab:a4:47:1a:d0", "2c:ab:a4:47:1a:d0", "2c:ab:a4:47:1a:d1"}, res.Data)
}
