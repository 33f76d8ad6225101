package logtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/logwright/internal/logmodel"
)

func wsFromRows(header []string, rows ...[]string) *logmodel.WorkingSet {
	ws := &logmodel.WorkingSet{Header: header}
	for _, r := range rows {
		ws.Rows = append(ws.Rows, logmodel.LogRow{Header: header, Values: r})
	}
	return ws
}

func TestExtractField_CaseInsensitiveKeyLookup(t *testing.T) {
	ws := wsFromRows([]string{"payload"},
		[]string{`{"cmmacaddress":"2c:ab:a4:47:1a:d0"}`},
	)
	values, err := extractField(ws, "payload", "CmMacAddress")
	require.NoError(t, err)
	assert.Equal(t, []string{"2c:ab:a4:47:1a:d0"}, values)
}

func TestExtractField_SkipsRowsMissingField(t *testing.T) {
	ws := wsFromRows([]string{"payload"},
		[]string{`{"CmMacAddress":"a"}`},
		[]string{`{"other":"b"}`},
	)
	values, err := extractField(ws, "payload", "CmMacAddress")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, values)
}

func TestParseJSONFieldTool_RequiresLogs(t *testing.T) {
	tool := NewParseJSONFieldTool("payload")
	res, err := tool.Execute(context.Background(), map[string]any{"field_name": "CmMacAddress"})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestParseJSONFieldTool_ReturnsValuesWithDuplicates(t *testing.T) {
	tool := NewParseJSONFieldTool("payload")
	ws := wsFromRows([]string{"payload"},
		[]string{`{"CmMacAddress":"a"}`},
		[]string{`{"CmMacAddress":"a"}`},
	)
	res, err := tool.Execute(context.Background(), map[string]any{"field_name": "CmMacAddress", "logs": ws})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, []string{"a", "a"}, res.Data)
	assert.Equal(t, logmodel.DataRawValues, res.DataType)
}
