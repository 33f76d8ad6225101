package logtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/logwright/internal/entitycatalog"
	"github.com/ilkoid/logwright/internal/logmodel"
)

const relationshipLog = `timestamp,level,payload
2026-01-01T00:00:00Z,INFO,"2026-01-01T00:00:00Z INFO {""CpeMacAddress"":""2c:ab:a4:47:1a:d2"",""CmMacAddress"":""2c:ab:a4:47:1a:d0""}"
2026-01-01T00:00:01Z,INFO,"2026-01-01T00:00:01Z INFO {""CmMacAddress"":""2c:ab:a4:47:1a:d0"",""MdId"":""0x7a030000""}"
2026-01-01T00:00:02Z,INFO,"2026-01-01T00:00:02Z INFO {""CmMacAddress"":""2c:ab:a4:47:1a:d1"",""MdId"":""0x7a030001""}"
`

func testCatalogForRelationship() *entitycatalog.Catalog {
	return entitycatalog.New(entitycatalog.Config{
		Aliases: map[string][]string{
			"cpe":         {"cpe", "CpeMacAddress"},
			"cable_modem": {"modem", "CmMacAddress"},
			"md":          {"md", "MdId"},
		},
		Relationships: map[string][]string{
			"cpe":         {"cable_modem"},
			"cable_modem": {"cpe", "md"},
		},
	})
}

func TestFindRelationshipChainTool_WalksTwoHops(t *testing.T) {
	store := openTestStore(t, relationshipLog)
	catalog := testCatalogForRelationship()
	tool := NewFindRelationshipChainTool(store, catalog)

	res, err := tool.Execute(context.Background(), map[string]any{
		"start_value":  "2c:ab:a4:47:1a:d2",
		"target_field": "MdId",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	chain := res.Data.(logmodel.RelationshipChain)
	assert.True(t, chain.Found)
	assert.Equal(t, "0x7a030000", chain.TargetValue)
	assert.Equal(t, 2, chain.Depth)
}

func TestFindRelationshipChainTool_RequiresParams(t *testing.T) {
	store := openTestStore(t, relationshipLog)
	catalog := testCatalogForRelationship()
	tool := NewFindRelationshipChainTool(store, catalog)

	res, err := tool.Execute(context.Background(), map[string]any{"start_value": "x"})
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestFindRelationshipChainTool_ClampsMaxDepth(t *testing.T) {
	store := openTestStore(t, relationshipLog)
	catalog := testCatalogForRelationship()
	tool := NewFindRelationshipChainTool(store, catalog)

	res, err := tool.Execute(context.Background(), map[string]any{
		"start_value":  "2c:ab:a4:47:1a:d2",
		"target_field": "MdId",
		"max_depth":    100,
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestCountViaRelationshipTool_ReportsCoverage(t *testing.T) {
	store := openTestStore(t, relationshipLog)
	catalog := testCatalogForRelationship()
	tool := NewCountViaRelationshipTool(store, catalog)

	res, err := tool.Execute(context.Background(), map[string]any{
		"source_field": "CmMacAddress",
		"target_field": "MdId",
	})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Contains(t, res.Message, "mapped")
}
