package entitycatalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() Config {
	return Config{
		Aliases: map[string][]string{
			"cable_modem": {"CmMacAddress", "cable modem", "modem"},
			"cpe":         {"CpeMacAddress", "cpe", "customer premise equipment"},
		},
		Patterns: map[string][]string{
			"cable_modem": {`[0-9a-f]{2}(:[0-9a-f]{2}){5}`},
		},
		Relationships: map[string][]string{
			"cpe":         {"cable_modem"},
			"cable_modem": {"rpd"},
		},
	}
}

func TestKindOf_CaseInsensitive(t *testing.T) {
	c := New(sampleConfig())
	kind, ok := c.KindOf("cpemacaddress")
	require.True(t, ok)
	assert.Equal(t, "cpe", kind)
}

func TestKindOf_Unknown(t *testing.T) {
	c := New(sampleConfig())
	_, ok := c.KindOf("NotAField")
	assert.False(t, ok)
}

func TestKindsMentioned_WholeWordOnly(t *testing.T) {
	c := New(sampleConfig())
	found := c.KindsMentioned("find the cable modem for this cpe")
	assert.ElementsMatch(t, []string{"cable_modem", "cpe"}, found)
}

func TestKindsMentioned_NoPartialMatch(t *testing.T) {
	c := New(sampleConfig())
	found := c.KindsMentioned("modemology is not a real word")
	assert.Empty(t, found)
}

func TestNeighbors(t *testing.T) {
	c := New(sampleConfig())
	assert.Equal(t, []string{"cable_modem"}, c.Neighbors("cpe"))
	assert.Nil(t, c.Neighbors("unknown_kind"))
}

func TestPatterns_SkipsInvalidRegex(t *testing.T) {
	cfg := sampleConfig()
	cfg.Patterns["broken"] = []string{"[invalid"}
	c := New(cfg)
	assert.Empty(t, c.Patterns("broken"))
	assert.Len(t, c.Patterns("cable_modem"), 1)
}

func TestGroupColumns_PreservesOrderAndBucketsOther(t *testing.T) {
	c := New(sampleConfig())
	groups := c.GroupColumns([]string{"timestamp", "CpeMacAddress", "level", "CmMacAddress"})
	assert.Equal(t, []string{"CpeMacAddress"}, groups["cpe"])
	assert.Equal(t, []string{"CmMacAddress"}, groups["cable_modem"])
	assert.Equal(t, []string{"timestamp", "level"}, groups["other"])
}

func TestGroupColumns_NoOtherBucketWhenAllMatched(t *testing.T) {
	c := New(sampleConfig())
	groups := c.GroupColumns([]string{"CpeMacAddress"})
	_, hasOther := groups["other"]
	assert.False(t, hasOther)
}
