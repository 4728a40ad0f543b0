package got

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eh-steve/elfreloc/elfobj"
)

func TestSearchGOTLocalDedupByAddress(t *testing.T) {
	table, err := New(4)
	require.NoError(t, err)

	idx1, err := table.SearchGOT(1, 0x1000, elfobj.STB_LOCAL)
	require.NoError(t, err)
	idx2, err := table.SearchGOT(2, 0x1000, elfobj.STB_LOCAL)
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2, "two LOCAL symbols at the same address share a slot")

	idx3, err := table.SearchGOT(1, 0x2000, elfobj.STB_LOCAL)
	require.NoError(t, err)
	assert.NotEqual(t, idx1, idx3)
	assert.Equal(t, 2, table.Len(), "three SearchGOT calls, one deduped, two distinct slots")
}

func TestSearchGOTNonLocalKeyedBySymbol(t *testing.T) {
	table, err := New(4)
	require.NoError(t, err)

	idx1, err := table.SearchGOT(5, 0x800000, elfobj.STB_GLOBAL)
	require.NoError(t, err)
	assert.Equal(t, 0, idx1)

	idx2, err := table.SearchGOT(5, 0x800000, elfobj.STB_GLOBAL)
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2, "repeated call for same symbol+address returns same slot")

	idx3, err := table.SearchGOT(6, 0x800000, elfobj.STB_GLOBAL)
	require.NoError(t, err)
	assert.NotEqual(t, idx1, idx3, "different symbol at same address gets its own slot")
}

func TestSearchGOTExhaustion(t *testing.T) {
	table, err := New(1)
	require.NoError(t, err)
	_, err = table.SearchGOT(1, 0x1, elfobj.STB_GLOBAL)
	require.NoError(t, err)
	_, err = table.SearchGOT(2, 0x2, elfobj.STB_GLOBAL)
	assert.Error(t, err)
}
