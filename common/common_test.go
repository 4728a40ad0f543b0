package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveDisjointAndAligned(t *testing.T) {
	a := New()
	require.NoError(t, a.Init(256))
	require.NotZero(t, a.Base())

	addr1, err := a.Reserve(10, 1)
	require.NoError(t, err)
	assert.Equal(t, a.Base(), addr1)

	addr2, err := a.Reserve(20, 16)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), uint64(addr2-a.Base())%16, "second reservation must be 16-byte aligned")
	assert.GreaterOrEqual(t, uint64(addr2), uint64(addr1)+10, "reservations must not overlap")

	addr3, err := a.Reserve(4, 4)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, uint64(addr3), uint64(addr2)+20)
}

func TestReserveOverflowFails(t *testing.T) {
	a := New()
	require.NoError(t, a.Init(8))
	_, err := a.Reserve(16, 1)
	assert.Error(t, err)
}

func TestInitZeroIsNoop(t *testing.T) {
	a := New()
	require.NoError(t, a.Init(0))
	assert.Zero(t, a.Base())
}
