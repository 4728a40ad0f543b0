package stub

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateStubIdempotent(t *testing.T) {
	mem := make([]byte, 64)
	a := New(ARM, mem, 0x1000, binary.LittleEndian)

	addr1, err := a.AllocateStub(0xDEAD0000)
	require.NoError(t, err)
	addr2, err := a.AllocateStub(0xDEAD0000)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2, "repeated AllocateStub for same target returns same address")

	addr3, err := a.AllocateStub(0xBEEF0000)
	require.NoError(t, err)
	assert.NotEqual(t, addr1, addr3)
}

func TestARMStubEncodesLiteralLoad(t *testing.T) {
	mem := make([]byte, 16)
	a := New(ARM, mem, 0x2000, binary.LittleEndian)
	addr, err := a.AllocateStub(0x12345678)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x2000), addr)
	assert.Equal(t, uint32(0xE51FF004), binary.LittleEndian.Uint32(mem[0:4]))
	assert.Equal(t, uint32(0x12345678), binary.LittleEndian.Uint32(mem[4:8]))
}

func TestMIPSStubEncodesLuiOriJr(t *testing.T) {
	mem := make([]byte, 32)
	a := New(MIPS, mem, 0x4000, binary.LittleEndian)
	addr, err := a.AllocateStub(0x80010000)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x4000), addr)
	lui := binary.LittleEndian.Uint32(mem[0:4])
	ori := binary.LittleEndian.Uint32(mem[4:8])
	jr := binary.LittleEndian.Uint32(mem[8:12])
	assert.Equal(t, uint32(0x80010000>>16), lui&0xFFFF)
	assert.Equal(t, uint32(0x80010000&0xFFFF), ori&0xFFFF)
	assert.Equal(t, uint32(0x03200008), jr)
}

func TestAllocateStubOutOfMemory(t *testing.T) {
	mem := make([]byte, 8)
	a := New(ARM, mem, 0x1000, binary.LittleEndian)
	_, err := a.AllocateStub(0x1)
	require.NoError(t, err)
	_, err = a.AllocateStub(0x2)
	assert.Error(t, err)
}
