package reloc

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/reloctype"
)

func addrOf(data []byte, offset int) uintptr {
	return uintptr(unsafe.Pointer(&data[0])) + uintptr(offset)
}

func fixedResolver(table map[string]uintptr) func(interface{}, string) uintptr {
	return func(_ interface{}, name string) uintptr {
		return table[name]
	}
}

// noProtect skips the real mprotect syscall the default ProtectSection
// issues: these tests build sections out of plain heap byte slices,
// not a page-aligned mapping, so calling into the OS would fail.
func noProtect(*elfobj.Section) error { return nil }

func TestRelocateI386AbsAndPCRelative(t *testing.T) {
	text := &elfobj.Section{Name: ".text", Type: elfobj.SHT_PROGBITS, Data: make([]byte, 8)}
	sym := &elfobj.Symbol{Name: "target", Type: elfobj.STT_NOTYPE, Bind: elfobj.STB_GLOBAL, SectionIndex: elfobj.SHN_UNDEF}
	table := &elfobj.RelTable{
		Name: ".rel.text",
		Type: elfobj.SHT_REL,
		Entries: []elfobj.Relocation{
			{Offset: 0, Sym: 0, Type: reloctype.R_386_32},
			{Offset: 4, Sym: 0, Type: reloctype.R_386_PC32},
		},
	}
	obj := &elfobj.Object{
		Machine:   elfobj.EM_386,
		Sections:  []*elfobj.Section{text},
		Symbols:   []*elfobj.Symbol{sym},
		RelTables: []*elfobj.RelTable{table},
	}

	pPC := addrOf(text.Data, 4)

	const targetAddr = uintptr(0x2000)
	err := Relocate(obj, fixedResolver(map[string]uintptr{"target": targetAddr}),
		NewOptions(WithProtectSection(noProtect)))
	require.NoError(t, err)
	require.False(t, obj.MissingSymbols)

	assert.Equal(t, uint32(targetAddr), binary.LittleEndian.Uint32(text.Data[0:4]),
		"R_386_32 writes S+A with A=0")
	assert.Equal(t, uint32(uint32(targetAddr)-uint32(pPC)), binary.LittleEndian.Uint32(text.Data[4:8]),
		"R_386_PC32 writes S+A-P")
}

func TestRelocateX8664PC32UsesRelaAddend(t *testing.T) {
	text := &elfobj.Section{Name: ".text", Type: elfobj.SHT_PROGBITS, Data: make([]byte, 4)}
	sym := &elfobj.Symbol{Name: "callee", Type: elfobj.STT_NOTYPE, Bind: elfobj.STB_GLOBAL, SectionIndex: elfobj.SHN_UNDEF}
	table := &elfobj.RelTable{
		Name: ".rela.text",
		Type: elfobj.SHT_RELA,
		Entries: []elfobj.Relocation{
			{Offset: 0, Sym: 0, Type: reloctype.R_X86_64_PC32, Addend: -4},
		},
	}
	obj := &elfobj.Object{
		Machine:   elfobj.EM_X86_64,
		Sections:  []*elfobj.Section{text},
		Symbols:   []*elfobj.Symbol{sym},
		RelTables: []*elfobj.RelTable{table},
	}

	P := addrOf(text.Data, 0)
	const calleeAddr = uintptr(0x400000)
	err := Relocate(obj, fixedResolver(map[string]uintptr{"callee": calleeAddr}),
		NewOptions(WithProtectSection(noProtect)))
	require.NoError(t, err)

	expected := int32(calleeAddr) + int32(-4) - int32(P)
	assert.Equal(t, uint32(expected), binary.LittleEndian.Uint32(text.Data[0:4]))
}

func TestRelocateARMCallRoutesThroughStub(t *testing.T) {
	buf := make([]byte, 64)
	text := &elfobj.Section{Name: ".text", Type: elfobj.SHT_PROGBITS, Data: buf[0:8]}
	stubMem := buf[8:]
	stubBase := addrOf(buf, 8)

	binary.LittleEndian.PutUint32(text.Data[0:4], 0xEB000000) // BL, offset field zero

	sym := &elfobj.Symbol{Name: "extfunc", Type: elfobj.STT_NOTYPE, Bind: elfobj.STB_GLOBAL, SectionIndex: elfobj.SHN_UNDEF}
	table := &elfobj.RelTable{
		Name: ".rel.text",
		Type: elfobj.SHT_REL,
		Entries: []elfobj.Relocation{
			{Offset: 0, Sym: 0, Type: reloctype.R_ARM_CALL},
		},
	}
	obj := &elfobj.Object{
		Machine:   elfobj.EM_ARM,
		Sections:  []*elfobj.Section{text},
		Symbols:   []*elfobj.Symbol{sym},
		RelTables: []*elfobj.RelTable{table},
	}

	P := addrOf(text.Data, 0)
	const calleeAddr = uintptr(0x08000001)
	err := Relocate(obj, fixedResolver(map[string]uintptr{"extfunc": calleeAddr}),
		NewOptions(
			WithStubMemory(func(_ uintptr, _ int) ([]byte, uintptr, error) {
				return stubMem, stubBase, nil
			}),
			WithProtectSection(noProtect),
		))
	require.NoError(t, err)

	// The trampoline's literal word should hold the resolved callee address.
	assert.Equal(t, uint32(calleeAddr), binary.LittleEndian.Uint32(stubMem[4:8]))

	patched := binary.LittleEndian.Uint32(text.Data[0:4])
	assert.Equal(t, uint32(0xEB000000), patched&0xFF000000, "condition/opcode byte preserved")

	// The driver's R_ARM_CALL result is (S>>2 - P>>2 + A) stored into the
	// low 24 bits, with no separate pipeline adjustment (grounded on the
	// original's formula, carried over as-is); recovering S means
	// reversing exactly that arithmetic, not the ARM ISA's PC+8 rule.
	branchField := int32(patched&0x00FFFFFF) << 8 >> 8 // sign extend 24 bits
	target := P + uintptr(branchField)*4
	assert.Equal(t, stubBase, target, "branch target lands on the allocated stub")
}

func TestRelocateMIPSHi16Lo16Pair(t *testing.T) {
	buf := make([]byte, 64)
	text := &elfobj.Section{Name: ".text", Type: elfobj.SHT_PROGBITS, Data: buf[0:8]}
	stubMem := buf[8:]

	sym := &elfobj.Symbol{Name: "gvar", Type: elfobj.STT_NOTYPE, Bind: elfobj.STB_GLOBAL, SectionIndex: elfobj.SHN_UNDEF}
	table := &elfobj.RelTable{
		Name: ".rel.text",
		Type: elfobj.SHT_REL,
		Entries: []elfobj.Relocation{
			{Offset: 0, Sym: 0, Type: reloctype.R_MIPS_HI16},
			{Offset: 4, Sym: 0, Type: reloctype.R_MIPS_LO16},
		},
	}
	obj := &elfobj.Object{
		Machine:   elfobj.EM_MIPS,
		Sections:  []*elfobj.Section{text},
		Symbols:   []*elfobj.Symbol{sym},
		RelTables: []*elfobj.RelTable{table},
	}

	gvarAddr := uintptr(0x80012345)
	err := Relocate(obj, fixedResolver(map[string]uintptr{"gvar": gvarAddr}),
		NewOptions(
			WithStubMemory(func(_ uintptr, _ int) ([]byte, uintptr, error) {
				return stubMem, addrOf(buf, 8), nil
			}),
			WithProtectSection(noProtect),
		))
	require.NoError(t, err)

	hi := binary.LittleEndian.Uint32(text.Data[0:4]) & 0xFFFF
	lo := binary.LittleEndian.Uint32(text.Data[4:8]) & 0xFFFF

	// HI16 stores ((S+A+0x8000)>>16), LO16 stores (S+A)&0xFFFF; the
	// standard MIPS reconstruction recovers S (A is 0 here).
	reconstructed := (int32(hi) << 16) + int32(int16(uint16(lo)))
	assert.Equal(t, int32(gvarAddr), reconstructed, "HI16/LO16 pair reconstructs the absolute address")
}

func TestRelocateMIPSCall16InternsGOTEntry(t *testing.T) {
	buf := make([]byte, 64)
	text := &elfobj.Section{Name: ".text", Type: elfobj.SHT_PROGBITS, Data: buf[0:4]}
	stubMem := buf[4:]

	sym := &elfobj.Symbol{Name: "extcall", Type: elfobj.STT_NOTYPE, Bind: elfobj.STB_GLOBAL, SectionIndex: elfobj.SHN_UNDEF}
	table := &elfobj.RelTable{
		Name: ".rel.text",
		Type: elfobj.SHT_REL,
		Entries: []elfobj.Relocation{
			{Offset: 0, Sym: 0, Type: reloctype.R_MIPS_CALL16},
		},
	}
	obj := &elfobj.Object{
		Machine:   elfobj.EM_MIPS,
		Sections:  []*elfobj.Section{text},
		Symbols:   []*elfobj.Symbol{sym},
		RelTables: []*elfobj.RelTable{table},
	}

	err := Relocate(obj, fixedResolver(map[string]uintptr{"extcall": 0x80020000}),
		NewOptions(
			WithStubMemory(func(_ uintptr, _ int) ([]byte, uintptr, error) {
				return stubMem, addrOf(buf, 4), nil
			}),
			WithProtectSection(noProtect),
		))
	require.NoError(t, err)

	patched := binary.LittleEndian.Uint32(text.Data[0:4])
	assert.NotEqual(t, uint32(0), patched&0xFFFF, "GOT offset was written into the low 16 bits")
}
