package reloc

import (
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/got"
	"github.com/eh-steve/elfreloc/reloctype"
)

// relocateMIPS26 applies R_MIPS_26 (the `j`/`jal` 26-bit word target),
// with three distinct cases carried over from the original: a plain
// local-binding branch that stays within the current 256 MiB
// segment, an external-binding branch that may need a stub if the
// target falls outside that segment, and a shared-library call
// (needStub true) that always routes through a stub.
func (c *context) relocateMIPS26(text *elfobj.Section, tableName string, rel elfobj.Relocation, sym *elfobj.Symbol, inst, A, S, P int32, needStub bool) error {
	base := uint32(inst) & 0xFC000000

	if !needStub {
		A = (A & 0x3FFFFFF) << 2
		if sym.Bind == elfobj.STB_LOCAL {
			A |= (P + 4) & -0x10000000 // segment base, mirrors the original's (P+4) & 0xF0000000
			A += S
			writeWord(text.Data, rel.Offset, c.order, base|(uint32(A>>2)&0x3FFFFFF))
			return nil
		}

		// external binding
		if A&0x08000000 != 0 { // sign extend from bit 27
			A |= -0x10000000
		}
		A += S
		result := base | (uint32(A>>2) & 0x3FFFFFF)
		writeWord(text.Data, rel.Offset, c.order, result)

		if (P+4)>>28 != A>>28 { // far call, needs a stub
			if c.mipsStubs == nil {
				return newRelocError(tableName, rel.Offset, sym.Name, rel.Type, "no stub allocator configured for far R_MIPS_26 call", nil)
			}
			stubAddr, err := c.mipsStubs.AllocateStub(uintptr(A))
			if err != nil {
				return newRelocError(tableName, rel.Offset, sym.Name, rel.Type, "allocating call stub", err)
			}
			sym.SetAddress(stubAddr)
			S = int32(stubAddr)
			if (P+4)>>28 != S>>28 {
				return newRelocError(tableName, rel.Offset, sym.Name, rel.Type, "stub is still out of segment range", nil)
			}
			writeWord(text.Data, rel.Offset, c.order, base|(uint32(S>>2)&0x3FFFFFF))
		}
		return nil
	}

	// shared-library call: always through a stub, no local addend.
	A = (A & 0x3FFFFFF) << 2
	if A != 0 {
		return newRelocError(tableName, rel.Offset, sym.Name, rel.Type, "R_MIPS_26 addend is not zero for a shared-library call", nil)
	}
	if c.mipsStubs == nil {
		return newRelocError(tableName, rel.Offset, sym.Name, rel.Type, "no stub allocator configured for R_MIPS_26 shared-library call", nil)
	}
	stubAddr, err := c.mipsStubs.AllocateStub(uintptr(S))
	if err != nil {
		return newRelocError(tableName, rel.Offset, sym.Name, rel.Type, "allocating call stub", err)
	}
	sym.SetAddress(stubAddr)
	S = int32(stubAddr)
	if (P+4)>>28 != S>>28 {
		return newRelocError(tableName, rel.Offset, sym.Name, rel.Type, "stub is out of segment range", nil)
	}
	writeWord(text.Data, rel.Offset, c.order, base|(uint32(S>>2)&0x3FFFFFF))
	return nil
}

// relocateMIPSGOT applies R_MIPS_GOT16/R_MIPS_CALL16 by interning a
// GOT entry for the (symbol, address) pair and patching in its
// GP-relative offset.
func (c *context) relocateMIPSGOT(text *elfobj.Section, table *elfobj.RelTable, i int, lo16ByTarget map[int]int, rel elfobj.Relocation, sym *elfobj.Symbol, inst, A, S int32) error {
	if c.gotTable == nil {
		return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "no GOT configured", nil)
	}

	a := A & 0xFFFF
	if rel.Type == reloctype.R_MIPS_GOT16 {
		if sym.Bind == elfobj.STB_LOCAL {
			a <<= 16
			if loOffset, ok := lo16ByTarget[i]; ok {
				lo := int32(readWord(text.Data, loOffset, c.order))
				a += int32(int16(lo & 0xFFFF))
			}
		} else if a != 0 {
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "R_MIPS_GOT16 addend is not 0", nil)
		}
	} else { // R_MIPS_CALL16
		if a != 0 {
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "R_MIPS_CALL16 addend is not 0", nil)
		}
	}

	gotIndex, err := c.gotTable.SearchGOT(rel.Sym, uintptr(S+a), sym.Bind)
	if err != nil {
		return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "interning GOT entry", err)
	}
	gotOffset := int32(gotIndex<<2) - got.GPOffset
	writeWord(text.Data, rel.Offset, c.order, (uint32(inst)&0xFFFF0000)|(uint32(gotOffset)&0xFFFF))
	return nil
}
