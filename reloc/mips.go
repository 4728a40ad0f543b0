package reloc

import (
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/got"
	"github.com/eh-steve/elfreloc/reloctype"
)

// relocateMIPS applies the MIPS32 O32 relocation types this module
// covers: R_MIPS_16/32/26, the HI16/LO16 pair (including the
// synthetic `_gp_disp` symbol used by position-independent code to
// recover the GP register), GOT16/CALL16 (via the GOT Manager) and
// GPREL32.
func (c *context) relocateMIPS(text *elfobj.Section, table *elfobj.RelTable) error {
	lo16ByTarget := buildLo16Index(table)

	for i := range table.Entries {
		rel := table.Entries[i]
		sym := c.symbolAt(rel.Sym)
		if sym == nil {
			return newRelocError(table.Name, rel.Offset, "", rel.Type, "symbol table index out of range", nil)
		}
		if rel.Offset < 0 || rel.Offset+4 > len(text.Data) {
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "offset out of section bounds", nil)
		}

		inst := int32(readWord(text.Data, rel.Offset, c.order))
		P := int32(c.textAddr(text) + uintptr(rel.Offset))
		A := inst
		S := int32(sym.Address(elfobj.EM_MIPS))

		needStub := false
		if S == 0 && sym.Name != reloctype.GPDispSymbol {
			needStub = true
			S = int32(resolveSymbol(sym, elfobj.EM_MIPS, c.resolver, &c.obj.MissingSymbols))
		}

		switch rel.Type {
		case reloctype.R_MIPS_NONE, reloctype.R_MIPS_JALR:
			// no-op

		case reloctype.R_MIPS_16:
			a := S + int32(int16(A&0xFFFF))
			if a < -32768 || a > 32767 {
				return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "R_MIPS_16 overflow", nil)
			}
			writeWord(text.Data, rel.Offset, c.order, (uint32(inst)&0xFFFF0000)|(uint32(a)&0xFFFF))

		case reloctype.R_MIPS_32:
			writeWord(text.Data, rel.Offset, c.order, uint32(S+A))

		case reloctype.R_MIPS_26:
			if err := c.relocateMIPS26(text, table.Name, rel, sym, inst, A, S, P, needStub); err != nil {
				return err
			}

		case reloctype.R_MIPS_HI16:
			a := (A & 0xFFFF) << 16
			if loOffset, ok := lo16ByTarget[i]; ok {
				lo := int32(readWord(text.Data, loOffset, c.order))
				a += int32(int16(lo & 0xFFFF))
			}
			if sym.Name == reloctype.GPDispSymbol {
				S = int32(c.gotTable.Base()) + got.GPOffset - P
				sym.SetAddress(uintptr(S))
			}
			result := uint32(S+a+0x8000) >> 16 & 0xFFFF
			writeWord(text.Data, rel.Offset, c.order, (uint32(inst)&0xFFFF0000)|result)

		case reloctype.R_MIPS_LO16:
			a := A & 0xFFFF
			if sym.Name == reloctype.GPDispSymbol {
				S = int32(sym.Address(elfobj.EM_MIPS))
			}
			writeWord(text.Data, rel.Offset, c.order, (uint32(inst)&0xFFFF0000)|(uint32(S+a)&0xFFFF))

		case reloctype.R_MIPS_GOT16, reloctype.R_MIPS_CALL16:
			if err := c.relocateMIPSGOT(text, table, i, lo16ByTarget, rel, sym, inst, A, S); err != nil {
				return err
			}

		case reloctype.R_MIPS_GPREL32:
			writeWord(text.Data, rel.Offset, c.order, uint32(A+S-(int32(c.gotTable.Base())+got.GPOffset)))

		default:
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "unsupported MIPS relocation type", nil)
		}
		c.trace(table.Name, rel, sym, S, A, P)
	}
	return nil
}

// buildLo16Index scans a relocation table once and maps every entry's
// index to the section offset of the nearest following R_MIPS_LO16
// entry targeting the same symbol (used by both R_MIPS_HI16 and the
// local-binding case of R_MIPS_GOT16), per the original's "nearest
// LO16 after this entry" pairing rule. Built once per table rather
// than re-scanned per HI16/GOT16 entry.
func buildLo16Index(table *elfobj.RelTable) map[int]int {
	index := make(map[int]int)
	lastLO16 := make(map[int]int)
	for j := len(table.Entries) - 1; j >= 0; j-- {
		entry := table.Entries[j]
		if offset, ok := lastLO16[entry.Sym]; ok {
			index[j] = offset
		}
		if entry.Type == reloctype.R_MIPS_LO16 {
			lastLO16[entry.Sym] = entry.Offset
		}
	}
	return index
}
