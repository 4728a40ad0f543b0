package reloc

import (
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/reloctype"
)

// relocateARM applies R_ARM_ABS32, R_ARM_CALL (always branching to a
// Stub Allocator trampoline for the callee, which must itself lie
// within the ±32 MiB branch range), and the
// R_ARM_MOVW_ABS_NC/R_ARM_MOVT_ABS pair used to
// materialize a 32-bit absolute address across two 16-bit immediates.
func (c *context) relocateARM(text *elfobj.Section, table *elfobj.RelTable) error {
	for _, rel := range table.Entries {
		sym := c.symbolAt(rel.Sym)
		if sym == nil {
			return newRelocError(table.Name, rel.Offset, "", rel.Type, "symbol table index out of range", nil)
		}
		if rel.Offset < 0 || rel.Offset+4 > len(text.Data) {
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "offset out of section bounds", nil)
		}

		inst := int32(readWord(text.Data, rel.Offset, c.order))
		P := int32(c.textAddr(text) + uintptr(rel.Offset))

		switch rel.Type {
		case reloctype.R_ARM_ABS32:
			A := inst
			S := int32(resolveSymbol(sym, elfobj.EM_ARM, c.resolver, &c.obj.MissingSymbols))
			writeWord(text.Data, rel.Offset, c.order, uint32(S+A))

		case reloctype.R_ARM_CALL:
			A := signExtend(inst&0xFFFFFF, 24)

			var calleeAddr uintptr
			switch sym.Type {
			case elfobj.STT_FUNC:
				calleeAddr = sym.Address(elfobj.EM_ARM)
				if calleeAddr == 0 {
					return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type,
						"STT_FUNC symbol has no resolved address", nil)
				}
			default: // STT_NOTYPE: external function
				calleeAddr = resolveSymbol(sym, elfobj.EM_ARM, c.resolver, &c.obj.MissingSymbols)
			}

			if c.armStubs == nil {
				return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "no stub allocator configured for R_ARM_CALL", nil)
			}
			stubAddr, err := c.armStubs.AllocateStub(calleeAddr)
			if err != nil {
				return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "allocating call stub", err)
			}
			S := int32(stubAddr)

			result := uint32(S>>2) - uint32(P>>2) + uint32(A)
			if result > 0x007fffff && result < 0xff800000 {
				return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "stub is still out of branch range", nil)
			}
			writeWord(text.Data, rel.Offset, c.order, (result&0x00FFFFFF)|(uint32(inst)&0xFF000000))

		case reloctype.R_ARM_MOVW_ABS_NC, reloctype.R_ARM_MOVT_ABS:
			S := int32(sym.Address(elfobj.EM_ARM))
			if S == 0 && sym.Type == elfobj.STT_NOTYPE {
				S = int32(resolveSymbol(sym, elfobj.EM_ARM, c.resolver, &c.obj.MissingSymbols))
			}
			if rel.Type == reloctype.R_ARM_MOVT_ABS {
				S >>= 16
			}
			A := ((inst & 0xF0000) >> 4) | (inst & 0xFFF)
			result := uint32(S + A)
			writeWord(text.Data, rel.Offset, c.order,
				((result&0xF000)<<4)|(result&0xFFF)|(uint32(inst)&0xFFF0F000))

		default:
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "unsupported ARM relocation type", nil)
		}
		c.trace(table.Name, rel, sym, 0, 0, P)
	}
	return nil
}

// signExtend sign-extends the low bits-wide field of x to a full
// int32, the ARM branch-offset and MIPS bit-27 idiom shared by
// R_ARM_CALL and R_MIPS_26.
func signExtend(x int32, bits uint) int32 {
	shift := 32 - bits
	return (x << shift) >> shift
}
