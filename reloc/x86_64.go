package reloc

import (
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/reloctype"
)

// relocateX8664 applies R_X86_64_64/PC32/32/32S. Unlike i386, the
// addend comes from the RELA entry itself rather than being read out
// of the instruction stream, and R_X86_64_64 is a full 64-bit
// absolute write (the original C++ truncated this to 32 bits; see the
// module's Open Question decision on R_X86_64_64).
func (c *context) relocateX8664(text *elfobj.Section, table *elfobj.RelTable) error {
	for _, rel := range table.Entries {
		sym := c.symbolAt(rel.Sym)
		if sym == nil {
			return newRelocError(table.Name, rel.Offset, "", rel.Type, "symbol table index out of range", nil)
		}

		S := int64(resolveSymbol(sym, elfobj.EM_X86_64, c.resolver, &c.obj.MissingSymbols))
		A := rel.Addend

		switch rel.Type {
		case reloctype.R_X86_64_64:
			if rel.Offset < 0 || rel.Offset+8 > len(text.Data) {
				return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "offset out of section bounds", nil)
			}
			c.order.PutUint64(text.Data[rel.Offset:rel.Offset+8], uint64(S+A))

		case reloctype.R_X86_64_PC32:
			if rel.Offset < 0 || rel.Offset+4 > len(text.Data) {
				return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "offset out of section bounds", nil)
			}
			P := int64(c.textAddr(text) + uintptr(rel.Offset))
			writeWord(text.Data, rel.Offset, c.order, uint32(int32(S+A-P)))

		case reloctype.R_X86_64_32, reloctype.R_X86_64_32S:
			if rel.Offset < 0 || rel.Offset+4 > len(text.Data) {
				return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "offset out of section bounds", nil)
			}
			writeWord(text.Data, rel.Offset, c.order, uint32(int32(S+A)))

		default:
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "unsupported x86-64 relocation type", nil)
		}
		c.trace(table.Name, rel, sym, int32(S), int32(A), 0)
	}
	return nil
}
