package reloc

import (
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/reloctype"
)

// relocateI386 applies R_386_32/R_386_PC32, the two absolute/relative
// word patches of the i386 psABI.
func (c *context) relocateI386(text *elfobj.Section, table *elfobj.RelTable) error {
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
		A := inst
		S := int32(resolveSymbol(sym, elfobj.EM_386, c.resolver, &c.obj.MissingSymbols))

		var result int32
		switch rel.Type {
		case reloctype.R_386_PC32:
			result = S + A - P
		case reloctype.R_386_32:
			result = S + A
		default:
			return newRelocError(table.Name, rel.Offset, sym.Name, rel.Type, "unsupported i386 relocation type", nil)
		}
		writeWord(text.Data, rel.Offset, c.order, uint32(result))
		c.trace(table.Name, rel, sym, S, A, P)
	}
	return nil
}
