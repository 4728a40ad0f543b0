package reloc

import (
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/resolve"
)

// resolveSymbol returns sym's address, calling the host resolver
// only while sym has no nonzero address and caching the result on
// sym. A resolver result of 0 is cached as 0, so the resolver is asked
// again on the symbol's next use. This is the "S == 0 -> find_sym"
// pattern shared by all four relocators; ARM and MIPS decide for
// themselves when to call it (R_ARM_CALL requires STT_FUNC symbols to
// be resolved already, and MIPS skips the virtual `_gp_disp`).
func resolveSymbol(sym *elfobj.Symbol, machine elfobj.Machine, resolver resolve.FindSymbolFunc, missing *bool) uintptr {
	if addr := sym.Address(machine); addr != 0 {
		return addr
	}
	// The driver itself carries no notion of "context": a caller that
	// needs one closes over it when constructing the FindSymbolFunc
	// value, the same way resolve.Table.Find ignores it.
	addr := resolver(nil, sym.Name)
	if addr == 0 {
		*missing = true
	}
	sym.SetAddress(addr)
	return addr
}
