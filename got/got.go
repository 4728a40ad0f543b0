// Package got implements the GOT Manager from spec.md §4.5 "GOT
// Manager contract": a single ordered, reserve-then-append table of
// word-sized entries, addressed GP-relative, used by the MIPS
// position-independent relocator for R_MIPS_GOT16/CALL16/GPREL32.
package got

import (
	"fmt"
	"unsafe"

	"github.com/eh-steve/elfreloc/elfobj"
)

// GPOffset is the fixed displacement between the GOT's base address
// and the value loaded into the GP register, chosen (conventionally
// 0x7FF0, per spec.md's GLOSSARY) so a signed 16-bit GP-relative
// displacement can reach the whole 64 KiB table.
const GPOffset = 0x7FF0

const wordSize = 4

type entry struct {
	symIndex int
	address  uintptr
	binding  elfobj.SymBind
}

// Table is the Object-owned GOT (spec.md §3: "the Object owns one
// GOT"). Entries are appended into a fixed-capacity backing buffer
// allocated up front, so Base() never changes once New has returned —
// required because R_MIPS_HI16's `_gp_disp` handling bakes an
// absolute GP address into the instruction stream the moment it is
// computed (spec.md §9), and that value would be invalidated by a
// backing-array reallocation.
type Table struct {
	buf     []byte
	base    uintptr
	entries []entry
}

// New allocates a GOT able to hold up to maxEntries word-sized slots.
// The driver currently sizes this from Options.GOTCapacity, a fixed
// default rather than a per-object pre-scan of GOT16/CALL16/GPREL32
// relocations.
func New(maxEntries int) (*Table, error) {
	if maxEntries < 0 {
		return nil, fmt.Errorf("got: negative capacity %d", maxEntries)
	}
	t := &Table{entries: make([]entry, 0, maxEntries)}
	if maxEntries > 0 {
		t.buf = make([]byte, maxEntries*wordSize)
		t.base = uintptr(unsafe.Pointer(&t.buf[0]))
	}
	return t, nil
}

// Base returns the GOT's start address (got_address() in spec.md).
func (t *Table) Base() uintptr {
	return t.base
}

// SearchGOT interns (symIndex, address, binding) and returns its
// zero-based slot index, appending a new entry only if no existing
// one matches. Per spec.md §4.5: LOCAL entries are uniqued by address
// alone (multiple local symbols resolving to the same address share a
// slot); non-LOCAL entries are additionally keyed by symIndex.
func (t *Table) SearchGOT(symIndex int, address uintptr, binding elfobj.SymBind) (int, error) {
	for i, e := range t.entries {
		if binding == elfobj.STB_LOCAL {
			if e.binding == elfobj.STB_LOCAL && e.address == address {
				return i, nil
			}
			continue
		}
		if e.symIndex == symIndex && e.address == address {
			return i, nil
		}
	}

	idx := len(t.entries)
	if idx >= cap(t.entries) {
		return 0, fmt.Errorf("got: table exhausted its %d-entry capacity", cap(t.entries))
	}
	t.entries = append(t.entries, entry{symIndex: symIndex, address: address, binding: binding})
	putWord(t.buf[idx*wordSize:], uint32(address))
	return idx, nil
}

// Len returns the number of interned entries.
func (t *Table) Len() int {
	return len(t.entries)
}

func putWord(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
