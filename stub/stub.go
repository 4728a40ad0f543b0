// Package stub implements the Stub Allocator from spec.md §4.5's "Stub
// Allocator contract": small, executable far-call trampolines placed
// within branch range of the text section they serve, with
// allocation idempotent on target address.
//
// Only ARM (R_ARM_CALL) and MIPS (R_MIPS_26) relocators in this module
// ever need a stub; i386 and x86-64's PC32/32/64 relocations have no
// branch-range limit this module models, so they never call into this
// package (spec.md §4.3, §4.4 name no stub usage).
package stub

import (
	"encoding/binary"
	"fmt"
)

// Arch selects the trampoline encoding AllocateStub emits.
type Arch int

const (
	ARM Arch = iota
	MIPS
)

// EntrySize is the fixed stub size for each supported architecture:
// an 8-byte PC-relative literal load on ARM (`LDR PC, [PC, #-4]` plus
// the absolute target word), and a 16-byte lui/ori/jr/nop sequence on
// MIPS through register $t9 (register 25), the MIPO32 ABI's
// conventional PIC call-through register.
func EntrySize(arch Arch) int {
	switch arch {
	case ARM:
		return 8
	case MIPS:
		return 16
	default:
		return 0
	}
}

// Allocator places fixed-size trampolines into a caller-provided
// executable buffer (obtained from mmap, positioned near the owning
// text section so every stub lands within that architecture's branch
// range), one per distinct target address.
type Allocator struct {
	arch      Arch
	byteOrder binary.ByteOrder
	mem       []byte
	base      uintptr
	offset    int
	byTarget  map[uintptr]uintptr
}

// New wraps a pre-allocated executable buffer whose start address is
// base. byteOrder matches the target's endianness (spec.md §9: all
// four architectures here are little-endian in practice).
func New(arch Arch, mem []byte, base uintptr, byteOrder binary.ByteOrder) *Allocator {
	return &Allocator{
		arch:      arch,
		byteOrder: byteOrder,
		mem:       mem,
		base:      base,
		byTarget:  make(map[uintptr]uintptr),
	}
}

// AllocateStub returns the address of a trampoline jumping to target,
// allocating one if this is the first request for that target within
// this Allocator (idempotence required by spec.md §4.5/§8).
func (a *Allocator) AllocateStub(target uintptr) (uintptr, error) {
	if addr, ok := a.byTarget[target]; ok {
		return addr, nil
	}

	size := EntrySize(a.arch)
	if size == 0 {
		return 0, fmt.Errorf("stub: unsupported architecture %d", a.arch)
	}
	if a.offset+size > len(a.mem) {
		return 0, fmt.Errorf("stub: out of stub memory (need %d more bytes, %d available)",
			a.offset+size-len(a.mem), len(a.mem)-a.offset)
	}

	addr := a.base + uintptr(a.offset)
	dst := a.mem[a.offset : a.offset+size]
	switch a.arch {
	case ARM:
		encodeARMStub(dst, a.byteOrder, uint32(target))
	case MIPS:
		encodeMIPSStub(dst, a.byteOrder, uint32(target))
	}
	a.offset += size
	a.byTarget[target] = addr
	return addr, nil
}

// encodeARMStub writes `LDR PC, [PC, #-4]` followed by the literal
// target address, the classic ARM32 position-independent far branch.
func encodeARMStub(dst []byte, byteOrder binary.ByteOrder, target uint32) {
	byteOrder.PutUint32(dst[0:4], 0xE51FF004)
	byteOrder.PutUint32(dst[4:8], target)
}

// encodeMIPSStub writes a lui/ori/jr/nop sequence loading the 32-bit
// target into $t9 (register 25) and jumping through it, the MIPO32
// ABI's conventional PLT-stub register.
func encodeMIPSStub(dst []byte, byteOrder binary.ByteOrder, target uint32) {
	const t9 = 25
	lui := uint32(0x3C000000) | (t9 << 16) | (target >> 16)
	ori := uint32(0x34000000) | (t9 << 21) | (t9 << 16) | (target & 0xFFFF)
	jr := uint32(0x00000008) | (t9 << 21)
	byteOrder.PutUint32(dst[0:4], lui)
	byteOrder.PutUint32(dst[4:8], ori)
	byteOrder.PutUint32(dst[8:12], jr)
	byteOrder.PutUint32(dst[12:16], 0) // nop (branch delay slot)
}
