// Package reloc implements the Relocation Driver: given a fully
// loaded elfobj.Object, it patches every REL/RELA table's target
// section in place, resolving undefined symbols through a
// host-supplied resolve.FindSymbolFunc and allocating PLT-style call
// stubs and GOT entries as each architecture requires.
package reloc

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/eh-steve/elfreloc/common"
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/got"
	"github.com/eh-steve/elfreloc/resolve"
	"github.com/eh-steve/elfreloc/stub"
)

// context carries everything a single architecture relocator needs,
// so those files don't each thread the same half-dozen parameters
// through every call.
type context struct {
	obj      *elfobj.Object
	order    binary.ByteOrder
	resolver resolve.FindSymbolFunc
	opts     *Options

	armStubs  *stub.Allocator
	mipsStubs *stub.Allocator
	gotTable  *got.Table
}

func (c *context) symbolAt(index int) *elfobj.Symbol {
	if index < 0 || index >= len(c.obj.Symbols) {
		return nil
	}
	return c.obj.Symbols[index]
}

// textAddr returns the live address of a section's backing storage,
// used as the "P" (place) operand PC-relative relocations subtract.
func (c *context) textAddr(s *elfobj.Section) uintptr {
	if len(s.Data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s.Data[0]))
}

func (c *context) trace(section string, rel elfobj.Relocation, sym *elfobj.Symbol, S, A, P int32) {
	if c.opts == nil || c.opts.DebugWriter == nil {
		return
	}
	fmt.Fprintf(c.opts.DebugWriter, "reloc: %s+%#x type=%d sym=%q S=%#x A=%#x P=%#x\n",
		section, rel.Offset, rel.Type, sym.Name, uint32(S), uint32(A), uint32(P))
}

// Relocate patches every relocatable section of obj against its
// symbol table, resolving undefined symbols via findSym. It mutates
// obj's section Data slices in place, sets obj.MissingSymbols if any
// resolver call returned 0, and finally calls Section.Protect on
// every PROGBITS/NOBITS section, mirroring the original's three-phase
// "size commons -> relocate every table -> protect every section"
// pipeline. A nil opts uses NewOptions()'s defaults.
func Relocate(obj *elfobj.Object, findSym resolve.FindSymbolFunc, opts *Options) error {
	if opts == nil {
		opts = NewOptions()
	}

	if err := allocateCommon(obj); err != nil {
		return fmt.Errorf("reloc: common allocation: %w", err)
	}

	c := &context{
		obj:      obj,
		order:    binary.LittleEndian,
		resolver: findSym,
		opts:     opts,
	}

	if err := c.setupArchSupport(); err != nil {
		return err
	}

	for _, table := range obj.RelTables {
		if table.Type != elfobj.SHT_REL && table.Type != elfobj.SHT_RELA {
			continue
		}
		targetName, err := table.TargetSectionName()
		if err != nil {
			return fmt.Errorf("reloc: %w", err)
		}
		text := obj.SectionByName(targetName)
		if text == nil {
			return fmt.Errorf("reloc: relocation table %q targets missing section %q", table.Name, targetName)
		}

		switch obj.Machine {
		case elfobj.EM_ARM:
			err = c.relocateARM(text, table)
		case elfobj.EM_386:
			err = c.relocateI386(text, table)
		case elfobj.EM_X86_64:
			err = c.relocateX8664(text, table)
		case elfobj.EM_MIPS:
			err = c.relocateMIPS(text, table)
		default:
			err = fmt.Errorf("unsupported machine %s", obj.Machine)
		}
		if err != nil {
			return err
		}
	}

	for _, s := range obj.Sections {
		if s.Type != elfobj.SHT_PROGBITS && s.Type != elfobj.SHT_NOBITS {
			continue
		}
		if c.opts.ProtectSection != nil {
			s.SetProtectFunc(c.opts.ProtectSection)
		}
		if err := s.Protect(); err != nil {
			return fmt.Errorf("reloc: protecting section %q: %w", s.Name, err)
		}
	}

	if obj.MissingSymbols {
		return ErrMissingSymbols
	}
	return nil
}

// setupArchSupport allocates the Stub Allocator(s) and GOT the
// object's machine needs, using opts.StubMemory to acquire executable
// memory positioned near the first non-empty PROGBITS section, so
// stubs land within branch range of that section. The one stub
// region serves every section the object patches.
func (c *context) setupArchSupport() error {
	switch c.obj.Machine {
	case elfobj.EM_ARM, elfobj.EM_MIPS:
		if c.opts.StubMemory == nil {
			return fmt.Errorf("reloc: machine %s requires stubs but no StubMemory provider was configured", c.obj.Machine)
		}
		near := c.firstTextAddr()
		mem, base, err := c.opts.StubMemory(near, c.opts.StubRegionSize)
		if err != nil {
			return fmt.Errorf("reloc: acquiring stub memory: %w", err)
		}
		if c.obj.Machine == elfobj.EM_ARM {
			c.armStubs = stub.New(stub.ARM, mem, base, c.order)
		} else {
			c.mipsStubs = stub.New(stub.MIPS, mem, base, c.order)
			gotTable, err := got.New(c.opts.GOTCapacity)
			if err != nil {
				return fmt.Errorf("reloc: allocating GOT: %w", err)
			}
			c.gotTable = gotTable
		}
	}
	return nil
}

func (c *context) firstTextAddr() uintptr {
	for _, s := range c.obj.Sections {
		if s.Type == elfobj.SHT_PROGBITS && len(s.Data) > 0 {
			return uintptr(unsafe.Pointer(&s.Data[0]))
		}
	}
	return 0
}

// allocateCommon sizes and places every SHN_COMMON symbol and every
// STT_OBJECT symbol resident in a SHT_NOBITS section, mirroring the
// original's pre-relocation sizing pass. NOBITS-resident symbols are
// rounded up to a 16-byte alignment regardless of their own
// alignment, a documented workaround for an old LLVM ARM assembler
// bug the original code carries verbatim; this module keeps it for
// bug-compatibility with objects produced by that toolchain.
func allocateCommon(obj *elfobj.Object) error {
	const nobitsWorkaroundAlign = 16

	type placement struct {
		sym   *elfobj.Symbol
		size  int
		align int
	}
	var placements []placement
	total := 0

	for _, sym := range obj.Symbols {
		if sym.Type != elfobj.STT_OBJECT {
			continue
		}
		switch sym.SectionIndex {
		case elfobj.SHN_ABS, elfobj.SHN_UNDEF, elfobj.SHN_XINDEX:
			continue
		case elfobj.SHN_COMMON:
			align := int(sym.Value)
			placements = append(placements, placement{sym, int(sym.Size), align})
			total += int(sym.Size) + align
		default:
			if sym.SectionIndex < 0 || sym.SectionIndex >= len(obj.Sections) {
				continue
			}
			if obj.Sections[sym.SectionIndex].Type == elfobj.SHT_NOBITS {
				placements = append(placements, placement{sym, int(sym.Size), nobitsWorkaroundAlign})
				total += int(sym.Size) + nobitsWorkaroundAlign
			}
		}
	}

	alloc := common.New()
	if err := alloc.Init(total); err != nil {
		return err
	}
	for _, p := range placements {
		addr, err := alloc.Reserve(p.size, p.align)
		if err != nil {
			return fmt.Errorf("placing symbol %q: %w", p.sym.Name, err)
		}
		p.sym.SetAddress(addr)
	}
	return nil
}
