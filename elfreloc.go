// Package elfreloc is the public entry point for relocating an
// in-memory ELF relocatable object: it re-exports the reloc
// package's driver and options the way goloader's root package
// re-exports its link subpackage's Load/Linker types, so most callers
// only ever need this one import.
package elfreloc

import (
	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/reloc"
	"github.com/eh-steve/elfreloc/resolve"
)

// Re-exported data model types, so callers assembling an Object don't
// need a second import for elfobj.
type (
	Object      = elfobj.Object
	Section     = elfobj.Section
	Symbol      = elfobj.Symbol
	Relocation  = elfobj.Relocation
	RelTable    = elfobj.RelTable
	Machine     = elfobj.Machine
	SectionType = elfobj.SectionType
)

// Re-exported ELF machine constants.
const (
	EM_386    = elfobj.EM_386
	EM_ARM    = elfobj.EM_ARM
	EM_MIPS   = elfobj.EM_MIPS
	EM_X86_64 = elfobj.EM_X86_64
)

// FindSymbolFunc resolves an undefined symbol name to a host address,
// or returns 0 if it cannot.
type FindSymbolFunc = resolve.FindSymbolFunc

// Options configures a Relocate call; see the reloc package for the
// available With* constructors (WithDebugWriter, WithStubMemory,
// WithStubRegionSize, WithGOTCapacity, WithProtectSection).
type Options = reloc.Options

// Option mutates an Options being built by NewOptions.
type Option = reloc.Option

var (
	NewOptions         = reloc.NewOptions
	WithDebugWriter    = reloc.WithDebugWriter
	WithStubMemory     = reloc.WithStubMemory
	WithStubRegionSize = reloc.WithStubRegionSize
	WithGOTCapacity    = reloc.WithGOTCapacity
	WithProtectSection = reloc.WithProtectSection
)

// RelocError is returned by Relocate when a specific relocation entry
// could not be applied.
type RelocError = reloc.RelocError

// ErrMissingSymbols is returned by Relocate, after every relocation
// table has been processed, if any symbol could not be resolved by
// findSym. Check it with errors.Is; the unresolved symbols themselves
// are not enumerated here, only reflected in Object.MissingSymbols.
var ErrMissingSymbols = reloc.ErrMissingSymbols

// Relocate patches every section of obj in place against its symbol
// table, resolving undefined symbols via findSym and allocating any
// PLT stubs / GOT entries the target machine requires. A nil opts
// uses NewOptions()'s defaults.
func Relocate(obj *Object, findSym FindSymbolFunc, opts *Options) error {
	return reloc.Relocate(obj, findSym, opts)
}

// NewSymbolTable is a convenience constructor for hosts that just
// want to register a fixed set of external symbols up front.
func NewSymbolTable(symbols map[string]uintptr) *resolve.Table {
	return resolve.NewTable(symbols)
}
