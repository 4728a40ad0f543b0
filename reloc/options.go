package reloc

import (
	"io"

	"github.com/eh-steve/elfreloc/elfobj"
	"github.com/eh-steve/elfreloc/mmap"
	"github.com/eh-steve/elfreloc/mprotect"
)

// StubMemoryProvider acquires size bytes of executable memory placed
// near "near" (typically a text section's base address), so that
// architecture branch-range checks (ARM ±32MiB, MIPS same-256MiB
// segment) can be satisfied. See the mmap package for the default
// implementation used outside of tests.
type StubMemoryProvider func(near uintptr, size int) (mem []byte, base uintptr, err error)

// Options configures a Relocate call. There is no CLI or environment
// variable surface (spec.md §6); Options is the ambient equivalent of
// a config layer, built with functional options the way goloader's
// Linker carries an options struct.
type Options struct {
	// DebugWriter, if non-nil, receives one line per relocation
	// applied, mirroring goloader's Options.RelocationDebugWriter.
	DebugWriter io.Writer

	// StubMemory acquires executable memory for the ARM/MIPS Stub
	// Allocators. Defaults to mmap.AcquireExecutableNear.
	StubMemory StubMemoryProvider

	// StubRegionSize is how many bytes of stub memory to request. One
	// region is acquired per Relocate call (ARM and MIPS only), near
	// the first non-empty PROGBITS section, and shared by every
	// section the object patches; sections do not get regions of
	// their own. Defaults to 4 KiB.
	StubRegionSize int

	// GOTCapacity bounds the number of entries the MIPS GOT Manager
	// can hold for this object. Defaults to 512.
	GOTCapacity int

	// ProtectSection finalizes a PROGBITS/NOBITS section's memory
	// protection once relocation of that section has completed.
	// Defaults to mprotect.ProtectSection. Tests that build sections
	// out of plain heap byte slices (not a real page-aligned mapping)
	// should override this with a no-op.
	ProtectSection func(*elfobj.Section) error
}

// Option mutates an Options being built by NewOptions.
type Option func(*Options)

// NewOptions builds an Options with defaults applied, then each opt
// in order.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		StubMemory:     mmap.AcquireExecutableNear,
		StubRegionSize: 4096,
		GOTCapacity:    512,
		ProtectSection: mprotect.ProtectSection,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDebugWriter installs a relocation trace sink.
func WithDebugWriter(w io.Writer) Option {
	return func(o *Options) { o.DebugWriter = w }
}

// WithStubMemory overrides how executable stub memory is acquired.
func WithStubMemory(p StubMemoryProvider) Option {
	return func(o *Options) { o.StubMemory = p }
}

// WithStubRegionSize overrides the default 4 KiB stub region size.
func WithStubRegionSize(n int) Option {
	return func(o *Options) { o.StubRegionSize = n }
}

// WithGOTCapacity overrides the default 512-entry GOT capacity.
func WithGOTCapacity(n int) Option {
	return func(o *Options) { o.GOTCapacity = n }
}

// WithProtectSection overrides how a section's memory protection is
// finalized after relocation, in place of mprotect.ProtectSection.
func WithProtectSection(f func(*elfobj.Section) error) Option {
	return func(o *Options) { o.ProtectSection = f }
}
