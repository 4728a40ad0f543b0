package mprotect

import "github.com/eh-steve/elfreloc/elfobj"

// ProtectSection locks a relocated section back down once patching
// has finished, mirroring the teacher's itab.go pattern of pairing
// every MprotectMakeWritable with a later MprotectMakeReadOnly, but
// applied once rather than around each individual patch. It assumes
// s.Data is itself a page-aligned mapping, the shape
// mmap.AcquireExecutableNear always returns.
//
// Unix has no read-only-without-exec primitive (MprotectMakeReadOnly
// is PROT_READ|PROT_EXEC on every platform's mprotect_unix.go), so
// both PROGBITS and NOBITS sections end up in the same final state
// there; this is the same granularity the teacher shipped.
func ProtectSection(s *elfobj.Section) error {
	if len(s.Data) == 0 {
		return nil
	}
	return MprotectMakeReadOnly(s.Data)
}
