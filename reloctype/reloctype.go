// Package reloctype holds the per-machine ELF relocation type codes
// this module understands, following the standard ABI documents named
// in spec.md §6 (ARM ABI, i386 psABI, x86-64 psABI, MIPS32 psABI).
package reloctype

// ARM (EM_ARM) relocation types.
const (
	R_ARM_ABS32        = 2
	R_ARM_CALL         = 28
	R_ARM_MOVW_ABS_NC  = 43
	R_ARM_MOVT_ABS     = 44
)

// i386 (EM_386) relocation types.
const (
	R_386_32   = 1
	R_386_PC32 = 2
)

// x86-64 (EM_X86_64) relocation types.
const (
	R_X86_64_64   = 1
	R_X86_64_PC32 = 2
	R_X86_64_32   = 10
	R_X86_64_32S  = 11
)

// MIPS32 (EM_MIPS) relocation types.
const (
	R_MIPS_NONE   = 0
	R_MIPS_16     = 1
	R_MIPS_32     = 2
	R_MIPS_26     = 4
	R_MIPS_HI16   = 5
	R_MIPS_LO16   = 6
	R_MIPS_GOT16  = 9
	R_MIPS_CALL16 = 11
	R_MIPS_GPREL32 = 12
	R_MIPS_JALR   = 37
)

// GPDispSymbol is the ABI-defined magic symbol name whose value MIPS
// R_MIPS_HI16/LO16 pairs compute rather than resolve via find_sym.
const GPDispSymbol = "_gp_disp"
