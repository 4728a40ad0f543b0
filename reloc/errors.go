package reloc

import (
	"errors"
	"fmt"
)

// ErrMissingSymbols is returned by Relocate once every relocation
// table has been processed if any find_sym call along the way
// returned the zero address (obj.MissingSymbols). Unlike RelocError,
// it never aborts the relocation pass early — spec.md §7 requires
// processing to continue so every table is still patched and every
// unresolved symbol is still looked up, not just the first. Each
// unresolved symbol is left with address 0.
var ErrMissingSymbols = errors.New("reloc: one or more symbols could not be resolved")

// RelocError describes a single relocation entry that could not be
// applied, naming enough context (section, offset, symbol, type) for
// a caller to locate the offending entry in the original object,
// mirroring the %w-wrapped errors goloader returns from its own
// relocate step.
type RelocError struct {
	Section string
	Offset  int
	Symbol  string
	RelType uint32
	Reason  string
	Wrapped error
}

func (e *RelocError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("reloc: %s: offset %#x symbol %q type %d: %s: %v",
			e.Section, e.Offset, e.Symbol, e.RelType, e.Reason, e.Wrapped)
	}
	return fmt.Sprintf("reloc: %s: offset %#x symbol %q type %d: %s",
		e.Section, e.Offset, e.Symbol, e.RelType, e.Reason)
}

func (e *RelocError) Unwrap() error {
	return e.Wrapped
}

func newRelocError(section string, offset int, symbol string, relType uint32, reason string, wrapped error) *RelocError {
	return &RelocError{
		Section: section,
		Offset:  offset,
		Symbol:  symbol,
		RelType: relType,
		Reason:  reason,
		Wrapped: wrapped,
	}
}
