// Package resolve provides the host-supplied Symbol Resolver
// Interface described in spec.md §4.1/§6: a pure, stateless callback
// mapping an undefined symbol name to an absolute host address.
package resolve

// FindSymbolFunc is the find_sym contract from spec.md §6:
// (context, name) -> address, returning 0 to signal "not found".
type FindSymbolFunc func(context interface{}, name string) uintptr

// Table is a convenience FindSymbolFunc backed by a plain map, for
// hosts that just want to register a fixed set of externs up front,
// mirroring goloader's RegSymbol/RegSymbolWithPath helpers minus the
// Go-object-file-specific registration machinery those built on top
// of it.
type Table struct {
	symbols map[string]uintptr
}

// NewTable wraps an existing name->address map. The map is not
// copied; mutations after construction are visible to Find.
func NewTable(symbols map[string]uintptr) *Table {
	if symbols == nil {
		symbols = make(map[string]uintptr)
	}
	return &Table{symbols: symbols}
}

// Register adds or overwrites a single symbol's address.
func (t *Table) Register(name string, addr uintptr) {
	t.symbols[name] = addr
}

// Find implements FindSymbolFunc by looking name up in the table,
// ignoring context.
func (t *Table) Find(_ interface{}, name string) uintptr {
	return t.symbols[name]
}

// Get returns the address registered for name, or 0 with ok=false.
func (t *Table) Get(name string) (addr uintptr, ok bool) {
	addr, ok = t.symbols[name]
	return addr, ok
}
