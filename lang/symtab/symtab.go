// Package symtab implements the symbol interner and the dense global slot
// array described in spec.md §3 ("Symbol", "SymbolTable", "Scope (global
// bindings)") and §4.2 ("Symbol environment"). Interning is backed by
// dolthub/swiss, the same hash map the teacher repo already wires for its
// own Map value (lang/machine/map.go) — a good fit here too since symbol
// interning is a hot path for both the reader and the compiler.
package symtab

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/zap/lang/values"
)

// Reserved symbol ids. A fixed prefix of ids is assigned, in this order, to
// the special forms and compiler-short-circuited builtins the compiler must
// recognize at compile time (spec §3 "Symbol"). NewEnv interns them in this
// exact order so that these constants always match.
const (
	SymIf values.SymbolID = iota
	SymLet
	SymFn
	SymDo
	SymDef
	SymQuote
	SymQuasiquote
	SymUnquote
	SymSpliceUnquote
	SymDeref
	SymPlus
	SymEq

	numReservedSymbols
)

var reservedNames = [numReservedSymbols]string{
	SymIf:            "if",
	SymLet:           "let",
	SymFn:            "fn",
	SymDo:            "do",
	SymDef:           "def",
	SymQuote:         "quote",
	SymQuasiquote:    "quasiquote",
	SymUnquote:       "unquote",
	SymSpliceUnquote: "splice-unquote",
	SymDeref:         "deref",
	SymPlus:          "+",
	SymEq:            "=",
}

// Table is the string-to-id interner. Ids are assigned in registration
// order and never reused; the table only grows (spec §3 "SymbolTable").
type Table struct {
	ids   *swiss.Map[string, values.SymbolID]
	names []string
}

// NewTable returns an empty interner.
func NewTable() *Table {
	return &Table{ids: swiss.NewMap[string, values.SymbolID](64)}
}

// Intern returns the id for name, assigning a fresh one (appending to Names)
// on first registration. Idempotent (spec §4.2 "reg_symbol").
func (t *Table) Intern(name string) values.SymbolID {
	if id, ok := t.ids.Get(name); ok {
		return id
	}
	id := values.SymbolID(len(t.names))
	t.names = append(t.names, name)
	t.ids.Put(name, id)
	return id
}

// Lookup returns the id already assigned to name, if any, without
// registering it.
func (t *Table) Lookup(name string) (values.SymbolID, bool) {
	return t.ids.Get(name)
}

// Name reverse-looks-up the text for an id (spec §4.2 "get_symbol").
func (t *Table) Name(id values.SymbolID) (string, bool) {
	if int(id) >= len(t.names) {
		return "", false
	}
	return t.names[id], true
}

// Len returns the number of interned symbols.
func (t *Table) Len() int { return len(t.names) }

// Globals is the dense, symbol-id-indexed array of global bindings (spec §3
// "Scope (global bindings)"). A symbol id doubles as a slot index; interning
// a new symbol must extend Globals by one slot (spec §9 "Symbol ids as
// dense indices").
type Globals struct {
	slots []values.Value
	bound []bool
}

// Grow appends n unbound slots.
func (g *Globals) Grow(n int) {
	for i := 0; i < n; i++ {
		g.slots = append(g.slots, values.Nil)
		g.bound = append(g.bound, false)
	}
}

// Len returns the number of slots.
func (g *Globals) Len() int { return len(g.slots) }

// Set writes val into slot id, growing the array first if necessary.
func (g *Globals) Set(id values.SymbolID, val values.Value) {
	if int(id) >= len(g.slots) {
		g.Grow(int(id) + 1 - len(g.slots))
	}
	g.slots[id] = val
	g.bound[id] = true
}

// Get reads slot id. The second return is false if the slot is empty or out
// of range.
func (g *Globals) Get(id values.SymbolID) (values.Value, bool) {
	if int(id) >= len(g.slots) || !g.bound[id] {
		return values.Value{}, false
	}
	return g.slots[id], true
}

// Env bundles a symbol table with its matching global slot array and is the
// environment threaded through the reader, compiler and machine (spec §4.2,
// §6 "Env").
type Env struct {
	Table   *Table
	Globals *Globals
}

// NewEnv returns an environment with the reserved special-form symbols
// already interned at their fixed ids.
func NewEnv() *Env {
	e := &Env{Table: NewTable(), Globals: &Globals{}}
	for _, name := range reservedNames {
		e.Intern(name)
	}
	return e
}

// Intern registers name (if new) and returns its Value(Symbol(id)),
// extending Globals to match (spec §4.2 "reg_symbol").
func (e *Env) Intern(name string) values.Value {
	id := e.Table.Intern(name)
	if int(id) >= e.Globals.Len() {
		e.Globals.Grow(int(id) + 1 - e.Globals.Len())
	}
	return values.Symbol(id)
}

// Name reverse-looks-up the text of a symbol id (spec §4.2 "get_symbol").
func (e *Env) Name(id values.SymbolID) (string, error) {
	name, ok := e.Table.Name(id)
	if !ok {
		return "", fmt.Errorf("no known symbol for id=%d", id)
	}
	return name, nil
}

// Set binds val to the global named by the symbol key (spec §4.2 "set").
func (e *Env) Set(key, val values.Value) error {
	if !key.IsSymbol() {
		return fmt.Errorf("env set: only symbols can be used as keys")
	}
	e.Globals.Set(key.AsSymbol(), val)
	return nil
}

// GetByID reads a global slot by id, failing with the spec's exact message
// if unbound (spec §4.2 "get_by_id").
func (e *Env) GetByID(id values.SymbolID) (values.Value, error) {
	if v, ok := e.Globals.Get(id); ok {
		return v, nil
	}
	name, err := e.Name(id)
	if err != nil {
		return values.Value{}, err
	}
	return values.Value{}, fmt.Errorf("symbol '%s' not in scope.", name)
}

// Get reads a global slot addressed by a Value(Symbol(id)) key (spec §4.2
// "get").
func (e *Env) Get(key values.Value) (values.Value, error) {
	if !key.IsSymbol() {
		return values.Value{}, fmt.Errorf("env get: only symbols can be used as keys")
	}
	return e.GetByID(key.AsSymbol())
}

// RegisterNative interns name and binds it to a native function in one step
// (spec §4.2 "reg_fn").
func (e *Env) RegisterNative(name string, fn values.NativeFn) {
	sym := e.Intern(name)
	_ = e.Set(sym, values.NewNative(name, fn))
}
