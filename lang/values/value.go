// Package values implements the runtime value model shared by the reader,
// compiler and machine: a small tagged union plus the compiled bytecode
// Chunk that Func values carry.
package values

import "fmt"

// Kind discriminates the variants of a Value.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindSymbol
	KindString
	KindList
	KindNative
	KindFunc
	KindClosure
)

var kindNames = [...]string{
	KindNil:     "nil",
	KindBool:    "bool",
	KindNumber:  "number",
	KindSymbol:  "symbol",
	KindString:  "string",
	KindList:    "list",
	KindNative:  "native",
	KindFunc:    "func",
	KindClosure: "closure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "?"
}

// SymbolID is the dense integer identifier assigned by the symbol interner
// (lang/symtab). It doubles as an index into the global slot array.
type SymbolID uint32

// Value is a tagged union over the small set of runtime values Zap
// manipulates. It is deliberately a plain struct, not an interface: atoms are
// copied by value (cheap), while List, Func and Closure variants carry a
// pointer to a shared, immutable-after-construction payload, so copying one
// of those is just a pointer copy (the moral equivalent of an Arc clone).
type Value struct {
	kind   Kind
	b      bool
	num    float64
	sym    SymbolID
	str    string
	list   *List
	native *Native
	fn     *Func
	clos   *Closure
}

// Nil is the canonical nil value.
var Nil = Value{kind: KindNil}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Symbol returns a value referring to the given interned symbol id.
func Symbol(id SymbolID) Value { return Value{kind: KindSymbol, sym: id} }

// Str returns a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// FromList returns a value wrapping the given shared list.
func FromList(l *List) Value { return Value{kind: KindList, list: l} }

// FromNative returns a value wrapping a native (Go-implemented) function.
func FromNative(n *Native) Value { return Value{kind: KindNative, native: n} }

// FromFunc returns a value wrapping a compiled function, its locals template
// already filled in (spec §3 "Func").
func FromFunc(f *Func) Value { return Value{kind: KindFunc, fn: f} }

// FromClosure returns a value wrapping an unmaterialized closure template,
// awaiting the Closure op to capture its outers and become a Func.
func FromClosure(c *Closure) Value { return Value{kind: KindClosure, clos: c} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNil() bool     { return v.kind == KindNil }
func (v Value) IsBool() bool    { return v.kind == KindBool }
func (v Value) IsNumber() bool  { return v.kind == KindNumber }
func (v Value) IsSymbol() bool  { return v.kind == KindSymbol }
func (v Value) IsString() bool  { return v.kind == KindString }
func (v Value) IsList() bool    { return v.kind == KindList }
func (v Value) IsNative() bool  { return v.kind == KindNative }
func (v Value) IsFunc() bool    { return v.kind == KindFunc }
func (v Value) IsClosure() bool { return v.kind == KindClosure }

// IsCallable reports whether v can appear in the function position of a
// Call/Tailcall op (spec §4.5.1).
func (v Value) IsCallable() bool {
	return v.kind == KindNative || v.kind == KindFunc
}

// AsBool returns the boolean payload; only meaningful when IsBool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the numeric payload; only meaningful when IsNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsSymbol returns the symbol id payload; only meaningful when IsSymbol.
func (v Value) AsSymbol() SymbolID { return v.sym }

// AsString returns the string payload; only meaningful when IsString.
func (v Value) AsString() string { return v.str }

// AsList returns the shared list payload; only meaningful when IsList.
func (v Value) AsList() *List { return v.list }

// AsNative returns the native function payload; only meaningful when IsNative.
func (v Value) AsNative() *Native { return v.native }

// AsFunc returns the function payload; only meaningful when IsFunc.
func (v Value) AsFunc() *Func { return v.fn }

// AsClosure returns the closure payload; only meaningful when IsClosure.
func (v Value) AsClosure() *Closure { return v.clos }

// List is an immutable-after-construction ordered sequence of values, shared
// by reference. Two List values are identity-equal (same *List) when they
// were produced by the same reader or compiler construction; a freshly read
// list with the same elements is a distinct instance.
type List struct {
	Items []Value
}

// NewList wraps the given slice as a shared list. The caller must not mutate
// items after this call.
func NewList(items []Value) *List { return &List{Items: items} }

// Truthy reports whether v is neither Nil nor Bool(false) (spec §3, §8
// "Truthiness").
func (v Value) Truthy() bool {
	return !(v.kind == KindNil || (v.kind == KindBool && !v.b))
}

// Equal implements the structural-for-atoms, identity-for-compound
// comparison used by the compiler's constant-pool dedup and the VM's Eq/
// EqConst ops (spec §3, §4.4.2, §9 Open Question: lists compare by arc/
// pointer identity, matching the VM's hot path).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindSymbol:
		return a.sym == b.sym
	case KindString:
		return a.str == b.str
	case KindList:
		return a.list == b.list
	case KindNative:
		return a.native == b.native
	case KindFunc:
		return a.fn == b.fn
	case KindClosure:
		return a.clos == b.clos
	default:
		return false
	}
}

// Add implements the '+' arithmetic operator used by Op Add/AddConst and by
// the stdlib '+' native for non-short-circuited calls.
func Add(a, b Value) (Value, error) {
	if a.kind != KindNumber || b.kind != KindNumber {
		return Value{}, fmt.Errorf("Can't add %s %s", a.dbgType(), b.dbgType())
	}
	return Number(a.num + b.num), nil
}

// Sub implements the '-' arithmetic operator.
func Sub(a, b Value) (Value, error) {
	if a.kind != KindNumber || b.kind != KindNumber {
		return Value{}, fmt.Errorf("Can't substract %s %s", a.dbgType(), b.dbgType())
	}
	return Number(a.num - b.num), nil
}

// Mul implements the '*' arithmetic operator.
func Mul(a, b Value) (Value, error) {
	if a.kind != KindNumber || b.kind != KindNumber {
		return Value{}, fmt.Errorf("Can't multiply %s %s", a.dbgType(), b.dbgType())
	}
	return Number(a.num * b.num), nil
}

func (v Value) dbgType() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "a bool"
	case KindNumber:
		return "a number"
	case KindSymbol:
		return "a symbol"
	case KindString:
		return "a string"
	case KindList:
		return "a list"
	case KindNative, KindFunc, KindClosure:
		return "a function"
	default:
		return "?"
	}
}
