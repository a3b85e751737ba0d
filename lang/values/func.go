package values

import "fmt"

// NativeFn is a builtin implemented in Go. It receives the evaluated
// arguments (the callee is not included) and returns a result or an error.
type NativeFn func(args []Value) (Value, error)

// Native is a named builtin function (spec §3 "FuncNative").
type Native struct {
	Name string
	Fn   NativeFn
}

// NewNative wraps a Go function as a Value.
func NewNative(name string, fn NativeFn) Value {
	return FromNative(&Native{Name: name, Fn: fn})
}

func (n *Native) String() string { return fmt.Sprintf("Native func<%s>", n.Name) }

// Func is a compiled function with its local-slot template pre-filled: the
// template's length equals Chunk.ScopeSize, and all slots start Nil except
// those a Closure op filled with captured outers (spec §3 "Func",
// §4.4 "fn", §4.5.2).
type Func struct {
	Chunk  *Chunk
	Locals []Value
}

func (f *Func) String() string { return fmt.Sprintf("Func<%d params>", f.Chunk.Arity) }

// Outer describes a value that must be lifted at closure-creation time from
// an enclosing activation into the closure's own local slot (spec §3 "Outer
// descriptor").
type Outer struct {
	Level    int // how many enclosing activations up (0 = the immediately enclosing one)
	Position int // local slot index in that activation
	Dest     int // destination slot index in the closure's own locals
}

// Closure is an unmaterialized function value: it has a chunk and the list
// of outer captures to perform, but the values have not yet been copied out
// of the enclosing activation. The Closure op does that, replacing the
// Closure value on the stack with a Func (spec §3 "Closure", §4.5.2).
type Closure struct {
	Chunk  *Chunk
	Outers []Outer
}

func (c *Closure) String() string { return fmt.Sprintf("Closure<%d params>", c.Chunk.Arity) }
