// Package machine implements the stack-based virtual machine that executes
// a compiled values.Chunk (spec.md §4.5). A Machine owns one shared operand
// stack and a stack of call frames; Tailcall reuses the current frame in
// place instead of pushing a new one, giving Zap proper tail calls.
// Grounded on the teacher repo's lang/machine/machine.go dispatch-loop shape
// (step counting, context cancellation, call-stack depth limit) and on
// original_source/zap/src/vm.rs for the bytecode semantics themselves.
package machine

import (
	"context"
	"fmt"

	"github.com/mna/zap/lang/symtab"
	"github.com/mna/zap/lang/values"
)

// frame is one function activation: its own local-slot array and program
// counter into its chunk.
type frame struct {
	chunk  *values.Chunk
	locals []values.Value
	pc     int
}

// Machine runs compiled chunks against a shared symbol environment. It is
// not safe for concurrent use; run one Machine per goroutine (spec §4.5,
// §6 "Machine").
type Machine struct {
	env   *symtab.Env
	stack []values.Value
	calls []*frame

	// MaxSteps bounds the number of dispatched instructions before a run is
	// aborted, the same deliberately coarse safety net the teacher's thread
	// uses (MaxSteps <= 0 means unlimited).
	MaxSteps int
	// MaxCallDepth bounds the call-frame stack (MaxCallDepth <= 0 means
	// unlimited). Tail calls do not grow the frame stack, so a tail-recursive
	// loop never trips this limit.
	MaxCallDepth int
}

// New returns a Machine bound to env.
func New(env *symtab.Env) *Machine {
	return &Machine{env: env}
}

// Run executes chunk as a zero-argument top-level activation and returns its
// result (spec §4.5 "run").
func (m *Machine) Run(ctx context.Context, chunk *values.Chunk) (values.Value, error) {
	m.stack = m.stack[:0]
	m.calls = []*frame{{chunk: chunk, locals: make([]values.Value, chunk.ScopeSize)}}

	var steps int
	for {
		select {
		case <-ctx.Done():
			return values.Value{}, fmt.Errorf("machine: %w", ctx.Err())
		default:
		}

		if m.MaxSteps > 0 {
			steps++
			if steps > m.MaxSteps {
				return values.Value{}, fmt.Errorf("machine: exceeded %d steps", m.MaxSteps)
			}
		}

		fr := m.calls[len(m.calls)-1]
		if fr.pc >= len(fr.chunk.Ops) {
			return values.Value{}, fmt.Errorf("machine: fell off the end of a chunk")
		}
		op := fr.chunk.Ops[fr.pc]
		fr.pc++

		done, result, err := m.dispatch(fr, op)
		if err != nil {
			return values.Value{}, err
		}
		if done {
			return result, nil
		}
	}
}

func (m *Machine) push(v values.Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() values.Value {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *Machine) popN(n int) []values.Value {
	args := append([]values.Value(nil), m.stack[len(m.stack)-n:]...)
	m.stack = m.stack[:len(m.stack)-n]
	return args
}

// dispatch executes a single instruction. When the outermost frame returns,
// done is true and result holds the machine's final value.
func (m *Machine) dispatch(fr *frame, op values.Op) (done bool, result values.Value, err error) {
	switch op.Code {
	case values.OpPush:
		m.push(fr.chunk.Consts[op.Arg])

	case values.OpLoad:
		m.push(fr.locals[op.Arg])

	case values.OpStore:
		fr.locals[op.Arg] = m.pop()

	case values.OpLookUp:
		v, err := m.env.GetByID(values.SymbolID(op.Arg))
		if err != nil {
			return false, values.Value{}, err
		}
		m.push(v)

	case values.OpDefine:
		val := m.pop()
		sym := m.pop()
		if err := m.env.Set(sym, val); err != nil {
			return false, values.Value{}, err
		}
		m.push(val)

	case values.OpPop:
		m.pop()

	case values.OpJmp:
		fr.pc = int(op.Arg)

	case values.OpCondJmp:
		if !m.pop().Truthy() {
			fr.pc = int(op.Arg)
		}

	case values.OpAdd:
		b, a := m.pop(), m.pop()
		v, err := values.Add(a, b)
		if err != nil {
			return false, values.Value{}, err
		}
		m.push(v)

	case values.OpAddConst:
		a := m.pop()
		v, err := values.Add(a, fr.chunk.Consts[op.Arg])
		if err != nil {
			return false, values.Value{}, err
		}
		m.push(v)

	case values.OpEq:
		b, a := m.pop(), m.pop()
		m.push(values.Bool(values.Equal(a, b)))

	case values.OpEqConst:
		a := m.pop()
		m.push(values.Bool(values.Equal(a, fr.chunk.Consts[op.Arg])))

	case values.OpClosure:
		m.push(values.FromFunc(m.materialize(fr, op.Arg)))

	case values.OpCall:
		return m.call(int(op.Arg), false)

	case values.OpTailcall:
		return m.call(int(op.Arg), true)

	case values.OpReturn:
		return m.doReturn()

	default:
		return false, values.Value{}, fmt.Errorf("machine: unknown opcode %s", op.Code)
	}
	return false, values.Value{}, nil
}

// materialize builds a Func from a Closure constant, copying captured
// outers out of the call frames currently live on the stack (spec §4.5.2).
func (m *Machine) materialize(fr *frame, constIdx uint16) *values.Func {
	clos := fr.chunk.Consts[constIdx].AsClosure()
	locals := make([]values.Value, clos.Chunk.ScopeSize)
	for _, o := range clos.Outers {
		// Level 0 is the frame executing this Closure op, i.e. the last frame
		// in m.calls.
		src := m.calls[len(m.calls)-1-o.Level]
		locals[o.Dest] = src.locals[o.Position]
	}
	return &values.Func{Chunk: clos.Chunk, Locals: locals}
}

// call pops a callee and argc arguments off the operand stack and invokes
// the callee. A tail call reuses the current frame in place; an ordinary
// call pushes a new one (spec §4.5.1).
func (m *Machine) call(argc int, tail bool) (done bool, result values.Value, err error) {
	args := m.popN(argc)
	callee := m.pop()

	switch {
	case callee.IsNative():
		v, err := callee.AsNative().Fn(args)
		if err != nil {
			return false, values.Value{}, fmt.Errorf("%s: %w", callee.AsNative().Name, err)
		}
		m.push(v)
		return false, values.Value{}, nil

	case callee.IsFunc():
		fn := callee.AsFunc()
		if len(args) != fn.Chunk.Arity {
			return false, values.Value{}, fmt.Errorf("function expects %d arguments, got %d", fn.Chunk.Arity, len(args))
		}
		locals := append([]values.Value(nil), fn.Locals...)
		copy(locals, args)

		if tail {
			top := m.calls[len(m.calls)-1]
			top.chunk = fn.Chunk
			top.locals = locals
			top.pc = 0
			return false, values.Value{}, nil
		}

		if m.MaxCallDepth > 0 && len(m.calls) >= m.MaxCallDepth {
			return false, values.Value{}, fmt.Errorf("machine: exceeded call depth %d", m.MaxCallDepth)
		}
		m.calls = append(m.calls, &frame{chunk: fn.Chunk, locals: locals})
		return false, values.Value{}, nil

	default:
		return false, values.Value{}, fmt.Errorf("value is not callable")
	}
}

// doReturn pops the current frame; if it was the outermost one, the machine
// run is complete and the top of the operand stack is the final result.
func (m *Machine) doReturn() (done bool, result values.Value, err error) {
	if len(m.calls) == 1 {
		return true, m.pop(), nil
	}
	m.calls = m.calls[:len(m.calls)-1]
	return false, values.Value{}, nil
}
