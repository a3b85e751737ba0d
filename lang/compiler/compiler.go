// Package compiler turns a read Value tree into a values.Chunk of bytecode,
// per spec.md §4.4. It recognizes the fixed special forms (if, do, def, fn,
// let, quote, quasiquote) and the two inlined arithmetic/comparison
// operators (+, =), and compiles anything else as a function application.
// Grounded on original_source/zap/src/compiler.rs; expressed here as
// ordinary recursive descent over the Value tree rather than the original's
// explicit work-stack, since Go's goroutine stacks grow dynamically and
// recursion depth is not the concern it is in a fixed-stack VM host.
package compiler

import (
	"fmt"
	"math"

	"github.com/mna/zap/lang/symtab"
	"github.com/mna/zap/lang/values"
)

// maxParams is the largest parameter count a fn may declare (spec §4.4
// error conditions: "A function cannot have more than 254 parameters.").
const maxParams = 254

// localVar is one named local slot in a funcScope.
type localVar struct {
	name values.SymbolID
	slot int
}

// funcScope tracks the local-slot layout of one lexical function level
// (the top-level form counts as a level with no captured outers).
type funcScope struct {
	parent *funcScope
	locals []localVar
	outers []values.Outer
	chunk  *values.Chunk
}

func newFuncScope(parent *funcScope) *funcScope {
	return &funcScope{parent: parent, chunk: &values.Chunk{}}
}

func (fs *funcScope) findLocal(sym values.SymbolID) (int, bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == sym {
			return fs.locals[i].slot, true
		}
	}
	return 0, false
}

// allocLocal reserves a new local slot for sym. It errors once the scope's
// slot count would exceed the width of a Load/Store operand (spec §4.4
// error conditions: "Too many locals in scope!").
func (fs *funcScope) allocLocal(sym values.SymbolID) (int, error) {
	if fs.chunk.ScopeSize > math.MaxUint16 {
		return 0, fmt.Errorf("Too many locals in scope!")
	}
	slot := fs.chunk.ScopeSize
	fs.chunk.ScopeSize++
	fs.locals = append(fs.locals, localVar{name: sym, slot: slot})
	return slot, nil
}

// Compiler compiles Value trees against a shared symbol environment. A
// Compiler is reusable across calls to Compile.
type Compiler struct {
	env *symtab.Env
}

// New returns a Compiler bound to env. The same env must also back the
// reader that produced the expressions being compiled and the machine that
// will run the result, since symbol ids are only meaningful within one env.
func New(env *symtab.Env) *Compiler {
	return &Compiler{env: env}
}

// Compile produces a zero-argument Chunk whose body is expr, suitable for
// immediate execution by the machine (spec §4.4 "compile").
func (c *Compiler) Compile(expr values.Value) (*values.Chunk, error) {
	scope := newFuncScope(nil)
	if err := c.compileExpr(scope, expr, true); err != nil {
		return nil, err
	}
	scope.chunk.Ops = append(scope.chunk.Ops, values.Op{Code: values.OpReturn})
	return scope.chunk, nil
}

func (c *Compiler) emit(fs *funcScope, code values.OpCode, arg uint16) int {
	fs.chunk.Ops = append(fs.chunk.Ops, values.Op{Code: code, Arg: arg})
	return len(fs.chunk.Ops) - 1
}

// addConst interns a literal into the chunk's constant pool. Atoms dedup
// structurally; lists (and closures, which never appear as literals
// otherwise) are never deduped, since they compare by identity at runtime
// (spec §4.4.2, §9). It errors once the pool would exceed the width of a
// Push/AddConst/EqConst operand (spec §4.4 error conditions: "Too many
// constants in the constants table").
func (c *Compiler) addConst(fs *funcScope, v values.Value) (uint16, error) {
	if v.Kind() != values.KindList && v.Kind() != values.KindClosure {
		for i, ex := range fs.chunk.Consts {
			if values.Equal(ex, v) {
				return uint16(i), nil
			}
		}
	}
	if len(fs.chunk.Consts) > math.MaxUint16 {
		return 0, fmt.Errorf("Too many constants in the constants table")
	}
	fs.chunk.Consts = append(fs.chunk.Consts, v)
	return uint16(len(fs.chunk.Consts) - 1), nil
}

// patchJump backpatches the operand of the Jmp/CondJmp instruction at pos to
// the current end of fs's op stream, erroring if the offset overflows the
// operand width (spec §4.4 error conditions: "<branch> jump is too big.").
func (c *Compiler) patchJump(fs *funcScope, pos int, branch string) error {
	target := len(fs.chunk.Ops)
	if target > math.MaxUint16 {
		return fmt.Errorf("%s jump is too big.", branch)
	}
	fs.chunk.Ops[pos].Arg = uint16(target)
	return nil
}

func symbolNamed(env *symtab.Env, v values.Value, name string) bool {
	if !v.IsSymbol() {
		return false
	}
	n, err := env.Name(v.AsSymbol())
	return err == nil && n == name
}

// compileExpr compiles expr into fs, emitting a Tailcall instead of a Call
// at the end of the compiled form when tail is true (spec §4.4.1).
func (c *Compiler) compileExpr(fs *funcScope, expr values.Value, tail bool) error {
	switch expr.Kind() {
	case values.KindNil, values.KindBool, values.KindNumber, values.KindString:
		idx, err := c.addConst(fs, expr)
		if err != nil {
			return err
		}
		c.emit(fs, values.OpPush, idx)
		return nil

	case values.KindSymbol:
		return c.compileSymbolRef(fs, expr.AsSymbol())

	case values.KindList:
		items := expr.AsList().Items
		if len(items) == 0 {
			idx, err := c.addConst(fs, values.FromList(values.NewList(nil)))
			if err != nil {
				return err
			}
			c.emit(fs, values.OpPush, idx)
			return nil
		}
		return c.compileForm(fs, items, tail)

	default:
		return fmt.Errorf("cannot compile a %s literal", expr.Kind())
	}
}

func (c *Compiler) compileSymbolRef(fs *funcScope, sym values.SymbolID) error {
	if slot, ok := fs.findLocal(sym); ok {
		c.emit(fs, values.OpLoad, uint16(slot))
		return nil
	}
	level := 0
	for anc := fs.parent; anc != nil; anc = anc.parent {
		if pos, ok := anc.findLocal(sym); ok {
			dest, err := fs.allocLocal(sym)
			if err != nil {
				return err
			}
			fs.outers = append(fs.outers, values.Outer{Level: level, Position: pos, Dest: dest})
			c.emit(fs, values.OpLoad, uint16(dest))
			return nil
		}
		level++
	}
	c.emit(fs, values.OpLookUp, uint16(sym))
	return nil
}

func (c *Compiler) compileForm(fs *funcScope, items []values.Value, tail bool) error {
	head := items[0]
	if head.IsSymbol() {
		switch head.AsSymbol() {
		case symtab.SymIf:
			return c.compileIf(fs, items, tail)
		case symtab.SymDo:
			return c.compileDo(fs, items[1:], tail)
		case symtab.SymDef:
			return c.compileDef(fs, items)
		case symtab.SymLet:
			return c.compileLet(fs, items, tail)
		case symtab.SymFn:
			return c.compileFn(fs, items)
		case symtab.SymQuote:
			return c.compileQuote(fs, items)
		case symtab.SymQuasiquote:
			return c.compileQuasiquote(fs, items)
		case symtab.SymPlus:
			if ok, err := c.tryCompileAdd(fs, items); ok || err != nil {
				return err
			}
		case symtab.SymEq:
			if ok, err := c.tryCompileEq(fs, items); ok || err != nil {
				return err
			}
		}
	}
	return c.compileApply(fs, items, tail)
}

// compileIf compiles (if cond then else). All three arguments are
// mandatory (spec §4.4: the surface grammar only allows the 4-element form
// and the compiler rejects anything else, matching
// original_source/zap/src/compiler.rs's `list.len() != 4` check).
func (c *Compiler) compileIf(fs *funcScope, items []values.Value, tail bool) error {
	if len(items) != 4 {
		return fmt.Errorf("An if form must have 3 parameters")
	}
	if err := c.compileExpr(fs, items[1], false); err != nil {
		return err
	}
	jmpToElse := c.emit(fs, values.OpCondJmp, 0)
	if err := c.compileExpr(fs, items[2], tail); err != nil {
		return err
	}
	jmpToEnd := c.emit(fs, values.OpJmp, 0)

	if err := c.patchJump(fs, jmpToElse, "then"); err != nil {
		return err
	}
	if err := c.compileExpr(fs, items[3], tail); err != nil {
		return err
	}
	if err := c.patchJump(fs, jmpToEnd, "else"); err != nil {
		return err
	}
	return nil
}

// compileDo compiles a sequence of forms, discarding all but the last
// result. An empty do evaluates to nil.
func (c *Compiler) compileDo(fs *funcScope, body []values.Value, tail bool) error {
	if len(body) == 0 {
		idx, err := c.addConst(fs, values.Nil)
		if err != nil {
			return err
		}
		c.emit(fs, values.OpPush, idx)
		return nil
	}
	for _, e := range body[:len(body)-1] {
		if err := c.compileExpr(fs, e, false); err != nil {
			return err
		}
		c.emit(fs, values.OpPop, 0)
	}
	return c.compileExpr(fs, body[len(body)-1], tail)
}

// compileDef compiles (def sym val): sym is bound as a global and the
// form's own value is the bound value, so defs can be chained inside a do.
func (c *Compiler) compileDef(fs *funcScope, items []values.Value) error {
	if len(items) != 3 {
		return fmt.Errorf("def expects 2 arguments, got %d", len(items)-1)
	}
	if !items[1].IsSymbol() {
		return fmt.Errorf("def: first argument must be a symbol")
	}
	idx, err := c.addConst(fs, items[1])
	if err != nil {
		return err
	}
	c.emit(fs, values.OpPush, idx)
	if err := c.compileExpr(fs, items[2], false); err != nil {
		return err
	}
	c.emit(fs, values.OpDefine, 0)
	return nil
}

// compileLet compiles (let ((sym val) ...) body...). Bindings are
// sequential: each can see the ones bound before it, matching the
// teacher-family convention of a single non-recursive binding form (spec
// §9 Open Question: let semantics, resolved as let*-style sequential
// binding).
func (c *Compiler) compileLet(fs *funcScope, items []values.Value, tail bool) error {
	if len(items) < 3 {
		return fmt.Errorf("let expects a binding list and at least one body form")
	}
	if !items[1].IsList() {
		return fmt.Errorf("let: first argument must be a list of bindings")
	}
	nBefore := len(fs.locals)
	for _, b := range items[1].AsList().Items {
		if !b.IsList() || len(b.AsList().Items) != 2 || !b.AsList().Items[0].IsSymbol() {
			return fmt.Errorf("A binding must consist of a symbol and an expression")
		}
		pair := b.AsList().Items
		if err := c.compileExpr(fs, pair[1], false); err != nil {
			return err
		}
		slot, err := fs.allocLocal(pair[0].AsSymbol())
		if err != nil {
			return err
		}
		c.emit(fs, values.OpStore, uint16(slot))
	}
	if err := c.compileDo(fs, items[2:], tail); err != nil {
		return err
	}
	fs.locals = fs.locals[:nBefore]
	return nil
}

// compileFn compiles (fn (params...) body...) into a Closure value: the
// Closure op, executed at the point the fn form runs, copies the outer
// captures out of the currently live enclosing frames and yields a Func.
func (c *Compiler) compileFn(fs *funcScope, items []values.Value) error {
	if len(items) < 2 {
		return fmt.Errorf("fn expects a parameter list and a body")
	}
	if !items[1].IsList() {
		return fmt.Errorf("fn: first argument must be a parameter list")
	}
	params := items[1].AsList().Items
	if len(params) > maxParams {
		return fmt.Errorf("A function cannot have more than 254 parameters.")
	}
	inner := newFuncScope(fs)
	inner.chunk.Arity = len(params)
	for _, p := range params {
		if !p.IsSymbol() {
			return fmt.Errorf("Only symbols can be used as args in fn.")
		}
		if _, err := inner.allocLocal(p.AsSymbol()); err != nil {
			return err
		}
	}
	if err := c.compileDo(inner, items[2:], true); err != nil {
		return err
	}
	inner.chunk.Ops = append(inner.chunk.Ops, values.Op{Code: values.OpReturn})

	clos := &values.Closure{Chunk: inner.chunk, Outers: inner.outers}
	idx, err := c.addConst(fs, values.FromClosure(clos))
	if err != nil {
		return err
	}
	c.emit(fs, values.OpClosure, idx)
	return nil
}

// compileQuote compiles (quote x): x is pushed verbatim, unevaluated.
func (c *Compiler) compileQuote(fs *funcScope, items []values.Value) error {
	if len(items) != 2 {
		return fmt.Errorf("quote expects 1 argument, got %d", len(items)-1)
	}
	idx, err := c.addConst(fs, items[1])
	if err != nil {
		return err
	}
	c.emit(fs, values.OpPush, idx)
	return nil
}

// compileQuasiquote desugars (quasiquote x) at compile time into an
// equivalent expression built from %list/%concat-lists calls, then compiles
// that expression normally. unquote splices in an evaluated value;
// splice-unquote evaluates to a list and inlines its elements. %list and
// %concat-lists are ordinary natives registered by the stdlib package.
func (c *Compiler) compileQuasiquote(fs *funcScope, items []values.Value) error {
	if len(items) != 2 {
		return fmt.Errorf("quasiquote expects 1 argument, got %d", len(items)-1)
	}
	desugared := c.desugarQuasiquote(items[1])
	return c.compileExpr(fs, desugared, false)
}

func (c *Compiler) desugarQuasiquote(expr values.Value) values.Value {
	if !expr.IsList() {
		return listCall(c.env, "quote", expr)
	}
	items := expr.AsList().Items
	if len(items) == 2 && symbolNamed(c.env, items[0], "unquote") {
		return items[1]
	}
	parts := make([]values.Value, 0, len(items))
	for _, it := range items {
		if it.IsList() {
			sub := it.AsList().Items
			if len(sub) == 2 && symbolNamed(c.env, sub[0], "splice-unquote") {
				parts = append(parts, sub[1])
				continue
			}
		}
		parts = append(parts, listCall(c.env, "%list", c.desugarQuasiquote(it)))
	}
	return listCall(c.env, "%concat-lists", parts...)
}

func listCall(env *symtab.Env, name string, args ...values.Value) values.Value {
	items := make([]values.Value, 0, len(args)+1)
	items = append(items, env.Intern(name))
	items = append(items, args...)
	return values.FromList(values.NewList(items))
}

// tryCompileAdd inlines (+ a b [c ...]) as a chain of Add/AddConst ops. It
// returns ok=false (falling through to ordinary application) when + is used
// with fewer than 2 arguments, since the inline form requires a seed value.
func (c *Compiler) tryCompileAdd(fs *funcScope, items []values.Value) (bool, error) {
	args := items[1:]
	if len(args) < 2 {
		return false, nil
	}
	if err := c.compileExpr(fs, args[0], false); err != nil {
		return true, err
	}
	for _, a := range args[1:] {
		if isLiteral(a) {
			idx, err := c.addConst(fs, a)
			if err != nil {
				return true, err
			}
			c.emit(fs, values.OpAddConst, idx)
			continue
		}
		if err := c.compileExpr(fs, a, false); err != nil {
			return true, err
		}
		c.emit(fs, values.OpAdd, 0)
	}
	return true, nil
}

// tryCompileEq inlines (= a b) as Eq/EqConst. Equal requires exactly 2
// arguments; other arities fall through to ordinary application (and fail
// at call time, since = is not otherwise bound as a callable).
func (c *Compiler) tryCompileEq(fs *funcScope, items []values.Value) (bool, error) {
	if len(items) != 3 {
		return false, nil
	}
	a, b := items[1], items[2]
	if err := c.compileExpr(fs, a, false); err != nil {
		return true, err
	}
	if isLiteral(b) {
		idx, err := c.addConst(fs, b)
		if err != nil {
			return true, err
		}
		c.emit(fs, values.OpEqConst, idx)
	} else {
		if err := c.compileExpr(fs, b, false); err != nil {
			return true, err
		}
		c.emit(fs, values.OpEq, 0)
	}
	return true, nil
}

func isLiteral(v values.Value) bool {
	switch v.Kind() {
	case values.KindNil, values.KindBool, values.KindNumber, values.KindString:
		return true
	default:
		return false
	}
}

// compileApply compiles a function call: the callee and each argument are
// compiled in order, followed by Call(argc) or, in tail position,
// Tailcall(argc) (spec §4.4.1, §4.5.1).
func (c *Compiler) compileApply(fs *funcScope, items []values.Value, tail bool) error {
	if err := c.compileExpr(fs, items[0], false); err != nil {
		return err
	}
	for _, a := range items[1:] {
		if err := c.compileExpr(fs, a, false); err != nil {
			return err
		}
	}
	argc := uint16(len(items) - 1)
	if tail {
		c.emit(fs, values.OpTailcall, argc)
	} else {
		c.emit(fs, values.OpCall, argc)
	}
	return nil
}
