// Package interp wires the reader, compiler and machine together into the
// single-source-string-in, single-value-out pipeline described in
// spec.md §6 ("Host/front-end responsibilities") and grounded on
// original_source/zap-server/src/repl.rs, which glues the same three stages
// behind "Reader error:"/"Compile error:"/"Eval error:" prefixes. Used by
// both the batch CLI (internal/maincmd) and by package tests.
package interp

import (
	"context"
	"fmt"

	"github.com/mna/zap/lang/compiler"
	"github.com/mna/zap/lang/machine"
	"github.com/mna/zap/lang/reader"
	"github.com/mna/zap/lang/symtab"
	"github.com/mna/zap/lang/values"
	"github.com/mna/zap/stdlib"
)

// Interp bundles one symbol environment with the machine that runs against
// it, so that successive EvalString calls see each other's top-level defs
// (spec §4.2 "Env is long-lived across forms").
type Interp struct {
	Env     *symtab.Env
	Machine *machine.Machine
}

// New returns an Interp with the stdlib builtins already installed.
func New() *Interp {
	env := symtab.NewEnv()
	stdlib.Install(env)
	return &Interp{Env: env, Machine: machine.New(env)}
}

// EvalString reads every top-level form out of src in order, compiling and
// running each one against the shared environment, and returns the value of
// the last form. An empty src (no complete forms) returns values.Nil.
func (in *Interp) EvalString(ctx context.Context, src string) (values.Value, error) {
	r := reader.New()
	r.Tokenize(src)
	r.FlushToken()

	c := compiler.New(in.Env)

	result := values.Nil
	for {
		expr, ok, err := r.ReadAST(in.Env)
		if err != nil {
			return values.Value{}, fmt.Errorf("reader error: %w", err)
		}
		if !ok {
			return result, nil
		}

		chunk, err := c.Compile(expr)
		if err != nil {
			return values.Value{}, fmt.Errorf("compile error: %w", err)
		}

		result, err = in.Machine.Run(ctx, chunk)
		if err != nil {
			return values.Value{}, fmt.Errorf("eval error: %w", err)
		}
	}
}
