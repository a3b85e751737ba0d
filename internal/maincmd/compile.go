package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/zap/lang/compiler"
	"github.com/mna/zap/lang/reader"
	"github.com/mna/zap/lang/symtab"
)

// Compile implements the "compile" subcommand: compile each file's
// top-level forms and print the resulting bytecode disassembly.
func (c *Cmd) Compile(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		env := symtab.NewEnv()
		comp := compiler.New(env)
		r := reader.New()
		r.Tokenize(string(src))
		r.FlushToken()

		formIdx := 0
		for {
			val, ok, err := r.ReadAST(env)
			if err != nil {
				return printError(stdio, fmt.Errorf("%s: %w", path, err))
			}
			if !ok {
				break
			}
			chunk, err := comp.Compile(val)
			if err != nil {
				return printError(stdio, fmt.Errorf("%s: %w", path, err))
			}
			fmt.Fprintf(stdio.Stdout, "%s: form %d\n", path, formIdx)
			for pc, op := range chunk.Ops {
				fmt.Fprintf(stdio.Stdout, "  %4d  %s\n", pc, op)
			}
			formIdx++
		}
	}
	return nil
}
