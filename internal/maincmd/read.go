package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/zap/lang/printer"
	"github.com/mna/zap/lang/reader"
	"github.com/mna/zap/lang/symtab"
)

// Read implements the "read" subcommand: read each file's top-level forms
// and print them back out via the printer, one per line.
func (c *Cmd) Read(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		env := symtab.NewEnv()
		r := reader.New()
		r.Tokenize(string(src))
		r.FlushToken()

		for {
			val, ok, err := r.ReadAST(env)
			if err != nil {
				return printError(stdio, fmt.Errorf("%s: %w", path, err))
			}
			if !ok {
				break
			}
			fmt.Fprintf(stdio.Stdout, "%s: %s\n", path, printer.Print(env, val))
		}
	}
	return nil
}
