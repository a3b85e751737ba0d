package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/zap/internal/interp"
	"github.com/mna/zap/lang/printer"
)

// Run implements the "run" subcommand: compile and run each file's
// top-level forms, in order, against one shared environment, printing the
// value of the last form evaluated across all files.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	in := interp.New()
	var result string
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		v, err := in.EvalString(ctx, string(src))
		if err != nil {
			return printError(stdio, fmt.Errorf("%s: %w", path, err))
		}
		result = printer.Print(in.Env, v)
	}
	fmt.Fprintln(stdio.Stdout, result)
	return nil
}
