package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/zap/lang/reader"
)

// Tokenize implements the "tokenize" subcommand: print each file's token
// stream, one token per line.
func (c *Cmd) Tokenize(_ context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return printError(stdio, err)
		}
		r := reader.New()
		r.Tokenize(string(src))
		r.FlushToken()
		for _, line := range r.DrainTokens() {
			fmt.Fprintf(stdio.Stdout, "%s: %s\n", path, line)
		}
	}
	return nil
}
