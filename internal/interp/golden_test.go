package interp_test

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/zap/internal/filetest"
	"github.com/mna/zap/internal/interp"
	"github.com/mna/zap/lang/printer"
)

var update = flag.Bool("test.update-golden", false, "update the golden .want files in testdata")

// TestGolden evaluates every .zap file under testdata against a fresh
// Interp and diffs the printed value of its last top-level form against the
// corresponding .want golden file, the same shape of check internal/maincmd's
// "run" subcommand performs on real files.
func TestGolden(t *testing.T) {
	dir := "testdata"
	for _, fi := range filetest.SourceFiles(t, dir, ".zap") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(dir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}
			in := interp.New()
			v, err := in.EvalString(context.Background(), string(src))
			if err != nil {
				t.Fatal(err)
			}
			got := printer.Print(in.Env, v)
			filetest.DiffOutput(t, fi, got, dir, update)
		})
	}
}
