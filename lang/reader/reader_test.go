package reader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zap/lang/reader"
	"github.com/mna/zap/lang/symtab"
	"github.com/mna/zap/lang/values"
)

func readOne(t *testing.T, env *symtab.Env, src string) values.Value {
	t.Helper()
	r := reader.New()
	r.Tokenize(src)
	r.FlushToken()
	val, ok, err := r.ReadAST(env)
	require.NoError(t, err)
	require.True(t, ok, "expected a complete form for %q", src)
	return val
}

func TestReadAtoms(t *testing.T) {
	env := symtab.NewEnv()

	assert.True(t, readOne(t, env, "nil").IsNil())
	assert.Equal(t, values.Bool(true), readOne(t, env, "true"))
	assert.Equal(t, values.Bool(false), readOne(t, env, "false"))
	assert.Equal(t, values.Number(42), readOne(t, env, "42"))
	assert.Equal(t, values.Number(-1.5), readOne(t, env, "-1.5"))
	assert.Equal(t, values.Str("hi"), readOne(t, env, `"hi"`))

	sym := readOne(t, env, "foo")
	require.True(t, sym.IsSymbol())
	name, err := env.Name(sym.AsSymbol())
	require.NoError(t, err)
	assert.Equal(t, "foo", name)
}

func TestReadStringEscapes(t *testing.T) {
	env := symtab.NewEnv()
	val := readOne(t, env, `"a\nb\tc\\d"`)
	require.True(t, val.IsString())
	assert.Equal(t, "a\nb\tc\\d", val.AsString())
}

func TestReadList(t *testing.T) {
	env := symtab.NewEnv()
	val := readOne(t, env, "(+ 1 2)")
	require.True(t, val.IsList())
	items := val.AsList().Items
	require.Len(t, items, 3)
	assert.True(t, items[0].IsSymbol())
	assert.Equal(t, values.Number(1), items[1])
	assert.Equal(t, values.Number(2), items[2])
}

func TestReadQuoteMacro(t *testing.T) {
	env := symtab.NewEnv()
	val := readOne(t, env, "'x")
	require.True(t, val.IsList())
	items := val.AsList().Items
	require.Len(t, items, 2)

	name, err := env.Name(items[0].AsSymbol())
	require.NoError(t, err)
	assert.Equal(t, "quote", name)
	assert.True(t, items[1].IsSymbol())
}

func TestReadUnquoteSpliceDisambiguation(t *testing.T) {
	env := symtab.NewEnv()

	val := readOne(t, env, "`(a ~b ~@c)")
	require.True(t, val.IsList())
	items := val.AsList().Items
	require.Len(t, items, 2) // (quasiquote (a (unquote b) (splice-unquote c)))

	qqName, err := env.Name(items[0].AsSymbol())
	require.NoError(t, err)
	assert.Equal(t, "quasiquote", qqName)

	inner := items[1].AsList().Items
	require.Len(t, inner, 3)

	unq := inner[1].AsList().Items
	unqName, err := env.Name(unq[0].AsSymbol())
	require.NoError(t, err)
	assert.Equal(t, "unquote", unqName)

	splice := inner[2].AsList().Items
	spliceName, err := env.Name(splice[0].AsSymbol())
	require.NoError(t, err)
	assert.Equal(t, "splice-unquote", spliceName)
}

func TestReadDeref(t *testing.T) {
	env := symtab.NewEnv()
	val := readOne(t, env, "@x")
	require.True(t, val.IsList())
	items := val.AsList().Items
	name, err := env.Name(items[0].AsSymbol())
	require.NoError(t, err)
	assert.Equal(t, "deref", name)
}

func TestReadLineComment(t *testing.T) {
	env := symtab.NewEnv()
	val := readOne(t, env, "; a comment\n42")
	assert.Equal(t, values.Number(42), val)
}

// TestTokenizeChunkInvariance feeds the same source split at every possible
// boundary and checks the parsed result is identical each time (spec §8
// "Tokenize-chunk invariance").
func TestTokenizeChunkInvariance(t *testing.T) {
	src := `(def greet (fn (name) (concat "hello " name)))`
	env := symtab.NewEnv()
	whole := readOne(t, env, src)

	for i := 1; i < len(src); i++ {
		env2 := symtab.NewEnv()
		r := reader.New()
		r.Tokenize(src[:i])
		r.Tokenize(src[i:])
		r.FlushToken()
		val, ok, err := r.ReadAST(env2)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, sameShape(whole, val), "split at %d produced a different shape", i)
	}
}

// sameShape compares values structurally (ignoring list/symbol identity,
// since each split re-interns symbols in a fresh environment).
func sameShape(a, b values.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case values.KindList:
		ai, bi := a.AsList().Items, b.AsList().Items
		if len(ai) != len(bi) {
			return false
		}
		for i := range ai {
			if !sameShape(ai[i], bi[i]) {
				return false
			}
		}
		return true
	case values.KindSymbol:
		return true // symbol identity differs across environments by construction
	default:
		return values.Equal(a, b)
	}
}

func TestUnclosedListReturnsNoForm(t *testing.T) {
	env := symtab.NewEnv()
	r := reader.New()
	r.Tokenize("(+ 1 2")
	r.FlushToken()
	_, ok, err := r.ReadAST(env)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnexpectedCloseParen(t *testing.T) {
	env := symtab.NewEnv()
	r := reader.New()
	r.Tokenize(")")
	_, _, err := r.ReadAST(env)
	assert.Error(t, err)
}
