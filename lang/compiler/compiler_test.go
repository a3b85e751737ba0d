package compiler_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zap/lang/compiler"
	"github.com/mna/zap/lang/reader"
	"github.com/mna/zap/lang/symtab"
	"github.com/mna/zap/lang/values"
)

// mustRead reads the single top-level form in src.
func mustRead(t *testing.T, env *symtab.Env, src string) values.Value {
	t.Helper()
	r := reader.New()
	r.Tokenize(src)
	r.FlushToken()
	v, ok, err := r.ReadAST(env)
	require.NoError(t, err)
	require.True(t, ok, "no form read from %q", src)
	return v
}

// compileOne reads and compiles the single top-level form in src.
func compileOne(t *testing.T, env *symtab.Env, src string) *values.Chunk {
	t.Helper()
	chunk, err := compiler.New(env).Compile(mustRead(t, env, src))
	require.NoError(t, err)
	return chunk
}

func countOps(chunk *values.Chunk, code values.OpCode) int {
	n := 0
	for _, op := range chunk.Ops {
		if op.Code == code {
			n++
		}
	}
	return n
}

func TestEmptyListCompilesToEmptyListConstant(t *testing.T) {
	env := symtab.NewEnv()
	chunk := compileOne(t, env, "()")
	require.Len(t, chunk.Ops, 2) // Push, Return
	require.Equal(t, values.OpPush, chunk.Ops[0].Code)
	cst := chunk.Consts[chunk.Ops[0].Arg]
	require.True(t, cst.IsList())
	assert.Empty(t, cst.AsList().Items)
	assert.True(t, cst.Truthy(), "an empty list is truthy, unlike nil")
}

func TestIfRequiresExactlyThreeParameters(t *testing.T) {
	env := symtab.NewEnv()

	_, err := compiler.New(env).Compile(mustRead(t, env, "(if true 1)"))
	require.Error(t, err)

	_, err = compiler.New(env).Compile(mustRead(t, env, "(if true 1 2 3)"))
	require.Error(t, err)

	chunk := compileOne(t, env, "(if true 1 2)")
	assert.Equal(t, 1, countOps(chunk, values.OpCondJmp))
	assert.Equal(t, 1, countOps(chunk, values.OpJmp))
}

func TestConstantDedupForAtomsNotForLists(t *testing.T) {
	env := symtab.NewEnv()
	chunk := compileOne(t, env, `(+ 1 1 "s" "s" (quote (1)) (quote (1)))`)
	// the two 1-consts and the two "s"-consts should each collapse to one
	// entry, but the two structurally-identical quoted lists must not.
	var ones, esses, lists int
	for _, c := range chunk.Consts {
		switch {
		case c.IsNumber() && c.AsNumber() == 1:
			ones++
		case c.IsString() && c.AsString() == "s":
			esses++
		case c.IsList():
			lists++
		}
	}
	assert.Equal(t, 1, ones)
	assert.Equal(t, 1, esses)
	assert.Equal(t, 2, lists)
}

func TestFnRejectsTooManyParameters(t *testing.T) {
	env := symtab.NewEnv()
	params := ""
	for i := 0; i < 255; i++ {
		params += "p" + strconv.Itoa(i) + " "
	}
	_, err := compiler.New(env).Compile(mustRead(t, env, "(fn ("+params+") 1)"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "254 parameters")
}

func TestFnOnlyAllowsSymbolParameters(t *testing.T) {
	env := symtab.NewEnv()
	_, err := compiler.New(env).Compile(mustRead(t, env, "(fn (1) 1)"))
	require.Error(t, err)
}

func TestClosureCapturesOuterAtCompileTime(t *testing.T) {
	env := symtab.NewEnv()
	chunk := compileOne(t, env, "(fn (n) (fn (m) (+ n m)))")
	require.Len(t, chunk.Consts, 1)
	outer := chunk.Consts[0]
	require.True(t, outer.IsClosure())
	inner := outer.AsClosure().Chunk
	require.NotEmpty(t, inner.Consts)
	innermostClosure := inner.Consts[len(inner.Consts)-1]
	require.True(t, innermostClosure.IsClosure())
	assert.Len(t, innermostClosure.AsClosure().Outers, 1)
	assert.Equal(t, 0, innermostClosure.AsClosure().Outers[0].Level)
}

func TestTailPositionEmitsTailcall(t *testing.T) {
	env := symtab.NewEnv()
	chunk := compileOne(t, env, "(fn (n) (f n))")
	require.Len(t, chunk.Consts, 1)
	inner := chunk.Consts[0].AsClosure().Chunk
	assert.Equal(t, 1, countOps(inner, values.OpTailcall))
	assert.Equal(t, 0, countOps(inner, values.OpCall))
}

func TestNonTailPositionEmitsCall(t *testing.T) {
	env := symtab.NewEnv()
	chunk := compileOne(t, env, "(fn (n) (do (f n) 1))")
	inner := chunk.Consts[0].AsClosure().Chunk
	assert.Equal(t, 1, countOps(inner, values.OpCall))
	assert.Equal(t, 0, countOps(inner, values.OpTailcall))
}

func TestLetBindingsAreSequential(t *testing.T) {
	env := symtab.NewEnv()
	// b's initializer refers to a, which must already be bound; this must
	// compile without falling back to a global LookUp for a.
	chunk := compileOne(t, env, "(let ((a 1) (b (+ a 1))) b)")
	assert.Equal(t, 0, countOps(chunk, values.OpLookUp))
}

func TestDefChainsThroughDo(t *testing.T) {
	env := symtab.NewEnv()
	chunk := compileOne(t, env, "(do (def x 1) (def y x))")
	assert.Equal(t, 2, countOps(chunk, values.OpDefine))
}
