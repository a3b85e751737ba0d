package values_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zap/lang/values"
)

func TestTruthy(t *testing.T) {
	assert.False(t, values.Nil.Truthy())
	assert.False(t, values.Bool(false).Truthy())
	assert.True(t, values.Bool(true).Truthy())
	assert.True(t, values.Number(0).Truthy())
	assert.True(t, values.Str("").Truthy())
}

func TestEqualStructuralForAtoms(t *testing.T) {
	assert.True(t, values.Equal(values.Number(1), values.Number(1)))
	assert.False(t, values.Equal(values.Number(1), values.Number(2)))
	assert.True(t, values.Equal(values.Str("a"), values.Str("a")))
	assert.True(t, values.Equal(values.Nil, values.Nil))
	assert.False(t, values.Equal(values.Nil, values.Bool(false)))
}

func TestEqualIdentityForLists(t *testing.T) {
	a := values.FromList(values.NewList([]values.Value{values.Number(1)}))
	b := values.FromList(values.NewList([]values.Value{values.Number(1)}))
	assert.False(t, values.Equal(a, b), "structurally-identical lists from separate constructions are not Equal")
	assert.True(t, values.Equal(a, a))
}

func TestAddSubMulTypeErrors(t *testing.T) {
	_, err := values.Add(values.Number(1), values.Str("x"))
	require.Error(t, err)

	_, err = values.Sub(values.Bool(true), values.Number(1))
	require.Error(t, err)

	_, err = values.Mul(values.Nil, values.Number(1))
	require.Error(t, err)
}

func TestArithmeticHappyPath(t *testing.T) {
	v, err := values.Add(values.Number(1), values.Number(2))
	require.NoError(t, err)
	assert.Equal(t, values.Number(3), v)

	v, err = values.Sub(values.Number(5), values.Number(2))
	require.NoError(t, err)
	assert.Equal(t, values.Number(3), v)

	v, err = values.Mul(values.Number(3), values.Number(4))
	require.NoError(t, err)
	assert.Equal(t, values.Number(12), v)
}

func TestIsCallable(t *testing.T) {
	n := values.NewNative("id", func(args []values.Value) (values.Value, error) { return args[0], nil })
	assert.True(t, n.IsCallable())
	assert.False(t, values.Number(1).IsCallable())

	f := values.FromFunc(&values.Func{Chunk: &values.Chunk{}})
	assert.True(t, f.IsCallable())

	c := values.FromClosure(&values.Closure{Chunk: &values.Chunk{}})
	assert.False(t, c.IsCallable(), "an unmaterialized closure is not directly callable")
}
