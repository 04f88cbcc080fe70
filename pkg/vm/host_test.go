package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rookscript/rookscript/pkg/value"
)

func noopFunction(name string) HostFunction {
	return NewFunction(name, 0, Usage{}, func(in *Instance, ret *value.Value) (bool, error) {
		return true, nil
	})
}

func TestFunctionSetLookup(t *testing.T) {
	fn := noopFunction("Greet")
	set := NewFunctionSet(fn)

	assert.True(t, set.ContainsFunction("greet"), "names match case-insensitively")
	assert.True(t, set.ContainsFunction("GREET"))
	assert.False(t, set.ContainsFunction("other"))

	// Contains and Get agree, and repeated lookups return the same
	// descriptor.
	for _, name := range []string{"greet", "Greet", "other", ""} {
		assert.Equal(t, set.ContainsFunction(name), set.GetFunction(name) != nil, name)
	}
	assert.Same(t, set.GetFunction("greet"), set.GetFunction("GREET"))
}

func TestFunctionSetIgnoresNamespaces(t *testing.T) {
	set := NewFunctionSet(noopFunction("f"))
	assert.NotNil(t, set.ResolveFunction("", "f"))
	assert.Nil(t, set.ResolveFunction("ns", "f"))
}

func TestCompositeGlobalOrdering(t *testing.T) {
	first := noopFunction("shared")
	second := noopFunction("shared")
	onlySecond := noopFunction("extra")

	r := NewCompositeResolver().
		With(NewFunctionSet(first)).
		With(NewFunctionSet(second, onlySecond))

	// Registration order wins for shadowed names; later resolvers still
	// serve their unshadowed ones.
	assert.Same(t, first, r.GetFunction("shared"))
	assert.Same(t, onlySecond, r.GetFunction("extra"))
	assert.Nil(t, r.GetFunction("missing"))

	for _, name := range []string{"shared", "extra", "missing"} {
		assert.Equal(t, r.ContainsFunction(name), r.GetFunction(name) != nil, name)
	}
}

func TestCompositeNamespaces(t *testing.T) {
	global := noopFunction("f")
	spaced := noopFunction("f")
	r := NewCompositeResolver().
		With(NewFunctionSet(global)).
		WithNamespace("IO", NewFunctionSet(spaced))

	assert.Same(t, global, r.ResolveFunction("", "f"))
	assert.Same(t, spaced, r.ResolveFunction("io", "f"), "namespace names match case-insensitively")
	assert.Same(t, spaced, r.ResolveFunction("IO", "F"))
	assert.Nil(t, r.ResolveFunction("net", "f"), "only the named namespace is consulted")

	// A qualified lookup never falls back to the global namespace.
	r2 := NewCompositeResolver().With(NewFunctionSet(global))
	assert.Nil(t, r2.ResolveFunction("io", "f"))
}

func TestNewFunctionDescriptor(t *testing.T) {
	usage := Usage{Instructions: "does things", Returns: "NULL"}
	fn := NewFunction("thing", 2, usage, func(in *Instance, ret *value.Value) (bool, error) {
		ret.SetInteger(1)
		return true, nil
	})
	assert.Equal(t, "thing", fn.Name())
	assert.Equal(t, 2, fn.ParameterCount())
	assert.Equal(t, usage, fn.Usage())

	var ret value.Value
	cont, err := fn.Execute(nil, &ret)
	require.NoError(t, err)
	assert.True(t, cont)
	assert.Equal(t, int64(1), ret.AsInt64())
}
