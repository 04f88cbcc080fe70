package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCaseInsensitiveKeys(t *testing.T) {
	m := NewMap()
	v := Of("Ada")
	m.Set("Name", &v)

	var out Value
	require.True(t, m.Get("name", &out))
	assert.Equal(t, "Ada", out.AsString())
	require.True(t, m.Get("NAME", &out))
	assert.Equal(t, "Ada", out.AsString())

	v = Of("Grace")
	m.Set("NAME", &v)
	assert.Equal(t, 1, m.Len(), "reassignment through another spelling hits the same entry")
	m.Get("Name", &out)
	assert.Equal(t, "Grace", out.AsString())
	assert.Equal(t, []string{"Name"}, m.Keys(), "the first spelling is kept")
}

func TestMapMissingKey(t *testing.T) {
	m := NewMap()
	var out Value
	out.SetInteger(9)
	assert.False(t, m.Get("nope", &out))
	assert.True(t, out.IsNull(), "a miss overwrites the slot with NULL")
	assert.False(t, m.Has("nope"))
}

func TestMapInsertionOrder(t *testing.T) {
	m := NewMap()
	for _, k := range []string{"zeta", "Alpha", "mid"} {
		v := Of(1)
		m.Set(k, &v)
	}
	assert.Equal(t, []string{"zeta", "Alpha", "mid"}, m.Keys())

	var visited []string
	m.Each(func(key string, v *Value) bool {
		visited = append(visited, key)
		return true
	})
	assert.Equal(t, []string{"zeta", "Alpha", "mid"}, visited)
}

func TestMapRemove(t *testing.T) {
	m := NewMap()
	for _, k := range []string{"a", "b", "c"} {
		v := Of(k)
		m.Set(k, &v)
	}
	assert.True(t, m.Remove("B"))
	assert.False(t, m.Remove("B"))
	assert.Equal(t, []string{"a", "c"}, m.Keys())

	// Entries after the removed one still resolve.
	var out Value
	require.True(t, m.Get("c", &out))
	assert.Equal(t, "c", out.AsString())
}
