package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CharClass_Union(t *testing.T) {
	c := RuneRange('a', 'c').Union(RuneRange('x', 'z'))
	assert.True(t, c.Contains('b'))
	assert.True(t, c.Contains('y'))
	assert.False(t, c.Contains('m'))
}

func Test_CharClass_Union_MergesAdjacent(t *testing.T) {
	c := RuneRange('a', 'c').Union(RuneRange('d', 'f'))
	assert.Equal(t, 1, len(c.ranges))
}

func Test_CharClass_Intersect(t *testing.T) {
	c := RuneRange('a', 'm').Intersect(RuneRange('g', 'z'))
	assert.False(t, c.Contains('a'))
	assert.True(t, c.Contains('g'))
	assert.True(t, c.Contains('m'))
	assert.False(t, c.Contains('n'))
}

func Test_CharClass_Difference(t *testing.T) {
	c := RuneRange('a', 'z').Difference(RuneRange('m', 'o'))
	assert.True(t, c.Contains('a'))
	assert.False(t, c.Contains('m'))
	assert.False(t, c.Contains('o'))
	assert.True(t, c.Contains('p'))
}

func Test_CharClass_Negate(t *testing.T) {
	c := Single('a').Negate()
	assert.False(t, c.Contains('a'))
	assert.True(t, c.Contains('b'))
	assert.True(t, c.Contains(0))
}

func Test_CharClass_Empty(t *testing.T) {
	c := RuneRange('a', 'c').Intersect(RuneRange('x', 'z'))
	assert.True(t, c.Empty())
}

func Test_CharClass_Any_ExcludesNewline(t *testing.T) {
	any := Any()
	assert.False(t, any.Contains('\n'))
	assert.True(t, any.Contains('a'))
	assert.True(t, any.Contains(' '))
}
