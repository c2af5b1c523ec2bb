package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse_Concat(t *testing.T) {
	n, err := Parse("ab")
	require.NoError(t, err)
	c, ok := n.(concatNode)
	require.True(t, ok)
	assert.Len(t, c.parts, 2)
}

func Test_Parse_Union(t *testing.T) {
	n, err := Parse("a|b")
	require.NoError(t, err)
	u, ok := n.(unionNode)
	require.True(t, ok)
	assert.Len(t, u.parts, 2)
}

func Test_Parse_Star(t *testing.T) {
	n, err := Parse("a*")
	require.NoError(t, err)
	_, ok := n.(starNode)
	assert.True(t, ok)
}

func Test_Parse_Plus(t *testing.T) {
	n, err := Parse("a+")
	require.NoError(t, err)
	_, ok := n.(plusNode)
	assert.True(t, ok)
}

func Test_Parse_Optional(t *testing.T) {
	n, err := Parse("a?")
	require.NoError(t, err)
	_, ok := n.(optionalNode)
	assert.True(t, ok)
}

func Test_Parse_CountedRepeat(t *testing.T) {
	n, err := Parse("a{2,4}")
	require.NoError(t, err)
	r, ok := n.(repeatNode)
	require.True(t, ok)
	assert.Equal(t, 2, r.min)
	assert.Equal(t, 4, r.max)
}

func Test_Parse_CountedRepeat_Unbounded(t *testing.T) {
	n, err := Parse("a{2,}")
	require.NoError(t, err)
	r, ok := n.(repeatNode)
	require.True(t, ok)
	assert.Equal(t, 2, r.min)
	assert.Equal(t, -1, r.max)
}

func Test_Parse_Group(t *testing.T) {
	n, err := Parse("(ab)+")
	require.NoError(t, err)
	p, ok := n.(plusNode)
	require.True(t, ok)
	_, ok = p.body.(concatNode)
	assert.True(t, ok)
}

func Test_Parse_BracketClass(t *testing.T) {
	n, err := Parse("[a-z]")
	require.NoError(t, err)
	lit, ok := n.(litNode)
	require.True(t, ok)
	assert.True(t, lit.class.Contains('m'))
	assert.False(t, lit.class.Contains('M'))
}

func Test_Parse_BracketClass_Negated(t *testing.T) {
	n, err := Parse("[^a-z]")
	require.NoError(t, err)
	lit, ok := n.(litNode)
	require.True(t, ok)
	assert.False(t, lit.class.Contains('m'))
	assert.True(t, lit.class.Contains('M'))
}

func Test_Parse_ClassIntersection(t *testing.T) {
	n, err := Parse("[a-m]&&[g-z]")
	require.NoError(t, err)
	lit, ok := n.(litNode)
	require.True(t, ok)
	assert.True(t, lit.class.Contains('h'))
	assert.False(t, lit.class.Contains('a'))
	assert.False(t, lit.class.Contains('z'))
}

func Test_Parse_ClassDifference(t *testing.T) {
	n, err := Parse("[a-z]--[m-o]")
	require.NoError(t, err)
	lit, ok := n.(litNode)
	require.True(t, ok)
	assert.True(t, lit.class.Contains('a'))
	assert.False(t, lit.class.Contains('n'))
}

func Test_Parse_TrailingContext(t *testing.T) {
	n, err := Parse("ab/cd")
	require.NoError(t, err)
	tr, ok := n.(trailingNode)
	require.True(t, ok)
	_, ok = tr.r1.(concatNode)
	assert.True(t, ok)
	_, ok = tr.r2.(concatNode)
	assert.True(t, ok)
}

func Test_Parse_Anchors(t *testing.T) {
	n, err := Parse("^a$")
	require.NoError(t, err)
	c, ok := n.(concatNode)
	require.True(t, ok)
	require.Len(t, c.parts, 3)
	_, ok = c.parts[0].(anchorNode)
	assert.True(t, ok)
	_, ok = c.parts[2].(anchorNode)
	assert.True(t, ok)
}

func Test_Parse_Escape(t *testing.T) {
	n, err := Parse(`\d+`)
	require.NoError(t, err)
	p, ok := n.(plusNode)
	require.True(t, ok)
	lit, ok := p.body.(litNode)
	require.True(t, ok)
	assert.True(t, lit.class.Contains('5'))
	assert.False(t, lit.class.Contains('x'))
}

func Test_Parse_UnterminatedGroupErrors(t *testing.T) {
	_, err := Parse("(ab")
	assert.Error(t, err)
}

func Test_Parse_UnterminatedClassErrors(t *testing.T) {
	_, err := Parse("[abc")
	assert.Error(t, err)
}
