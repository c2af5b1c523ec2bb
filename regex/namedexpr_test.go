package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NamedDefs_Expand_Simple(t *testing.T) {
	d := NewNamedDefs()
	d.Add("digit", "[0-9]")

	out, err := d.expand("{digit}+")
	require.NoError(t, err)
	assert.Equal(t, "([0-9])+", out)
}

func Test_NamedDefs_Expand_Nested(t *testing.T) {
	d := NewNamedDefs()
	d.Add("digit", "[0-9]")
	d.Add("num", "{digit}+")

	out, err := d.expand("{num}")
	require.NoError(t, err)
	assert.Equal(t, "(([0-9])+)", out)
}

func Test_NamedDefs_Expand_UndefinedNameErrors(t *testing.T) {
	d := NewNamedDefs()
	_, err := d.expand("{nope}")
	assert.Error(t, err)
}

func Test_NamedDefs_Expand_RecursiveErrors(t *testing.T) {
	d := NewNamedDefs()
	d.Add("a", "{b}")
	d.Add("b", "{a}")

	_, err := d.expand("{a}")
	assert.Error(t, err)
}

func Test_NamedDefs_Expand_SkipsEscapedBraces(t *testing.T) {
	d := NewNamedDefs()
	out, err := d.expand(`\{digit\}`)
	require.NoError(t, err)
	assert.Equal(t, `\{digit\}`, out)
}
