package grammar

import (
	"testing"

	"github.com/dekarrin/loach/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGrammar(terminals []string, rules map[string][]Production, start string) Grammar {
	g := Grammar{}
	for _, t := range terminals {
		g.AddTerm(t, types.MakeDefaultClass(t))
	}
	for nt, prods := range rules {
		for _, p := range prods {
			g.AddRule(nt, p)
		}
	}
	g.SetStart(start)
	return g
}

func Test_Grammar_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		terminals []string
		rules     map[string][]Production
		start     string
		expectErr bool
	}{
		{
			name:      "empty grammar",
			expectErr: true,
		},
		{
			name:      "no rules",
			terminals: []string{"int"},
			expectErr: true,
		},
		{
			name:      "no terminals",
			rules:     map[string][]Production{"S": {{"S"}}},
			start:     "S",
			expectErr: true,
		},
		{
			name:      "single well-founded rule",
			terminals: []string{"int"},
			rules:     map[string][]Production{"S": {{"int"}}},
			start:     "S",
		},
		{
			name:      "unreachable non-terminal",
			terminals: []string{"int"},
			rules: map[string][]Production{
				"S":      {{"int"}},
				"unused": {{"int"}},
			},
			start:     "S",
			expectErr: true,
		},
		{
			name:      "ill-founded non-terminal",
			terminals: []string{"int"},
			rules: map[string][]Production{
				"S": {{"S"}},
			},
			start:     "S",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := setupGrammar(tc.terminals, tc.rules, tc.start)
			err := g.Validate()
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_Grammar_Nullable(t *testing.T) {
	g := setupGrammar([]string{"a"}, map[string][]Production{
		"S": {{"A", "a"}},
		"A": {{}, {"a"}},
	}, "S")

	null := g.Nullable()
	assert.True(t, null.Has("A"))
	assert.False(t, null.Has("S"))
}

func Test_Grammar_FIRST(t *testing.T) {
	g := setupGrammar([]string{"a", "b", "c"}, map[string][]Production{
		"S": {{"A", "B"}},
		"A": {{}, {"a"}},
		"B": {{"b"}, {"c"}},
	}, "S")

	first, nullable := g.FIRST("S")
	assert.False(t, nullable)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, first.Elements())
}

func Test_Grammar_FOLLOW(t *testing.T) {
	g := setupGrammar([]string{"a", "b"}, map[string][]Production{
		"S": {{"A", "b"}},
		"A": {{"a"}},
	}, "S")

	follow := g.FOLLOW()
	assert.True(t, follow["A"].Has("b"))
	assert.True(t, follow["S"].Has(EndOfInput))
}

func Test_Grammar_Augmented(t *testing.T) {
	g := setupGrammar([]string{"a"}, map[string][]Production{
		"S": {{"a"}},
	}, "S")

	aug := g.Augmented("S")
	assert.Equal(t, "S'", aug.StartSymbol())
	r := aug.Rule("S'")
	require.Len(t, r.Productions, 1)
	assert.Equal(t, Production{"S"}, r.Productions[0])
}

func Test_Grammar_LR0Items(t *testing.T) {
	g := setupGrammar([]string{"a"}, map[string][]Production{
		"S": {{"a"}},
	}, "S")
	aug := g.Augmented("S")

	items := aug.LR0Items()
	assert.NotEmpty(t, items)

	var sawStart bool
	for _, it := range items {
		if it.NonTerminal == "S'" && len(it.Left) == 0 {
			sawStart = true
		}
	}
	assert.True(t, sawStart)
}

func Test_Grammar_ExpandMacros(t *testing.T) {
	g := setupGrammar([]string{"a", ","}, map[string][]Production{
		"S": {{"list(a)"}},
	}, "S")
	g.AddMacro(Macro{
		Name:   "list",
		Params: []string{"elem"},
		Productions: []Production{
			{"elem"},
			{"list(elem)", ",", "elem"},
		},
	})

	expanded, err := g.ExpandMacros()
	require.NoError(t, err)

	mangled := mangle("list", []string{"a"})
	r := expanded.Rule(mangled)
	require.Len(t, r.Productions, 2)
	assert.Equal(t, Production{"a"}, r.Productions[0])
	assert.Equal(t, Production{mangled, ",", "a"}, r.Productions[1])
}

func Test_Grammar_ExpandMacros_Cycle(t *testing.T) {
	g := setupGrammar([]string{"a"}, map[string][]Production{
		"S": {{"loop(a)"}},
	}, "S")
	g.AddMacro(Macro{
		Name:   "loop",
		Params: []string{"x"},
		Productions: []Production{
			{"loop(x)"},
		},
	})

	_, err := g.ExpandMacros()
	assert.Error(t, err)
}

func Test_Grammar_Precedence(t *testing.T) {
	g := Grammar{}
	g.AddPrecedence(AssocLeft, "+", "-")
	g.AddPrecedence(AssocRight, "^")

	lvl, assoc, ok := g.PrecedenceOf("^")
	require.True(t, ok)
	assert.Equal(t, 2, lvl)
	assert.Equal(t, AssocRight, assoc)

	_, _, ok = g.PrecedenceOf("*")
	assert.False(t, ok)
}
