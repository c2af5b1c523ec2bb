package parse

import (
	"testing"

	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/lr"
	"github.com/dekarrin/loach/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testToken is a minimal types.Token for driving parsers in tests, without
// depending on a real scanner.
type testToken struct {
	class types.TokenClass
	lexed string
}

func tok(id string) testToken { return testToken{class: types.MakeDefaultClass(id), lexed: id} }

func (t testToken) Class() types.TokenClass { return t.class }
func (t testToken) Lexeme() string          { return t.lexed }
func (t testToken) LinePos() int            { return 1 }
func (t testToken) Line() int               { return 1 }
func (t testToken) FullLine() string        { return t.lexed }
func (t testToken) String() string          { return t.lexed }

// exprGrammar builds E -> E + T | T ; T -> T * F | F ; F -> ( E ) | id.
func exprGrammar() grammar.Grammar {
	var g grammar.Grammar
	for _, term := range []string{"+", "*", "(", ")", "id"} {
		g.AddTerm(term, types.MakeDefaultClass(term))
	}
	g.AddRule("E", grammar.Production{"E", "+", "T"})
	g.AddRule("E", grammar.Production{"T"})
	g.AddRule("T", grammar.Production{"T", "*", "F"})
	g.AddRule("T", grammar.Production{"F"})
	g.AddRule("F", grammar.Production{"(", "E", ")"})
	g.AddRule("F", grammar.Production{"id"})
	g.SetStart("E")
	return g
}

func feedAll(t *testing.T, d *Driver, ids ...string) (types.ParseTree, error) {
	t.Helper()
	for _, id := range ids {
		accepted, err := d.Feed(tok(id))
		if err != nil {
			return types.ParseTree{}, err
		}
		if accepted {
			return d.Finish()
		}
	}
	return types.ParseTree{}, assertNever(t)
}

func assertNever(t *testing.T) error {
	t.Fatal("input exhausted before parser accepted")
	return nil
}

func Test_Driver_Feed_AcceptsValidExpression(t *testing.T) {
	g := exprGrammar()
	table, err := lr.Generate(g, lr.MethodSLR1)
	require.NoError(t, err)

	d, err := NewDriver(table, g, nil)
	require.NoError(t, err)
	tree, err := feedAll(t, d, "id", "+", "id", "*", "id", "$")
	require.NoError(t, err)
	assert.Equal(t, "E", tree.Value)
}

func Test_Driver_Feed_ReportsErrorWithNoRecoverableState(t *testing.T) {
	g := exprGrammar()
	table, err := lr.Generate(g, lr.MethodSLR1)
	require.NoError(t, err)

	d, err := NewDriver(table, g, nil)
	require.NoError(t, err)
	_, err = d.Feed(tok("+"))
	assert.Error(t, err)
}

func Test_Driver_Feed_RecoversViaErrorProduction(t *testing.T) {
	var g grammar.Grammar
	for _, term := range []string{";", "id"} {
		g.AddTerm(term, types.MakeDefaultClass(term))
	}
	g.AddRule("Prog", grammar.Production{"Stmts"})
	g.AddRule("Stmts", grammar.Production{"Stmts", "Stmt"})
	g.AddRule("Stmts", grammar.Production{"Stmt"})
	g.AddRule("Stmt", grammar.Production{"id", ";"})
	g.AddRule("Stmt", grammar.Production{grammar.ErrorSymbol, ";"})
	g.SetStart("Prog")

	table, err := lr.Generate(g, lr.MethodLALR1)
	require.NoError(t, err)

	d, err := NewDriver(table, g, nil)
	require.NoError(t, err)
	_, err = d.Feed(tok("id"))
	require.NoError(t, err)
	// a second "id" where ";" is expected is a syntax error; the driver
	// recovers by shifting $error$ instead of returning an error.
	accepted, err := d.Feed(tok("id"))
	assert.NoError(t, err)
	assert.False(t, accepted)
}

func Test_Driver_Feed_RecoversViaSmartTrialParse(t *testing.T) {
	var g grammar.Grammar
	for _, term := range []string{";", "id"} {
		g.AddTerm(term, types.MakeDefaultClass(term))
	}
	g.AddRule("Prog", grammar.Production{"Stmts"})
	g.AddRule("Stmts", grammar.Production{"Stmts", "Stmt"})
	g.AddRule("Stmts", grammar.Production{"Stmt"})
	g.AddRule("Stmt", grammar.Production{"id", ";"})
	g.AddRule("Stmt", grammar.Production{grammar.ErrorSymbol, ";"})
	g.SetStart("Prog")

	table, err := lr.Generate(g, lr.MethodLALR1)
	require.NoError(t, err)

	d, err := NewDriver(table, g, nil)
	require.NoError(t, err)

	var recovered bool
	d.RegisterRecoveryListener(func() { recovered = true })

	// "id id" is malformed (a bare "id" can't follow another statement's
	// "id" without a ";" between them); the error-production "$error$ ;"
	// should absorb the bad token once enough well-formed statements
	// follow to pass the trial-parse commitment window.
	tree, err := feedAll(t, d, "id", ";", "id", "id", ";", "id", ";", "id", ";", "$")
	require.NoError(t, err)
	assert.Equal(t, "Prog", tree.Value)
	assert.True(t, recovered)
}

func Test_Recognize_AcceptsValidInput(t *testing.T) {
	g := exprGrammar()
	table, err := lr.Generate(g, lr.MethodSLR1)
	require.NoError(t, err)

	tokens := []types.Token{tok("id"), tok("+"), tok("id"), tok("$")}
	ok := Recognize(table, table.Initial(), tokens)
	assert.True(t, ok)
}

func Test_Recognize_RejectsInvalidInput(t *testing.T) {
	g := exprGrammar()
	table, err := lr.Generate(g, lr.MethodSLR1)
	require.NoError(t, err)

	tokens := []types.Token{tok("+"), tok("id"), tok("$")}
	ok := Recognize(table, table.Initial(), tokens)
	assert.False(t, ok)
}

func Test_GLR_Parse_SingleDerivationMatchesDriver(t *testing.T) {
	g := exprGrammar()
	table, err := lr.Generate(g, lr.MethodSLR1)
	require.NoError(t, err)

	tokens := []types.Token{tok("id"), tok("+"), tok("id"), tok("$")}

	p := NewGLR(table, g)
	trees, err := p.Parse(tokens)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "E", trees[0].Value)
}
