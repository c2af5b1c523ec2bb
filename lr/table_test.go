package lr

import (
	"testing"

	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exprGrammar builds the purple-dragon-book expression grammar (4.28):
//
//	E -> E + T | T
//	T -> T * F | F
//	F -> ( E ) | id
func exprGrammar() grammar.Grammar {
	var g grammar.Grammar
	for _, t := range []string{"+", "*", "(", ")", "id"} {
		g.AddTerm(t, types.MakeDefaultClass(t))
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

// danglingCGrammar is the conflict-free S -> C C, C -> c C | d grammar
// (dragon book example 4.55), used to compare state counts across the
// LR(1)-family construction methods.
func danglingCGrammar() grammar.Grammar {
	var g grammar.Grammar
	for _, t := range []string{"c", "d"} {
		g.AddTerm(t, types.MakeDefaultClass(t))
	}
	g.AddRule("S", grammar.Production{"C", "C"})
	g.AddRule("C", grammar.Production{"c", "C"})
	g.AddRule("C", grammar.Production{"d"})
	g.SetStart("S")
	return g
}

func Test_Generate_SLR1(t *testing.T) {
	g := exprGrammar()

	table, err := Generate(g, MethodSLR1)
	require.NoError(t, err)
	assert.NotEmpty(t, table.Initial())
	assert.NotEmpty(t, table.States())
}

func Test_Generate_CLR1(t *testing.T) {
	g := danglingCGrammar()

	table, err := Generate(g, MethodCLR1)
	require.NoError(t, err)
	assert.NotEmpty(t, table.States())

	act := table.Action(table.Initial(), "c")
	assert.Equal(t, Shift, act.Type)
}

func Test_Generate_LALR1(t *testing.T) {
	g := danglingCGrammar()

	table, err := generateUncompressed(g, MethodLALR1)
	require.NoError(t, err)

	// LALR(1) merges canonical-LR(1) states with equal cores, so it should
	// never have more states than CLR(1) for the same grammar. Compared
	// uncompressed: the compression pass elides a different number of
	// trivial states per method, which would break this invariant even
	// though the underlying automata still satisfy it.
	clr1, err := generateUncompressed(g, MethodCLR1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(table.States()), len(clr1.States()))
}

func Test_Generate_MinimalLR1(t *testing.T) {
	g := danglingCGrammar()

	minTable, err := generateUncompressed(g, MethodMinLR1)
	require.NoError(t, err)

	lalrTable, err := generateUncompressed(g, MethodLALR1)
	require.NoError(t, err)

	clr1Table, err := generateUncompressed(g, MethodCLR1)
	require.NoError(t, err)

	// minimal-LR(1) is never larger than CLR(1) and never smaller than
	// LALR(1), by construction: it only merges a canonical state pair when
	// doing so introduces no new conflict, starting from the full
	// canonical automaton.
	assert.LessOrEqual(t, len(minTable.States()), len(clr1Table.States()))
	assert.GreaterOrEqual(t, len(minTable.States()), len(lalrTable.States()))
}

func Test_Generate_LR0_RejectsConflictingGrammar(t *testing.T) {
	// the expression grammar has a shift/reduce conflict (E -> T. against
	// T -> T.*F) that pure LR(0), with no lookahead to disambiguate, cannot
	// resolve.
	g := exprGrammar()

	_, err := Generate(g, MethodLR0)
	assert.Error(t, err)
}

func Test_Generate_SLR1_PrecedenceResolvesConflict(t *testing.T) {
	// dangling-else-style grammar: S -> if E then S | if E then S else S | other
	var g grammar.Grammar
	for _, term := range []string{"if", "then", "else", "other"} {
		g.AddTerm(term, types.MakeDefaultClass(term))
	}
	g.AddRule("S", grammar.Production{"if", "E", "then", "S"})
	g.AddRule("S", grammar.Production{"if", "E", "then", "S", "else", "S"})
	g.AddRule("S", grammar.Production{"other"})
	g.AddRule("E", grammar.Production{"other"})
	g.SetStart("S")
	// giving "then" and "else" the same level and a %right-style
	// associativity resolves the shift/reduce conflict in favor of
	// shifting "else", attaching it to the nearest unmatched "then".
	g.AddPrecedence(grammar.AssocRight, "then", "else")

	table, err := Generate(g, MethodSLR1)
	require.NoError(t, err)
	assert.NotEmpty(t, table.States())

	// walk if E then S to the state holding both S -> if E then S . and
	// S -> if E then S . else S, then confirm "else" is resolved toward
	// shift there.
	afterIf := table.Action(table.Initial(), "if")
	require.Equal(t, Shift, afterIf.Type)
	withE, err := table.Goto(afterIf.State, "E")
	require.NoError(t, err)
	afterThen := table.Action(withE, "then")
	require.Equal(t, Shift, afterThen.Type)
	conflictState, err := table.Goto(afterThen.State, "S")
	require.NoError(t, err)
	assert.Equal(t, Shift, table.Action(conflictState, "else").Type, "expected else to resolve toward shift, not reduce, in state %s", conflictState)
}
