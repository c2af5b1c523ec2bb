package lr

import (
	"testing"

	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// singleRuleGrammar is the simplest grammar with a state compression can
// fold entirely: shifting "a" lands on a state whose only item is the
// completed S -> a, with nothing else for that target state to do at any
// lookahead other than reduce it.
func singleRuleGrammar() grammar.Grammar {
	var g grammar.Grammar
	g.AddTerm("a", types.MakeDefaultClass("a"))
	g.AddRule("S", grammar.Production{"a"})
	g.SetStart("S")
	return g
}

func Test_Compress_CombinesTrivialShiftTarget(t *testing.T) {
	g := singleRuleGrammar()

	base, err := generateUncompressed(g, MethodSLR1)
	require.NoError(t, err)
	compressed := Compress(base, g)

	act := compressed.Action(compressed.Initial(), "a")
	require.Equal(t, ShiftReduce, act.Type)
	assert.Equal(t, "S", act.Symbol)
	assert.Equal(t, grammar.Production{"a"}, act.Production)

	// the folded target no longer needs its own row.
	assert.Less(t, len(compressed.States()), len(base.States()))
}

func Test_Compress_NeverShrinksActionSemantics(t *testing.T) {
	// for every method, the compressed table must accept exactly what the
	// uncompressed one does for a representative sentence.
	g := exprGrammar()
	sentence := []string{"id", "+", "id", "*", "id"}

	for _, method := range []Method{MethodSLR1, MethodCLR1, MethodLALR1, MethodMinLR1} {
		base, err := generateUncompressed(g, method)
		require.NoError(t, err)
		compressed := Compress(base, g)

		assert.True(t, simulateAccepts(t, base, sentence), "method %s: base table should accept %v", method, sentence)
		assert.True(t, simulateAccepts(t, compressed, sentence), "method %s: compressed table should accept %v", method, sentence)
	}
}

func Test_Compress_StateCountNeverGrows(t *testing.T) {
	g := exprGrammar()
	for _, method := range []Method{MethodSLR1, MethodCLR1, MethodLALR1, MethodMinLR1} {
		base, err := generateUncompressed(g, method)
		require.NoError(t, err)
		compressed := Compress(base, g)
		assert.LessOrEqual(t, len(compressed.States()), len(base.States()), "method %s", method)
	}
}

// simulateAccepts runs table's bare shift/reduce/goto loop over sentence
// plus an implicit end-of-input token, the same algorithm package parse's
// Driver uses, reimplemented here to avoid an import cycle (package parse
// already depends on package lr).
func simulateAccepts(t *testing.T, table ParseTable, sentence []string) bool {
	t.Helper()
	input := append(append([]string{}, sentence...), grammar.EndOfInput)
	states := []string{table.Initial()}

	i := 0
	for {
		top := states[len(states)-1]
		term := input[i]
		act := table.Action(top, term)
		switch act.Type {
		case Error:
			return false
		case Accept:
			return true
		case Shift:
			states = append(states, act.State)
			i++
		case ShiftReduce:
			n := len(act.Production) - 1
			if n > len(states)-1 {
				return false
			}
			states = states[:len(states)-n]
			toState, err := table.Goto(states[len(states)-1], act.Symbol)
			if err != nil {
				return false
			}
			states = append(states, toState)
			i++
		case Reduce:
			n := len(act.Production)
			if n > len(states)-1 {
				return false
			}
			states = states[:len(states)-n]
			toState, err := table.Goto(states[len(states)-1], act.Symbol)
			if err != nil {
				return false
			}
			states = append(states, toState)
		}
		if i >= len(input) {
			return false
		}
	}
}
