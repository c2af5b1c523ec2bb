package lr

import (
	"github.com/dekarrin/loach/automaton"
	"github.com/dekarrin/loach/grammar"
)

// constructLALR1Table reuses the canonical-LR(1) ACTION/GOTO logic wholesale: once
// automaton.NewLALR1ViablePrefixDFA has merged same-core canonical-LR(1)
// states, the resulting automaton is itself a valid (if possibly
// conflicted) LR(1)-shaped DFA, and the same lookahead-driven table
// computation applies to it unchanged.
func constructLALR1Table(g grammar.Grammar) (ParseTable, error) {
	oldStart := g.StartSymbol()
	dfa, err := automaton.NewLALR1ViablePrefixDFA(g)
	if err != nil {
		return nil, err
	}

	table := &clr1Table{
		gPrime:    g.Augmented(oldStart),
		gStart:    oldStart,
		dfa:       dfa,
		itemCache: map[string]grammar.LR1Item{},
		gTerms:    g.Terminals(),
		gNonTerms: g.NonTerminals(),
	}

	for _, s := range table.States() {
		items := dfa.GetValue(s)
		for k, v := range items {
			table.itemCache[k] = v
		}
	}

	for _, s := range table.States() {
		for _, a := range table.gTerms {
			if _, err := table.action(s, a, true); err != nil {
				return nil, err
			}
		}
		if _, err := table.action(s, grammar.EndOfInput, true); err != nil {
			return nil, err
		}
	}

	return table, nil
}
