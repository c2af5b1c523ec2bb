package lr

import (
	"fmt"

	"github.com/dekarrin/loach/automaton"
	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/internal/util"
)

// clr1Table implements Algorithm 4.56, "Construction of canonical-LR
// parsing tables", from the purple dragon book: the canonical-LR(1) viable
// prefix automaton carries its own per-state lookaheads, so no separate
// FOLLOW computation is needed.
type clr1Table struct {
	gPrime    grammar.Grammar
	gStart    string
	dfa       automaton.DFA[util.SVSet[grammar.LR1Item]]
	itemCache map[string]grammar.LR1Item
	gTerms    []string
	gNonTerms []string
}

func constructCLR1Table(g grammar.Grammar) (ParseTable, error) {
	oldStart := g.StartSymbol()
	dfa := automaton.NewLR1ViablePrefixDFA(g)

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

func (t *clr1Table) States() []string {
	return util.OrderedKeys(t.dfa.States())
}

func (t *clr1Table) Initial() string {
	return t.dfa.Start
}

func (t *clr1Table) Goto(state, symbol string) (string, error) {
	next := t.dfa.Next(state, symbol)
	if next == "" {
		return "", fmt.Errorf("GOTO[%q, %q] is an error entry", state, symbol)
	}
	return next, nil
}

func (t *clr1Table) Action(state, term string) Action {
	act, _ := t.action(state, term, false)
	return act
}

func (t *clr1Table) action(state, a string, strict bool) (Action, error) {
	itemSet := t.dfa.GetValue(state)

	var found bool
	var act Action

	set := func(candidate Action) error {
		if found && !candidate.Equal(act) {
			resolved, ok := resolveConflict(t.gPrime, act, candidate, a)
			if !ok {
				if strict {
					return fmt.Errorf("grammar is not LR(1): state %q has both %s and %s on input %q", state, act.String(), candidate.String(), a)
				}
				resolved = act
			}
			act = resolved
			return nil
		}
		act = candidate
		found = true
		return nil
	}

	for itemStr := range itemSet {
		item := t.itemCache[itemStr]
		A := item.NonTerminal
		alpha := item.Left
		beta := item.Right
		b := item.Lookahead

		if t.gPrime.IsTerminal(a) && len(beta) > 0 && beta[0] == a {
			if j, err := t.Goto(state, a); err == nil {
				if err := set(Action{Type: Shift, State: j}); err != nil {
					return Action{}, err
				}
			}
		}

		if len(beta) == 0 && A != t.gPrime.StartSymbol() && a == b {
			if err := set(Action{Type: Reduce, Symbol: A, Production: grammar.Production(alpha), RuleIndex: ruleIndexOf(t.gPrime, A, grammar.Production(alpha))}); err != nil {
				return Action{}, err
			}
		}

		if a == grammar.EndOfInput && b == grammar.EndOfInput && A == t.gPrime.StartSymbol() && len(alpha) == 1 && alpha[0] == t.gStart && len(beta) == 0 {
			if err := set(Action{Type: Accept}); err != nil {
				return Action{}, err
			}
		}
	}

	if !found {
		act.Type = Error
	}
	return act, nil
}

func (t *clr1Table) String() string {
	return renderTable(t.States(), t.Initial(), t.gTerms, t.gNonTerms, t.Action, t.Goto)
}
