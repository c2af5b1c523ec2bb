package lr

import (
	"fmt"

	"github.com/dekarrin/loach/automaton"
	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/internal/util"
)

// slrTable implements Algorithm 4.46, "Constructing an SLR-parsing table",
// from the purple dragon book: the LR(0) automaton supplies GOTO, and
// FOLLOW sets resolve which terminals may trigger each reduction.
type slrTable struct {
	gPrime    grammar.Grammar
	gStart    string
	follow    map[string]util.StringSet
	dfa       automaton.DFA[util.SVSet[grammar.LR0Item]]
	gTerms    []string
	gNonTerms []string
}

func constructSLR1Table(g grammar.Grammar) (ParseTable, error) {
	oldStart := g.StartSymbol()
	gPrime := g.Augmented(oldStart)

	table := &slrTable{
		gPrime:    gPrime,
		gStart:    oldStart,
		follow:    gPrime.FOLLOW(),
		dfa:       automaton.NewLR0ViablePrefixNFA(g).ToDFA(),
		gTerms:    g.Terminals(),
		gNonTerms: g.NonTerminals(),
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

func (t *slrTable) States() []string {
	return util.OrderedKeys(t.dfa.States())
}

func (t *slrTable) Initial() string {
	return t.dfa.Start
}

func (t *slrTable) Goto(state, symbol string) (string, error) {
	next := t.dfa.Next(state, symbol)
	if next == "" {
		return "", fmt.Errorf("GOTO[%q, %q] is an error entry", state, symbol)
	}
	return next, nil
}

func (t *slrTable) Action(state, term string) Action {
	act, _ := t.action(state, term, false)
	return act
}

// action computes ACTION[state, term]. When strict is true, a conflict
// between two distinct actions is reported as an error instead of being
// silently resolved, which is how construction verifies the grammar really
// is SLR(1).
func (t *slrTable) action(state, a string, strict bool) (Action, error) {
	items := t.dfa.GetValue(state)

	var found bool
	var act Action

	set := func(candidate Action) error {
		if found && !candidate.Equal(act) {
			resolved, ok := resolveConflict(t.gPrime, act, candidate, a)
			if !ok {
				if strict {
					return fmt.Errorf("grammar is not SLR(1): state %q has both %s and %s on input %q", state, act.String(), candidate.String(), a)
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

	for _, item := range items {
		A := item.NonTerminal
		alpha := item.Left
		beta := item.Right

		if t.gPrime.IsTerminal(a) && len(beta) > 0 && beta[0] == a {
			if j, err := t.Goto(state, a); err == nil {
				if err := set(Action{Type: Shift, State: j}); err != nil {
					return Action{}, err
				}
			}
		}

		if len(beta) == 0 && A != t.gPrime.StartSymbol() && t.follow[A].Has(a) {
			if err := set(Action{Type: Reduce, Symbol: A, Production: grammar.Production(alpha), RuleIndex: ruleIndexOf(t.gPrime, A, grammar.Production(alpha))}); err != nil {
				return Action{}, err
			}
		}

		if a == grammar.EndOfInput && A == t.gPrime.StartSymbol() && len(alpha) == 1 && alpha[0] == t.gStart && len(beta) == 0 {
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

func (t *slrTable) String() string {
	return renderTable(t.States(), t.Initial(), t.gTerms, t.gNonTerms, t.Action, t.Goto)
}
