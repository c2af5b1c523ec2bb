package lr

import (
	"fmt"

	"github.com/dekarrin/loach/automaton"
	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/internal/util"
)

// lr0Table is the un-lookahead'd parse table: a state's ACTION entry for a
// terminal is a shift if the dot in some item of the state precedes that
// terminal, and an unconditional reduce if the state holds exactly one
// complete item and no shiftable terminal conflicts with it. A grammar
// needs no lookahead at all to drive this table only when every state
// avoids both kinds of conflict; otherwise Generate returns an error.
type lr0Table struct {
	gPrime    grammar.Grammar
	gStart    string
	dfa       automaton.DFA[util.SVSet[grammar.LR0Item]]
	gTerms    []string
	gNonTerms []string
}

func constructLR0Table(g grammar.Grammar) (ParseTable, error) {
	oldStart := g.StartSymbol()
	dfa := automaton.NewLR0ViablePrefixNFA(g).ToDFA()

	table := &lr0Table{
		gPrime:    g.Augmented(oldStart),
		gStart:    oldStart,
		dfa:       dfa,
		gTerms:    g.Terminals(),
		gNonTerms: g.NonTerminals(),
	}

	if err := table.checkConsistency(); err != nil {
		return nil, err
	}
	return table, nil
}

func (t *lr0Table) checkConsistency() error {
	for _, s := range t.States() {
		items := t.dfa.GetValue(s)

		var completeCount int
		var shiftTerms = util.NewStringSet()
		for _, item := range items {
			if len(item.Right) == 0 {
				completeCount++
			} else if t.gPrime.IsTerminal(item.Right[0]) {
				shiftTerms.Add(item.Right[0])
			}
		}
		if completeCount > 1 {
			return fmt.Errorf("grammar is not LR(0): state %q has more than one complete item", s)
		}
		if completeCount == 1 && shiftTerms.Len() > 0 {
			return fmt.Errorf("grammar is not LR(0): state %q has both a shift and a reduce action", s)
		}
	}
	return nil
}

func (t *lr0Table) States() []string {
	return util.OrderedKeys(t.dfa.States())
}

func (t *lr0Table) Initial() string {
	return t.dfa.Start
}

func (t *lr0Table) Goto(state, symbol string) (string, error) {
	next := t.dfa.Next(state, symbol)
	if next == "" {
		return "", fmt.Errorf("GOTO[%q, %q] is an error entry", state, symbol)
	}
	return next, nil
}

func (t *lr0Table) Action(state, term string) Action {
	items := t.dfa.GetValue(state)

	for _, item := range items {
		if len(item.Right) > 0 && t.gPrime.IsTerminal(item.Right[0]) && item.Right[0] == term {
			if j, err := t.Goto(state, term); err == nil {
				return Action{Type: Shift, State: j}
			}
		}
	}

	for _, item := range items {
		if len(item.Right) == 0 {
			if item.NonTerminal == t.gPrime.StartSymbol() {
				if term == grammar.EndOfInput {
					return Action{Type: Accept}
				}
				continue
			}
			return Action{Type: Reduce, Symbol: item.NonTerminal, Production: grammar.Production(item.Left)}
		}
	}

	return Action{Type: Error}
}

func (t *lr0Table) String() string {
	return renderTable(t.States(), t.Initial(), t.gTerms, t.gNonTerms, t.Action, t.Goto)
}
