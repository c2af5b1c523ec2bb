package lr

import (
	"fmt"

	"github.com/dekarrin/loach/automaton"
	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/internal/util"
)

// minLR1Table implements a practical approximation of Pager's (1977)
// minimal-LR(1) construction: canonical-LR(1) states sharing an LR(0) core
// are merged, exactly as for LALR(1), but only when doing so introduces no
// new action conflict. A group whose union would conflict is left split,
// so the resulting table is never weaker than plain LALR(1) and never
// larger than canonical LR(1).
//
// This trades Pager's exact predecessor-taint propagation for a simpler
// try-the-merge-and-see check performed directly against the already-built
// canonical automaton; see DESIGN.md for why the full algorithm was not
// implemented.
type minLR1Table struct {
	gPrime    grammar.Grammar
	gStart    string
	canon     automaton.DFA[util.SVSet[grammar.LR1Item]]
	redirect  map[string]string            // canonical state -> representative state
	repMember map[string]string            // representative -> one canonical member (for GOTO lookups)
	itemCache map[string]util.SVSet[grammar.LR1Item] // representative -> merged item set
	gTerms    []string
	gNonTerms []string
}

func constructMinimalLR1Table(g grammar.Grammar) (ParseTable, error) {
	oldStart := g.StartSymbol()
	gPrime := g.Augmented(oldStart)
	canon := automaton.NewLR1ViablePrefixDFA(g)

	table := &minLR1Table{
		gPrime:    gPrime,
		gStart:    oldStart,
		canon:     canon,
		redirect:  map[string]string{},
		repMember: map[string]string{},
		itemCache: map[string]util.SVSet[grammar.LR1Item]{},
		gTerms:    g.Terminals(),
		gNonTerms: g.NonTerminals(),
	}

	groups := map[string][]string{}
	for _, s := range util.OrderedKeys(canon.States()) {
		core := grammar.CoreSet(canon.GetValue(s)).StringOrdered()
		groups[core] = append(groups[core], s)
	}

	for core, members := range groups {
		if len(members) == 1 {
			s := members[0]
			table.redirect[s] = s
			table.repMember[s] = s
			table.itemCache[s] = canon.GetValue(s)
			continue
		}

		merged := util.NewSVSet[grammar.LR1Item]()
		for _, s := range members {
			merged.AddAll(canon.GetValue(s))
		}

		rep := core
		if err := table.checkNoNewConflict(merged); err != nil {
			// leave this group split: each member is its own representative
			for _, s := range members {
				table.redirect[s] = s
				table.repMember[s] = s
				table.itemCache[s] = canon.GetValue(s)
			}
			continue
		}

		for _, s := range members {
			table.redirect[s] = rep
		}
		table.repMember[rep] = members[0]
		table.itemCache[rep] = merged
	}

	// verify the final, possibly-merged table has no conflicts at all; a
	// genuinely non-LR(1) grammar will fail here even though every
	// individual group passed checkNoNewConflict in isolation.
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

// checkNoNewConflict reports an error if the union of several canonical
// states' items would contain a genuine shift/reduce or reduce/reduce
// conflict. Each canonical state is internally conflict-free by
// construction, so any conflict found here was introduced by the merge.
func (t *minLR1Table) checkNoNewConflict(merged util.SVSet[grammar.LR1Item]) error {
	allTerms := append(append([]string{}, t.gTerms...), grammar.EndOfInput)
	for _, a := range allTerms {
		var found bool
		var act Action
		for _, item := range merged {
			cand, ok := t.actionFor(item, a)
			if !ok {
				continue
			}
			if found && !cand.Equal(act) {
				if _, ok := resolveConflict(t.gPrime, act, cand, a); !ok {
					return fmt.Errorf("merge would introduce conflict on %q", a)
				}
			}
			act = cand
			found = true
		}
	}
	return nil
}

func (t *minLR1Table) actionFor(item grammar.LR1Item, a string) (Action, bool) {
	A := item.NonTerminal
	alpha := item.Left
	beta := item.Right
	b := item.Lookahead

	if t.gPrime.IsTerminal(a) && len(beta) > 0 && beta[0] == a {
		return Action{Type: Shift, State: "<merge-probe>"}, true
	}
	if len(beta) == 0 && A != t.gPrime.StartSymbol() && a == b {
		return Action{Type: Reduce, Symbol: A, Production: grammar.Production(alpha), RuleIndex: ruleIndexOf(t.gPrime, A, grammar.Production(alpha))}, true
	}
	if a == grammar.EndOfInput && b == grammar.EndOfInput && A == t.gPrime.StartSymbol() && len(alpha) == 1 && alpha[0] == t.gStart && len(beta) == 0 {
		return Action{Type: Accept}, true
	}
	return Action{}, false
}

func (t *minLR1Table) States() []string {
	seen := util.NewStringSet()
	var out []string
	for _, rep := range t.redirect {
		if !seen.Has(rep) {
			seen.Add(rep)
			out = append(out, rep)
		}
	}
	return util.OrderedKeys(util.StringSetOf(out))
}

func (t *minLR1Table) Initial() string {
	return t.redirect[t.canon.Start]
}

func (t *minLR1Table) Goto(state, symbol string) (string, error) {
	member, ok := t.repMember[state]
	if !ok {
		return "", fmt.Errorf("no such state %q", state)
	}
	next := t.canon.Next(member, symbol)
	if next == "" {
		return "", fmt.Errorf("GOTO[%q, %q] is an error entry", state, symbol)
	}
	return t.redirect[next], nil
}

func (t *minLR1Table) Action(state, term string) Action {
	act, _ := t.action(state, term, false)
	return act
}

func (t *minLR1Table) action(state, a string, strict bool) (Action, error) {
	items := t.itemCache[state]

	var found bool
	var act Action

	for _, item := range items {
		cand, ok := t.actionFor(item, a)
		if !ok {
			continue
		}
		if cand.Type == Shift {
			j, err := t.Goto(state, a)
			if err != nil {
				continue
			}
			cand.State = j
		}
		if found && !cand.Equal(act) {
			resolved, ok := resolveConflict(t.gPrime, act, cand, a)
			if !ok {
				if strict {
					return Action{}, fmt.Errorf("grammar is not minimal-LR(1): state %q has both %s and %s on input %q", state, act.String(), cand.String(), a)
				}
				resolved = act
			}
			act = resolved
			continue
		}
		act = cand
		found = true
	}

	if !found {
		act.Type = Error
	}
	return act, nil
}

func (t *minLR1Table) String() string {
	return renderTable(t.States(), t.Initial(), t.gTerms, t.gNonTerms, t.Action, t.Goto)
}
