package lr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/loach/grammar"
)

// Compress wraps table with spec.md §4.5's table-construction-time size
// reductions: default-reduction compression, combined shift-reduce
// instructions, and unit-rule elimination. Rows are not compacted: no row or
// column equivalence classes are formed, and every state that is not folded
// into a combined shift-reduce instruction keeps its own row. Generate calls
// this as the last construction step, so every table Generate returns is
// already compressed; callers that need the raw, uncompressed table (for
// diagnostics, or to compare against a hand-checked example) can still
// call the method-specific construct* functions directly.
//
// Action and Goto remain equivalent to base for every (state, symbol)
// pair base itself resolves; the compression only changes how that
// answer is computed and how many distinct rows String and States
// report, never the grammar the table accepts.
func Compress(base ParseTable, g grammar.Grammar) ParseTable {
	c := &compressedTable{base: base, g: g}
	c.buildUnitRedirects()
	c.buildCombinedShifts()
	c.buildDefaultReductions()
	return c
}

type compressedTable struct {
	base ParseTable
	g    grammar.Grammar

	// unitRedirect[state][symbol] points a GOTO/shift target directly at
	// the state ultimately reached after also collapsing away any chain
	// of unit productions (A -> N, N -> M, ...) the base table's target
	// would otherwise just re-derive on its first move — spec.md §4.5's
	// table-construction-time unit-rule elimination. Chains are resolved by
	// re-running the redirect pass until it reaches a fixpoint.
	unitRedirect map[string]map[string]string

	// combined[state][term] holds the ShiftReduce action that replaces
	// what base would otherwise answer with a Shift into a "trivial"
	// state: one with no shiftable terminal and exactly one complete
	// item, so it reduces the same production for every lookahead. Once
	// computed, nothing ever needs to query that target state's row
	// again, which is the actual compression — fewer rows have to be
	// retained for States/String.
	combined map[string]map[string]Action

	// defaultReduce[state] is the action returned for any terminal that
	// doesn't otherwise resolve to a shift or an explicit reduce in
	// state, when every terminal that WOULD resolve there resolves to
	// the same reduction. A state with even one shift keeps every entry
	// explicit, since collapsing its error entries into a default would
	// silently mask a genuine syntax error instead of reporting one.
	defaultReduce map[string]Action

	// elided is the set of states combined has made unreachable from any
	// surviving row; States/String skip them.
	elided map[string]bool
}

// buildUnitRedirects finds states in which every non-error action, over all
// terminals plus $ and $error$, reduces the same one-symbol production, and
// records, for every state that shifts or gotos into one, the state reached
// after also applying that unit's own reduction and subsequent goto —
// collapsing A -> N -> M chains so a driver never has to actually visit the
// intermediate unit states.
//
// A state with any shift, any other reduction, or lookahead-sensitive
// actions is left alone. The number of incoming edges into a unit state is
// not checked. spec.md §4.5
// names unit-rule elimination as a size optimization, not a semantic
// requirement, so a conservative subset is enough to honor it.
func (c *compressedTable) buildUnitRedirects() {
	c.unitRedirect = map[string]map[string]string{}

	unitState := map[string]Action{} // state -> the one reduction it always performs
	for _, s := range c.base.States() {
		var sole Action
		has := false
		consistent := true
		for _, t := range c.reduceLookaheads() {
			act := c.base.Action(s, t)
			if act.Type == Error {
				continue
			}
			if act.Type != Reduce || len(act.Production) != 1 {
				consistent = false
				break
			}
			if !has {
				sole, has = act, true
			} else if act.Symbol != sole.Symbol || !act.Production.Equal(sole.Production) {
				consistent = false
				break
			}
		}
		if has && consistent {
			unitState[s] = sole
		}
	}

	// for every state/symbol edge that lands on a unit state, record the
	// state reached after also performing that unit's reduction; chains
	// are resolved by re-running this loop until stable (bounded by the
	// number of unit states, so it always terminates).
	changed := true
	for changed {
		changed = false
		for _, s := range c.base.States() {
			for _, sym := range c.allSymbols() {
				target, err := c.rawTarget(s, sym)
				if err != nil {
					continue
				}
				red, ok := unitState[target]
				if !ok {
					continue
				}
				toState, err := c.base.Goto(target, red.Symbol)
				if err != nil {
					continue
				}
				if c.unitRedirect[s] == nil {
					c.unitRedirect[s] = map[string]string{}
				}
				if c.unitRedirect[s][sym] != toState {
					c.unitRedirect[s][sym] = toState
					changed = true
				}
			}
		}
	}
}

// rawTarget returns the state sym shifts or gotos to from s in the base
// table, regardless of whether sym is a terminal or non-terminal.
func (c *compressedTable) rawTarget(s, sym string) (string, error) {
	if c.g.IsTerminal(sym) {
		act := c.base.Action(s, sym)
		if act.Type == Shift {
			return act.State, nil
		}
		return "", fmt.Errorf("no shift")
	}
	return c.base.Goto(s, sym)
}

func (c *compressedTable) allSymbols() []string {
	out := append([]string{}, c.g.Terminals()...)
	out = append(out, c.g.NonTerminals()...)
	return out
}

func (c *compressedTable) reduceLookaheads() []string {
	return append(append([]string{}, c.g.Terminals()...), grammar.EndOfInput, grammar.ErrorSymbol)
}

// buildCombinedShifts finds, for every (state, terminal) pair whose base
// action is a Shift into a "trivial" target — one with no outgoing shift
// and exactly one always-fired reduction — a ShiftReduce action that
// replaces it, per spec.md §4.5's "combined shift-reduce instructions".
func (c *compressedTable) buildCombinedShifts() {
	c.combined = map[string]map[string]Action{}
	c.elided = map[string]bool{}

	trivial := map[string]Action{}
	for _, s := range c.base.States() {
		hasShift := false
		var sole Action
		has := false
		consistent := true
		for _, t := range append(append([]string{}, c.g.Terminals()...), grammar.EndOfInput) {
			act := c.base.Action(s, t)
			if act.Type == Shift {
				hasShift = true
				break
			}
			if act.Type == Error {
				continue
			}
			if act.Type != Reduce {
				consistent = false
				break
			}
			if !has {
				sole, has = act, true
			} else if act.Symbol != sole.Symbol || !act.Production.Equal(sole.Production) {
				consistent = false
				break
			}
		}
		if !hasShift && has && consistent && c.base.Action(s, grammar.EndOfInput).Type != Shift {
			trivial[s] = sole
		}
	}

	incoming := map[string]int{}
	for _, s := range c.base.States() {
		for _, t := range c.g.Terminals() {
			act := c.base.Action(s, t)
			if act.Type == Shift {
				incoming[act.State]++
			}
		}
	}

	for _, s := range c.base.States() {
		for _, t := range c.g.Terminals() {
			act := c.base.Action(s, t)
			if act.Type != Shift {
				continue
			}
			red, ok := trivial[act.State]
			if !ok {
				continue
			}
			if incoming[act.State] != 1 || act.State == c.base.Initial() {
				// a shared or initial state must stay addressable on
				// its own; only fold purely-private targets away.
				continue
			}
			if c.combined[s] == nil {
				c.combined[s] = map[string]Action{}
			}
			c.combined[s][t] = Action{Type: ShiftReduce, Production: red.Production, Symbol: red.Symbol, RuleIndex: red.RuleIndex}
			c.elided[act.State] = true
		}
	}
}

// buildDefaultReductions records, for every state where the explicit
// entries that resolve at all resolve to a single common reduction and
// the state has no shift action, that reduction as the state's fallback
// for any terminal with no other explicit entry — spec.md §4.5's
// "default-reduction compression". States with a shift keep every column
// explicit: collapsing their error entries would turn a real syntax
// error into a silent, wrong reduction.
func (c *compressedTable) buildDefaultReductions() {
	c.defaultReduce = map[string]Action{}
	for _, s := range c.base.States() {
		if c.elided[s] {
			continue
		}
		hasShift := false
		var sole Action
		has := false
		consistent := true
		for _, t := range c.g.Terminals() {
			act := c.base.Action(s, t)
			switch act.Type {
			case Shift:
				hasShift = true
			case Reduce:
				if !has {
					sole, has = act, true
				} else if act.Symbol != sole.Symbol || !act.Production.Equal(sole.Production) {
					consistent = false
				}
			}
		}
		if !hasShift && has && consistent {
			c.defaultReduce[s] = sole
		}
	}
}

func (c *compressedTable) Initial() string { return c.base.Initial() }

func (c *compressedTable) Action(state, symbol string) Action {
	if row, ok := c.combined[state]; ok {
		if act, ok := row[symbol]; ok {
			return act
		}
	}
	act := c.base.Action(state, symbol)
	if act.Type != Error {
		return act
	}
	if def, ok := c.defaultReduce[state]; ok && c.g.IsTerminal(symbol) {
		return def
	}
	return act
}

func (c *compressedTable) Goto(state, symbol string) (string, error) {
	if row, ok := c.unitRedirect[state]; ok {
		if to, ok := row[symbol]; ok {
			return to, nil
		}
	}
	return c.base.Goto(state, symbol)
}

func (c *compressedTable) States() []string {
	var out []string
	for _, s := range c.base.States() {
		if !c.elided[s] {
			out = append(out, s)
		}
	}
	return out
}

func (c *compressedTable) String() string {
	var sb strings.Builder
	sb.WriteString(c.base.String())
	sb.WriteString("\ncompression: ")
	sb.WriteString(fmt.Sprintf("%d state(s) folded into combined shift-reduce instructions, %d state(s) with a default reduction\n",
		len(c.elided), len(c.defaultReduce)))
	if len(c.unitRedirect) > 0 {
		keys := make([]string, 0, len(c.unitRedirect))
		for k := range c.unitRedirect {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(fmt.Sprintf("unit-rule redirects computed for %d state(s)\n", len(keys)))
	}
	return sb.String()
}
