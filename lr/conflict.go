package lr

import "github.com/dekarrin/loach/grammar"

// ruleIndexOf looks up the contiguous, definition-order index of the
// production nt -> prod, for use in reduce/reduce tie-breaking.
func ruleIndexOf(g grammar.Grammar, nt string, prod grammar.Production) int {
	for _, rr := range g.AllProductions() {
		if rr.NonTerminal == nt && rr.Production.Equal(prod) {
			return rr.Index
		}
	}
	return -1
}

// resolveConflict applies operator-precedence and associativity
// declarations to decide between two actions proposed for the same
// state/lookahead pair. It reports ok=false when the declared grammar
// gives no basis for a decision, in which case the conflict is a genuine
// ambiguity and construction should fail.
//
// A shift/reduce conflict is resolved by comparing the precedence of the
// lookahead terminal against the precedence of the production being
// reduced (its own declared precedence if any, else the precedence of its
// rightmost terminal); ties go to the lookahead terminal's declared
// associativity, or to the production's when the terminal declares none.
// A reduce/reduce conflict is resolved in favor of the earlier-defined
// production, matching yacc/bison's default.
func resolveConflict(g grammar.Grammar, existing, candidate Action, lookahead string) (Action, bool) {
	switch {
	case existing.Type == Reduce && candidate.Type == Reduce:
		if existing.RuleIndex <= candidate.RuleIndex {
			return existing, true
		}
		return candidate, true

	case existing.Type == Shift && candidate.Type == Reduce:
		return resolveShiftReduce(g, existing, candidate, lookahead)

	case existing.Type == Reduce && candidate.Type == Shift:
		act, ok := resolveShiftReduce(g, candidate, existing, lookahead)
		return act, ok

	default:
		return Action{}, false
	}
}

func resolveShiftReduce(g grammar.Grammar, shift, reduce Action, lookahead string) (Action, bool) {
	shiftLevel, shiftAssoc, shiftOK := g.PrecedenceOf(lookahead)

	reduceLevel, reduceAssoc, reduceOK := productionPrecedence(g, reduce)

	if !shiftOK || !reduceOK {
		return Action{}, false
	}

	switch {
	case shiftLevel > reduceLevel:
		return shift, true
	case reduceLevel > shiftLevel:
		return reduce, true
	default:
		assoc := reduceAssoc
		if shiftAssoc != grammar.AssocNone {
			assoc = shiftAssoc
		}
		switch assoc {
		case grammar.AssocLeft:
			return reduce, true
		case grammar.AssocRight:
			return shift, true
		default:
			return Action{}, false
		}
	}
}

// productionPrecedence finds the declared precedence of the production
// being reduced: its own Meta.Precedence token if set, else its rightmost
// terminal symbol.
func productionPrecedence(g grammar.Grammar, reduce Action) (level int, assoc grammar.Associativity, ok bool) {
	r := g.Rule(reduce.Symbol)
	for i, prod := range r.Productions {
		if !prod.Equal(reduce.Production) {
			continue
		}
		if i < len(r.Meta) && r.Meta[i].Precedence != "" {
			return g.PrecedenceOf(r.Meta[i].Precedence)
		}
		break
	}

	for i := len(reduce.Production) - 1; i >= 0; i-- {
		sym := reduce.Production[i]
		if g.IsTerminal(sym) {
			return g.PrecedenceOf(sym)
		}
	}
	return 0, grammar.AssocNone, false
}
