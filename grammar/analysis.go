package grammar

import (
	"github.com/dekarrin/loach/closure"
	"github.com/dekarrin/loach/internal/util"
)

// Nullable returns the set of non-terminals that can derive the empty
// string, computed via the bipartite propagation closure (§4.4): each
// production is a conjunct over the nullability of its RHS symbols (an
// empty RHS is a conjunct with no inputs, active immediately), and each
// non-terminal is the disjunct that goes active as soon as any one of its
// productions does.
func (g Grammar) Nullable() util.StringSet {
	var b closure.Builder

	ntDisjunct := map[string]closure.DisjunctID{}
	for _, nt := range g.ruleOrder {
		ntDisjunct[nt] = b.NewDisjunct()
	}

	for _, nt := range g.ruleOrder {
		r := g.rules[nt]
		for _, prod := range r.Productions {
			var inputs []closure.DisjunctID
			epsilon := len(prod) == 0 || (len(prod) == 1 && prod[0] == "")
			if !epsilon {
				ok := true
				for _, sym := range prod {
					if sym == ErrorSymbol {
						ok = false
						break
					}
					d, isNT := ntDisjunct[sym]
					if !isNT {
						// a terminal in the RHS means this production can
						// never derive epsilon.
						ok = false
						break
					}
					inputs = append(inputs, d)
				}
				if !ok {
					continue
				}
			}
			b.NewConjunct(inputs, ntDisjunct[nt])
		}
	}

	active := b.Run()
	out := util.NewStringSet()
	for _, nt := range g.ruleOrder {
		if active[ntDisjunct[nt]] {
			out.Add(nt)
		}
	}
	return out
}

// WellFounded returns the set of non-terminals that derive at least one
// finite terminal string, via the same closure construction as Nullable but
// seeded from terminals instead of epsilon: a production is a conjunct over
// the well-foundedness of its RHS symbols (terminals are always
// well-founded), and a non-terminal is the disjunct activated by any one of
// its productions.
func (g Grammar) WellFounded() util.StringSet {
	var b closure.Builder

	symDisjunct := map[string]closure.DisjunctID{}
	for _, t := range g.termOrder {
		symDisjunct[t] = b.NewDisjunct()
	}
	for _, nt := range g.ruleOrder {
		symDisjunct[nt] = b.NewDisjunct()
	}

	for _, t := range g.termOrder {
		b.NewConjunct(nil, symDisjunct[t])
	}

	for _, nt := range g.ruleOrder {
		r := g.rules[nt]
		for _, prod := range r.Productions {
			var inputs []closure.DisjunctID
			epsilon := len(prod) == 0 || (len(prod) == 1 && prod[0] == "")
			if !epsilon {
				for _, sym := range prod {
					if sym == ErrorSymbol || sym == "" {
						continue
					}
					if d, ok := symDisjunct[sym]; ok {
						inputs = append(inputs, d)
					}
				}
			}
			b.NewConjunct(inputs, symDisjunct[nt])
		}
	}

	active := b.Run()
	out := util.NewStringSet()
	for _, nt := range g.ruleOrder {
		if active[symDisjunct[nt]] {
			out.Add(nt)
		}
	}
	return out
}

// FIRST returns the set of terminals that can begin some string derived from
// the given symbol sequence. If the whole sequence is nullable, the second
// return value, nullable, reports that the empty string is also derivable.
func (g Grammar) FIRST(symbols ...string) (terms util.StringSet, nullable bool) {
	nullSet := g.Nullable()
	first := g.firstSets(nullSet)

	terms = util.NewStringSet()
	nullable = true
	for _, sym := range symbols {
		if sym == "" {
			continue
		}
		if g.IsTerminal(sym) {
			terms.Add(sym)
			nullable = false
			break
		}
		terms.AddAll(first[sym])
		if !nullSet.Has(sym) {
			nullable = false
			break
		}
	}
	return terms, nullable
}

// firstSets computes FIRST(A) for every non-terminal A via direct worklist
// fixpoint iteration over the grammar's productions. Nullability
// (null) is supplied by Nullable, itself computed via the closure
// (§4.4); this direct pass is the set-valued lift of that same idea,
// avoiding the blow-up of instantiating one closure disjunct per
// (symbol, terminal) pair.
func (g Grammar) firstSets(null util.StringSet) map[string]util.StringSet {
	first := map[string]util.StringSet{}
	for _, nt := range g.ruleOrder {
		first[nt] = util.NewStringSet()
	}

	changed := true
	for changed {
		changed = false
		for _, nt := range g.ruleOrder {
			r := g.rules[nt]
			for _, prod := range r.Productions {
				for _, sym := range prod {
					if sym == "" || sym == ErrorSymbol {
						break
					}
					if g.IsTerminal(sym) {
						if !first[nt].Has(sym) {
							first[nt].Add(sym)
							changed = true
						}
						break
					}
					before := first[nt].Len()
					first[nt].AddAll(first[sym])
					if first[nt].Len() != before {
						changed = true
					}
					if !null.Has(sym) {
						break
					}
				}
			}
		}
	}
	return first
}

// FOLLOW returns, for every non-terminal, the set of terminals (plus
// end-of-input where applicable) that can immediately follow it in some
// derivation from a start symbol.
func (g Grammar) FOLLOW() map[string]util.StringSet {
	null := g.Nullable()
	first := g.firstSets(null)

	follow := map[string]util.StringSet{}
	for _, nt := range g.ruleOrder {
		follow[nt] = util.NewStringSet()
	}
	for _, s := range g.start {
		follow[s].Add(EndOfInput)
	}

	changed := true
	for changed {
		changed = false
		for _, nt := range g.ruleOrder {
			r := g.rules[nt]
			for _, prod := range r.Productions {
				for i, sym := range prod {
					if !g.IsNonTerminal(sym) {
						continue
					}
					// compute FIRST(prod[i+1:]) and whether it is nullable
					rest := prod[i+1:]
					restFirst, restNullable := g.firstOfSeq(rest, first, null)

					before := follow[sym].Len()
					follow[sym].AddAll(restFirst)
					if restNullable {
						follow[sym].AddAll(follow[nt])
					}
					if follow[sym].Len() != before {
						changed = true
					}
				}
			}
		}
	}
	return follow
}

func (g Grammar) firstOfSeq(seq Production, first map[string]util.StringSet, null util.StringSet) (util.StringSet, bool) {
	out := util.NewStringSet()
	for _, sym := range seq {
		if sym == "" || sym == ErrorSymbol {
			continue
		}
		if g.IsTerminal(sym) {
			out.Add(sym)
			return out, false
		}
		out.AddAll(first[sym])
		if !null.Has(sym) {
			return out, false
		}
	}
	return out, true
}

// CoreSet reduces a set of LR(1) items to the StringSet of their LR(0)
// cores (rule + dot position, lookahead dropped). Two LR(1) states merge
// into one LALR(1) state exactly when their core sets are equal.
func CoreSet(items util.SVSet[LR1Item]) util.StringSet {
	cores := util.NewStringSet()
	for _, it := range items {
		cores.Add(it.LR0Item.String())
	}
	return cores
}

// LR1_CLOSURE computes the closure of a kernel set of LR(1) items: for every
// item [A -> α.Bβ, t], add [B -> .γ, u] for each production B -> γ and each
// u in FIRST(βt).
func (g Grammar) LR1_CLOSURE(kernel util.SVSet[LR1Item]) util.SVSet[LR1Item] {
	null := g.Nullable()
	first := g.firstSets(null)

	closureSet := util.NewSVSet(kernel)

	changed := true
	for changed {
		changed = false
		for _, item := range closureSet {
			if len(item.Right) == 0 {
				continue
			}
			B := item.Right[0]
			if !g.IsNonTerminal(B) {
				continue
			}
			beta := item.Right[1:]

			afterSet, afterNullable := g.firstOfSeq(beta, first, null)
			lookaheads := util.NewStringSet()
			lookaheads.AddAll(afterSet)
			if afterNullable {
				lookaheads.Add(item.Lookahead)
			}

			r := g.rules[B]
			if r == nil {
				continue
			}
			for _, gamma := range r.Productions {
				right := gamma
				if len(right) == 1 && right[0] == "" {
					right = Production{}
				}
				for _, la := range lookaheads.Elements() {
					newItem := LR1Item{
						LR0Item:   LR0Item{NonTerminal: B, Right: append([]string{}, right...)},
						Lookahead: la,
					}
					key := newItem.String()
					if !closureSet.Has(key) {
						closureSet.Set(key, newItem)
						changed = true
					}
				}
			}
		}
	}

	return closureSet
}
