// Package closure implements the bipartite AND/OR propagation closure used
// throughout grammar analysis: a conjunct (AND-node) activates when all of
// its inputs are active; a disjunct (OR-node) activates when any of its
// inputs is active. It is the shared engine behind epsilon-derivability,
// well-foundedness, reachability, and FIRST-set computation.
package closure

// DisjunctID and ConjunctID identify nodes in a Builder. They are only
// meaningful relative to the Builder that produced them.
type DisjunctID int
type ConjunctID int

type conjunct struct {
	inputs    []DisjunctID
	remaining int
	output    DisjunctID
}

type disjunct struct {
	active        bool
	dependents    []ConjunctID // conjuncts that list this disjunct as an input
}

// Builder accumulates conjuncts and disjuncts for one closure computation.
// Build the whole graph first, then call Run once.
type Builder struct {
	conjuncts []conjunct
	disjuncts []disjunct
}

// NewDisjunct allocates a fresh, initially-inactive disjunct and returns its
// ID.
func (b *Builder) NewDisjunct() DisjunctID {
	b.disjuncts = append(b.disjuncts, disjunct{})
	return DisjunctID(len(b.disjuncts) - 1)
}

// NewConjunct allocates a conjunct that becomes active once every disjunct
// in inputs is active (immediately, if inputs is empty), and which then
// activates the output disjunct. A disjunct repeated in inputs is counted
// with its multiplicity (multiset semantics), matching the spec's closure
// algorithm.
func (b *Builder) NewConjunct(inputs []DisjunctID, output DisjunctID) ConjunctID {
	id := ConjunctID(len(b.conjuncts))
	b.conjuncts = append(b.conjuncts, conjunct{
		inputs:    append([]DisjunctID{}, inputs...),
		remaining: len(inputs),
		output:    output,
	})
	for _, in := range inputs {
		b.disjuncts[in].dependents = append(b.disjuncts[in].dependents, id)
	}
	return id
}

// Run executes the closure algorithm to fixpoint and returns the set of
// active disjuncts as a bool slice indexed by DisjunctID.
func (b *Builder) Run() []bool {
	var conjunctQueue []ConjunctID
	var disjunctQueue []DisjunctID

	for ci := range b.conjuncts {
		if b.conjuncts[ci].remaining == 0 {
			conjunctQueue = append(conjunctQueue, ConjunctID(ci))
		}
	}

	activateDisjunct := func(d DisjunctID) {
		if b.disjuncts[d].active {
			return
		}
		b.disjuncts[d].active = true
		disjunctQueue = append(disjunctQueue, d)
	}

	for len(conjunctQueue) > 0 || len(disjunctQueue) > 0 {
		for len(conjunctQueue) > 0 {
			c := conjunctQueue[0]
			conjunctQueue = conjunctQueue[1:]
			activateDisjunct(b.conjuncts[c].output)
		}
		for len(disjunctQueue) > 0 {
			d := disjunctQueue[0]
			disjunctQueue = disjunctQueue[1:]
			for _, ci := range b.disjuncts[d].dependents {
				b.conjuncts[ci].remaining--
				if b.conjuncts[ci].remaining == 0 {
					conjunctQueue = append(conjunctQueue, ci)
				}
			}
		}
	}

	out := make([]bool, len(b.disjuncts))
	for i := range b.disjuncts {
		out[i] = b.disjuncts[i].active
	}
	return out
}
