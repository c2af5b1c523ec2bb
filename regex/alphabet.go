package regex

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// Alphabet partitions the rune space into disjoint intervals, split at
// every boundary of every CharClass registered with it, so each partition
// lies wholly inside or wholly outside each registered class and a DFA
// transition table only needs one column per partition instead of one per
// rune — the "alphabet partitioning" step spec.md §4.1 assumes happens
// before subset construction produces a usable table. Intervals with the
// same membership in every class are not merged, so two runes on the same
// side of every class can still fall in different partitions.
//
// Point-to-partition lookup is backed by a treemap keyed by the interval
// start, mirroring how the teacher's retrieved LR table-building code
// (see _examples/npillmayer-gorgo/lr/tables.go) reaches for gods'
// ordered-map container whenever it needs fast floor-lookup over a
// sorted key space; this is that same shape applied to rune ranges
// instead of state numbers.
type Alphabet struct {
	bounds *treemap.Map // rune -> partition label, keyed by interval start
	labels []string     // partition labels in rune order
	starts []rune       // parallel to labels: inclusive lower bound of each partition
	ends   []rune       // parallel to labels: inclusive upper bound of each partition
}

// NewAlphabet builds a partitioning that respects every class in classes.
func NewAlphabet(classes []CharClass) *Alphabet {
	boundarySet := map[rune]bool{0: true}
	for _, c := range classes {
		for _, iv := range c.ranges {
			boundarySet[iv.Lo] = true
			if iv.Hi+1 <= maxRune {
				boundarySet[iv.Hi+1] = true
			}
		}
	}

	var starts []rune
	for r := range boundarySet {
		starts = append(starts, r)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	a := &Alphabet{bounds: treemap.NewWith(utils.IntComparator)}
	for i, lo := range starts {
		hi := rune(maxRune)
		if i+1 < len(starts) {
			hi = starts[i+1] - 1
		}
		if lo > hi {
			continue
		}
		label := fmt.Sprintf("c%d", i)
		a.bounds.Put(int(lo), label)
		a.labels = append(a.labels, label)
		a.starts = append(a.starts, lo)
		a.ends = append(a.ends, hi)
	}
	return a
}

// Labels returns the ordered names of every partition in the alphabet.
func (a *Alphabet) Labels() []string {
	return append([]string{}, a.labels...)
}

// ClassOf returns the partition label containing r.
func (a *Alphabet) ClassOf(r rune) string {
	_, floorVal := a.bounds.Floor(int(r))
	if floorVal == nil {
		return ""
	}
	return floorVal.(string)
}

// AlphabetRange is one partition's inclusive rune bounds, exposed for
// table serialization — spec.md §6's "alphabet" field of a serialized
// scanner table needs a concrete code-point-to-class mapping, not just
// ClassOf's single-point lookup.
type AlphabetRange struct {
	Label string
	Lo    rune
	Hi    rune
}

// Ranges returns every partition's label and inclusive bounds, in rune
// order.
func (a *Alphabet) Ranges() []AlphabetRange {
	out := make([]AlphabetRange, len(a.labels))
	for i, label := range a.labels {
		out[i] = AlphabetRange{Label: label, Lo: a.starts[i], Hi: a.ends[i]}
	}
	return out
}

// LabelsIn returns every partition label that is a (non-strict) subset of
// c. Because every partition respects c's boundaries by construction,
// a partition is either wholly inside or wholly outside c — there is no
// partial overlap to worry about.
func (a *Alphabet) LabelsIn(c CharClass) []string {
	var out []string
	for i, label := range a.labels {
		if c.Contains(a.starts[i]) {
			out = append(out, label)
		}
	}
	return out
}
