// Package regex's table.go assembles parsed, compiled rules into the
// scanner table contract of spec.md §4.1: a minimized DFA per scan
// condition, an alphabet-class map, and per-state accept/backup info.
package regex

import (
	"fmt"
	"sort"

	"github.com/dekarrin/loach/automaton"
	"github.com/dekarrin/loach/internal/util"
)

// Rule is one scanner rule: a pattern (with named subexpressions not yet
// expanded), the action/message name fired on a match, and a rank used
// to break leftmost-longest ties (spec.md §3's Pattern record).
type Rule struct {
	Pattern string
	Name    string
	Rank    int
	Line    int
}

// AcceptInfo is the resolved accept decision for a DFA state: which rule
// fired, and how many characters of the match must be backed up over
// (trailing context). Backup is -1 when the trailing-context length is
// not statically fixed; in that case the scanner must compute backup at
// match time from the most recent boundary crossing recorded for Rule,
// found via Table.BoundaryStates.
type AcceptInfo struct {
	Rule   int
	Backup int
}

// Table is the compiled scanner: one minimized DFA per scan condition,
// sharing a single Alphabet so that alphabet-class columns mean the same
// thing regardless of which condition's table is in play.
type Table struct {
	Alphabet *Alphabet
	Rules    []Rule

	// Initial maps a scan-condition name to its DFA entry state.
	Initial map[string]string

	// Delta[state][alphabetClass] = nextState, one map per condition's DFA;
	// states are namespaced per condition so two conditions never collide.
	Delta map[string]map[string]string

	// Accept[state], present only for accepting states.
	Accept map[string]AcceptInfo

	// BoundaryStates[state] lists the rule indices whose trailing-context
	// divider has been crossed by the time the scan reaches state. The
	// scanner runtime records the input position at which it first enters
	// such a state for a given rule, so that a later variable-backup
	// Accept can compute Backup = currentPos - recordedPos.
	BoundaryStates map[string][]int
}

// BuildTable compiles rules into a Table. conditionRules maps a scan
// condition's name to the (already include-expanded) indices into rules
// that are active in it — resolving "%include" style condition
// inheritance is the definition document parser's job, not this
// package's; by the time BuildTable runs, the per-condition rule sets
// must already be flat.
func BuildTable(rules []Rule, defs *NamedDefs, conditionRules map[string][]int) (*Table, error) {
	if defs == nil {
		defs = NewNamedDefs()
	}

	asts := make([]node, len(rules))
	var allClasses []CharClass
	for i, r := range rules {
		expanded, err := defs.expand(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (line %d): %w", i, r.Line, err)
		}
		n, err := Parse(expanded)
		if err != nil {
			return nil, fmt.Errorf("rule %d (line %d): %w", i, r.Line, err)
		}
		asts[i] = n
		collectClasses(n, &allClasses)
	}

	alphabet := NewAlphabet(allClasses)

	t := &Table{
		Alphabet:       alphabet,
		Rules:          rules,
		Initial:        map[string]string{},
		Delta:          map[string]map[string]string{},
		Accept:         map[string]AcceptInfo{},
		BoundaryStates: map[string][]int{},
	}

	for _, condition := range util.OrderedKeys(conditionRules) {
		ruleIdxs := conditionRules[condition]
		if err := t.buildCondition(condition, ruleIdxs, rules, asts, alphabet); err != nil {
			return nil, fmt.Errorf("condition %q: %w", condition, err)
		}
	}

	return t, nil
}

func collectClasses(n node, out *[]CharClass) {
	switch v := n.(type) {
	case litNode:
		*out = append(*out, v.class)
	case concatNode:
		for _, p := range v.parts {
			collectClasses(p, out)
		}
	case unionNode:
		for _, p := range v.parts {
			collectClasses(p, out)
		}
	case starNode:
		collectClasses(v.body, out)
	case plusNode:
		collectClasses(v.body, out)
	case optionalNode:
		collectClasses(v.body, out)
	case repeatNode:
		collectClasses(v.body, out)
	case trailingNode:
		collectClasses(v.r1, out)
		collectClasses(v.r2, out)
	}
}

func (t *Table) buildCondition(condition string, ruleIdxs []int, rules []Rule, asts []node, alphabet *Alphabet) error {
	c := newCompiler(alphabet)
	start := c.newState()

	for _, idx := range ruleIdxs {
		c.rule = idx
		frag, err := c.compileFragment(asts[idx])
		if err != nil {
			return fmt.Errorf("rule %d: %w", idx, err)
		}
		c.nfa.AddTransition(start, "", frag.start)

		tag := c.nfa.GetValue(frag.end)
		tag.Accept = &AcceptLabel{Rule: idx, Rank: rules[idx].Rank, Name: rules[idx].Name}
		c.nfa.SetValue(frag.end, tag)
	}
	c.nfa.Start = start

	dfa := c.nfa.ToDFA()

	classKey := func(v util.SVSet[nfaTag]) string {
		label, backup, boundary := resolveAccept(v, rules, asts)
		_ = boundary
		return fmt.Sprintf("%d:%d", label.Rule, backup)
	}
	minDFA := automaton.Minimize(dfa, classKey)

	prefix := condition + "#"
	for _, sName := range minDFA.States().Elements() {
		newName := prefix + sName
		if t.Delta[newName] == nil {
			t.Delta[newName] = map[string]string{}
		}
		for _, label := range alphabet.Labels() {
			next := minDFA.Next(sName, label)
			if next == "" {
				continue
			}
			t.Delta[newName][label] = prefix + next
		}

		value := minDFA.GetValue(sName)
		if minDFA.IsAccepting(sName) {
			accept, backup, boundaryRules := resolveAccept(value, rules, asts)
			t.Accept[newName] = AcceptInfo{Rule: accept.Rule, Backup: backup}
			if len(boundaryRules) > 0 {
				t.BoundaryStates[newName] = boundaryRules
			}
		} else {
			if boundaryRules := boundaryRulesOf(value); len(boundaryRules) > 0 {
				t.BoundaryStates[newName] = boundaryRules
			}
		}
	}

	t.Initial[condition] = prefix + minDFA.Start

	return nil
}

func boundaryRulesOf(v util.SVSet[nfaTag]) []int {
	seen := map[int]bool{}
	var out []int
	for _, tag := range v {
		for _, r := range tag.Boundary {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	sort.Ints(out)
	return out
}

// resolveAccept picks the winning AcceptLabel among every nfa state folded
// into this DFA state (highest rank, then earliest rule — spec.md §4.1
// step 3; longest match is already guaranteed by DFA longest-match
// semantics during scanning, not by anything decided here), and
// computes its backup length: a statically fixed length when the
// winning rule's trailing-context R2 (if any) has one, else -1 to mark
// variable trailing context requiring runtime boundary tracking.
func resolveAccept(v util.SVSet[nfaTag], rules []Rule, asts []node) (AcceptLabel, int, []int) {
	var winner AcceptLabel
	found := false
	for _, tag := range v {
		if tag.Accept == nil {
			continue
		}
		if !found || tag.Accept.Less(winner) {
			winner = *tag.Accept
			found = true
		}
	}

	boundary := boundaryRulesOf(v)

	if !found {
		return AcceptLabel{}, 0, boundary
	}

	backup := 0
	if r2, ok := trailingR2(asts[winner.Rule]); ok {
		if fixed, isFixed := fixedLength(r2); isFixed {
			backup = fixed
		} else {
			backup = -1
		}
	}

	return winner, backup, boundary
}

func trailingR2(n node) (node, bool) {
	if t, ok := n.(trailingNode); ok {
		return t.r2, true
	}
	return nil, false
}

// fixedLength reports the exact number of characters n always matches,
// when that number does not depend on the input (no star/plus/unbounded
// repeat/union-of-different-lengths) — the case flex calls "fixed
// trailing context", the only case where backup can be baked into the
// table instead of tracked at scan time.
func fixedLength(n node) (int, bool) {
	switch v := n.(type) {
	case litNode:
		return 1, true
	case anchorNode:
		return 0, true
	case concatNode:
		total := 0
		for _, p := range v.parts {
			l, ok := fixedLength(p)
			if !ok {
				return 0, false
			}
			total += l
		}
		return total, true
	case unionNode:
		if len(v.parts) == 0 {
			return 0, true
		}
		first, ok := fixedLength(v.parts[0])
		if !ok {
			return 0, false
		}
		for _, p := range v.parts[1:] {
			l, ok := fixedLength(p)
			if !ok || l != first {
				return 0, false
			}
		}
		return first, true
	case repeatNode:
		if v.max < 0 || v.max != v.min {
			return 0, false
		}
		bodyLen, ok := fixedLength(v.body)
		if !ok {
			return 0, false
		}
		return bodyLen * v.min, true
	default:
		return 0, false
	}
}
