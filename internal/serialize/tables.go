// Package serialize builds the spec.md §6 "Serialized tables" JSON
// object out of a compiled grammar, parse table, and scanner table.
// Table serialization itself is named in spec.md §1 as out of this
// system's core scope ("addressed only via their interfaces in §6"),
// but cmd/loach is exactly that external interface, so this package is
// its one job: turn the in-memory types package lr/regex/grammar build
// into the plain-object shape §6 describes, using encoding/json per
// SPEC_FULL.md's DOMAIN STACK note that serialized tables use a plain
// object-field contract rather than a binary format needing
// github.com/dekarrin/rezi.
package serialize

import (
	"sort"

	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/lr"
	"github.com/dekarrin/loach/regex"
)

// Tables is the top-level object spec.md §6 describes.
type Tables struct {
	Description string       `json:"description"`
	Source      string       `json:"source"`
	Version     [3]int       `json:"version"`
	Scanner     ScannerTable `json:"scanner"`
	Parser      ParserTable  `json:"parser"`
}

// AlphabetEntry names one partition's inclusive code-point range.
type AlphabetEntry struct {
	Label string `json:"label"`
	Lo    int32  `json:"lo"`
	Hi    int32  `json:"hi"`
}

// DFATable is the "dfa" sub-object of a serialized scanner table.
type DFATable struct {
	Delta   map[string]map[string]string `json:"delta"`
	Final   map[string]bool              `json:"final"`
	Rule    map[string]int               `json:"rule"`
	Initial map[string]string            `json:"initial"`
	// Backup is not named in spec.md §6's literal field list but is
	// needed by the scanner runtime's variable trailing-context backup
	// (regex.AcceptInfo.Backup, -1 when statically unknown); included
	// as an addition to the documented contract rather than dropped.
	Backup map[string]int `json:"backup"`
}

// ScannerTable is the "scanner" sub-object.
type ScannerTable struct {
	Alphabet []AlphabetEntry `json:"alphabet"`
	DFA      DFATable        `json:"dfa"`
	Action   []string        `json:"action"`
}

// ActionEntry is one serialized parser-table action cell.
// State is populated only when Type is "shift"; Rule only when Type is
// "reduce" or "shift-reduce" (rule index 0 is a valid rule, so Rule is
// never omitted on the strength of its value alone — Type says which
// fields apply).
type ActionEntry struct {
	Type  string `json:"type"`
	State string `json:"state,omitempty"`
	Rule  int    `json:"rule"`
}

// RuleTable is the "rule" sub-object of a serialized parser table.
type RuleTable struct {
	Constructor []string     `json:"constructor"`
	LineNumber  []int        `json:"line_number"`
	Rules       []RuleRecord `json:"rules"`
}

// RuleRecord is one entry of RuleTable.Rules: spec.md §6's
// "(lhs, rhs_length, constructor_index_or_negative_offset,
// capture_offsets[])" tuple. Constructor follows the scheme documented
// in DESIGN.md: >= 0 indexes RuleTable.Constructor; -1 means "default
// tuple, no named handler"; <= -2 encodes a capture-offset pass-through
// at offset -(value)-2.
type RuleRecord struct {
	LHS            string `json:"lhs"`
	RHSLength      int    `json:"rhs_length"`
	Constructor    int    `json:"constructor_index_or_negative_offset"`
	CaptureOffsets []int  `json:"capture_offsets"`
}

// ParserTable is the "parser" sub-object.
type ParserTable struct {
	Action       map[string]map[string]ActionEntry `json:"action"`
	Goto         map[string]map[string]string      `json:"goto"`
	Initial      map[string]string                 `json:"initial"`
	Terminals    []string                          `json:"terminals"`
	NonTerminals []string                          `json:"nonterminals"`
	Breadcrumbs  map[string]string                 `json:"breadcrumbs"`
	Rule         RuleTable                         `json:"rule"`
}

// BuildScanner renders a compiled regex.Table into ScannerTable.
func BuildScanner(t *regex.Table) ScannerTable {
	st := ScannerTable{
		DFA: DFATable{
			Delta:   map[string]map[string]string{},
			Final:   map[string]bool{},
			Rule:    map[string]int{},
			Initial: map[string]string{},
			Backup:  map[string]int{},
		},
	}

	for _, r := range t.Alphabet.Ranges() {
		st.Alphabet = append(st.Alphabet, AlphabetEntry{Label: r.Label, Lo: r.Lo, Hi: r.Hi})
	}

	for state, row := range t.Delta {
		copied := map[string]string{}
		for class, next := range row {
			copied[class] = next
		}
		st.DFA.Delta[state] = copied
	}

	for state, info := range t.Accept {
		st.DFA.Final[state] = true
		st.DFA.Rule[state] = info.Rule
		st.DFA.Backup[state] = info.Backup
	}

	for cond, state := range t.Initial {
		st.DFA.Initial[cond] = state
	}

	st.Action = make([]string, len(t.Rules))
	for i, r := range t.Rules {
		st.Action[i] = r.Name
	}

	return st
}

// BuildParser renders a compiled lr.ParseTable and its grammar into
// ParserTable.
func BuildParser(g grammar.Grammar, table lr.ParseTable) ParserTable {
	pt := ParserTable{
		Action:       map[string]map[string]ActionEntry{},
		Goto:         map[string]map[string]string{},
		Initial:      map[string]string{g.StartSymbol(): table.Initial()},
		Terminals:    g.Terminals(),
		NonTerminals: g.NonTerminals(),
		Breadcrumbs:  map[string]string{},
	}

	states := table.States()

	for _, s := range states {
		row := map[string]ActionEntry{}
		for _, t := range g.Terminals() {
			act := table.Action(s, t)
			entry, ok := serializeAction(act)
			if ok {
				row[t] = entry
			}
		}
		if entry, ok := serializeAction(table.Action(s, grammar.EndOfInput)); ok {
			row[grammar.EndOfInput] = entry
		}
		if entry, ok := serializeAction(table.Action(s, grammar.ErrorSymbol)); ok {
			row[grammar.ErrorSymbol] = entry
		}
		if len(row) > 0 {
			pt.Action[s] = row
		}

		gotoRow := map[string]string{}
		for _, nt := range g.NonTerminals() {
			if target, err := table.Goto(s, nt); err == nil {
				gotoRow[nt] = target
			}
		}
		if len(gotoRow) > 0 {
			pt.Goto[s] = gotoRow
		}
	}

	pt.Breadcrumbs = reachingSymbols(g, table, states)
	pt.Rule = buildRuleTable(g)

	return pt
}

func serializeAction(act lr.Action) (ActionEntry, bool) {
	switch act.Type {
	case lr.Shift:
		return ActionEntry{Type: "shift", State: act.State}, true
	case lr.Reduce:
		return ActionEntry{Type: "reduce", Rule: act.RuleIndex}, true
	case lr.ShiftReduce:
		return ActionEntry{Type: "shift-reduce", Rule: act.RuleIndex}, true
	case lr.Accept:
		return ActionEntry{Type: "accept"}, true
	default:
		return ActionEntry{}, false
	}
}

// reachingSymbols computes, for each state, one symbol whose shift or
// goto edge leads into it — spec.md §4.5's "diagnostic breadcrumbs
// (reaching symbol per state)". lr.ParseTable exposes no predecessor
// map, so this does the one-time O(states x symbols) scan needed to
// recover it from Action/Goto directly; fine for the table sizes this
// generator produces.
func reachingSymbols(g grammar.Grammar, table lr.ParseTable, states []string) map[string]string {
	crumbs := map[string]string{}
	symbols := append(append([]string{}, g.Terminals()...), g.NonTerminals()...)
	sort.Strings(states)
	for _, s := range states {
		for _, sym := range symbols {
			var target string
			if g.IsTerminal(sym) {
				act := table.Action(s, sym)
				if act.Type != lr.Shift {
					continue
				}
				target = act.State
			} else {
				t, err := table.Goto(s, sym)
				if err != nil {
					continue
				}
				target = t
			}
			if _, have := crumbs[target]; !have {
				crumbs[target] = sym
			}
		}
	}
	return crumbs
}

// constructorIndex implements the scheme documented on RuleRecord.
func constructorIndex(key grammar.ConstructorKey, names map[string]int, order *[]string) int {
	switch key.Kind {
	case grammar.ConstructOffset:
		return -(key.Offset) - 2
	case grammar.ConstructMessage:
		if idx, ok := names[key.Name]; ok {
			return idx
		}
		idx := len(*order)
		names[key.Name] = idx
		*order = append(*order, key.Name)
		return idx
	default:
		return -1
	}
}

func buildRuleTable(g grammar.Grammar) RuleTable {
	rt := RuleTable{}
	names := map[string]int{}

	for _, ref := range g.AllProductions() {
		idx := constructorIndex(ref.Meta.Constructor, names, &rt.Constructor)
		rt.LineNumber = append(rt.LineNumber, ref.Meta.Line)

		rhsLen := len(ref.Production)
		if rhsLen == 1 && ref.Production[0] == "" {
			rhsLen = 0
		}

		var offsets []int
		if ref.Meta.Capture == nil {
			for i := 0; i < rhsLen; i++ {
				offsets = append(offsets, i)
			}
		} else {
			for i, captured := range ref.Meta.Capture {
				if captured {
					offsets = append(offsets, i)
				}
			}
		}

		rt.Rules = append(rt.Rules, RuleRecord{
			LHS:            ref.NonTerminal,
			RHSLength:      rhsLen,
			Constructor:    idx,
			CaptureOffsets: offsets,
		})
	}

	return rt
}
