// Package lr constructs deterministic shift-reduce parse tables from a
// context-free grammar. It implements the LR(0), SLR(1), canonical-LR(1),
// LALR(1), and minimal-LR(1) table-generation methods described in the
// purple dragon book's chapter 4, layered on top of the viable-prefix
// automata in package automaton.
package lr

import (
	"fmt"
	"sort"

	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/rosed"
)

// Method names one of the supported table-construction algorithms.
type Method string

const (
	MethodLR0    Method = "LR(0)"
	MethodSLR1   Method = "SLR(1)"
	MethodCLR1   Method = "CLR(1)"
	MethodLALR1  Method = "LALR(1)"
	MethodMinLR1 Method = "minimal-LR(1)"
)

// ParseTable is the set of functions a deterministic shift-reduce driver
// needs from a generated table, regardless of which construction method
// produced it.
type ParseTable interface {
	// Initial returns the table's start state.
	Initial() string

	// Action returns the action to take in state, on lookahead symbol.
	Action(state, symbol string) Action

	// Goto maps a state and grammar symbol to the state to transition to
	// after a reduction places that symbol on top of the stack.
	Goto(state, symbol string) (string, error)

	// States returns every named state in the table, in sorted name order.
	States() []string

	// String renders the table for diagnostics.
	String() string
}

// renderTable lays out an ACTION/GOTO table as a fixed-width grid via rosed,
// matching the layout the rest of the ecosystem uses for table dumps.
func renderTable(stateNames []string, startState string, terms, nonTerms []string, action func(state, term string) Action, gotoFn func(state, nt string) (string, error)) string {
	// sort the states, then swap the initial state into first place (the
	// state it displaces takes the initial state's old slot)
	ordered := append([]string{}, stateNames...)
	sort.Strings(ordered)
	for i := range ordered {
		if ordered[i] == startState {
			ordered[0], ordered[i] = ordered[i], ordered[0]
			break
		}
	}
	stateRefs := map[string]string{}
	for i, s := range ordered {
		stateRefs[s] = fmt.Sprintf("%d", i)
	}

	allTerms := append(append([]string{}, terms...), grammar.EndOfInput)

	data := [][]string{}

	headers := []string{"S", "|"}
	for _, t := range allTerms {
		headers = append(headers, fmt.Sprintf("A:%s", t))
	}
	headers = append(headers, "|")
	for _, nt := range nonTerms {
		headers = append(headers, fmt.Sprintf("G:%s", nt))
	}
	data = append(data, headers)

	for _, s := range ordered {
		row := []string{stateRefs[s], "|"}

		for _, t := range allTerms {
			act := action(s, t)
			cell := ""
			switch act.Type {
			case Accept:
				cell = "acc"
			case Reduce:
				cell = fmt.Sprintf("r%s -> %s", act.Symbol, act.Production.String())
			case Shift:
				cell = fmt.Sprintf("s%s", stateRefs[act.State])
			case ShiftReduce:
				cell = fmt.Sprintf("sr%s -> %s", act.Symbol, act.Production.String())
			}
			row = append(row, cell)
		}

		row = append(row, "|")
		for _, nt := range nonTerms {
			cell := ""
			if gs, err := gotoFn(s, nt); err == nil {
				cell = stateRefs[gs]
			}
			row = append(row, cell)
		}

		data = append(data, row)
	}

	return rosed.Edit("").InsertTableOpts(0, data, 10, rosed.Options{
		TableHeaders:             true,
		NoTrailingLineSeparators: true,
	}).String()
}

// Generate constructs a ParseTable for g using the named method, then
// applies spec.md §4.5's table-compression pass (see compress.go) before
// returning it.
func Generate(g grammar.Grammar, method Method) (ParseTable, error) {
	base, err := generateUncompressed(g, method)
	if err != nil {
		return nil, err
	}
	return Compress(base, g), nil
}

// generateUncompressed constructs a ParseTable for g using the named
// method, with no compression applied — the shape a method-specific
// construct* function itself produces, useful for diagnostics or for
// checking construction against a hand-worked example table.
func generateUncompressed(g grammar.Grammar, method Method) (ParseTable, error) {
	switch method {
	case MethodLR0:
		return constructLR0Table(g)
	case MethodSLR1:
		return constructSLR1Table(g)
	case MethodCLR1:
		return constructCLR1Table(g)
	case MethodLALR1:
		return constructLALR1Table(g)
	case MethodMinLR1:
		return constructMinimalLR1Table(g)
	default:
		return nil, fmt.Errorf("unsupported table construction method %q", method)
	}
}
