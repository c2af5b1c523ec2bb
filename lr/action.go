package lr

import (
	"fmt"

	"github.com/dekarrin/loach/grammar"
)

// ActionType is the kind of action an LR parse table entry directs the
// driver to take.
type ActionType int

const (
	Shift ActionType = iota
	Reduce
	// ShiftReduce is a combined shift-reduce instruction (spec.md §4.5):
	// a table-compression form Generate's compression pass produces in
	// place of a Shift into a "trivial" state (no shiftable terminal,
	// exactly one complete item, so every lookahead there reduces the
	// same production). A driver acting on it shifts the token and
	// immediately reduces Production, without needing the compressed
	// table to expose a row for the state that shift would otherwise
	// have targeted.
	ShiftReduce
	Accept
	Error
)

func (t ActionType) String() string {
	switch t {
	case Shift:
		return "shift"
	case Reduce:
		return "reduce"
	case ShiftReduce:
		return "shift-reduce"
	case Accept:
		return "accept"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Action is a single entry of an LR parse table's ACTION function.
type Action struct {
	Type ActionType

	// Production is used when Type is Reduce. It is the β of A -> β being
	// reduced.
	Production grammar.Production

	// Symbol is used when Type is Reduce. It is the A of A -> β.
	Symbol string

	// RuleIndex is the contiguous index assigned to the reduced production,
	// for use by callers that serialize tables or report rule provenance.
	RuleIndex int

	// State is used when Type is Shift. It is the state to shift to.
	State string
}

func (a Action) String() string {
	switch a.Type {
	case Accept:
		return "ACTION<accept>"
	case Error:
		return "ACTION<error>"
	case Reduce:
		return fmt.Sprintf("ACTION<reduce %s -> %s>", a.Symbol, a.Production.String())
	case Shift:
		return fmt.Sprintf("ACTION<shift %s>", a.State)
	default:
		return "ACTION<unknown>"
	}
}

func (a Action) Equal(o any) bool {
	other, ok := o.(Action)
	if !ok {
		otherPtr, ok := o.(*Action)
		if !ok || otherPtr == nil {
			return false
		}
		other = *otherPtr
	}

	return a.Type == other.Type &&
		a.Production.Equal(other.Production) &&
		a.Symbol == other.Symbol &&
		a.State == other.State
}
