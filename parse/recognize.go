package parse

import (
	"github.com/dekarrin/loach/internal/util"
	"github.com/dekarrin/loach/lr"
	"github.com/dekarrin/loach/types"
)

// Recognize simulates the deterministic driver over tokens starting from
// state, performing shifts and reduces exactly as Driver.Feed does but
// without building any parse tree, and reports whether every token drove
// a non-error action. It mirrors the trial-parse technique used by the
// original implementation's HFA.trial_parse: a cheap lock-step simulation
// used to decide whether a candidate continuation is even viable before
// committing to the expensive work of building a tree for it.
func Recognize(table lr.ParseTable, state string, tokens []types.Token) bool {
	states := util.Stack[string]{}
	states.Push(state)

	reduceBudget := 8 * (len(tokens) + 1)

	for _, tok := range tokens {
		shifted := false
		for !shifted {
			s := states.Peek()
			act := table.Action(s, tok.Class().ID())
			switch act.Type {
			case lr.Shift:
				states.Push(act.State)
				shifted = true
			case lr.ShiftReduce:
				n := len(act.Production) - 1
				for i := 0; i < n; i++ {
					states.Pop()
				}
				t := states.Peek()
				toPush, err := table.Goto(t, act.Symbol)
				if err != nil {
					return false
				}
				states.Push(toPush)
				shifted = true
			case lr.Reduce:
				for i := 0; i < len(act.Production); i++ {
					states.Pop()
				}
				t := states.Peek()
				toPush, err := table.Goto(t, act.Symbol)
				if err != nil {
					return false
				}
				states.Push(toPush)
				reduceBudget--
				if reduceBudget <= 0 {
					// the table is looping rather than converging toward
					// a shift; treat it as not recognized.
					return false
				}
			case lr.Accept:
				return true
			case lr.Error:
				return false
			}
		}
	}

	return true
}
