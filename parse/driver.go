// Package parse drives LR parse tables (package lr) against a token
// stream. It implements both the deterministic push-mode shift-reduce
// driver with error-production recovery, and a generalized (GLR) parser
// for grammars with unresolved conflicts.
package parse

import (
	"fmt"
	"strings"

	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/internal/util"
	"github.com/dekarrin/loach/lr"
	"github.com/dekarrin/loach/types"
)

// recoveryCommitWindow is how many consecutive tokens a trial parse must
// consume successfully before a recovery hypothesis is committed, per
// spec.md §4.6.
const recoveryCommitWindow = 3

// frame is one slot of the driver's real parse stack: a state, together
// with whatever symbol put it there (a shifted token, or a reduction's
// completed subtree) and that symbol's semantic value.
type frame struct {
	state   string
	isToken bool
	tok     types.Token
	subtree *types.ParseTree
	value   any
}

// errorToken is the synthetic token shifted for the $error$ metatoken
// during recovery. It carries bad's position so diagnostics built from
// the resulting tree node can still point somewhere useful in source.
type errorToken struct{ bad types.Token }

func (e errorToken) Class() types.TokenClass { return types.MakeDefaultClass(grammar.ErrorSymbol) }
func (e errorToken) Lexeme() string          { return grammar.ErrorSymbol }
func (e errorToken) LinePos() int {
	if e.bad != nil {
		return e.bad.LinePos()
	}
	return 0
}
func (e errorToken) Line() int {
	if e.bad != nil {
		return e.bad.Line()
	}
	return 0
}
func (e errorToken) FullLine() string {
	if e.bad != nil {
		return e.bad.FullLine()
	}
	return ""
}
func (e errorToken) String() string { return grammar.ErrorSymbol }

// recState is a recoverable ($error$-shiftable) state found on the real
// stack, together with how many pops from the top reach it.
type recState struct {
	depth int
	state string
}

// Driver is a deterministic shift-reduce parser fed one token at a time.
// It implements Algorithm 4.44, "LR-parsing algorithm", from the purple
// dragon book, extended with the §4.6 "smart" $error$-production
// recovery mechanism and §9 constructor dispatch.
type Driver struct {
	table    lr.ParseTable
	gram     grammar.Grammar
	handlers Handlers
	ruleRefs []grammar.RuleRef

	stack util.Stack[frame]

	// recovery state. recovering is true for the whole episode, from the
	// error through either a committed or abandoned trial. recoverBase
	// is nil during the discard phase (searching for an admitted
	// token) and set once $error$ has been shifted onto the real stack,
	// at which point trial/trialTokens/trialCount track the in-progress
	// simulated trial parse.
	recovering       bool
	recoverUnion     map[string]bool
	recoverAdmitters map[string][]recState
	recoverBase      []frame
	trial            []string
	trialTokens      []types.Token
	trialCount       int

	trace             func(string)
	onMessage         func(Message)
	onRecover         func()
	onUnexpectedToken func(lookahead types.Token, state string)
	onUnexpectedEOF   func()
}

// NewDriver creates a driver over table for grammar g, positioned at the
// table's initial state. handlers resolves every ConstructMessage
// constructor g's productions name; per spec.md §9 this is checked once,
// here, rather than lazily at the first matching reduction — an unknown
// handler name fails construction, not a parse already underway.
func NewDriver(table lr.ParseTable, g grammar.Grammar, handlers Handlers) (*Driver, error) {
	if handlers == nil {
		handlers = Handlers{}
	}
	if err := handlers.validate(g); err != nil {
		return nil, err
	}
	d := &Driver{table: table, gram: g, handlers: handlers, ruleRefs: g.AllProductions()}
	d.stack.Push(frame{state: table.Initial()})
	return d, nil
}

// RegisterTraceListener installs a callback invoked with a human-readable
// description of each step the driver takes, for diagnostics.
func (d *Driver) RegisterTraceListener(fn func(string)) {
	d.trace = fn
}

// RegisterMessageListener installs a callback invoked once per reduction
// whose constructor is a ConstructMessage — the "stream of reduction
// events" spec.md §1 names as the driver's second output, alongside the
// tree Finish returns.
//
// ConstructOffset and ConstructDefaultTuple reductions do not invoke the
// callback (they compute a value with no named handler to report); callers
// that want every reduction's value, not just named ones, should walk
// the finished tree's RuleIndex fields via Evaluate instead.
func (d *Driver) RegisterMessageListener(fn func(Message)) {
	d.onMessage = fn
}

// RegisterRecoveryListener installs spec.md §6's did_recover() callback,
// invoked once a trial parse commits and the driver resumes normal
// operation.
func (d *Driver) RegisterRecoveryListener(fn func()) {
	d.onRecover = fn
}

// RegisterUnexpectedTokenListener installs spec.md §6's
// unexpected_token(lookahead, state, stack) callback. The stack argument
// that spec names is available to the caller via the Driver itself if
// needed; this driver does not expose its internal frame representation,
// so only lookahead and state are passed.
func (d *Driver) RegisterUnexpectedTokenListener(fn func(lookahead types.Token, state string)) {
	d.onUnexpectedToken = fn
}

// RegisterUnexpectedEOFListener installs spec.md §6's unexpected_eof()
// callback.
func (d *Driver) RegisterUnexpectedEOFListener(fn func()) {
	d.onUnexpectedEOF = fn
}

func (d *Driver) notify(format string, args ...any) {
	if d.trace != nil {
		d.trace(fmt.Sprintf(format, args...))
	}
}

// Feed advances the driver by one input token. Outside of recovery this
// shifts or reduces as many times as the table calls for; during
// recovery it is routed to the discard-search or the trial-parse
// depending on how far the current recovery episode has progressed.
// accepted is true once the grammar's start symbol has been fully
// reduced; call Finish to retrieve the tree.
func (d *Driver) Feed(tok types.Token) (accepted bool, err error) {
	if d.recovering {
		if d.recoverBase == nil {
			if !d.recoverUnion[tok.Class().ID()] {
				d.notify("discarding %s during error recovery", tok.Class().ID())
				return false, nil
			}
			if err := d.commitRecoveryShift(tok); err != nil {
				return false, err
			}
		}
		return d.feedTrial(tok)
	}
	return d.feedNormal(tok)
}

func (d *Driver) feedNormal(tok types.Token) (bool, error) {
	for {
		s := d.stack.Peek().state
		act := d.table.Action(s, tok.Class().ID())
		d.notify("state %s, lookahead %s: %s", s, tok.Class().ID(), act.String())

		switch act.Type {
		case lr.Error:
			if err := d.beginRecovery(tok); err != nil {
				return false, err
			}
			return d.Feed(tok)

		case lr.Shift:
			d.stack.Push(frame{state: act.State, isToken: true, tok: tok, value: tok.Lexeme()})
			return false, nil

		case lr.ShiftReduce:
			// Combined instruction: the table collapsed the intermediate
			// shift target away, so shift tok and reduce in one step. The
			// pushed frame's state is never read — reduce looks at the
			// state below the popped frames for its GOTO, which this
			// placeholder frame isn't part of.
			d.stack.Push(frame{isToken: true, tok: tok, value: tok.Lexeme()})
			if err := d.reduce(lr.Action{Type: lr.Reduce, Production: act.Production, Symbol: act.Symbol, RuleIndex: act.RuleIndex}); err != nil {
				return false, err
			}
			return false, nil

		case lr.Reduce:
			if err := d.reduce(act); err != nil {
				return false, err
			}

		case lr.Accept:
			return true, nil
		}
	}
}

// Finish returns the completed parse tree after Feed has reported
// accepted. It is an error to call Finish before acceptance.
func (d *Driver) Finish() (types.ParseTree, error) {
	if d.stack.Empty() || d.stack.Peek().subtree == nil {
		return types.ParseTree{}, errs.NewDriverError("parse did not reach an accepting state")
	}
	return *d.stack.Peek().subtree, nil
}

// reduce applies one reduction: pops |β| frames, invokes the production's
// constructor (grammar.ConstructorKey, via Handlers) on their semantic
// values, builds the corresponding parse tree node (spliced away, rather
// than given its own node, when the grammar marks the LHS void and the
// production has exactly one child), and pushes the resulting frame.
func (d *Driver) reduce(act lr.Action) error {
	A := act.Symbol
	beta := act.Production

	children := make([]*types.ParseTree, len(beta))
	values := make([]any, len(beta))
	for i := len(beta) - 1; i >= 0; i-- {
		f := d.stack.Pop()
		values[i] = f.value
		if f.isToken {
			children[i] = &types.ParseTree{Terminal: true, Value: f.tok.Class().ID(), Source: f.tok, RuleIndex: -1}
		} else {
			children[i] = f.subtree
		}
	}

	if act.RuleIndex < 0 || act.RuleIndex >= len(d.ruleRefs) {
		return errs.NewDriverError(fmt.Sprintf("reduction for %q has out-of-range rule index %d", A, act.RuleIndex))
	}
	ref := d.ruleRefs[act.RuleIndex]
	val, msg, err := d.handlers.invoke(ref, values)
	if err != nil {
		return err
	}
	if msg != nil && d.onMessage != nil {
		d.onMessage(*msg)
	}

	var node *types.ParseTree
	if d.gram.IsVoid(A) && len(children) == 1 {
		node = children[0]
	} else {
		node = &types.ParseTree{Value: A, Children: children, RuleIndex: act.RuleIndex}
	}

	t := d.stack.Peek().state
	toPush, err := d.table.Goto(t, A)
	if err != nil {
		return errs.NewDriverError(fmt.Sprintf("no GOTO entry for state %q on %q; table construction is inconsistent", t, A))
	}
	d.stack.Push(frame{state: toPush, subtree: node, value: val})
	return nil
}

// statesSlice returns the real stack's state sequence, bottom to top.
func (d *Driver) statesSlice() []string {
	out := make([]string, len(d.stack.Of))
	for i, f := range d.stack.Of {
		out[i] = f.state
	}
	return out
}

// recoverableStates scans the real stack from top to bottom for every
// state with a $error$ shift action, per spec.md §4.6 step 1.
func (d *Driver) recoverableStates() []recState {
	var out []recState
	states := d.statesSlice()
	for i := len(states) - 1; i >= 0; i-- {
		if act := d.table.Action(states[i], grammar.ErrorSymbol).Type; act == lr.Shift || act == lr.ShiftReduce {
			out = append(out, recState{depth: len(states) - 1 - i, state: states[i]})
		}
	}
	return out
}

// admits reports whether terminal t is eventually shiftable (or causes
// acceptance) from the top of states after zero or more hypothetical
// reductions applied against states itself — the "recursive simulation
// through reductions" spec.md §4.6 requires when computing a recoverable
// state's acceptable-terminal set, rather than only checking its
// immediate ACTION entry for t.
func (d *Driver) admits(states []string, t string) bool {
	s := append([]string{}, states...)
	seen := map[string]bool{}
	for {
		top := s[len(s)-1]
		key := fmt.Sprintf("%d:%s", len(s), top)
		if seen[key] {
			return false
		}
		seen[key] = true

		act := d.table.Action(top, t)
		switch act.Type {
		case lr.Shift, lr.ShiftReduce, lr.Accept:
			return true
		case lr.Reduce:
			n := len(act.Production)
			if n > len(s)-1 {
				return false
			}
			s = s[:len(s)-n]
			toState, err := d.table.Goto(s[len(s)-1], act.Symbol)
			if err != nil {
				return false
			}
			s = append(s, toState)
		default:
			return false
		}
	}
}

// expectedTerminals returns every terminal admits accepts from the top
// of states.
func (d *Driver) expectedTerminals(states []string) []string {
	var out []string
	for _, t := range d.gram.Terminals() {
		id := d.gram.Term(t).ID()
		if d.admits(states, id) {
			out = append(out, id)
		}
	}
	if d.admits(states, grammar.EndOfInput) {
		out = append(out, grammar.EndOfInput)
	}
	return out
}

// beginRecovery implements spec.md §4.6's "smart" recovery mechanism's
// setup step: find every recoverable state on the real stack, compute
// the union of their acceptable terminals, and either stay in the
// discard phase (if tok itself is not yet admitted by any of them) or
// shift $error$ and start a trial parse (if it is).
func (d *Driver) beginRecovery(tok types.Token) error {
	recStates := d.recoverableStates()
	if len(recStates) == 0 {
		return d.unrecoverable(tok)
	}

	union := map[string]bool{}
	admitters := map[string][]recState{}
	states := d.statesSlice()
	for _, rs := range recStates {
		below := states[:len(states)-rs.depth]
		for _, term := range d.expectedTerminals(below) {
			union[term] = true
			admitters[term] = append(admitters[term], rs)
		}
	}

	d.recovering = true
	d.recoverUnion = union
	d.recoverAdmitters = admitters
	d.notify("error recovery: %d recoverable state(s) on stack, acceptable terminals %v", len(recStates), sortedKeys(union))
	return nil
}

// commitRecoveryShift unwinds the real stack to the shallowest
// recoverable state that admits tok, shifts $error$ into it, and readies
// a trial-parse simulation starting from the resulting stack.
func (d *Driver) commitRecoveryShift(tok types.Token) error {
	candidates := d.recoverAdmitters[tok.Class().ID()]
	if len(candidates) == 0 {
		return d.unrecoverable(tok)
	}
	rs := candidates[0]
	for i := 0; i < rs.depth; i++ {
		d.stack.Pop()
	}

	s := d.stack.Peek().state
	act := d.table.Action(s, grammar.ErrorSymbol)
	if act.Type == lr.ShiftReduce {
		d.stack.Push(frame{isToken: true, tok: errorToken{bad: tok}, value: nil})
		if err := d.reduce(lr.Action{Type: lr.Reduce, Production: act.Production, Symbol: act.Symbol, RuleIndex: act.RuleIndex}); err != nil {
			return err
		}
	} else {
		d.stack.Push(frame{state: act.State, isToken: true, tok: errorToken{bad: tok}, value: nil})
	}

	d.recoverBase = append([]frame{}, d.stack.Of...)
	d.trial = d.statesSlice()
	d.trialTokens = nil
	d.trialCount = 0
	d.notify("recovered to state %s after shifting $error$; beginning trial parse", act.State)
	return nil
}

// feedTrial advances the in-progress trial-parse simulation by tok,
// without running any semantic action. On failure it discards tok and
// resumes the discard search from the post-$error$-shift base (spec.md
// §4.6: "on trial failure, resume discarding terminals"). On success it
// commits once recoveryCommitWindow consecutive tokens have been
// consumed, or end-of-input is reached.
func (d *Driver) feedTrial(tok types.Token) (bool, error) {
	newStates, ok, accepted := d.simulateOne(d.trial, tok)
	if !ok {
		d.notify("trial parse failed on %s; resuming discard search", tok.Class().ID())
		d.trial = d.statesOf(d.recoverBase)
		d.trialTokens = nil
		d.trialCount = 0
		return false, nil
	}

	d.trial = newStates
	d.trialTokens = append(d.trialTokens, tok)
	d.trialCount++

	if accepted || d.trialCount >= recoveryCommitWindow || tok.Class().ID() == grammar.EndOfInput {
		return d.commitTrial()
	}
	return false, nil
}

// simulateOne runs the table's shift/reduce/accept loop for a single
// input token against a bare state sequence, with no tree-building and
// no semantic actions — the trial-parse primitive spec.md §4.6 calls
// for.
func (d *Driver) simulateOne(states []string, tok types.Token) (newStates []string, ok, accepted bool) {
	s := append([]string{}, states...)
	for {
		top := s[len(s)-1]
		act := d.table.Action(top, tok.Class().ID())
		switch act.Type {
		case lr.Error:
			return nil, false, false
		case lr.Shift:
			return append(s, act.State), true, false
		case lr.ShiftReduce:
			// The matched terminal is never pushed onto s — only the
			// len(Production)-1 symbols already below it are popped —
			// since the table never materialized a state for it.
			n := len(act.Production) - 1
			if n > len(s) {
				return nil, false, false
			}
			s = s[:len(s)-n]
			toState, err := d.table.Goto(s[len(s)-1], act.Symbol)
			if err != nil {
				return nil, false, false
			}
			return append(s, toState), true, false
		case lr.Reduce:
			n := len(act.Production)
			if n > len(s)-1 {
				return nil, false, false
			}
			s = s[:len(s)-n]
			toState, err := d.table.Goto(s[len(s)-1], act.Symbol)
			if err != nil {
				return nil, false, false
			}
			s = append(s, toState)
		case lr.Accept:
			return s, true, true
		}
	}
}

func (d *Driver) statesOf(frames []frame) []string {
	out := make([]string, len(frames))
	for i, f := range frames {
		out[i] = f.state
	}
	return out
}

// commitTrial replays the trial's successfully-consumed tokens onto the
// real stack, with real semantic actions firing as each replays, then
// ends the recovery episode and fires did_recover().
func (d *Driver) commitTrial() (bool, error) {
	d.stack.Of = append([]frame{}, d.recoverBase...)
	toReplay := d.trialTokens

	d.recovering = false
	d.recoverUnion = nil
	d.recoverAdmitters = nil
	d.recoverBase = nil
	d.trial = nil
	d.trialTokens = nil
	d.trialCount = 0

	if d.onRecover != nil {
		d.onRecover()
	}

	var accepted bool
	for _, t := range toReplay {
		acc, err := d.feedNormal(t)
		if err != nil {
			return false, err
		}
		if acc {
			accepted = true
		}
	}
	return accepted, nil
}

// unrecoverable reports a terminal parse error: no state on the stack
// can shift $error$, or none of those that can admits tok.
func (d *Driver) unrecoverable(tok types.Token) error {
	if tok.Class().ID() == grammar.EndOfInput {
		if d.onUnexpectedEOF != nil {
			d.onUnexpectedEOF()
		}
		return errs.NewParseError(tok, "unexpected end of input; "+d.expectedString(d.stack.Peek().state))
	}
	if d.onUnexpectedToken != nil {
		d.onUnexpectedToken(tok, d.stack.Peek().state)
	}
	return errs.NewParseError(tok, fmt.Sprintf("unexpected %s; %s", tok.Class().Human(), d.expectedString(d.stack.Peek().state)))
}

func (d *Driver) expectedString(stateName string) string {
	expected := d.expectedTerminals(d.statesSlice2(stateName))

	var sb strings.Builder
	sb.WriteString("expected ")
	for i, id := range expected {
		cl := d.humanOf(id)
		if i > 0 {
			if i+1 == len(expected) {
				sb.WriteString(" or ")
			} else {
				sb.WriteString(", ")
			}
		}
		sb.WriteString(cl)
	}
	return sb.String()
}

// statesSlice2 returns the real stack truncated so stateName is on top,
// falling back to the full stack if stateName is the current top (the
// common case) or isn't found (defensive; every caller passes a state
// actually on the stack).
func (d *Driver) statesSlice2(stateName string) []string {
	states := d.statesSlice()
	for i := len(states) - 1; i >= 0; i-- {
		if states[i] == stateName {
			return states[:i+1]
		}
	}
	return states
}

func (d *Driver) humanOf(id string) string {
	if id == grammar.EndOfInput {
		return "end of input"
	}
	for _, t := range d.gram.Terminals() {
		cl := d.gram.Term(t)
		if cl.ID() == id {
			return cl.Human()
		}
	}
	return id
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
