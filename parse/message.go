package parse

import (
	"fmt"

	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/types"
)

// Message is one semantic reduction event: the record of a single
// production's constructor firing during a parse. spec.md §1 names this
// the second of the runtime's two outputs, alongside the token stream —
// "a stream of tokens and a stream of reduction events (semantic
// messages)".
type Message struct {
	// Rule is the contiguous rule index (grammar.Grammar.AllProductions())
	// of the production that reduced.
	Rule int

	// NonTerminal is the production's LHS.
	NonTerminal string

	// Constructor is the constructor key's name, for ConstructMessage
	// rules; empty for ConstructOffset/ConstructDefaultTuple rules, which
	// never invoke a named handler.
	Constructor string

	// Args is the captured argument values passed to the handler, in RHS
	// order, per ProductionMeta.Capture.
	Args []any

	// Value is the value the constructor produced.
	Value any
}

// MessageHandler computes a ConstructMessage rule's semantic value from
// its captured argument values. This is the system's only hook for
// caller-supplied semantic behavior: what a handler does with args is
// entirely up to the caller.
type MessageHandler func(args []any) (any, error)

// Handlers resolves a grammar's named ConstructMessage constructors to
// functions. Per spec.md §9's "dynamic constructor dispatch" design
// note, a Handlers table is resolved once, at driver-construction time,
// against the grammar it will drive; an unknown name fails construction
// immediately rather than failing lazily mid-parse.
type Handlers map[string]MessageHandler

// validate confirms every ConstructMessage constructor named by g has a
// matching entry in h.
func (h Handlers) validate(g grammar.Grammar) error {
	var missing []string
	seen := map[string]bool{}
	for _, ref := range g.AllProductions() {
		key := ref.Meta.Constructor
		if key.Kind != grammar.ConstructMessage {
			continue
		}
		if _, ok := h[key.Name]; !ok && !seen[key.Name] {
			seen[key.Name] = true
			missing = append(missing, key.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no handler registered for constructor(s): %v", missing)
	}
	return nil
}

// invoke resolves ref's constructor against childValues (the semantic
// value already computed for each RHS position, terminal or
// non-terminal, in left-to-right order) and returns the value the
// reduction produces, plus a *Message if the constructor is a named
// ConstructMessage (nil otherwise — ConstructOffset/ConstructDefaultTuple
// reductions carry no message of their own, only a value, since they
// name no caller behavior to report).
func (h Handlers) invoke(ref grammar.RuleRef, childValues []any) (any, *Message, error) {
	meta := ref.Meta

	// An empty Capture mask means "no restriction was declared" (no .sym
	// capture-dot markers in the rule's production) rather than "capture
	// nothing" — it captures every RHS position, matching the
	// all-positions default a rule written with no dots gets in spec.md
	// §6's production syntax.
	var args []any
	if len(meta.Capture) == 0 {
		args = append([]any{}, childValues...)
	} else {
		for i, captured := range meta.Capture {
			if captured && i < len(childValues) {
				args = append(args, childValues[i])
			}
		}
	}

	switch meta.Constructor.Kind {
	case grammar.ConstructOffset:
		off := meta.Constructor.Offset
		if off < 0 || off >= len(childValues) {
			return nil, nil, fmt.Errorf("rule %d (%s): constructor offset %d out of range for production of length %d",
				ref.Index, ref.NonTerminal, off, len(childValues))
		}
		return childValues[off], nil, nil

	case grammar.ConstructMessage:
		handler, ok := h[meta.Constructor.Name]
		if !ok {
			return nil, nil, fmt.Errorf("rule %d (%s): no handler registered for constructor %q",
				ref.Index, ref.NonTerminal, meta.Constructor.Name)
		}
		val, err := handler(args)
		if err != nil {
			return nil, nil, fmt.Errorf("rule %d (%s): constructor %q: %w", ref.Index, ref.NonTerminal, meta.Constructor.Name, err)
		}
		msg := &Message{Rule: ref.Index, NonTerminal: ref.NonTerminal, Constructor: meta.Constructor.Name, Args: args, Value: val}
		return val, msg, nil

	default: // ConstructDefaultTuple
		return args, nil, nil
	}
}

// Evaluate walks tree bottom-up, invoking the constructor named by each
// node's RuleIndex and returning the start symbol's computed value along
// with every message produced along the way, in reduction (post-)order.
//
// This is the "deferred" discipline spec.md §4.7 describes for
// evaluating semantic actions under non-determinism: GLR's Parse builds
// trees across the graph-structured stack with no guarantee a given
// subtree survives to the final result, so constructors cannot safely
// run while the parse is still exploring alternatives. Evaluate is run
// once, after Parse has committed to one of its (possibly several)
// result trees.
func Evaluate(tree types.ParseTree, g grammar.Grammar, handlers Handlers) (any, []Message, error) {
	if err := handlers.validate(g); err != nil {
		return nil, nil, err
	}
	refs := g.AllProductions()
	var messages []Message
	val, err := evalNode(&tree, refs, handlers, &messages)
	return val, messages, err
}

func evalNode(n *types.ParseTree, refs []grammar.RuleRef, handlers Handlers, messages *[]Message) (any, error) {
	if n.Terminal {
		return n.Source.Lexeme(), nil
	}

	childValues := make([]any, len(n.Children))
	for i, c := range n.Children {
		v, err := evalNode(c, refs, handlers, messages)
		if err != nil {
			return nil, err
		}
		childValues[i] = v
	}

	if n.RuleIndex < 0 || n.RuleIndex >= len(refs) {
		// a void-elided node retains the value of the single child it was
		// spliced from; nothing to construct at this level.
		if len(childValues) == 1 {
			return childValues[0], nil
		}
		return childValues, nil
	}

	ref := refs[n.RuleIndex]
	val, msg, err := handlers.invoke(ref, childValues)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		*messages = append(*messages, *msg)
	}
	return val, nil
}
