package parse

import (
	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/lr"
	"github.com/dekarrin/loach/types"
)

// gssNode is one node of the graph-structured stack: a parser state
// together with the set of predecessor edges that reached it. A node is
// shared between every stack configuration that happens to reach the
// same state at the same input position, which is what keeps GLR's
// worst-case state space polynomial instead of exponential.
type gssNode struct {
	id      int
	state   string
	preds   []*gssEdge
	subtree *types.ParseTree
}

// gssEdge is a predecessor link, carrying the subtree built by whatever
// shift or reduction produced it.
type gssEdge struct {
	to      *gssNode
	subtree *types.ParseTree
}

// GLR is a generalized LR parser over a graph-structured stack (GSS). It
// follows the single action an lr.ParseTable holds for each state/lookahead
// cell; conflicts that table construction resolved or rejected are not
// explored in parallel. Stack paths that reach the same state at the same
// input position share one GSS node.
//
// This implements the Tomita algorithm's core fan-out/merge behavior
// without Farshi's refinement for cyclic reduction paths; see DESIGN.md
// for why that refinement was left out.
type GLR struct {
	table lr.ParseTable
	gram  grammar.Grammar
	next  int
}

// NewGLR creates a generalized parser over table for grammar g.
func NewGLR(table lr.ParseTable, g grammar.Grammar) *GLR {
	return &GLR{table: table, gram: g}
}

func (p *GLR) newNode(state string, preds []*gssEdge) *gssNode {
	p.next++
	return &gssNode{id: p.next, state: state, preds: preds}
}

// actionsFor returns the action the table offers for state/symbol as a
// slice: empty for an error entry, otherwise exactly one action, since
// lr.ParseTable.Action yields a single action per cell.
func (p *GLR) actionsFor(state, symbol string) []lr.Action {
	act := p.table.Action(state, symbol)
	if act.Type == lr.Error {
		return nil
	}
	return []lr.Action{act}
}

// Parse runs the generalized algorithm over tokens, which must end with an
// explicit end-of-input token (Class().ID() == grammar.EndOfInput), the
// same convention package parse's deterministic Driver and Recognize use.
// It returns every complete parse tree found; a grammar with no ambiguity
// on this input returns exactly one.
//
// Parse never invokes a production's constructor: spec.md §4.7's
// "deferred" discipline for semantic actions under non-determinism
// applies here, since a node built while several parallel stacks are
// still live may not survive to any returned result. Each result tree's
// RuleIndex fields are set as it is built, so once the caller has
// committed to one (by picking the sole result, or resolving an
// ambiguity some other way), pass it to Evaluate to run constructors.
func (p *GLR) Parse(tokens []types.Token) ([]types.ParseTree, error) {
	frontier := []*gssNode{p.newNode(p.table.Initial(), nil)}
	var results []types.ParseTree

	for _, tok := range tokens {
		var nextFrontier []*gssNode
		byState := map[string]*gssNode{}

		for _, n := range p.reduceToFixpoint(frontier, tok.Class().ID()) {
			for _, act := range p.actionsFor(n.state, tok.Class().ID()) {
				switch act.Type {
				case lr.Accept:
					for _, e := range n.preds {
						results = append(results, *e.subtree)
					}
				case lr.Shift:
					leaf := &types.ParseTree{Terminal: true, Value: tok.Class().ID(), Source: tok, RuleIndex: -1}
					if existing, ok := byState[act.State]; ok {
						existing.preds = append(existing.preds, &gssEdge{to: n, subtree: leaf})
						continue
					}
					shifted := p.newNode(act.State, []*gssEdge{{to: n, subtree: leaf}})
					byState[act.State] = shifted
					nextFrontier = append(nextFrontier, shifted)

				case lr.ShiftReduce:
					// A combined instruction: the table never materialized the
					// intermediate shift target, so shift and reduce in one step
					// against every path that reaches n, the same way
					// reduceToFixpoint walks paths for an ordinary reduce.
					leaf := &types.ParseTree{Terminal: true, Value: tok.Class().ID(), Source: tok, RuleIndex: -1}
					rest := len(act.Production) - 1
					for _, path := range p.walkPaths(n, rest) {
						children := make([]*types.ParseTree, rest+1)
						for i, e := range path.edges {
							children[rest-1-i] = e.subtree
						}
						children[rest] = leaf
						node := &types.ParseTree{Value: act.Symbol, Children: children, RuleIndex: act.RuleIndex}
						if p.gram.IsVoid(act.Symbol) && len(children) == 1 {
							node = children[0]
						}
						toState, err := p.table.Goto(path.base.state, act.Symbol)
						if err != nil {
							continue
						}
						if existing, ok := byState[toState]; ok {
							existing.preds = append(existing.preds, &gssEdge{to: path.base, subtree: node})
							continue
						}
						shifted := p.newNode(toState, []*gssEdge{{to: path.base, subtree: node}})
						byState[toState] = shifted
						nextFrontier = append(nextFrontier, shifted)
					}
				}
			}
		}

		if len(nextFrontier) == 0 {
			if len(results) > 0 {
				break
			}
			return nil, errs.NewParseError(tok, "unexpected "+tok.Class().Human()+"; no parallel stack could shift it")
		}
		frontier = nextFrontier
	}

	if len(results) == 0 {
		return nil, errs.NewDriverError("no parallel stack reached an accepting state")
	}
	return results, nil
}

// reduceToFixpoint applies every reduction the table gives for lookahead
// at the current frontier, following GSS predecessor edges to pop |β|
// symbols per reduction path. Each pass reduces only the nodes the
// previous pass grew (the frontier itself on the first pass), and the
// loop stops once a pass grows no node.
func (p *GLR) reduceToFixpoint(frontier []*gssNode, lookahead string) []*gssNode {
	active := append([]*gssNode{}, frontier...)
	pending := active

	changed := true
	for changed {
		changed = false
		var grown []*gssNode

		reduceLookaheads := []string{lookahead}
		for _, n := range pending {
			for _, term := range reduceLookaheads {
				for _, act := range p.actionsFor(n.state, term) {
					if act.Type != lr.Reduce {
						continue
					}
					for _, path := range p.walkPaths(n, len(act.Production)) {
						children := make([]*types.ParseTree, len(path.edges))
						for i, e := range path.edges {
							children[len(path.edges)-1-i] = e.subtree
						}
						node := &types.ParseTree{Value: act.Symbol, Children: children, RuleIndex: act.RuleIndex}
						if p.gram.IsVoid(act.Symbol) && len(children) == 1 {
							node = children[0]
						}

						toState, err := p.table.Goto(path.base.state, act.Symbol)
						if err != nil {
							continue
						}
						newNode := p.newNode(toState, []*gssEdge{{to: path.base, subtree: node}})
						grown = append(grown, newNode)
						changed = true
					}
				}
			}
		}

		if changed {
			active = append(active, grown...)
		}
		pending = grown
	}

	return active
}

// gssPath is one way to walk depth edges back from a GSS node.
type gssPath struct {
	base  *gssNode
	edges []*gssEdge
}

// walkPaths enumerates every predecessor path of exactly depth edges
// starting at n, fanning out across every predecessor at a merge point.
func (p *GLR) walkPaths(n *gssNode, depth int) []gssPath {
	if depth == 0 {
		return []gssPath{{base: n}}
	}
	var out []gssPath
	for _, e := range n.preds {
		for _, sub := range p.walkPaths(e.to, depth-1) {
			out = append(out, gssPath{base: sub.base, edges: append(append([]*gssEdge{}, sub.edges...), e)})
		}
	}
	return out
}
