package regex

import (
	"fmt"

	"github.com/dekarrin/loach/automaton"
)

// AcceptLabel identifies which rule wins when a DFA state accepts. Rank is
// the rule's declared priority (higher value wins ties, per spec.md
// §4.1); Rule is the rule's position in source order, the final
// tie-break when two rules share a rank — matching flex's "earlier rule
// in the file wins" default.
type AcceptLabel struct {
	Rule int
	Rank int
	Name string
}

// Less reports whether a should be preferred over b when both match the
// same (longest) lexeme: highest rank wins, ties broken by earliest
// rule (source order) — spec.md §4.1 step 3.
func (a AcceptLabel) Less(b AcceptLabel) bool {
	if a.Rank != b.Rank {
		return a.Rank > b.Rank
	}
	return a.Rule < b.Rule
}

// nfaTag is the per-NFA-state annotation carried through subset
// construction. Accept is non-nil on the final state of an accepting
// fragment; Boundary lists the rule indices whose trailing-context
// divider (R1/R2) this state represents crossing — see compileFragment's
// handling of trailingNode for how it gets set.
type nfaTag struct {
	Accept   *AcceptLabel
	Boundary []int
}

type compiler struct {
	alphabet *Alphabet
	nfa      *automaton.NFA[nfaTag]
	next     int
	rule     int // index of the rule currently being compiled, for Boundary tagging
}

func newCompiler(alphabet *Alphabet) *compiler {
	nfa := &automaton.NFA[nfaTag]{}
	return &compiler{alphabet: alphabet, nfa: nfa}
}

func (c *compiler) newState() string {
	name := fmt.Sprintf("n%d", c.next)
	c.next++
	c.nfa.AddState(name, false)
	return name
}

// fragment is a sub-NFA with exactly one entry and one exit state; exit
// has no outgoing transitions yet (the caller wires it up or marks it
// accepting). This is the classic Thompson-construction invariant.
type fragment struct {
	start, end string
}

// compileFragment builds n as a fragment, recursing over the AST types
// defined in ast.go. Trailing-context and anchors are handled here too:
// anchors are represented by literal sentinel symbols ("^", "$"); where
// they appear in a rule's pattern is not checked — scan-time matching of
// those sentinels is the scanner runtime's job, not this package's.
func (c *compiler) compileFragment(n node) (fragment, error) {
	switch v := n.(type) {
	case litNode:
		start, end := c.newState(), c.newState()
		for _, label := range c.alphabet.LabelsIn(v.class) {
			c.nfa.AddTransition(start, label, end)
		}
		return fragment{start, end}, nil

	case concatNode:
		if len(v.parts) == 0 {
			s := c.newState()
			return fragment{s, s}, nil
		}
		first, err := c.compileFragment(v.parts[0])
		if err != nil {
			return fragment{}, err
		}
		cur := first
		for _, part := range v.parts[1:] {
			next, err := c.compileFragment(part)
			if err != nil {
				return fragment{}, err
			}
			c.nfa.AddTransition(cur.end, "", next.start)
			cur.end = next.end
		}
		return fragment{first.start, cur.end}, nil

	case unionNode:
		start, end := c.newState(), c.newState()
		for _, part := range v.parts {
			f, err := c.compileFragment(part)
			if err != nil {
				return fragment{}, err
			}
			c.nfa.AddTransition(start, "", f.start)
			c.nfa.AddTransition(f.end, "", end)
		}
		return fragment{start, end}, nil

	case starNode:
		body, err := c.compileFragment(v.body)
		if err != nil {
			return fragment{}, err
		}
		start, end := c.newState(), c.newState()
		c.nfa.AddTransition(start, "", body.start)
		c.nfa.AddTransition(body.end, "", body.start)
		c.nfa.AddTransition(start, "", end)
		c.nfa.AddTransition(body.end, "", end)
		return fragment{start, end}, nil

	case plusNode:
		body, err := c.compileFragment(v.body)
		if err != nil {
			return fragment{}, err
		}
		end := c.newState()
		c.nfa.AddTransition(body.end, "", body.start)
		c.nfa.AddTransition(body.end, "", end)
		return fragment{body.start, end}, nil

	case optionalNode:
		body, err := c.compileFragment(v.body)
		if err != nil {
			return fragment{}, err
		}
		start, end := c.newState(), c.newState()
		c.nfa.AddTransition(start, "", body.start)
		c.nfa.AddTransition(body.end, "", end)
		c.nfa.AddTransition(start, "", end)
		return fragment{start, end}, nil

	case repeatNode:
		return c.compileCountedRepeat(v)

	case anchorNode:
		start, end := c.newState(), c.newState()
		sym := "^"
		if v.kind == anchorEOL {
			sym = "$"
		}
		c.nfa.AddTransition(start, sym, end)
		return fragment{start, end}, nil

	case trailingNode:
		r1, err := c.compileFragment(v.r1)
		if err != nil {
			return fragment{}, err
		}
		boundary := c.newState()
		c.nfa.AddTransition(r1.end, "", boundary)
		tag := c.nfa.GetValue(boundary)
		tag.Boundary = append(tag.Boundary, c.rule)
		c.nfa.SetValue(boundary, tag)

		r2, err := c.compileFragment(v.r2)
		if err != nil {
			return fragment{}, err
		}
		c.nfa.AddTransition(boundary, "", r2.start)
		return fragment{r1.start, r2.end}, nil

	case namedRefNode:
		return fragment{}, fmt.Errorf("unresolved named reference {%s}: expand named subexpressions before compiling", v.name)

	default:
		return fragment{}, fmt.Errorf("unknown pattern node type %T", n)
	}
}

// compileCountedRepeat unrolls {m,n} into m mandatory copies followed by
// either (n-m) optional copies, or, for unbounded n (n<0), a trailing
// Kleene star — the standard desugaring, grounded on the observation
// that Thompson construction has no native counted-repetition fragment.
func (c *compiler) compileCountedRepeat(v repeatNode) (fragment, error) {
	if v.min < 0 {
		return fragment{}, fmt.Errorf("invalid repeat bound {%d,%d}", v.min, v.max)
	}
	if v.min == 0 && v.max == 0 {
		s := c.newState()
		return fragment{s, s}, nil
	}

	var cur fragment
	have := false
	for i := 0; i < v.min; i++ {
		f, err := c.compileFragment(v.body)
		if err != nil {
			return fragment{}, err
		}
		if !have {
			cur = f
			have = true
			continue
		}
		c.nfa.AddTransition(cur.end, "", f.start)
		cur.end = f.end
	}

	if v.max < 0 {
		star, err := c.compileFragment(starNode{body: v.body})
		if err != nil {
			return fragment{}, err
		}
		if !have {
			return star, nil
		}
		c.nfa.AddTransition(cur.end, "", star.start)
		cur.end = star.end
		return cur, nil
	}

	for i := v.min; i < v.max; i++ {
		f, err := c.compileFragment(optionalNode{body: v.body})
		if err != nil {
			return fragment{}, err
		}
		if !have {
			cur = f
			have = true
			continue
		}
		c.nfa.AddTransition(cur.end, "", f.start)
		cur.end = f.end
	}

	if !have {
		s := c.newState()
		return fragment{s, s}, nil
	}
	return cur, nil
}
