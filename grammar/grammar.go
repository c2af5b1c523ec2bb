// Package grammar implements the context-free grammar model: symbols,
// productions, precedence declarations, macro expansion, and the
// well-foundedness/reachability/FIRST-set analyses the table builders in
// package lr depend on.
package grammar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dekarrin/loach/internal/util"
	"github.com/dekarrin/loach/types"
)

// Epsilon is the symbol-name representation of the empty string. A
// production whose Symbols is Epsilon (or is empty) derives the empty
// string.
var Epsilon = []string{""}

// EndOfInput is the name of the distinguished end-of-input pseudo-terminal.
// Like every symbol it is identified by its name; there is no interned
// integer index.
const EndOfInput = "$"

// ErrorSymbol is the name of the $error$ metatoken. It may appear only in a
// production RHS.
const ErrorSymbol = "$error$"

// ConstructorKind discriminates the three forms a production's constructor
// key may take.
type ConstructorKind int

const (
	// ConstructMessage invokes a named semantic action/message handler.
	ConstructMessage ConstructorKind = iota
	// ConstructOffset passes through the value already captured at a single
	// RHS position, by stack offset.
	ConstructOffset
	// ConstructDefaultTuple bundles up every captured position into a tuple
	// with no named handler.
	ConstructDefaultTuple
)

// ConstructorKey names how a reduction's semantic value is produced.
type ConstructorKey struct {
	Kind   ConstructorKind
	Name   string
	Offset int
}

func (k ConstructorKey) String() string {
	switch k.Kind {
	case ConstructMessage:
		return k.Name
	case ConstructOffset:
		return fmt.Sprintf("$%d", k.Offset)
	default:
		return "$default"
	}
}

// Production is an ordered sequence of RHS symbol names. An empty
// Production is an epsilon rule.
type Production []string

func (p Production) String() string {
	if len(p) == 0 {
		return "ε"
	}
	return strings.Join(p, " ")
}

// Copy returns a duplicate of p.
func (p Production) Copy() Production {
	cp := make(Production, len(p))
	copy(cp, p)
	return cp
}

// Equal reports whether p and o list the same symbols in the same order.
func (p Production) Equal(o Production) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// ProductionMeta carries the per-alternative metadata the spec's "production
// rule" record calls for beyond the bare RHS: a capture mask over RHS
// positions, a constructor key, an optional rule-level precedence symbol,
// and the source line the rule was declared on.
type ProductionMeta struct {
	Capture     []bool
	Constructor ConstructorKey
	Precedence  string
	Line        int
}

// Rule groups every alternative (Production) defined for one non-terminal
// LHS, in declaration order, together with each alternative's metadata.
type Rule struct {
	NonTerminal string
	Productions []Production
	Meta        []ProductionMeta
}

func (r Rule) String() string {
	alts := make([]string, len(r.Productions))
	for i := range r.Productions {
		alts[i] = r.Productions[i].String()
	}
	return fmt.Sprintf("%s -> %s", r.NonTerminal, strings.Join(alts, " | "))
}

// Associativity is the associativity of one precedence level.
type Associativity int

const (
	AssocNone Associativity = iota
	AssocLeft
	AssocRight
	AssocNonAssoc
	AssocBogus
)

// PrecedenceLevel is one %left/%right/%nonassoc/%bogus declaration; levels
// are stored low-to-high in declaration order as read from the grammar
// definition document.
type PrecedenceLevel struct {
	Assoc     Associativity
	Terminals []string
}

// Macro is a parametric production template. Call sites are rewritten to a
// mangled non-terminal with the parameter non-terminals substituted
// throughout the body; see ExpandMacros.
type Macro struct {
	Name        string
	Params      []string
	Productions []Production
}

// Grammar is an ordered sequence of rules plus the declarations (start
// symbols, precedence table, non-determinism flag) that govern how a parser
// is built from them. The zero value is an empty grammar.
type Grammar struct {
	terminals map[string]types.TokenClass
	termOrder []string

	rules     map[string]*Rule
	ruleOrder []string

	start []string

	precedence    []PrecedenceLevel
	termPrecLevel map[string]int // 1-based index into precedence; 0 = unset

	nondeterministic bool
	nondetAllowed    map[string]bool

	void map[string]bool

	macros map[string]*Macro

	method string
}

// AddTerm registers a terminal symbol under the given name with the given
// token class. Re-registering a name overwrites its class.
func (g *Grammar) AddTerm(name string, class types.TokenClass) {
	if g.terminals == nil {
		g.terminals = map[string]types.TokenClass{}
	}
	if _, ok := g.terminals[name]; !ok {
		g.termOrder = append(g.termOrder, name)
	}
	g.terminals[name] = class
}

// AddRule appends one alternative (alts) to the rule headed by nonTerminal,
// creating the rule if this is its first alternative. The alternative is
// given default metadata (no capture mask, default-tuple constructor); use
// AddRuleWithMeta to specify precedence/constructor/capture details.
func (g *Grammar) AddRule(nonTerminal string, alts Production) {
	g.AddRuleWithMeta(nonTerminal, alts, ProductionMeta{Constructor: ConstructorKey{Kind: ConstructDefaultTuple}})
}

// AddRuleWithMeta is AddRule with explicit production metadata.
func (g *Grammar) AddRuleWithMeta(nonTerminal string, alts Production, meta ProductionMeta) {
	if g.rules == nil {
		g.rules = map[string]*Rule{}
	}
	r, ok := g.rules[nonTerminal]
	if !ok {
		r = &Rule{NonTerminal: nonTerminal}
		g.rules[nonTerminal] = r
		g.ruleOrder = append(g.ruleOrder, nonTerminal)
	}
	r.Productions = append(r.Productions, alts)
	r.Meta = append(r.Meta, meta)
}

// Rule returns the rule headed by nonTerminal, or the zero Rule if none is
// defined.
func (g Grammar) Rule(nonTerminal string) Rule {
	r, ok := g.rules[nonTerminal]
	if !ok {
		return Rule{NonTerminal: nonTerminal}
	}
	return *r
}

// HasRule reports whether nonTerminal has at least one production.
func (g Grammar) HasRule(nonTerminal string) bool {
	_, ok := g.rules[nonTerminal]
	return ok
}

// NonTerminals returns every non-terminal that heads a rule, in declaration
// order.
func (g Grammar) NonTerminals() []string {
	out := make([]string, len(g.ruleOrder))
	copy(out, g.ruleOrder)
	return out
}

// Terminals returns every registered terminal symbol name, in declaration
// order.
func (g Grammar) Terminals() []string {
	out := make([]string, len(g.termOrder))
	copy(out, g.termOrder)
	return out
}

// Term returns the token class registered for a terminal name.
func (g Grammar) Term(name string) types.TokenClass {
	return g.terminals[name]
}

// IsTerminal reports whether name was registered via AddTerm. The $error$
// metatoken and end-of-input sentinel are not ordinary terminals but are
// treated as terminal-like wherever a caller needs to test "is this
// shiftable".
func (g Grammar) IsTerminal(name string) bool {
	if name == ErrorSymbol || name == EndOfInput {
		return true
	}
	_, ok := g.terminals[name]
	return ok
}

// IsNonTerminal reports whether name heads at least one rule.
func (g Grammar) IsNonTerminal(name string) bool {
	return g.HasRule(name)
}

// SetStart declares the grammar's start symbol(s); each gets its own
// initial parser state.
func (g *Grammar) SetStart(symbols ...string) {
	g.start = append([]string{}, symbols...)
}

// StartSymbols returns the declared start symbols in declaration order.
func (g Grammar) StartSymbols() []string {
	out := make([]string, len(g.start))
	copy(out, g.start)
	return out
}

// StartSymbol returns the primary (first-declared) start symbol. Most table
// constructors that only need a single entry point use this.
func (g Grammar) StartSymbol() string {
	if len(g.start) == 0 {
		return ""
	}
	return g.start[0]
}

// AddPrecedence appends one precedence level, lowest-declared-first, to the
// table, and assigns the given terminals to it.
func (g *Grammar) AddPrecedence(assoc Associativity, terminals ...string) {
	if g.termPrecLevel == nil {
		g.termPrecLevel = map[string]int{}
	}
	g.precedence = append(g.precedence, PrecedenceLevel{Assoc: assoc, Terminals: terminals})
	level := len(g.precedence) // 1-based
	for _, t := range terminals {
		g.termPrecLevel[t] = level
	}
}

// PrecedenceOf returns the 1-based precedence level of a terminal and
// whether it has one assigned. Level numbers increase from low to high,
// matching declaration order.
func (g Grammar) PrecedenceOf(terminal string) (level int, assoc Associativity, ok bool) {
	lvl, ok := g.termPrecLevel[terminal]
	if !ok {
		return 0, AssocNone, false
	}
	return lvl, g.precedence[lvl-1].Assoc, true
}

// SetNonDeterministic marks the grammar (or, if allowed is non-empty, only
// the named non-terminals) as permitted to be ambiguous; this selects the
// generalized-parser code path in package parse.
func (g *Grammar) SetNonDeterministic(allowed ...string) {
	g.nondeterministic = true
	if len(allowed) > 0 {
		if g.nondetAllowed == nil {
			g.nondetAllowed = map[string]bool{}
		}
		for _, nt := range allowed {
			g.nondetAllowed[nt] = true
		}
	}
}

// NonDeterministic reports whether the grammar is declared non-deterministic
// at all, and the set of non-terminals (if any) that restricts where
// ambiguity is tolerated. A nil/empty restriction set means "everywhere".
func (g Grammar) NonDeterministic() (bool, map[string]bool) {
	return g.nondeterministic, g.nondetAllowed
}

// SetVoid marks symbols as carrying no semantic value (the %void
// declaration).
func (g *Grammar) SetVoid(symbols ...string) {
	if g.void == nil {
		g.void = map[string]bool{}
	}
	for _, s := range symbols {
		g.void[s] = true
	}
}

// IsVoid reports whether a symbol was marked %void.
func (g Grammar) IsVoid(symbol string) bool {
	return g.void[symbol]
}

// SetMethod records a %method override (LALR, CLR, LR1, MINLR1); an empty
// method means "let the caller decide".
func (g *Grammar) SetMethod(method string) { g.method = method }

// Method returns the %method override, or "" if none was declared.
func (g Grammar) Method() string { return g.method }

// AddMacro registers a parametric production template.
func (g *Grammar) AddMacro(m Macro) {
	if g.macros == nil {
		g.macros = map[string]*Macro{}
	}
	mCopy := m
	g.macros[m.Name] = &mCopy
}

// Macro returns the macro registered under name, and whether it exists.
func (g Grammar) Macro(name string) (Macro, bool) {
	m, ok := g.macros[name]
	if !ok {
		return Macro{}, false
	}
	return *m, true
}

// Validate checks the structural invariants from the data model: at least
// one rule, one terminal and one start symbol, every start symbol is a
// non-terminal, every RHS symbol is a known terminal or non-terminal (or
// epsilon or $error$; no dangling references), every non-terminal is
// well-founded unless the non-deterministic flag names it as an exception,
// and every non-terminal is reachable from a start symbol. Where $error$
// appears is not checked.
func (g Grammar) Validate() error {
	var problems []string

	if len(g.ruleOrder) == 0 {
		problems = append(problems, "grammar has no rules")
	}
	if len(g.termOrder) == 0 {
		problems = append(problems, "grammar has no terminals")
	}
	if len(g.start) == 0 {
		problems = append(problems, "grammar has no start symbol")
	}
	for _, s := range g.start {
		if !g.IsNonTerminal(s) {
			problems = append(problems, fmt.Sprintf("start symbol %q is not a non-terminal", s))
		}
	}

	// every RHS symbol must be a known terminal, non-terminal, epsilon, or
	// $error$.
	for _, nt := range g.ruleOrder {
		r := g.rules[nt]
		for pi, prod := range r.Productions {
			for _, sym := range prod {
				if sym == "" || sym == ErrorSymbol {
					continue
				}
				if !g.IsTerminal(sym) && !g.IsNonTerminal(sym) {
					problems = append(problems, fmt.Sprintf("%s -> %s: undefined symbol %q", nt, prod.String(), sym))
				}
			}
			_ = pi
		}
	}

	wellFounded := g.WellFounded()
	reachable := g.Reachable()
	_, allowed := g.NonDeterministic()
	for _, nt := range g.ruleOrder {
		if allowed != nil && allowed[nt] {
			continue
		}
		if !wellFounded.Has(nt) {
			problems = append(problems, fmt.Sprintf("non-terminal %q is not well-founded (does not derive any terminal string)", nt))
		}
	}
	for _, nt := range g.ruleOrder {
		if !reachable.Has(nt) {
			problems = append(problems, fmt.Sprintf("non-terminal %q is unreachable from any start symbol", nt))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("grammar validation failed:\n\t%s", strings.Join(problems, "\n\t"))
}

// Reachable returns every non-terminal reachable from some start symbol by
// following productions.
func (g Grammar) Reachable() util.StringSet {
	seen := util.NewStringSet()
	var visit func(nt string)
	visit = func(nt string) {
		if seen.Has(nt) {
			return
		}
		seen.Add(nt)
		r, ok := g.rules[nt]
		if !ok {
			return
		}
		for _, prod := range r.Productions {
			for _, sym := range prod {
				if g.IsNonTerminal(sym) {
					visit(sym)
				}
			}
		}
	}
	for _, s := range g.start {
		visit(s)
	}
	return seen
}

// Augmented returns a copy of g with a fresh start symbol S' and a single
// rule S' -> start appended, where start is the given start symbol (must be
// one of g's declared start symbols, or any non-terminal if the caller
// wants a one-off augmentation). The returned grammar's StartSymbol is S'.
func (g Grammar) Augmented(start string) Grammar {
	augStart := start + "'"
	for g.IsNonTerminal(augStart) || g.IsTerminal(augStart) {
		augStart += "'"
	}

	ng := g.Copy()
	ng.AddRule(augStart, Production{start})
	ng.SetStart(augStart)
	return ng
}

// Copy returns a deep copy of g.
func (g Grammar) Copy() Grammar {
	ng := Grammar{
		terminals:     map[string]types.TokenClass{},
		termOrder:     append([]string{}, g.termOrder...),
		rules:         map[string]*Rule{},
		ruleOrder:     append([]string{}, g.ruleOrder...),
		start:         append([]string{}, g.start...),
		precedence:    append([]PrecedenceLevel{}, g.precedence...),
		termPrecLevel: map[string]int{},
		nondetAllowed: map[string]bool{},
		void:          map[string]bool{},
		macros:        map[string]*Macro{},
		method:        g.method,

		nondeterministic: g.nondeterministic,
	}
	for k, v := range g.terminals {
		ng.terminals[k] = v
	}
	for k, v := range g.termPrecLevel {
		ng.termPrecLevel[k] = v
	}
	for k, v := range g.nondetAllowed {
		ng.nondetAllowed[k] = v
	}
	for k, v := range g.void {
		ng.void[k] = v
	}
	for k, v := range g.macros {
		mc := *v
		mc.Productions = append([]Production{}, v.Productions...)
		ng.macros[k] = &mc
	}
	for nt, r := range g.rules {
		rc := Rule{
			NonTerminal: r.NonTerminal,
			Productions: make([]Production, len(r.Productions)),
			Meta:        append([]ProductionMeta{}, r.Meta...),
		}
		for i := range r.Productions {
			rc.Productions[i] = r.Productions[i].Copy()
		}
		ng.rules[nt] = &rc
	}
	return ng
}

// LR0Items returns every LR(0) item of g, which must already be augmented
// (see Augmented): that is, one item per (rule, dot-position) pair across
// every rule including positions 0..len(rhs).
func (g Grammar) LR0Items() []LR0Item {
	var items []LR0Item
	for _, nt := range g.ruleOrder {
		r := g.rules[nt]
		for _, prod := range r.Productions {
			n := len(prod)
			if len(prod) == 1 && prod[0] == "" {
				n = 0
			}
			for dot := 0; dot <= n; dot++ {
				item := LR0Item{
					NonTerminal: nt,
					Left:        append([]string{}, prod[:dot]...),
					Right:       append([]string{}, prod[dot:]...),
				}
				items = append(items, item)
			}
		}
	}
	return items
}

// AllProductions returns every (nonTerminal, production index, production,
// meta) tuple with contiguous global rule indices assigned in the order
// rules were declared (AddRule call order), satisfying the data model's
// "rules are assigned contiguous indices in definition order".
type RuleRef struct {
	Index       int
	NonTerminal string
	Production  Production
	Meta        ProductionMeta
}

func (g Grammar) AllProductions() []RuleRef {
	var out []RuleRef
	idx := 0
	for _, nt := range g.ruleOrder {
		r := g.rules[nt]
		for i, prod := range r.Productions {
			out = append(out, RuleRef{Index: idx, NonTerminal: nt, Production: prod, Meta: r.Meta[i]})
			idx++
		}
	}
	return out
}

// sortedCopy is a small helper used by several reporting paths to get
// deterministic ordering out of a StringSet.
func sortedCopy(s util.StringSet) []string {
	out := s.Elements()
	sort.Strings(out)
	return out
}
