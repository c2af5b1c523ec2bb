// Package definition parses the grammar definition document format
// described by spec.md §6: a plain-text document partitioned into named
// sections (Definitions, Conditions, Patterns, Precedence, Productions)
// by markdown-style headers, with each section's actual content living in
// a fenced code block below its header and everything else treated as
// ignored documentation prose.
//
// The outer header/fence splitting loop mirrors the structure of
// boozetools' macroparse.compiler.compile_string: scan the document
// line by line, pick the active section off of a '#'-prefixed header
// line, toggle into and out of "in code" on a ``` fence, and dispatch
// only non-blank in-code lines to the active section's line parser.
// Unlike that reference, every section's line grammar here is fully
// implemented — the original left every section but Definitions as an
// unfinished stub.
package definition

import (
	"strconv"
	"strings"

	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/grammar"
	"github.com/dekarrin/loach/regex"
	"github.com/dekarrin/loach/types"
)

// DefaultCondition is the scan condition Patterns rules are filed under
// when a Patterns header names none explicitly.
const DefaultCondition = "INITIAL"

// Document is everything a grammar definition document compiles to: a
// context-free grammar plus the scanner rule set and per-condition rule
// index lists that regex.BuildTable needs to compile into a scan table.
type Document struct {
	Grammar grammar.Grammar

	ScanRules      []regex.Rule
	ScanDefs       *regex.NamedDefs
	ConditionRules map[string][]int
}

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionDefinitions
	sectionConditions
	sectionPatterns
	sectionPrecedence
	sectionProductions
)

// parser holds the state accumulated while walking the document; its
// fields are the working equivalent of macroparse.compiler's module-level
// "env" the stub handlers would have written into.
type parser struct {
	diags *errs.Diagnostics

	g        grammar.Grammar
	defs     *regex.NamedDefs
	rules    []regex.Rule
	condRule map[string][]int // condition -> indices into rules, direct (not yet inheritance-resolved)

	// condParents records the Conditions section's inheritance
	// declarations: condParents[name] lists the conditions name inherits
	// every rule of. Resolved to a flat ConditionRules map once the whole
	// document has been read, since a condition's parent may be declared
	// or extended by Patterns headers anywhere in the file.
	condParents map[string][]string

	// patternsPending accumulates regex-only lines (and bare "|" markers)
	// within the current Patterns section until an actioned line flushes
	// them, per spec.md §6's "a single | meaning same action as the next
	// line".
	patternsPending []string
	patternsCond    string

	macros map[string]*grammar.Macro

	line int
}

// Parse reads a grammar definition document and compiles it to a
// Document. diags accumulates non-fatal problems (unknown header,
// malformed line, unrecognized directive) so that, per spec.md §7,
// "definition errors accumulate and are reported collectively" instead
// of aborting the whole read on the first bad line; Parse itself returns
// an error only when the document is unusable regardless of diagnostics
// (no recognized sections at all).
func Parse(source string, diags *errs.Diagnostics) (*Document, error) {
	p := &parser{
		diags:       diags,
		defs:        regex.NewNamedDefs(),
		condRule:    map[string][]int{},
		condParents: map[string][]string{},
		macros:      map[string]*grammar.Macro{},
	}

	section := sectionNone
	inCode := false
	sawSection := false

	for _, raw := range strings.Split(source, "\n") {
		p.line++
		trimmed := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(trimmed, "#"):
			section = p.decideSection(trimmed)
			sawSection = true
		case strings.HasPrefix(trimmed, "```"):
			inCode = !inCode
		case inCode && trimmed != "":
			p.dispatch(section, trimmed)
		}
	}

	p.flushPatternsPending("")

	if !sawSection {
		return nil, errs.NewDefinitionError(errs.Position{Line: p.line}, "document contains no recognized section headers")
	}

	p.registerImplicitTerminals()

	for _, m := range p.macros {
		p.g.AddMacro(*m)
	}

	return &Document{
		Grammar:        p.g,
		ScanRules:      p.rules,
		ScanDefs:       p.defs,
		ConditionRules: p.resolveConditionRules(),
	}, nil
}

// decideSection tokenizes a '#'-prefixed header line the way
// decide_section does in the reference implementation: strip the
// leading '#' run, split on whitespace, and match the first token
// against the five known keywords. Patterns additionally takes an
// optional second token as its scan-condition name; Productions takes
// every remaining token as a start symbol.
func (p *parser) decideSection(header string) sectionKind {
	header = strings.TrimLeft(header, "#")
	fields := strings.Fields(header)
	if len(fields) == 0 {
		p.diags.Warn("line %d: empty section header", p.line)
		return sectionNone
	}

	switch strings.ToLower(fields[0]) {
	case "definitions":
		return sectionDefinitions
	case "conditions":
		return sectionConditions
	case "patterns":
		p.flushPatternsPending("")
		p.patternsCond = DefaultCondition
		if len(fields) > 1 {
			p.patternsCond = fields[1]
		}
		return sectionPatterns
	case "precedence":
		return sectionPrecedence
	case "productions":
		if len(fields) > 1 {
			p.g.SetStart(fields[1:]...)
		}
		return sectionProductions
	default:
		p.diags.Warn("line %d: unrecognized section header %q", p.line, fields[0])
		return sectionNone
	}
}

func (p *parser) dispatch(section sectionKind, line string) {
	switch section {
	case sectionDefinitions:
		p.parseDefinitionLine(line)
	case sectionConditions:
		p.parseConditionLine(line)
	case sectionPatterns:
		p.parsePatternLine(line)
	case sectionPrecedence:
		p.parsePrecedenceLine(line)
	case sectionProductions:
		p.parseProductionLine(line)
	default:
		// inside a fenced block under an unrecognized or absent header;
		// already warned about the header itself, nothing more to do.
	}
}

// resolveConditionRules flattens condParents' inheritance declarations
// into the fully-expanded rule-index lists regex.BuildTable requires,
// per its doc comment that "%include-style condition inheritance is
// the definition document parser's job, not [BuildTable's]". Expansion
// runs to a fixpoint so a chain of inherited conditions (A includes B,
// B includes C) picks up C's rules in A without needing declaration
// order to already be topological.
func (p *parser) resolveConditionRules() map[string][]int {
	resolved := map[string][]int{}
	for cond, idxs := range p.condRule {
		resolved[cond] = append([]int{}, idxs...)
	}
	for cond := range p.condParents {
		if _, ok := resolved[cond]; !ok {
			resolved[cond] = nil
		}
	}

	changed := true
	for changed {
		changed = false
		for cond, parents := range p.condParents {
			have := map[int]bool{}
			for _, i := range resolved[cond] {
				have[i] = true
			}
			for _, parent := range parents {
				for _, i := range resolved[parent] {
					if !have[i] {
						resolved[cond] = append(resolved[cond], i)
						have[i] = true
						changed = true
					}
				}
			}
		}
	}

	return resolved
}

// registerImplicitTerminals scans every production's RHS for symbols that
// are neither already a non-terminal nor a call site of a declared macro,
// and registers each first-seen one as a terminal with a default token
// class. The Productions section (spec.md §6) never has a separate
// terminal-declaration syntax of its own — unlike named regex
// subexpressions in Definitions, a bare word appearing only in a RHS is
// meant to stand for whatever token the scanner produces under that name,
// so the grammar's terminal set is derived from grammar usage rather than
// declared up front.
func (p *parser) registerImplicitTerminals() {
	seen := map[string]bool{}
	var register func(sym string)
	register = func(sym string) {
		if sym == "" || sym == grammar.ErrorSymbol || sym == grammar.EndOfInput {
			return
		}
		if p.g.IsNonTerminal(sym) || seen[sym] {
			return
		}
		if name, args, isCall := parseMacroHead(sym); isCall {
			if _, isMacro := p.macros[name]; isMacro {
				// the call site itself mangles to a non-terminal once
				// expanded, but its arguments are concrete symbols in
				// their own right and need to be registered too.
				for _, arg := range args {
					register(arg)
				}
				return
			}
		}
		seen[sym] = true
		p.g.AddTerm(sym, types.MakeDefaultClass(sym))
	}

	for _, nt := range p.g.NonTerminals() {
		r := p.g.Rule(nt)
		for _, prod := range r.Productions {
			for _, sym := range prod {
				register(sym)
			}
		}
	}

	// A macro body's symbols (other than its own formal parameters) are
	// concrete terminal/non-terminal references that will appear verbatim
	// in every one of the macro's call-site expansions, so they need to be
	// registered here too — ExpandMacros runs after Parse returns, with no
	// further opportunity for the definition document parser to see them.
	for _, m := range p.macros {
		params := map[string]bool{}
		for _, param := range m.Params {
			params[param] = true
		}
		for _, prod := range m.Productions {
			for _, sym := range prod {
				if params[sym] {
					continue
				}
				register(sym)
			}
		}
	}
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
