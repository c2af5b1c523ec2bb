package definition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/grammar"
)

// arrowChars is the punctuation set spec.md §6 allows an arrow token to
// be built from: any non-empty run drawn from {-,=,>,<,:}, so "->",
// "::=", "=>", and "-->" all read as a production arrow.
const arrowChars = "-=><:"

func isArrow(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !strings.ContainsRune(arrowChars, r) {
			return false
		}
	}
	return true
}

// parseProductionLine handles one Productions-section line:
// "LHS arrow RHS (| RHS)* (':' action)?" for an ordinary rule, or
// "name(params) arrow RHS (| RHS)*" for a macro definition (spec.md §6;
// macro call sites left in a RHS are expanded later by
// grammar.Grammar.ExpandMacros, not by this package).
func (p *parser) parseProductionLine(line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		p.diags.Error(errs.NewDefinitionError(errs.Position{Line: p.line}, fmt.Sprintf("productions line %q is too short to be a rule", line)))
		return
	}
	if !isArrow(fields[1]) {
		p.diags.Error(errs.NewDefinitionError(errs.Position{Line: p.line}, fmt.Sprintf("productions line %q: expected an arrow after the head symbol, found %q", line, fields[1])))
		return
	}

	head := fields[0]
	body := fields[2:]
	alts := splitAlternatives(body)

	if macroName, params, isMacro := parseMacroHead(head); isMacro {
		m, ok := p.macros[macroName]
		if !ok {
			m = &grammar.Macro{Name: macroName, Params: params}
			p.macros[macroName] = m
		}
		for _, alt := range alts {
			prod, _, _ := parseAlternative(alt)
			m.Productions = append(m.Productions, prod)
		}
		return
	}

	for _, alt := range alts {
		prod, capture, ctor := parseAlternative(alt)
		p.g.AddRuleWithMeta(head, prod, grammar.ProductionMeta{
			Capture:     capture,
			Constructor: ctor,
			Line:        p.line,
		})
	}
}

// splitAlternatives breaks a Productions line's body on top-level "|"
// tokens. A macro call site's own argument list ("name(a,b)") is a
// single whitespace-delimited token and never contains a bare "|", so
// this never needs to look inside parentheses.
func splitAlternatives(tokens []string) [][]string {
	var alts [][]string
	var cur []string
	for _, t := range tokens {
		if t == "|" {
			alts = append(alts, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	alts = append(alts, cur)
	return alts
}

// parseMacroHead reports whether head is a macro definition's
// "name(params)" form, splitting params on commas.
func parseMacroHead(head string) (name string, params []string, ok bool) {
	open := strings.IndexByte(head, '(')
	if open <= 0 || !strings.HasSuffix(head, ")") {
		return "", nil, false
	}
	name = head[:open]
	inner := head[open+1 : len(head)-1]
	if strings.TrimSpace(inner) == "" {
		return name, nil, true
	}
	for _, a := range strings.Split(inner, ",") {
		params = append(params, strings.TrimSpace(a))
	}
	return name, params, true
}

// parseAlternative reads one "|"-delimited alternative's symbol list, its
// capture mask (nil unless at least one symbol carries a capture dot),
// and its constructor key. A dot-prefixed symbol (".expr") marks that
// position captured; a trailing ":action" or ": action" names a
// semantic-message constructor, or, when action is "$N", an offset
// constructor that passes position N's captured value straight through
// (grammar.ConstructOffset). An alternative with no symbols at all is an
// epsilon production.
func parseAlternative(tokens []string) (grammar.Production, []bool, grammar.ConstructorKey) {
	var syms []string
	var capture []bool
	anyDot := false

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if strings.HasPrefix(tok, ":") {
			break
		}
		captured := strings.HasPrefix(tok, ".")
		if captured {
			tok = tok[1:]
			anyDot = true
		}
		syms = append(syms, tok)
		capture = append(capture, captured)
		i++
	}

	ctor := grammar.ConstructorKey{Kind: grammar.ConstructDefaultTuple}
	if i < len(tokens) {
		actionTok := tokens[i]
		var action string
		if actionTok == ":" {
			if i+1 < len(tokens) {
				action = tokens[i+1]
			}
		} else {
			action = strings.TrimPrefix(actionTok, ":")
		}
		if strings.HasPrefix(action, "$") {
			if n, err := strconv.Atoi(strings.TrimPrefix(action, "$")); err == nil {
				ctor = grammar.ConstructorKey{Kind: grammar.ConstructOffset, Offset: n}
			}
		} else if action != "" {
			ctor = grammar.ConstructorKey{Kind: grammar.ConstructMessage, Name: action}
		}
	}

	if len(syms) == 0 {
		syms = grammar.Epsilon
	}
	if !anyDot {
		capture = nil
	}
	return grammar.Production(syms), capture, ctor
}
