package definition

import (
	"fmt"
	"strings"

	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/regex"
)

// parsePatternLine handles one Patterns-section line: "regex action
// [:rank]", where action is one or two bare words prefixed by a single
// ':', or a regex with no action at all, or the literal single
// character "|" — spec.md §6's "a single | meaning same action as the
// next line". A regex with no action, and a bare "|", both defer: they
// sit in patternsPending until an actioned line is reached, at which
// point every deferred regex (in order) plus the actioned line's own
// regex are all filed under that one action, matching flex's familiar
// "pattern |" fallthrough idiom.
func (p *parser) parsePatternLine(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	if fields[0] == "|" {
		// a bare continuation marker; the regex it refers to was already
		// queued by the line before it.
		return
	}

	pattern := fields[0]
	rest := fields[1:]

	if len(rest) == 0 || (len(rest) == 1 && rest[0] == "|") {
		p.patternsPending = append(p.patternsPending, pattern)
		return
	}

	if !strings.HasPrefix(rest[0], ":") {
		p.diags.Error(errs.NewDefinitionError(errs.Position{Line: p.line}, fmt.Sprintf("patterns line %q: expected an action beginning with ':'", line)))
		return
	}

	action, rank := parsePatternAction(rest)
	p.flushPatternsPending(action, rank)
	p.emitPatternRule(pattern, action, rank)
}

// parsePatternAction consumes the action/rank tail of an actioned
// Patterns line: one bare ':word' action, optionally followed by a
// second bare word (":op PLUS"), optionally followed by a second
// ':rank' integer.
func parsePatternAction(tokens []string) (action string, rank int) {
	words := []string{strings.TrimPrefix(tokens[0], ":")}
	i := 1
	if i < len(tokens) && !strings.HasPrefix(tokens[i], ":") {
		words = append(words, tokens[i])
		i++
	}
	if i < len(tokens) && strings.HasPrefix(tokens[i], ":") {
		rank = parseIntDefault(strings.TrimPrefix(tokens[i], ":"), 0)
	}
	return strings.Join(words, " "), rank
}

func (p *parser) flushPatternsPending(action string, rank ...int) {
	r := 0
	if len(rank) > 0 {
		r = rank[0]
	}
	if action == "" {
		if len(p.patternsPending) > 0 {
			p.diags.Warn("line %d: %d pattern(s) declared with no action before the section ended; discarded", p.line, len(p.patternsPending))
		}
		p.patternsPending = nil
		return
	}
	for _, pattern := range p.patternsPending {
		p.emitPatternRule(pattern, action, r)
	}
	p.patternsPending = nil
}

func (p *parser) emitPatternRule(pattern, action string, rank int) {
	idx := len(p.rules)
	p.rules = append(p.rules, regex.Rule{
		Pattern: pattern,
		Name:    action,
		Rank:    rank,
		Line:    p.line,
	})
	cond := p.patternsCond
	if cond == "" {
		cond = DefaultCondition
	}
	p.condRule[cond] = append(p.condRule[cond], idx)
}
