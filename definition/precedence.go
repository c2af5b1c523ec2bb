package definition

import (
	"fmt"
	"strings"

	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/grammar"
)

// parsePrecedenceLine handles one Precedence-section line per spec.md
// §6: a %left/%right/%nonassoc/%bogus associativity level naming the
// terminals at that level, a %void declaration, a %method override, or
// a %nondeterministic flag.
func (p *parser) parsePrecedenceLine(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	directive, args := fields[0], fields[1:]
	switch directive {
	case "%left":
		p.g.AddPrecedence(grammar.AssocLeft, args...)
	case "%right":
		p.g.AddPrecedence(grammar.AssocRight, args...)
	case "%nonassoc":
		p.g.AddPrecedence(grammar.AssocNonAssoc, args...)
	case "%bogus":
		p.g.AddPrecedence(grammar.AssocBogus, args...)
	case "%void":
		p.g.SetVoid(args...)
	case "%method":
		if len(args) != 1 {
			p.diags.Error(errs.NewDefinitionError(errs.Position{Line: p.line}, fmt.Sprintf("%%method expects exactly one argument, got %d", len(args))))
			return
		}
		p.g.SetMethod(args[0])
	case "%nondeterministic":
		p.g.SetNonDeterministic(args...)
	default:
		p.diags.Error(errs.NewDefinitionError(errs.Position{Line: p.line}, fmt.Sprintf("unrecognized precedence directive %q", directive)))
	}
}
