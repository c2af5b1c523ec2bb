package definition

import (
	"fmt"
	"strings"

	"github.com/dekarrin/loach/errs"
)

// parseDefinitionLine handles one Definitions-section line: "name regex",
// where regex is everything after the first run of whitespace following
// name, verbatim (a named subexpression's pattern may itself contain
// spaces inside a bracket class).
func (p *parser) parseDefinitionLine(line string) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		p.diags.Error(errs.NewDefinitionError(errs.Position{Line: p.line}, fmt.Sprintf("definitions line %q has no regex", line)))
		return
	}
	name := line[:idx]
	pattern := strings.TrimSpace(line[idx:])
	if pattern == "" {
		p.diags.Error(errs.NewDefinitionError(errs.Position{Line: p.line}, fmt.Sprintf("definition %q has an empty regex", name)))
		return
	}
	p.defs.Add(name, pattern)
}
