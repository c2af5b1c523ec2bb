package definition

import "strings"

// parseConditionLine handles one Conditions-section line.
//
// Neither spec.md §6 nor the stubbed original (macroparse.compiler's
// conditions() is literally "assert False, 'Code for this block is not
// designed yet.'") specifies this section's line grammar. The design
// decision made here (recorded in DESIGN.md): a line is either a bare
// condition name, declaring it with no inherited rules, or
// "name : parent1 parent2 ...", declaring that name's Patterns rule set
// also includes every rule already filed under each named parent
// condition — resolved to a fixpoint in resolveConditionRules so a
// chain of inheritance collapses correctly regardless of declaration
// order. This gives the %include-style inheritance regex.BuildTable's
// doc comment expects the definition parser to have already resolved a
// concrete, minimal meaning without inventing syntax spec.md never
// mentions.
func (p *parser) parseConditionLine(line string) {
	name, rest, hasParents := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if _, ok := p.condParents[name]; !ok {
		p.condParents[name] = nil
	}
	if !hasParents {
		return
	}
	for _, parent := range strings.Fields(rest) {
		p.condParents[name] = append(p.condParents[name], parent)
	}
}
