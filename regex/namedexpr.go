package regex

import (
	"fmt"
	"strings"
)

// NamedDefs is the table of named subexpressions declared in a definition
// document's Definitions section (spec.md §6): each non-blank line there is
// "name regex", and later patterns may reference the name via "{name}".
type NamedDefs struct {
	order []string
	src   map[string]string
}

// NewNamedDefs creates an empty named-subexpression table.
func NewNamedDefs() *NamedDefs {
	return &NamedDefs{src: map[string]string{}}
}

// Add records name as shorthand for the pattern text src. Re-adding a name
// overwrites its definition.
func (d *NamedDefs) Add(name, src string) {
	if _, ok := d.src[name]; !ok {
		d.order = append(d.order, name)
	}
	d.src[name] = src
}

// expand replaces every {name} reference in src with name's own pattern
// text, recursively, failing on a cycle. A brace group holding a counted
// repetition ({m}, {m,} or {m,n}) is left as it is. Expansion is one-pass per spec.md
// §4.1: "expansion is one-pass and must not be recursive (detected and
// reported)" — cyclic references are rejected outright rather than merely
// bounded.
func (d *NamedDefs) expand(src string) (string, error) {
	return d.expandTracking(src, map[string]bool{})
}

func (d *NamedDefs) expandTracking(src string, active map[string]bool) (string, error) {
	var out []byte
	i := 0
	for i < len(src) {
		if src[i] == '\\' && i+1 < len(src) {
			out = append(out, src[i], src[i+1])
			i += 2
			continue
		}
		if src[i] == '{' {
			end := i + 1
			for end < len(src) && src[end] != '}' {
				end++
			}
			if end >= len(src) {
				return "", fmt.Errorf("unterminated named reference starting at %d", i)
			}
			name := src[i+1 : end]
			if name != "" && name[0] >= '0' && name[0] <= '9' &&
				strings.Trim(name, "0123456789,") == "" && strings.Count(name, ",") <= 1 {
				// a counted repetition, not a reference; Parse handles it
				out = append(out, src[i:end+1]...)
				i = end + 1
				continue
			}
			def, ok := d.src[name]
			if !ok {
				return "", fmt.Errorf("undefined named subexpression %q", name)
			}
			if active[name] {
				return "", fmt.Errorf("recursive named subexpression %q", name)
			}
			active[name] = true
			expanded, err := d.expandTracking(def, active)
			if err != nil {
				return "", err
			}
			delete(active, name)
			out = append(out, '(')
			out = append(out, expanded...)
			out = append(out, ')')
			i = end + 1
			continue
		}
		out = append(out, src[i])
		i++
	}
	return string(out), nil
}
