package grammar

import (
	"fmt"
	"strings"
)

// isMacroCall reports whether a RHS symbol is of the form name(arg,...)
// and, if so, returns its pieces.
func isMacroCall(sym string) (name string, args []string, ok bool) {
	open := strings.IndexByte(sym, '(')
	if open < 0 || !strings.HasSuffix(sym, ")") {
		return "", nil, false
	}
	name = sym[:open]
	if name == "" {
		return "", nil, false
	}
	inner := sym[open+1 : len(sym)-1]
	if strings.TrimSpace(inner) == "" {
		return name, nil, true
	}
	for _, a := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return name, args, true
}

// mangle produces the name of the non-terminal that stands in for one
// particular call site of a macro.
func mangle(name string, args []string) string {
	return name + "$" + strings.Join(args, "$")
}

// ExpandMacros returns a copy of g in which every macro call site has been
// rewritten to a mangled non-terminal, and every mangled non-terminal has
// been defined exactly once by substituting the macro's formal parameters
// with the call's actual arguments throughout the macro body. Expansion
// proceeds to a fixpoint over a worklist of call sites discovered as
// expansion proceeds (a macro body may itself invoke other macros, or
// itself with different arguments). A macro that (transitively) calls
// itself with the same arguments is a cyclic expansion and is reported as
// an error rather than looping forever.
func (g Grammar) ExpandMacros() (Grammar, error) {
	ng := g.Copy()
	if ng.macros == nil || len(ng.macros) == 0 {
		return ng, nil
	}

	defined := map[string]bool{}
	inProgress := map[string]bool{}

	var expandCallsIn func(nt string) error
	var defineMangled func(name string, args []string) (string, error)

	expandCallsIn = func(nt string) error {
		r, ok := ng.rules[nt]
		if !ok {
			return nil
		}
		for pi := range r.Productions {
			prod := r.Productions[pi]
			for si, sym := range prod {
				name, args, isCall := isMacroCall(sym)
				if !isCall {
					continue
				}
				mangled, err := defineMangled(name, args)
				if err != nil {
					return fmt.Errorf("%s -> %s: %w", nt, prod.String(), err)
				}
				prod[si] = mangled
			}
		}
		return nil
	}

	defineMangled = func(name string, args []string) (string, error) {
		mangled := mangle(name, args)
		key := mangled
		if inProgress[key] {
			return "", fmt.Errorf("cyclic macro expansion detected for %s(%s)", name, strings.Join(args, ","))
		}
		if defined[key] {
			return mangled, nil
		}

		m, ok := ng.macros[name]
		if !ok {
			return "", fmt.Errorf("call to undefined macro %q", name)
		}
		if len(m.Params) != len(args) {
			return "", fmt.Errorf("macro %q expects %d argument(s), got %d", name, len(m.Params), len(args))
		}

		subst := map[string]string{}
		for i, p := range m.Params {
			subst[p] = args[i]
		}

		inProgress[key] = true
		defined[key] = true // reserve the name before recursing into the body

		for _, body := range m.Productions {
			rewritten := make(Production, len(body))
			for i, sym := range body {
				if repl, ok := subst[sym]; ok {
					rewritten[i] = repl
				} else if cName, cArgs, isCall := isMacroCall(sym); isCall {
					for j, a := range cArgs {
						if repl, ok := subst[a]; ok {
							cArgs[j] = repl
						}
					}
					rewritten[i] = cName + "(" + strings.Join(cArgs, ",") + ")"
				} else {
					rewritten[i] = sym
				}
			}
			ng.AddRule(mangled, rewritten)
		}

		if err := expandCallsIn(mangled); err != nil {
			return "", err
		}

		delete(inProgress, key)
		return mangled, nil
	}

	// Expand call sites reachable from every non-terminal known at the
	// start of the pass. New non-terminals created by defineMangled are
	// expanded as part of their own definition above, so one pass over the
	// original rule set reaches every call site to fixpoint.
	for _, nt := range append([]string{}, ng.ruleOrder...) {
		if err := expandCallsIn(nt); err != nil {
			return Grammar{}, err
		}
	}

	return ng, nil
}
