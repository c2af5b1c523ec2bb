/*
Loach compiles a grammar definition document (spec.md §6's scanner and
parser section format) into a single JSON tables file a scan/parse
runtime can load directly.

Usage:

	loach [flags] DEFINITION_FILE

The flags are:

	-o, -output PATH
		Write the serialized tables to PATH instead of the config
		file's output_path (or "tables.json" if none is set).

	-method METHOD
		Override the table-construction method (one of LR(0), SLR(1),
		CLR(1), LALR(1), minimal-LR(1)) instead of using the grammar
		document's own %method directive or the config file's default.

	-config PATH
		Read CLI defaults from PATH instead of "loach.toml" in the
		current directory.
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/dekarrin/loach/definition"
	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/internal/serialize"
	"github.com/dekarrin/loach/lr"
	"github.com/dekarrin/loach/regex"
	"github.com/pterm/pterm"
)

func main() {
	outputFlag := flag.String("output", "", "write tables to this path instead of the config default")
	flag.StringVar(outputFlag, "o", "", "shorthand for -output")
	methodFlag := flag.String("method", "", "override the table-construction method")
	configFlag := flag.String("config", "loach.toml", "path to a loach.toml configuration file")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: loach [flags] DEFINITION_FILE")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		pterm.Error.Printfln("could not read config %s: %s", *configFlag, err)
		os.Exit(1)
	}

	if err := run(args[0], *outputFlag, *methodFlag, cfg); err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

func run(definitionPath, outputOverride, methodOverride string, cfg Config) error {
	src, err := os.ReadFile(definitionPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", definitionPath, err)
	}

	diags := errs.NewDiagnostics()
	doc, err := definition.Parse(string(src), diags)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", definitionPath, err)
	}

	pterm.Info.Printfln("compiled definition document %s (run %s)", definitionPath, diags.RunID)

	if expanded, err := doc.Grammar.ExpandMacros(); err != nil {
		diags.Error(err)
	} else {
		doc.Grammar = expanded
	}

	if err := doc.Grammar.Validate(); err != nil {
		diags.Error(err)
	}

	if report := diags.Report(); report != "" {
		pterm.Warning.Println(report)
	}
	if diags.HasErrors() {
		return fmt.Errorf("aborting: %s has unresolved definition errors", definitionPath)
	}

	scanTable, err := regex.BuildTable(doc.ScanRules, doc.ScanDefs, doc.ConditionRules)
	if err != nil {
		return fmt.Errorf("building scanner table: %w", err)
	}

	method := resolveMethod(methodOverride, doc.Grammar.Method(), cfg.DefaultMethod)
	pterm.Info.Printfln("building parse table with method %s", method)

	parseTable, err := lr.Generate(doc.Grammar, method)
	if err != nil {
		return fmt.Errorf("building parse table: %w", err)
	}

	tables := serialize.Tables{
		Description: fmt.Sprintf("tables compiled from %s", definitionPath),
		Source:      definitionPath,
		Version:     [3]int{1, 0, 0},
		Scanner:     serialize.BuildScanner(scanTable),
		Parser:      serialize.BuildParser(doc.Grammar, parseTable),
	}

	out := outputOverride
	if out == "" {
		out = cfg.OutputPath
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tables); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	pterm.Success.Printfln("wrote tables to %s", out)
	return nil
}

// resolveMethod picks the table-construction method per spec.md §6's
// precedence: an explicit CLI override beats the grammar document's own
// %method directive, which beats the config file's default.
func resolveMethod(override, documentMethod, configDefault string) lr.Method {
	for _, candidate := range []string{override, documentMethod, configDefault} {
		if m, ok := parseMethod(candidate); ok {
			return m
		}
	}
	return lr.MethodLALR1
}

func parseMethod(s string) (lr.Method, bool) {
	if s == "" {
		return "", false
	}
	switch s {
	case "LALR":
		return lr.MethodLALR1, true
	case "CLR":
		return lr.MethodCLR1, true
	case "LR1", "MINLR1":
		return lr.MethodMinLR1, true
	}
	for _, m := range []lr.Method{lr.MethodLR0, lr.MethodSLR1, lr.MethodCLR1, lr.MethodLALR1, lr.MethodMinLR1} {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}
