package definition

import (
	"testing"

	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) (*Document, *errs.Diagnostics) {
	t.Helper()
	diags := errs.NewDiagnostics()
	doc, err := Parse(src, diags)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc, diags
}

func Test_Parse_Definitions(t *testing.T) {
	src := "# Definitions\n" +
		"```\n" +
		"digit [0-9]\n" +
		"alpha [a-zA-Z]\n" +
		"```\n"

	_, diags := mustParse(t, src)
	assert.False(t, diags.HasErrors())
}

func Test_Parse_PatternsWithDeferredAction(t *testing.T) {
	src := "# Patterns\n" +
		"```\n" +
		"[0-9]+ |\n" +
		"[0-9]+\\.[0-9]+ :number\n" +
		"[a-z]+ :word :3\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())
	require.Len(t, doc.ScanRules, 3)

	assert.Equal(t, "number", doc.ScanRules[0].Name)
	assert.Equal(t, "number", doc.ScanRules[1].Name)
	assert.Equal(t, "word", doc.ScanRules[2].Name)
	assert.Equal(t, 3, doc.ScanRules[2].Rank)

	assert.ElementsMatch(t, []int{0, 1, 2}, doc.ConditionRules[DefaultCondition])
}

func Test_Parse_PatternsWithCondition(t *testing.T) {
	src := "# Patterns STRING\n" +
		"```\n" +
		"[^\"]+ :chars\n" +
		"\" :close\n" +
		"```\n"

	doc, _ := mustParse(t, src)
	require.Len(t, doc.ScanRules, 2)
	assert.Equal(t, []int{0, 1}, doc.ConditionRules["STRING"])
	_, initialPresent := doc.ConditionRules[DefaultCondition]
	assert.False(t, initialPresent)
}

func Test_Parse_ConditionsInheritance(t *testing.T) {
	src := "# Patterns BASE\n" +
		"```\n" +
		"a :a\n" +
		"```\n" +
		"# Patterns DERIVED\n" +
		"```\n" +
		"b :b\n" +
		"```\n" +
		"# Conditions\n" +
		"```\n" +
		"DERIVED : BASE\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())
	assert.ElementsMatch(t, []int{0}, doc.ConditionRules["BASE"])
	assert.ElementsMatch(t, []int{0, 1}, doc.ConditionRules["DERIVED"])
}

func Test_Parse_Precedence(t *testing.T) {
	src := "# Precedence\n" +
		"```\n" +
		"%left plus minus\n" +
		"%left star slash\n" +
		"%void comma\n" +
		"%method LALR\n" +
		"%nondeterministic\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())

	level, assoc, ok := doc.Grammar.PrecedenceOf("star")
	require.True(t, ok)
	assert.Equal(t, 2, level)
	assert.Equal(t, grammar.AssocLeft, assoc)

	assert.True(t, doc.Grammar.IsVoid("comma"))
	assert.Equal(t, "LALR", doc.Grammar.Method())

	nondet, allowed := doc.Grammar.NonDeterministic()
	assert.True(t, nondet)
	assert.Nil(t, allowed)
}

func Test_Parse_Productions(t *testing.T) {
	src := "# Productions expr\n" +
		"```\n" +
		"expr -> .expr plus .term :add | term\n" +
		"term -> id\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())
	require.True(t, doc.Grammar.HasRule("expr"))

	r := doc.Grammar.Rule("expr")
	require.Len(t, r.Productions, 2)
	assert.Equal(t, grammar.Production{"expr", "plus", "term"}, r.Productions[0])
	assert.Equal(t, []bool{true, false, true}, r.Meta[0].Capture)
	assert.Equal(t, grammar.ConstructMessage, r.Meta[0].Constructor.Kind)
	assert.Equal(t, "add", r.Meta[0].Constructor.Name)

	assert.Equal(t, grammar.Production{"term"}, r.Productions[1])
	assert.Nil(t, r.Meta[1].Capture)
	assert.Equal(t, grammar.ConstructDefaultTuple, r.Meta[1].Constructor.Kind)

	assert.Equal(t, []string{"expr"}, doc.Grammar.StartSymbols())
}

func Test_Parse_ProductionsOffsetConstructor(t *testing.T) {
	src := "# Productions start\n" +
		"```\n" +
		"paren -> lparen .expr rparen :$1\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())
	r := doc.Grammar.Rule("paren")
	require.Len(t, r.Meta, 1)
	assert.Equal(t, grammar.ConstructOffset, r.Meta[0].Constructor.Kind)
	assert.Equal(t, 1, r.Meta[0].Constructor.Offset)
}

func Test_Parse_MacroDefinitionAndCallSite(t *testing.T) {
	src := "# Productions tuple\n" +
		"```\n" +
		"pair(X,Y) -> lparen X comma Y rparen\n" +
		"tuple -> pair(id,num)\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())

	m, ok := doc.Grammar.Macro("pair")
	require.True(t, ok)
	assert.Equal(t, []string{"X", "Y"}, m.Params)
	require.Len(t, m.Productions, 1)

	expanded, err := doc.Grammar.ExpandMacros()
	require.NoError(t, err)
	assert.True(t, expanded.IsNonTerminal("pair$id$num"))
}

func Test_Parse_RegistersImplicitTerminals(t *testing.T) {
	src := "# Productions expr\n" +
		"```\n" +
		"expr -> expr plus term | term\n" +
		"term -> id\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())

	assert.True(t, doc.Grammar.IsTerminal("plus"))
	assert.True(t, doc.Grammar.IsTerminal("id"))
	assert.False(t, doc.Grammar.IsTerminal("expr"))
	assert.False(t, doc.Grammar.IsTerminal("term"))
	require.NoError(t, doc.Grammar.Validate())
}

func Test_Parse_MacroArgumentsRegisteredAsTerminals(t *testing.T) {
	src := "# Productions tuple\n" +
		"```\n" +
		"pair(X,Y) -> lparen X comma Y rparen\n" +
		"tuple -> pair(id,num)\n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())

	for _, term := range []string{"lparen", "comma", "rparen", "id", "num"} {
		assert.True(t, doc.Grammar.IsTerminal(term), "expected %q to be registered as a terminal", term)
	}
	assert.False(t, doc.Grammar.IsNonTerminal("pair"))
}

func Test_Parse_EpsilonProduction(t *testing.T) {
	src := "# Productions opt\n" +
		"```\n" +
		"opt -> id | \n" +
		"```\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())
	r := doc.Grammar.Rule("opt")
	require.Len(t, r.Productions, 2)
	assert.Equal(t, grammar.Epsilon, r.Productions[1])
}

func Test_Parse_UnrecognizedHeaderWarns(t *testing.T) {
	src := "# Bogus\n```\nwhatever\n```\n"
	_, diags := mustParse(t, src)
	assert.False(t, diags.HasErrors())
	found := false
	for _, e := range diags.Entries() {
		if e.Severity == errs.SeverityWarning {
			found = true
		}
	}
	assert.True(t, found)
}

func Test_Parse_NoSectionsIsAnError(t *testing.T) {
	diags := errs.NewDiagnostics()
	_, err := Parse("just some prose\nwith no headers\n", diags)
	assert.Error(t, err)
}

func Test_Parse_ProseOutsideFencesIsIgnored(t *testing.T) {
	src := "# Definitions\n" +
		"This explains what digits are.\n" +
		"```\n" +
		"digit [0-9]\n" +
		"```\n" +
		"More prose here, also ignored.\n"

	doc, diags := mustParse(t, src)
	require.False(t, diags.HasErrors())
	require.NotNil(t, doc.ScanDefs)
}
