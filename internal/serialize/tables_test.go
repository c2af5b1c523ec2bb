package serialize

import (
	"encoding/json"
	"testing"

	"github.com/dekarrin/loach/definition"
	"github.com/dekarrin/loach/errs"
	"github.com/dekarrin/loach/lr"
	"github.com/dekarrin/loach/regex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ActionEntry_RuleZeroSurvivesJSON(t *testing.T) {
	entry := ActionEntry{Type: "reduce", Rule: 0}
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rule":0`)
}

func compile(t *testing.T, src string) (*definition.Document, *regex.Table, lr.ParseTable) {
	t.Helper()

	diags := errs.NewDiagnostics()
	doc, err := definition.Parse(src, diags)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())

	expanded, err := doc.Grammar.ExpandMacros()
	require.NoError(t, err)
	doc.Grammar = expanded
	require.NoError(t, doc.Grammar.Validate())

	scanTable, err := regex.BuildTable(doc.ScanRules, doc.ScanDefs, doc.ConditionRules)
	require.NoError(t, err)

	parseTable, err := lr.Generate(doc.Grammar, lr.MethodLALR1)
	require.NoError(t, err)

	return doc, scanTable, parseTable
}

const exprDoc = "# Patterns\n" +
	"```\n" +
	"[0-9]+ :num\n" +
	"\\+ :plus\n" +
	"```\n" +
	"# Productions expr\n" +
	"```\n" +
	"expr -> .expr plus .term :add | term\n" +
	"term -> num\n" +
	"```\n"

func Test_BuildScanner(t *testing.T) {
	_, scanTable, _ := compile(t, exprDoc)

	st := BuildScanner(scanTable)
	assert.NotEmpty(t, st.Alphabet)
	assert.Len(t, st.Action, 2)
	assert.ElementsMatch(t, []string{"num", "plus"}, st.Action)
	assert.NotEmpty(t, st.DFA.Initial[definition.DefaultCondition])
	assert.NotEmpty(t, st.DFA.Delta)
	assert.NotEmpty(t, st.DFA.Final)
}

func Test_BuildParser(t *testing.T) {
	doc, _, parseTable := compile(t, exprDoc)

	pt := BuildParser(doc.Grammar, parseTable)
	assert.Equal(t, parseTable.Initial(), pt.Initial["expr"])
	assert.ElementsMatch(t, []string{"num", "plus"}, pt.Terminals)
	assert.ElementsMatch(t, []string{"expr", "term"}, pt.NonTerminals)
	assert.NotEmpty(t, pt.Action)
	require.Len(t, pt.Rule.Rules, 3)

	// rules are recorded in declaration order: expr -> expr plus term,
	// expr -> term, term -> num.
	addRule := pt.Rule.Rules[0]
	defaultRule := pt.Rule.Rules[2]

	assert.Equal(t, 3, addRule.RHSLength)
	assert.GreaterOrEqual(t, addRule.Constructor, 0)
	assert.Equal(t, []string{"add"}, pt.Rule.Constructor)
	assert.ElementsMatch(t, []int{0, 2}, addRule.CaptureOffsets)

	assert.Equal(t, "term", defaultRule.LHS)
	assert.Equal(t, -1, defaultRule.Constructor)
	assert.ElementsMatch(t, []int{0}, defaultRule.CaptureOffsets)
}

func Test_BuildParser_OffsetConstructor(t *testing.T) {
	src := "# Patterns\n" +
		"```\n" +
		"a :a\n" +
		"b :b\n" +
		"c :c\n" +
		"```\n" +
		"# Productions wrap\n" +
		"```\n" +
		"wrap -> a .b c :$1\n" +
		"```\n"

	doc, _, parseTable := compile(t, src)
	pt := BuildParser(doc.Grammar, parseTable)

	require.Len(t, pt.Rule.Rules, 1)
	r := pt.Rule.Rules[0]
	assert.Equal(t, -3, r.Constructor) // -(1)-2
	assert.Equal(t, []int{1}, r.CaptureOffsets)
}
