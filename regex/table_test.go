package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleTable(t *testing.T, rules []Rule) *Table {
	t.Helper()
	conditions := map[string][]int{}
	all := make([]int, len(rules))
	for i := range rules {
		all[i] = i
	}
	conditions["INITIAL"] = all
	tbl, err := BuildTable(rules, NewNamedDefs(), conditions)
	require.NoError(t, err)
	return tbl
}

func scan(tbl *Table, condition, input string) (matched string, accept AcceptInfo, ok bool) {
	state := tbl.Initial[condition]
	lastAcceptLen := -1
	var lastAccept AcceptInfo
	for i := 0; i <= len(input); i++ {
		if info, has := tbl.Accept[state]; has {
			lastAcceptLen = i
			lastAccept = info
		}
		if i == len(input) {
			break
		}
		label := tbl.Alphabet.ClassOf(rune(input[i]))
		next, has := tbl.Delta[state][label]
		if !has {
			break
		}
		state = next
	}
	if lastAcceptLen < 0 {
		return "", AcceptInfo{}, false
	}
	return input[:lastAcceptLen], lastAccept, true
}

func Test_BuildTable_SingleLiteralRule(t *testing.T) {
	tbl := simpleTable(t, []Rule{{Pattern: "abc", Name: "ABC"}})

	matched, accept, ok := scan(tbl, "INITIAL", "abc")
	require.True(t, ok)
	assert.Equal(t, "abc", matched)
	assert.Equal(t, 0, accept.Rule)
}

func Test_BuildTable_LeftmostLongest(t *testing.T) {
	tbl := simpleTable(t, []Rule{
		{Pattern: "[a-z]+", Name: "WORD"},
	})

	matched, _, ok := scan(tbl, "INITIAL", "foobar ")
	require.True(t, ok)
	assert.Equal(t, "foobar", matched)
}

func Test_BuildTable_RankBreaksStateLocalTie(t *testing.T) {
	// Both rules can accept at length 3 for input "foo"; "foo" has the
	// higher rank and must win despite identical length at this state.
	tbl := simpleTable(t, []Rule{
		{Pattern: "foo", Name: "FOO", Rank: 1},
		{Pattern: "[a-z]+", Name: "WORD", Rank: 0},
	})

	matched, accept, ok := scan(tbl, "INITIAL", "foo")
	require.True(t, ok)
	assert.Equal(t, "foo", matched)
	assert.Equal(t, 0, accept.Rule)
}

func Test_BuildTable_NamedSubexpression(t *testing.T) {
	defs := NewNamedDefs()
	defs.Add("digit", "[0-9]")

	conditions := map[string][]int{"INITIAL": {0}}
	tbl, err := BuildTable([]Rule{{Pattern: "{digit}+", Name: "NUM"}}, defs, conditions)
	require.NoError(t, err)

	matched, _, ok := scan(tbl, "INITIAL", "1234")
	require.True(t, ok)
	assert.Equal(t, "1234", matched)
}

func Test_BuildTable_FixedTrailingContext(t *testing.T) {
	tbl := simpleTable(t, []Rule{{Pattern: "ab/cd", Name: "AB_BEFORE_CD"}})

	matched, accept, ok := scan(tbl, "INITIAL", "abcd")
	require.True(t, ok)
	assert.Equal(t, "abcd", matched)
	assert.Equal(t, 2, accept.Backup)
}

func Test_BuildTable_VariableTrailingContext_RecordsBoundary(t *testing.T) {
	tbl := simpleTable(t, []Rule{{Pattern: "a+/b+", Name: "A_BEFORE_B"}})

	found := false
	for _, rules := range tbl.BoundaryStates {
		for _, r := range rules {
			if r == 0 {
				found = true
			}
		}
	}
	assert.True(t, found, "expected at least one DFA state to record rule 0's trailing-context boundary")
}

func Test_BuildTable_MultipleConditions(t *testing.T) {
	rules := []Rule{
		{Pattern: "a", Name: "A"},
		{Pattern: "b", Name: "B"},
	}
	conditions := map[string][]int{
		"INITIAL": {0},
		"OTHER":   {1},
	}
	tbl, err := BuildTable(rules, NewNamedDefs(), conditions)
	require.NoError(t, err)

	_, _, okA := scan(tbl, "INITIAL", "a")
	assert.True(t, okA)
	_, _, okAInOther := scan(tbl, "OTHER", "a")
	assert.False(t, okAInOther)
	_, _, okBInOther := scan(tbl, "OTHER", "b")
	assert.True(t, okBInOther)
}
