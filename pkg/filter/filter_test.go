package filter_test

import (
	"strings"
	"testing"

	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFilter(t *testing.T, input string, a *filter.Actions) []string {
	t.Helper()
	lines, err := filter.Filter(strings.NewReader(input), a)
	require.NoError(t, err)
	return lines
}

func emptyActions(t *testing.T) *filter.Actions {
	t.Helper()
	a, err := filter.NewActionsBuilder().Build()
	require.NoError(t, err)
	return a
}

func TestFilter_ReferenceScenario(t *testing.T) {
	input := strings.Join([]string{
		"; A comment",
		"a=1",
		"b_removed=2",
		"c_replaced=3",
		"",
		"[s1]",
		"; d",
		"a = 42",
		"b_removed=43",
		"c_replaced=44",
		"aa_replaced =42",
		"aaa_replaced= 42",
		"aaa_replaced   =  42",
		"",
		"[s2_removed]",
		"a = 42",
		"d",
		"",
		"[s3_replaced]",
		"a = 42",
		"c_replaced=HIDDEN",
		"d",
		"",
		"[s5]",
		"b = c",
		"; Literally matched (removed)",
		"",
		"[s4]",
		"b = c",
		"; Literally matched",
		"",
	}, "\n")

	expected := strings.Join([]string{
		"; A comment",
		"a=1",
		"c_replaced=HIDDEN",
		"",
		"[s1]",
		"; d",
		"a = 42",
		"c_replaced=HIDDEN",
		"aa_replaced =HIDDEN",
		"aaa_replaced= HIDDEN",
		"aaa_replaced   =  HIDDEN",
		"",
		"[s3_replaced]",
		"a = HIDDEN",
		"c_replaced=HIDDEN",
		"d",
		"",
	}, "\n")

	b := filter.NewActionsBuilder()
	b.AddSectionAction("s4", filter.Remove())
	b.AddLiteralAction("s5", "b", filter.Remove())
	b.AddRegexAction(".*", ".*_replaced", filter.Replace("HIDDEN"))
	b.AddRegexAction(".*", ".*_removed", filter.Remove())
	b.AddRegexAction(".*_removed", ".*", filter.Remove())
	b.AddRegexAction(".*_replaced", ".*", filter.Replace("HIDDEN"))
	b.WarnOnMultipleMatches(false)
	a, err := b.Build()
	require.NoError(t, err)

	lines := runFilter(t, input, a)
	assert.Equal(t, expected, strings.Join(lines, "\n"))
}

func TestFilter_NoRulesIsIdentity(t *testing.T) {
	input := strings.Join([]string{
		"; header",
		"outside = 1",
		"",
		"[one]",
		"a=1",
		"odd  =  spacing   ",
		"bare",
		"# other comment",
		"",
		"[two]",
		"b = 2",
	}, "\n")

	lines := runFilter(t, input, emptyActions(t))
	assert.Equal(t, input, strings.Join(lines, "\n"))
}

func TestFilter_TrailingCommentOnlySectionSurvives(t *testing.T) {
	input := "[one]\na=1\n[notes]\n; just a comment"
	lines := runFilter(t, input, emptyActions(t))
	assert.Equal(t, []string{"[one]", "a=1", "[notes]", "; just a comment"}, lines)
}

func TestFilter_TrailingEmptySectionSurvives(t *testing.T) {
	lines := runFilter(t, "[one]\na=1\n[empty]\n", emptyActions(t))
	assert.Equal(t, []string{"[one]", "a=1", "[empty]"}, lines)
}

func TestFilter_TrailingSectionVanishesWhenEmptiedByRules(t *testing.T) {
	b := filter.NewActionsBuilder()
	b.AddLiteralAction("s", "only", filter.Remove())
	a, err := b.Build()
	require.NoError(t, err)

	// The comment goes with the section it belongs to.
	lines := runFilter(t, "[keep]\na=1\n[s]\n; doomed\nonly=1\n", a)
	assert.Equal(t, []string{"[keep]", "a=1"}, lines)
}

func TestFilter_ReplaceKeepsOriginalSeparator(t *testing.T) {
	b := filter.NewActionsBuilder()
	b.AddRegexAction(".*", "pass.*", filter.Replace("REDACTED"))
	a, err := b.Build()
	require.NoError(t, err)

	tests := []struct {
		line string
		want string
	}{
		{"password=abc", "password=REDACTED"},
		{"password = abc", "password = REDACTED"},
		{"password   =  abc", "password   =  REDACTED"},
		{"password=", "password=REDACTED"},
	}
	for _, tt := range tests {
		lines := runFilter(t, tt.line, a)
		assert.Equal(t, []string{tt.want}, lines, "input %q", tt.line)
	}
}

func TestFilter_ReplaceOnValuelessKeyPassesThrough(t *testing.T) {
	b := filter.NewActionsBuilder()
	b.AddLiteralAction("s", "bare", filter.Replace("HIDDEN"))
	a, err := b.Build()
	require.NoError(t, err)

	lines := runFilter(t, "[s]\nbare\n", a)
	assert.Equal(t, []string{"[s]", "bare"}, lines)
}

func TestFilter_RemovedSectionDropsCommentsAndBlanks(t *testing.T) {
	b := filter.NewActionsBuilder()
	b.AddSectionAction("gone", filter.Remove())
	a, err := b.Build()
	require.NoError(t, err)

	lines := runFilter(t,
		"[keep]\na=1\n[gone]\n; inside comment\nx=1\n\n[after]\nb=2\n",
		a)
	assert.Equal(t, []string{"[keep]", "a=1", "[after]", "b=2"}, lines)
}

func TestFilter_SectionVanishesWhenAllEntriesRemoved(t *testing.T) {
	b := filter.NewActionsBuilder()
	b.AddLiteralAction("s", "only", filter.Remove())
	a, err := b.Build()
	require.NoError(t, err)

	lines := runFilter(t, "[keep]\na=1\n[s]\nonly=1\n", a)
	assert.Equal(t, []string{"[keep]", "a=1"}, lines)
}

func TestFilter_SectionReplaceRedactsAllValues(t *testing.T) {
	b := filter.NewActionsBuilder()
	b.AddSectionAction("creds", filter.Replace("X"))
	a, err := b.Build()
	require.NoError(t, err)

	lines := runFilter(t, "[creds]\nuser = me\ntoken=abc\n; note\n", a)
	assert.Equal(t, []string{"[creds]", "user = X", "token=X", "; note"}, lines)
}

func TestFilter_MalformedLinePassesThrough(t *testing.T) {
	lines := runFilter(t, "[s]\n[broken\na=1\n", emptyActions(t))
	assert.Equal(t, []string{"[s]", "[broken", "a=1"}, lines)
}

func TestFilter_BadRegexFailsBuild(t *testing.T) {
	b := filter.NewActionsBuilder()
	b.AddRegexAction("(", ".*", filter.Remove())
	_, err := b.Build()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRuleCompile))
}
