package merge_test

import (
	"strings"
	"testing"

	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/ini"
	"github.com/arthur-debert/inimerge/pkg/merge"
	"github.com/arthur-debert/inimerge/pkg/merge/transforms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMerge(t *testing.T, target, source string, m *merge.Mutations) []string {
	t.Helper()
	lines, err := merge.Merge(strings.NewReader(target), strings.NewReader(source), m)
	require.NoError(t, err)
	return lines
}

func emptyMutations(t *testing.T) *merge.Mutations {
	t.Helper()
	m, err := merge.NewMutationsBuilder().Build()
	require.NoError(t, err)
	return m
}

func TestMerge_ReferenceScenario(t *testing.T) {
	source := strings.Join([]string{
		"; Comments are ignored in source",
		"src_first=1",
		"[s1]",
		"a = 42",
		"playmedia=none,,Play media playback",
		"unsorted_same=1,2,3,4",
		"unsorted_diferent=1,2,3,5",
		"",
		"[s2]",
		"b = value",
		"c",
		"",
		"[s4]",
		"source_only = 42",
		"",
		"[s5]",
		"a_ign = 2",
		"aaa = 3",
		"",
	}, "\n")

	target := strings.Join([]string{
		"; Comments are copied from target",
		"tgt_first=1",
		"[s1]",
		"a = 32",
		"b = will be discarded",
		"c = ignored, kept",
		"playmedia=none,none,Play media playback",
		"unsorted_same=4,3,2,1",
		"unsorted_diferent=3,2,1",
		"",
		"[s2]",
		"b = overwritten",
		"d",
		"e",
		"",
		"[s3]",
		"ignored, and kept = 3",
		"",
		"[s5]",
		"b_ign = 2",
		"aaa = 2",
		"",
	}, "\n")

	expected := strings.Join([]string{
		"; Comments are copied from target",
		"src_first=1",
		"[s1]",
		"a = 42",
		"c = ignored, kept",
		"playmedia=none,none,Play media playback",
		"unsorted_same=4,3,2,1",
		"unsorted_diferent=1,2,3,5",
		"",
		"[s2]",
		"b = value",
		"e",
		"",
		"c",
		"[s3]",
		"ignored, and kept = 3",
		"",
		"[s5]",
		"b_ign = 2",
		"aaa = 3",
		"[s4]",
		"source_only = 42",
	}, "\n")

	b := merge.NewMutationsBuilder()
	b.AddSectionAction("s3", merge.SectionIgnore)
	b.AddLiteralAction("s1", "c", merge.Ignore())
	b.AddLiteralAction("s2", "e", merge.Ignore())
	b.AddLiteralAction("s1", "playmedia", merge.Transform(transforms.KDEShortcut{}))
	b.AddRegexAction("s5", ".*_ign", merge.Ignore())
	b.AddRegexAction("s1", "unsorted_.*", merge.Transform(transforms.NewUnsortedList(',')))
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t, target, source, m)
	assert.Equal(t, expected, strings.Join(lines, "\n"))
}

func TestMerge_LiteralScenario(t *testing.T) {
	// Source wins on shared keys; source-only keys appended in sorted order.
	lines := runMerge(t, "a=1\n[s]\nb=2\n", "a=9\n[s]\nb=9\nc=9\n", emptyMutations(t))
	assert.Equal(t, []string{"a=9", "[s]", "b=9", "c=9"}, lines)
}

func TestMerge_RoundTripIdentity(t *testing.T) {
	file := strings.Join([]string{
		"; a header comment",
		"outside = 1",
		"",
		"[one]",
		"a=1",
		"weird  =  kept   ",
		"",
		"[two]",
		"# comment",
		"b = 2",
	}, "\n")

	lines := runMerge(t, file, file, emptyMutations(t))
	assert.Equal(t, file, strings.Join(lines, "\n"))
}

func TestMerge_TargetOnlyKeyWithoutRuleIsDropped(t *testing.T) {
	lines := runMerge(t, "[s]\nstale=1\nkept=2\n", "[s]\nkept=9\n", emptyMutations(t))
	assert.Equal(t, []string{"[s]", "kept=9"}, lines)
}

func TestMerge_SourceOnlyKeysEmittedSortedAfterTargetContent(t *testing.T) {
	lines := runMerge(t,
		"[s]\nmm=0\n",
		"[s]\nzz=1\naa=2\nmm=3\n",
		emptyMutations(t))
	assert.Equal(t, []string{"[s]", "mm=3", "aa=2", "zz=1"}, lines)
}

func TestMerge_SourceOnlySectionSynthesized(t *testing.T) {
	lines := runMerge(t,
		"[kept]\na=1\n",
		"[kept]\na=1\n[zextra]\nz=1\n[bextra]\nb=1\n",
		emptyMutations(t))
	// Source-only sections appended sorted by name.
	assert.Equal(t, []string{"[kept]", "a=1", "[bextra]", "b=1", "[zextra]", "z=1"}, lines)
}

func TestMerge_SectionDeleteRemovesEverywhere(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddSectionAction("gone", merge.SectionDelete)
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t,
		"[keep]\na=1\n[gone]\nb=2\n",
		"[keep]\na=1\n[gone]\nb=9\nc=9\n",
		m)
	assert.Equal(t, []string{"[keep]", "a=1"}, lines)
}

func TestMerge_SectionIgnoreKeepsTargetVerbatim(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddSectionAction("mine", merge.SectionIgnore)
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t,
		"[mine]\na =   1\nlocal=yes\n",
		"[mine]\na=9\nnew=9\n",
		m)
	// Target lines kept byte for byte, source-only keys suppressed.
	assert.Equal(t, []string{"[mine]", "a =   1", "local=yes"}, lines)
}

func TestMerge_DeleteKeyRule(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddLiteralAction("s", "secret", merge.Delete())
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t,
		"[s]\nsecret=abc\nplain=1\n",
		"[s]\nsecret=def\nplain=1\n",
		m)
	assert.Equal(t, []string{"[s]", "plain=1"}, lines)
}

func TestMerge_HeaderDroppedWhenSectionFullyElided(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddRegexAction("only_target", ".*", merge.Delete())
	m, err := b.Build()
	require.NoError(t, err)

	// Section exists only in target and every key is deleted: the held
	// back header must never surface.
	lines := runMerge(t,
		"[keep]\na=1\n[only_target]\nx=1\ny=2\n",
		"[keep]\na=1\n",
		m)
	assert.Equal(t, []string{"[keep]", "a=1"}, lines)
}

func TestMerge_HeaderKeptWhenIgnoredKeySurvives(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddLiteralAction("only_target", "keepme", merge.Ignore())
	m, err := b.Build()
	require.NoError(t, err)

	// Section absent from source, one key ignored (kept): the pending
	// header must flush right before the kept line.
	lines := runMerge(t,
		"[keep]\na=1\n[only_target]\n; travels with header",
		"[keep]\na=1\n",
		m)
	// No kept key: header and comment dropped.
	assert.Equal(t, []string{"[keep]", "a=1"}, lines)

	lines = runMerge(t,
		"[keep]\na=1\n[only_target]\n; travels with header\nkeepme=1\ndropme=2\n",
		"[keep]\na=1\n",
		m)
	assert.Equal(t, []string{"[keep]", "a=1", "[only_target]", "; travels with header", "keepme=1"}, lines)
}

func TestMerge_SetterForcesKeyIntoExistingSection(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddSetter("s", "k", "v", " = ")
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t, "[s]\na=1\n", "[s]\na=1\n", m)
	assert.Equal(t, []string{"[s]", "a=1", "k = v"}, lines)
}

func TestMerge_SetterOverridesExistingValue(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddSetter("s", "k", "forced", "=")
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t, "[s]\nk=target\n", "[s]\nk=source\n", m)
	assert.Equal(t, []string{"[s]", "k=forced"}, lines)
}

func TestMerge_SetterSynthesizesSectionAbsentFromBothFiles(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddSetter("s", "k", "v", " = ")
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t, "[other]\na=1\n", "[other]\na=1\n", m)
	assert.Equal(t, []string{"[other]", "a=1", "[s]", "k = v"}, lines)
}

func TestMerge_SettersEmittedInSortedKeyOrder(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddSetter("s", "zz", "1", "=")
	b.AddSetter("s", "aa", "2", "=")
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t, "", "", m)
	assert.Equal(t, []string{"[s]", "aa=2", "zz=1"}, lines)
}

func TestMerge_KeysBeforeFirstSection(t *testing.T) {
	lines := runMerge(t,
		"shared=old\n[s]\na=1\n",
		"shared=new\nextra=9\n[s]\na=1\n",
		emptyMutations(t))
	assert.Equal(t, []string{"shared=new", "extra=9", "[s]", "a=1"}, lines)
}

func TestMerge_TransformErrorAbortsRun(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddLiteralAction("s", "list", merge.Transform(transforms.NewUnsortedList(',')))
	m, err := b.Build()
	require.NoError(t, err)

	// Valueless key where the transform requires one.
	_, err = merge.Merge(
		strings.NewReader("[s]\nlist\n"),
		strings.NewReader("[s]\nlist\n"),
		m)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTransformInvalid))
	assert.Contains(t, err.Error(), "unsorted-list")
	assert.Contains(t, err.Error(), "s -> list")
}

func TestMerge_TransformKeepsTargetOnlyKey(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddLiteralAction("s", "list", merge.Transform(transforms.NewUnsortedList(',')))
	m, err := b.Build()
	require.NoError(t, err)

	// The key exists only in the target; a transform rule must keep it.
	lines := runMerge(t,
		"[s]\nlist=1,2\n",
		"[s]\nother=1\n",
		m)
	assert.Equal(t, []string{"[s]", "list=1,2", "other=1"}, lines)
}

func TestMerge_MalformedTargetLinePassedThrough(t *testing.T) {
	lines := runMerge(t,
		"[s]\n[broken\na=1\n",
		"[s]\na=9\n",
		emptyMutations(t))
	assert.Equal(t, []string{"[s]", "[broken", "a=9"}, lines)
}

func TestMerge_MalformedSourceIsFatal(t *testing.T) {
	_, err := merge.Merge(
		strings.NewReader("a=1\n"),
		strings.NewReader("[broken\n"),
		emptyMutations(t))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrSourceLoad))
}

func TestMerge_RegexSectionRules(t *testing.T) {
	b := merge.NewMutationsBuilder()
	b.AddSectionRegexAction("^cache_", merge.SectionDelete)
	m, err := b.Build()
	require.NoError(t, err)

	lines := runMerge(t,
		"[app]\na=1\n[cache_meta]\nx=1\n",
		"[app]\na=1\n[cache_blobs]\ny=2\n",
		m)
	assert.Equal(t, []string{"[app]", "a=1"}, lines)
}

func TestMerge_EmptyRuleSetSharedAcrossRuns(t *testing.T) {
	m := emptyMutations(t)
	first := runMerge(t, "a=1\n", "a=2\n", m)
	second := runMerge(t, "b=1\n", "b=2\nc=3\n", m)
	assert.Equal(t, []string{"a=2"}, first)
	assert.Equal(t, []string{"b=2", "c=3"}, second)
}

func TestMerge_NoSectionSentinelNotEmittedAsHeader(t *testing.T) {
	lines := runMerge(t, "", "outside=1\n", emptyMutations(t))
	assert.Equal(t, []string{"outside=1"}, lines)
	for _, line := range lines {
		assert.NotContains(t, line, ini.NoSection)
	}
}
