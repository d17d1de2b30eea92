package merge

import (
	"github.com/arthur-debert/inimerge/pkg/actions"
	"github.com/arthur-debert/inimerge/pkg/merge/transforms"
)

// ActionKind discriminates the key-level merge actions.
type ActionKind int

const (
	// ActionIgnore keeps the target's line verbatim, ignoring the source.
	ActionIgnore ActionKind = iota
	// ActionDelete removes the entry from the output entirely.
	ActionDelete
	// ActionTransform hands the entry to a value transform.
	ActionTransform
)

// Action is the resolved rule for one key.
type Action struct {
	Kind ActionKind
	// Transform is set for ActionTransform only.
	Transform transforms.Transformer
}

// Ignore returns the keep-target action.
func Ignore() Action { return Action{Kind: ActionIgnore} }

// Delete returns the remove-entry action.
func Delete() Action { return Action{Kind: ActionDelete} }

// Transform returns an action applying t to the entry.
func Transform(t transforms.Transformer) Action {
	return Action{Kind: ActionTransform, Transform: t}
}

// SectionAction applies to a whole section and outranks any key rule
// within it.
type SectionAction int

const (
	// SectionIgnore keeps the target's section verbatim.
	SectionIgnore SectionAction = iota
	// SectionDelete removes the section from the output entirely.
	SectionDelete
)

func (a SectionAction) asAction() Action {
	if a == SectionDelete {
		return Delete()
	}
	return Ignore()
}

// Mutations is the compiled rule set for merging. Immutable after Build
// and safe to share across concurrent Merge calls.
type Mutations struct {
	actions *actions.Set[Action, SectionAction]
	// forcedKeys maps section to the keys that must appear in the output
	// even if absent from both files. Invariant, upheld by AddSetter:
	// every forced key has a literal Transform rule that always emits.
	forcedKeys map[string]map[string]struct{}
}

func (m *Mutations) findSectionAction(section string) (SectionAction, bool) {
	return m.actions.FindSection(section)
}

// findAction resolves the action for a concrete section and key. A
// section-level action wins over any key rule.
func (m *Mutations) findAction(section, key string) (Action, bool) {
	if sectionAction, ok := m.actions.FindSection(section); ok {
		return sectionAction.asAction(), true
	}
	return m.actions.FindKey(section, key)
}

// MutationsBuilder accumulates merge rules. Create with
// NewMutationsBuilder; no rule may be added after Build.
type MutationsBuilder struct {
	actions    *actions.Builder[Action, SectionAction]
	forcedKeys map[string]map[string]struct{}
}

// NewMutationsBuilder creates an empty rule set builder.
func NewMutationsBuilder() *MutationsBuilder {
	return &MutationsBuilder{
		actions:    actions.NewBuilder[Action, SectionAction](),
		forcedKeys: make(map[string]map[string]struct{}),
	}
}

// AddSectionAction registers an action for an exact section name.
func (b *MutationsBuilder) AddSectionAction(section string, action SectionAction) *MutationsBuilder {
	b.actions.AddSectionLiteral(section, action)
	return b
}

// AddSectionRegexAction registers an action for sections matching a regex.
func (b *MutationsBuilder) AddSectionRegexAction(section string, action SectionAction) *MutationsBuilder {
	b.actions.AddSectionRegex(section, action)
	return b
}

// AddLiteralAction registers an action for an exact section and key.
func (b *MutationsBuilder) AddLiteralAction(section, key string, action Action) *MutationsBuilder {
	b.actions.AddKeyLiteral(section, key, action)
	return b
}

// AddRegexAction registers an action for a regex match of section and key.
func (b *MutationsBuilder) AddRegexAction(section, key string, action Action) *MutationsBuilder {
	b.actions.AddKeyRegex(section, key, action)
	return b
}

// AddSetter guarantees that `key<separator>value` appears in section,
// regardless of either file's content. It registers a fixed-value
// transform for the key plus a forced-key entry, which together uphold
// the forced-key invariant.
func (b *MutationsBuilder) AddSetter(section, key, value, separator string) *MutationsBuilder {
	b.actions.AddKeyLiteral(section, key, Transform(transforms.NewSetValue(key+separator+value)))
	forced := b.forcedKeys[section]
	if forced == nil {
		forced = make(map[string]struct{})
		b.forcedKeys[section] = forced
	}
	forced[key] = struct{}{}
	return b
}

// WarnOnMultipleMatches controls the overlapping-regex warning.
func (b *MutationsBuilder) WarnOnMultipleMatches(warn bool) *MutationsBuilder {
	b.actions.WarnOnMultipleMatches(warn)
	return b
}

// Build compiles the rule set. Fails with ErrRuleCompile if any regex
// does not compile.
func (b *MutationsBuilder) Build() (*Mutations, error) {
	set, err := b.actions.Build()
	if err != nil {
		return nil, err
	}
	return &Mutations{actions: set, forcedKeys: b.forcedKeys}, nil
}
