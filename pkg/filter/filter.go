// Package filter applies rules to a single INI file, removing or
// redacting entries while preserving all other formatting byte for byte.
//
// Unlike merging there is no second file to reconcile against: with no
// applicable rules, filtering is the identity function. Sections whose
// every line is removed disappear entirely, header included.
package filter

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/inimerge/pkg/actions"
	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/ini"
	"github.com/arthur-debert/inimerge/pkg/logging"
)

// ActionKind discriminates the filter actions.
type ActionKind int

const (
	// ActionRemove drops a matching entry entirely. As a section action
	// it drops the whole section, comments and blanks included.
	ActionRemove ActionKind = iota
	// ActionReplace replaces the value of an entry, keeping the key and
	// the original separator. As a section action it replaces every
	// value in the section but leaves the section itself in place.
	ActionReplace
)

// Action is the resolved filter rule for one entry.
type Action struct {
	Kind ActionKind
	// Replacement is the new value for ActionReplace.
	Replacement string
}

// Remove returns the drop-entry action.
func Remove() Action { return Action{Kind: ActionRemove} }

// Replace returns an action substituting replacement for the value.
func Replace(replacement string) Action {
	return Action{Kind: ActionReplace, Replacement: replacement}
}

// Actions is the compiled rule set for filtering. Immutable after Build
// and safe to share across concurrent Filter calls.
type Actions struct {
	set *actions.Set[Action, Action]
}

func (a *Actions) findSection(section string) (Action, bool) {
	return a.set.FindSection(section)
}

// find resolves the action for a section and key; a section action
// outranks any key rule.
func (a *Actions) find(section, key string) (Action, bool) {
	if sectionAction, ok := a.set.FindSection(section); ok {
		return sectionAction, true
	}
	return a.set.FindKey(section, key)
}

// ActionsBuilder accumulates filter rules. Create with NewActionsBuilder.
type ActionsBuilder struct {
	actions *actions.Builder[Action, Action]
}

// NewActionsBuilder creates an empty filter rule set builder.
func NewActionsBuilder() *ActionsBuilder {
	return &ActionsBuilder{actions: actions.NewBuilder[Action, Action]()}
}

// AddSectionAction registers an action for an exact section name.
func (b *ActionsBuilder) AddSectionAction(section string, action Action) *ActionsBuilder {
	b.actions.AddSectionLiteral(section, action)
	return b
}

// AddSectionRegexAction registers an action for sections matching a regex.
func (b *ActionsBuilder) AddSectionRegexAction(section string, action Action) *ActionsBuilder {
	b.actions.AddSectionRegex(section, action)
	return b
}

// AddLiteralAction registers an action for an exact section and key.
func (b *ActionsBuilder) AddLiteralAction(section, key string, action Action) *ActionsBuilder {
	b.actions.AddKeyLiteral(section, key, action)
	return b
}

// AddRegexAction registers an action for a regex match of section and key.
func (b *ActionsBuilder) AddRegexAction(section, key string, action Action) *ActionsBuilder {
	b.actions.AddKeyRegex(section, key, action)
	return b
}

// WarnOnMultipleMatches controls the overlapping-regex warning.
func (b *ActionsBuilder) WarnOnMultipleMatches(warn bool) *ActionsBuilder {
	b.actions.WarnOnMultipleMatches(warn)
	return b
}

// Build compiles the rule set. Fails with ErrRuleCompile if any regex
// does not compile.
func (b *ActionsBuilder) Build() (*Actions, error) {
	set, err := b.actions.Build()
	if err != nil {
		return nil, err
	}
	return &Actions{set: set}, nil
}

// filterState tracks one run. Section headers are always held pending
// and commit only when the section emits its first surviving line; a
// section whose every entry is removed disappears entirely. A trailing
// section that filtering never touched commits at end of input, so
// comment-only and empty sections survive an empty rule set.
type filterState struct {
	result     []string
	pending    []string
	curSection string
	// removedEntry records that a property of the current section was
	// dropped, which is what makes a still-pending header vanish at end
	// of input.
	removedEntry bool
	logger       zerolog.Logger
}

// push flushes pending and appends a line to the output.
func (s *filterState) push(raw string) {
	s.result = append(s.result, s.pending...)
	s.pending = s.pending[:0]
	s.result = append(s.result, raw)
}

// maybePush appends to pending if a header is held, else directly to
// the output.
func (s *filterState) maybePush(raw string) {
	if len(s.pending) == 0 {
		s.result = append(s.result, raw)
	} else {
		s.pending = append(s.pending, raw)
	}
}

// Filter applies the rule set to one INI file and returns the surviving
// lines. Like Merge, joining with a line terminator is the caller's
// concern.
func Filter(input io.Reader, actions *Actions) ([]string, error) {
	items, err := ini.Parse(input)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInputLoad, "failed to read input")
	}

	state := &filterState{
		curSection: ini.NoSection,
		logger:     logging.GetLogger("filter"),
	}

	for _, item := range items {
		switch item.Kind {
		case ini.KindError:
			state.logger.Warn().Str("line", item.Raw).Msg("Passing through unparsable line")
			if action, ok := actions.findSection(state.curSection); ok && action.Kind == ActionRemove {
				break
			}
			state.maybePush(item.Raw)
		case ini.KindComment, ini.KindBlank:
			// Replace only affects key-bearing lines.
			if action, ok := actions.findSection(state.curSection); ok && action.Kind == ActionRemove {
				break
			}
			state.maybePush(item.Raw)
		case ini.KindSectionEnd:
		case ini.KindSection:
			state.curSection = item.Name
			state.pending = state.pending[:0]
			state.removedEntry = false
			if action, ok := actions.findSection(item.Name); ok && action.Kind == ActionRemove {
				// Header dropped along with everything until the next one.
				break
			}
			state.pending = append(state.pending, item.Raw)
		case ini.KindProperty:
			action, ok := actions.find(state.curSection, item.Key)
			switch {
			case !ok:
				state.push(item.Raw)
			case action.Kind == ActionRemove:
				state.removedEntry = true
			case action.Kind == ActionReplace:
				if !item.HasVal {
					// No value, nothing to redact.
					state.push(item.Raw)
					break
				}
				state.push(item.Key + separatorOf(item) + action.Replacement)
			}
		}
	}

	// End of input: a held-back trailing section commits unless filtering
	// emptied it.
	if !state.removedEntry {
		state.result = append(state.result, state.pending...)
	}

	return state.result, nil
}

// separatorOf recovers the exact separator substring between key and
// value from the raw line, using the recorded key and value lengths.
// Falls back to `=` when the raw line's shape does not allow it.
func separatorOf(item ini.Item) string {
	end := len(item.Raw) - len(item.Val)
	if end >= len(item.Key) && end <= len(item.Raw) {
		return item.Raw[len(item.Key):end]
	}
	return "="
}
