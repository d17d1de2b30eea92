package merge

import (
	"io"
	"sort"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/ini"
	"github.com/arthur-debert/inimerge/pkg/logging"
)

// Merge reconciles target against source under the given rules and
// returns the merged file as lines, without trailing-newline decisions:
// joining with a line terminator is the caller's concern.
//
// Target keys with no rule and no source counterpart are dropped: the
// source is canonical and an undeclared target-only key is assumed
// stale.
func Merge(target, source io.Reader, mutations *Mutations) ([]string, error) {
	items, err := ini.Parse(target)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTargetLoad, "failed to read target")
	}
	src, err := loadSource(source)
	if err != nil {
		return nil, err
	}
	return merge(items, src, mutations)
}

// mergeState tracks one run. The pending buffer holds lines whose
// section's fate is undecided: a held-back header (plus trailing
// comments) commits exactly when its section turns out to have content,
// and is discarded otherwise.
type mergeState struct {
	result  []string
	pending []string
	// seenSections accumulates every section name visited in the target.
	seenSections map[string]struct{}
	// seenKeys accumulates keys finalized in the current section.
	seenKeys   map[string]struct{}
	curSection string

	source    *sourceINI
	mutations *Mutations
	logger    zerolog.Logger
}

func newMergeState(source *sourceINI, mutations *Mutations) *mergeState {
	return &mergeState{
		seenSections: make(map[string]struct{}),
		seenKeys:     make(map[string]struct{}),
		curSection:   ini.NoSection,
		source:       source,
		mutations:    mutations,
		logger:       logging.GetLogger("merge"),
	}
}

// pushRaw appends a line to the pending buffer if one is open, else
// directly to the output. This is how comments in an undecided section
// travel together with their held-back header.
func (s *mergeState) pushRaw(raw string) {
	if len(s.pending) == 0 {
		s.result = append(s.result, raw)
	} else {
		s.pending = append(s.pending, raw)
	}
}

// emitPending commits the pending buffer to the output.
func (s *mergeState) emitPending() {
	s.result = append(s.result, s.pending...)
	s.pending = s.pending[:0]
}

// emitNonTargetLines emits lines that exist only in the source, or are
// forced by setters, for the section being left. Called just before
// switching to the next section and once at end of target.
func (s *mergeState) emitNonTargetLines() error {
	if s.source.hasSection(s.curSection) {
		if _, ok := s.mutations.findSectionAction(s.curSection); !ok {
			for _, entry := range s.source.sectionEntries(s.curSection) {
				if _, seen := s.seenKeys[entry.key]; seen {
					continue
				}
				action, ok := s.mutations.findAction(s.curSection, entry.key)
				s.seenKeys[entry.key] = struct{}{}
				val := entry.val
				if err := s.emitKV(action, ok, entry.key, &val, nil); err != nil {
					return err
				}
			}
		}
		// SectionIgnore and SectionDelete both suppress source-only keys.
	}
	if err := s.emitForceKeys(); err != nil {
		return err
	}

	s.seenKeys = make(map[string]struct{})
	return nil
}

// emitForceKeys emits the current section's forced keys that have not
// already been finalized. Flushes pending first, so a held-back header
// commits when a setter gives its section content.
func (s *mergeState) emitForceKeys() error {
	forced, ok := s.mutations.forcedKeys[s.curSection]
	if !ok {
		return nil
	}
	s.emitPending()

	keys := make([]string, 0, len(forced))
	for key := range forced {
		if _, seen := s.seenKeys[key]; !seen {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		action, ok := s.mutations.findAction(s.curSection, key)
		if err := s.emitKV(action, ok, key, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// emitKV emits one key-value line, handling transforms. With no action
// the source line is emitted verbatim; every call site on that path
// guarantees a source value, an invariant upheld by MutationsBuilder
// when it constructs forced keys.
func (s *mergeState) emitKV(action Action, hasAction bool, key string, src *sourceValue, tgt *ini.Item) error {
	if !hasAction {
		if src == nil {
			panic("merge: pass-through emit without a source value")
		}
		s.result = append(s.result, src.raw)
		return nil
	}

	switch action.Kind {
	case ActionIgnore, ActionDelete:
		// No output here; ignore is handled at the call sites that still
		// hold the target's raw line.
	case ActionTransform:
		var srcProp, tgtProp *ini.Property
		if src != nil {
			srcProp = &ini.Property{
				Section: s.curSection,
				Key:     key,
				Val:     src.val,
				HasVal:  src.hasVal,
				Raw:     src.raw,
			}
		}
		if tgt != nil {
			tgtProp = ini.PropertyFromItem(s.curSection, *tgt)
		}
		outcome, err := action.Transform.Apply(srcProp, tgtProp)
		if err != nil {
			return errors.Wrapf(err, errors.ErrTransformInvalid,
				"transform %s failed on %s -> %s", action.Transform.Name(), s.curSection, key)
		}
		if outcome.Emit {
			s.result = append(s.result, outcome.Line)
		}
	}
	return nil
}

func merge(items []ini.Item, source *sourceINI, mutations *Mutations) ([]string, error) {
	state := newMergeState(source, mutations)

	for i := range items {
		item := items[i]
		switch item.Kind {
		case ini.KindError:
			state.logger.Warn().Str("line", item.Raw).Msg("Passing through unparsable target line")
			state.pushRaw(item.Raw)
		case ini.KindComment, ini.KindBlank:
			state.pushRaw(item.Raw)
		case ini.KindSectionEnd:
			// Leaving-section work happens on the next header instead:
			// there can be keys before the first section.
		case ini.KindSection:
			if err := state.emitNonTargetLines(); err != nil {
				return nil, err
			}
			state.curSection = item.Name
			state.seenSections[item.Name] = struct{}{}
			state.seenKeys = make(map[string]struct{})
			state.pending = state.pending[:0]

			sectionAction, ok := mutations.findSectionAction(item.Name)
			switch {
			case ok && sectionAction == SectionIgnore:
				state.pushRaw(item.Raw)
			case ok && sectionAction == SectionDelete:
				// The whole section is dropped.
			case source.hasSection(item.Name):
				state.pushRaw(item.Raw)
			default:
				// The section may still turn out empty in the output, for
				// example when every key in it is ignored or deleted. Hold
				// the header until a kept line proves otherwise.
				state.pending = append(state.pending, item.Raw)
			}
		case ini.KindProperty:
			action, ok := mutations.findAction(state.curSection, item.Key)
			srcVal, hasSrc := source.property(state.curSection, item.Key)
			switch {
			case !ok:
				if hasSrc {
					state.seenKeys[item.Key] = struct{}{}
					state.emitPending()
					if err := state.emitKV(action, false, item.Key, &srcVal, &item); err != nil {
						return nil, err
					}
				}
				// No rule and no source entry: dropped, source is canonical.
			case action.Kind == ActionIgnore:
				state.seenKeys[item.Key] = struct{}{}
				state.emitPending()
				state.result = append(state.result, item.Raw)
			case action.Kind == ActionDelete:
				// Nothing to emit.
			case action.Kind == ActionTransform:
				state.seenKeys[item.Key] = struct{}{}
				state.emitPending()
				var src *sourceValue
				if hasSrc {
					src = &srcVal
				}
				if err := state.emitKV(action, true, item.Key, src, &item); err != nil {
					return nil, err
				}
			}
		}
	}

	// End of target: leaving-section work for the final section.
	if err := state.emitNonTargetLines(); err != nil {
		return nil, err
	}

	// Sections the target never visited: those present in the source,
	// plus those existing only because setters force keys into them.
	unseen := make(map[string]string)
	for name, raw := range source.sections() {
		if _, ok := state.seenSections[name]; !ok {
			unseen[name] = raw
		}
	}
	for name := range mutations.forcedKeys {
		if _, ok := state.seenSections[name]; ok {
			continue
		}
		if _, ok := unseen[name]; !ok {
			unseen[name] = "[" + name + "]"
		}
	}

	names := make([]string, 0, len(unseen))
	for name := range unseen {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == ini.NoSection {
			// The implicit leading section was handled during the walk.
			continue
		}
		if _, ok := mutations.findSectionAction(name); ok {
			// Both ignore and delete suppress source-only sections.
			continue
		}
		state.curSection = name
		state.seenSections[name] = struct{}{}
		state.seenKeys = make(map[string]struct{})
		state.pending = state.pending[:0]

		state.result = append(state.result, unseen[name])
		for _, entry := range source.sectionEntries(name) {
			action, ok := mutations.findAction(name, entry.key)
			state.seenKeys[entry.key] = struct{}{}
			val := entry.val
			if err := state.emitKV(action, ok, entry.key, &val, nil); err != nil {
				return nil, err
			}
		}
		if err := state.emitForceKeys(); err != nil {
			return nil, err
		}
	}

	return state.result, nil
}
