package actions

import (
	"regexp"
	"strings"

	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/logging"
	"github.com/rs/zerolog"
)

// compoundSep joins a section and key into one matchable entry. NUL can
// not appear in a legitimate section or key name.
const compoundSep = "\x00"

// matcher resolves one entry string to an action via literals first,
// then registered regexes in order.
type matcher[A any] struct {
	literals map[string]A
	patterns []*regexp.Regexp
	actions  []A
}

func (m *matcher[A]) find(entry string, warn bool, logger zerolog.Logger) (A, bool) {
	if action, ok := m.literals[entry]; ok {
		return action, true
	}

	first := -1
	matches := 0
	for i, re := range m.patterns {
		if !re.MatchString(entry) {
			continue
		}
		if first < 0 {
			first = i
			if !warn {
				break
			}
		}
		matches++
	}

	var zero A
	if first < 0 {
		return zero, false
	}
	if warn && matches > 1 {
		logger.Warn().
			Str("entry", strings.ReplaceAll(entry, compoundSep, "/")).
			Int("matches", matches).
			Msg("Overlapping regex rules, first registered rule taken")
	}
	return m.actions[first], true
}

// Set resolves sections and (section, key) pairs to actions. A is the
// key-level action type, S the section-level one. Read-only after Build.
type Set[A, S any] struct {
	sections matcher[S]
	keys     matcher[A]
	warn     bool
	logger   zerolog.Logger
}

// FindSection looks up an action covering the whole section.
func (s *Set[A, S]) FindSection(section string) (S, bool) {
	return s.sections.find(section, s.warn, s.logger)
}

// FindKey looks up a key-level action for a concrete section and key.
// Callers that also carry section-level actions must consult FindSection
// first; a section action strictly outranks any key rule.
func (s *Set[A, S]) FindKey(section, key string) (A, bool) {
	return s.keys.find(section+compoundSep+key, s.warn, s.logger)
}

// Builder accumulates rules for a Set. Zero value is not usable; create
// with NewBuilder.
type Builder[A, S any] struct {
	sectionLiterals map[string]S
	sectionPatterns []string
	sectionActions  []S

	keyLiterals map[string]A
	keyPatterns []string
	keyActions  []A

	warn bool
}

// NewBuilder creates a rule set builder. Overlap warnings are on by
// default.
func NewBuilder[A, S any]() *Builder[A, S] {
	return &Builder[A, S]{
		sectionLiterals: make(map[string]S),
		keyLiterals:     make(map[string]A),
		warn:            true,
	}
}

// AddSectionLiteral registers an action for an exact section name.
func (b *Builder[A, S]) AddSectionLiteral(section string, action S) *Builder[A, S] {
	b.sectionLiterals[section] = action
	return b
}

// AddSectionRegex registers an action for sections matching a regex.
func (b *Builder[A, S]) AddSectionRegex(section string, action S) *Builder[A, S] {
	b.sectionPatterns = append(b.sectionPatterns, section)
	b.sectionActions = append(b.sectionActions, action)
	return b
}

// AddKeyLiteral registers an action for an exact section and key.
func (b *Builder[A, S]) AddKeyLiteral(section, key string, action A) *Builder[A, S] {
	b.keyLiterals[section+compoundSep+key] = action
	return b
}

// AddKeyRegex registers an action for a regex match over section and
// key. The two patterns are joined into one compound regex so a single
// rule can constrain both at once.
func (b *Builder[A, S]) AddKeyRegex(section, key string, action A) *Builder[A, S] {
	b.keyPatterns = append(b.keyPatterns, "(?:"+section+")"+compoundSep+"(?:"+key+")")
	b.keyActions = append(b.keyActions, action)
	return b
}

// WarnOnMultipleMatches controls the overlapping-regex warning.
func (b *Builder[A, S]) WarnOnMultipleMatches(warn bool) *Builder[A, S] {
	b.warn = warn
	return b
}

// Build compiles all registered regexes into an immutable Set. Fails
// with ErrRuleCompile on the first pattern that does not compile.
func (b *Builder[A, S]) Build() (*Set[A, S], error) {
	sections, err := compile(b.sectionPatterns)
	if err != nil {
		return nil, err
	}
	keys, err := compile(b.keyPatterns)
	if err != nil {
		return nil, err
	}
	return &Set[A, S]{
		sections: matcher[S]{
			literals: b.sectionLiterals,
			patterns: sections,
			actions:  b.sectionActions,
		},
		keys: matcher[A]{
			literals: b.keyLiterals,
			patterns: keys,
			actions:  b.keyActions,
		},
		warn:   b.warn,
		logger: logging.GetLogger("actions"),
	}, nil
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrRuleCompile,
				"failed to compile rule pattern %q", strings.ReplaceAll(pattern, compoundSep, "/"))
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
