// Package config loads declarative rule files and compiles them into
// rule sets for the merge and filter engines.
//
// Rule files are TOML or YAML documents with one list per action kind:
//
//	no-warn-multiple-matches = false
//
//	[[ignore]]
//	section = "colors"
//
//	[[ignore]]
//	section = ".*"
//	key = "window_geometry_.*"
//	regex = true
//
//	[[transform]]
//	section = "general"
//	key = "recent_files"
//	name = "unsorted-list"
//	args = { separator = "," }
//
//	[[set]]
//	section = "auth"
//	key = "username"
//	value = "me"
//	separator = " = "
//
// A rule without a key applies to the whole section. Merge files use
// ignore/delete/transform/set; filter files use delete/replace. Mixing
// the two vocabularies in one file is rejected, since it is almost
// always a mode mix-up.
package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/filter"
	"github.com/arthur-debert/inimerge/pkg/logging"
	"github.com/arthur-debert/inimerge/pkg/merge"
	"github.com/arthur-debert/inimerge/pkg/merge/transforms"
)

// Rule selects sections or keys. An empty Key makes it a section rule.
// With Regex set, Section and Key are regular expressions, otherwise
// exact strings.
type Rule struct {
	Section string `toml:"section" yaml:"section"`
	Key     string `toml:"key" yaml:"key"`
	Regex   bool   `toml:"regex" yaml:"regex"`
}

// TransformRule attaches a named transform to matching keys.
type TransformRule struct {
	Section string            `toml:"section" yaml:"section"`
	Key     string            `toml:"key" yaml:"key"`
	Regex   bool              `toml:"regex" yaml:"regex"`
	Name    string            `toml:"name" yaml:"name"`
	Args    map[string]string `toml:"args" yaml:"args"`
}

// SetRule forces `key<separator>value` to appear in a section.
type SetRule struct {
	Section   string `toml:"section" yaml:"section"`
	Key       string `toml:"key" yaml:"key"`
	Value     string `toml:"value" yaml:"value"`
	Separator string `toml:"separator" yaml:"separator"`
}

// ReplaceRule redacts the value of matching keys when filtering.
type ReplaceRule struct {
	Section string `toml:"section" yaml:"section"`
	Key     string `toml:"key" yaml:"key"`
	Regex   bool   `toml:"regex" yaml:"regex"`
	Value   string `toml:"value" yaml:"value"`
}

// RuleFile is one parsed rule document.
type RuleFile struct {
	NoWarnMultipleMatches bool `toml:"no-warn-multiple-matches" yaml:"no-warn-multiple-matches"`

	// Merge vocabulary.
	Ignore    []Rule          `toml:"ignore" yaml:"ignore"`
	Transform []TransformRule `toml:"transform" yaml:"transform"`
	Set       []SetRule       `toml:"set" yaml:"set"`

	// Shared: valid for both merging and filtering.
	Delete []Rule `toml:"delete" yaml:"delete"`

	// Filter vocabulary.
	Replace []ReplaceRule `toml:"replace" yaml:"replace"`
}

// Load reads and parses a rule file, picking the format from the file
// extension (.toml, .yaml or .yml).
func Load(path string) (*RuleFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read rule file %s", path)
	}

	logger := logging.GetLogger("config")
	logger.Debug().Str("path", path).Msg("Loading rule file")

	var file RuleFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid TOML in %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "invalid YAML in %s", path)
		}
	default:
		return nil, errors.Newf(errors.ErrConfigParse,
			"unsupported rule file extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
	return &file, nil
}

// Mutations compiles the rule file into a merge rule set. Fails if the
// file carries filter-only rules.
func (f *RuleFile) Mutations() (*merge.Mutations, error) {
	if len(f.Replace) > 0 {
		return nil, errors.New(errors.ErrConfigValid,
			"replace rules are only valid when filtering")
	}

	builder := merge.NewMutationsBuilder()
	builder.WarnOnMultipleMatches(!f.NoWarnMultipleMatches)

	for _, rule := range f.Ignore {
		if err := addMergeRule(builder, rule, merge.SectionIgnore, merge.Ignore()); err != nil {
			return nil, err
		}
	}
	for _, rule := range f.Delete {
		if err := addMergeRule(builder, rule, merge.SectionDelete, merge.Delete()); err != nil {
			return nil, err
		}
	}
	for _, rule := range f.Transform {
		if rule.Key == "" {
			return nil, errors.Newf(errors.ErrConfigValid,
				"transform rule for section %q is missing a key: transforms apply to keys only", rule.Section)
		}
		transformer, err := transforms.New(rule.Name, rule.Args)
		if err != nil {
			return nil, err
		}
		if rule.Regex {
			builder.AddRegexAction(rule.Section, rule.Key, merge.Transform(transformer))
		} else {
			builder.AddLiteralAction(rule.Section, rule.Key, merge.Transform(transformer))
		}
	}
	for _, rule := range f.Set {
		if rule.Section == "" || rule.Key == "" {
			return nil, errors.New(errors.ErrConfigValid,
				"set rule requires both section and key")
		}
		separator := rule.Separator
		if separator == "" {
			separator = "="
		}
		builder.AddSetter(rule.Section, rule.Key, rule.Value, separator)
	}

	return builder.Build()
}

func addMergeRule(builder *merge.MutationsBuilder, rule Rule, sectionAction merge.SectionAction, keyAction merge.Action) error {
	if rule.Section == "" {
		return errors.New(errors.ErrConfigValid, "rule is missing a section")
	}
	switch {
	case rule.Key == "" && rule.Regex:
		builder.AddSectionRegexAction(rule.Section, sectionAction)
	case rule.Key == "":
		builder.AddSectionAction(rule.Section, sectionAction)
	case rule.Regex:
		builder.AddRegexAction(rule.Section, rule.Key, keyAction)
	default:
		builder.AddLiteralAction(rule.Section, rule.Key, keyAction)
	}
	return nil
}

// FilterActions compiles the rule file into a filter rule set. Fails if
// the file carries merge-only rules.
func (f *RuleFile) FilterActions() (*filter.Actions, error) {
	switch {
	case len(f.Ignore) > 0:
		return nil, errors.New(errors.ErrConfigValid,
			"ignore rules are only valid when merging")
	case len(f.Transform) > 0:
		return nil, errors.New(errors.ErrConfigValid,
			"transform rules are only valid when merging")
	case len(f.Set) > 0:
		return nil, errors.New(errors.ErrConfigValid,
			"set rules are only valid when merging")
	}

	builder := filter.NewActionsBuilder()
	builder.WarnOnMultipleMatches(!f.NoWarnMultipleMatches)

	for _, rule := range f.Delete {
		if err := addFilterRule(builder, rule, filter.Remove()); err != nil {
			return nil, err
		}
	}
	for _, rule := range f.Replace {
		plain := Rule{Section: rule.Section, Key: rule.Key, Regex: rule.Regex}
		if err := addFilterRule(builder, plain, filter.Replace(rule.Value)); err != nil {
			return nil, err
		}
	}

	return builder.Build()
}

func addFilterRule(builder *filter.ActionsBuilder, rule Rule, action filter.Action) error {
	if rule.Section == "" {
		return errors.New(errors.ErrConfigValid, "rule is missing a section")
	}
	switch {
	case rule.Key == "" && rule.Regex:
		builder.AddSectionRegexAction(rule.Section, action)
	case rule.Key == "":
		builder.AddSectionAction(rule.Section, action)
	case rule.Regex:
		builder.AddRegexAction(rule.Section, rule.Key, action)
	default:
		builder.AddLiteralAction(rule.Section, rule.Key, action)
	}
	return nil
}
