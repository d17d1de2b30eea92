package merge

import (
	"io"
	"sort"

	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/ini"
)

// sourceValue is one property from the source file.
type sourceValue struct {
	raw    string
	val    string
	hasVal bool
}

// sourceEntry pairs a key with its value for sorted iteration.
type sourceEntry struct {
	key string
	val sourceValue
}

// sourceINI is a random access view over the source file, built by one
// linear pass and read-only afterwards. The target is processed as a
// stream, but merging needs lookback into source content that may
// follow the current target position.
type sourceINI struct {
	// headers maps section name to its raw header line. ini.NoSection
	// is always present, covering content before the first header.
	headers map[string]string
	// values maps section then key to the property. Duplicate keys
	// within a section overwrite: last one wins, matching how most
	// programs read INI files.
	values map[string]map[string]sourceValue
}

// loadSource parses and indexes the source file. Unlike the target
// stream, a malformed source line is fatal: the source is the canonical
// template and indexing garbage would silently corrupt the merge.
func loadSource(r io.Reader) (*sourceINI, error) {
	items, err := ini.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSourceLoad, "failed to read source")
	}

	src := &sourceINI{
		headers: map[string]string{ini.NoSection: ini.NoSection},
		values:  make(map[string]map[string]sourceValue),
	}
	section := ini.NoSection
	for _, item := range items {
		switch item.Kind {
		case ini.KindError:
			return nil, errors.Newf(errors.ErrSourceLoad,
				"parse error in source: %q", item.Raw)
		case ini.KindSection:
			src.headers[item.Name] = item.Raw
			section = item.Name
		case ini.KindProperty:
			entries := src.values[section]
			if entries == nil {
				entries = make(map[string]sourceValue)
				src.values[section] = entries
			}
			entries[item.Key] = sourceValue{
				raw:    item.Raw,
				val:    item.Val,
				hasVal: item.HasVal,
			}
		}
	}
	return src, nil
}

func (s *sourceINI) hasSection(name string) bool {
	_, ok := s.headers[name]
	return ok
}

func (s *sourceINI) property(section, key string) (sourceValue, bool) {
	val, ok := s.values[section][key]
	return val, ok
}

// sectionEntries returns the section's properties sorted by key, for
// deterministic output ordering.
func (s *sourceINI) sectionEntries(name string) []sourceEntry {
	values := s.values[name]
	entries := make([]sourceEntry, 0, len(values))
	for key, val := range values {
		entries = append(entries, sourceEntry{key: key, val: val})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	return entries
}

// sections returns the section name to raw header mapping.
func (s *sourceINI) sections() map[string]string {
	return s.headers
}
