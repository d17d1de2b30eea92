package ini

import (
	"bufio"
	"io"
	"strings"
)

// NoSection identifies content appearing before the first section header.
// A named sentinel rather than the empty string so that rules can match
// it, including by regex.
const NoSection = "<NO_SECTION>"

// Kind discriminates the variants of Item.
type Kind int

const (
	// KindSection is a `[name]` header line.
	KindSection Kind = iota
	// KindSectionEnd marks the end of a section. It is synthesized by
	// Parse (no input line corresponds to it) and carries no Raw text.
	KindSectionEnd
	// KindProperty is a `key=value` line, or a bare key without a value.
	KindProperty
	// KindComment is a `;` or `#` comment line.
	KindComment
	// KindBlank is a whitespace-only line.
	KindBlank
	// KindError is a line the tokenizer could not classify.
	KindError
)

// Item is one tokenized physical line. Raw is always the verbatim line
// content (without its line terminator), even when a structured name or
// key/value was extracted. Items are never mutated after Parse returns.
type Item struct {
	Kind Kind

	// Name is the section name. Set for KindSection only.
	Name string

	// Key and Val are the trimmed key and value of a property line.
	// HasVal distinguishes `key` (false) from `key=` (true, empty Val).
	// Set for KindProperty only.
	Key    string
	Val    string
	HasVal bool

	// Raw is the original line, byte for byte.
	Raw string
}

// Property is a read-only view of a key resolved within its section, as
// handed to value transforms. It is constructed on demand and never
// stored.
type Property struct {
	Section string
	Key     string
	Val     string
	HasVal  bool
	Raw     string
}

// PropertyFromItem builds a Property view from a tokenized line. Returns
// nil if the item is not a property line.
func PropertyFromItem(section string, item Item) *Property {
	if item.Kind != KindProperty {
		return nil
	}
	return &Property{
		Section: section,
		Key:     item.Key,
		Val:     item.Val,
		HasVal:  item.HasVal,
		Raw:     item.Raw,
	}
}

// Parse tokenizes an entire input into a fully materialized slice of
// items, one per physical line, with KindSectionEnd markers inserted
// before each new section header and at end of input. It fails only on
// read errors; malformed lines are reported as KindError items instead.
func Parse(r io.Reader) ([]Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var items []Item
	inSection := false
	for scanner.Scan() {
		item := lexLine(scanner.Text())
		if item.Kind == KindSection {
			if inSection {
				items = append(items, Item{Kind: KindSectionEnd})
			}
			inSection = true
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inSection {
		items = append(items, Item{Kind: KindSectionEnd})
	}
	return items, nil
}

func lexLine(raw string) Item {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return Item{Kind: KindBlank, Raw: raw}
	case trimmed[0] == ';' || trimmed[0] == '#':
		return Item{Kind: KindComment, Raw: raw}
	case trimmed[0] == '[':
		end := strings.LastIndexByte(trimmed, ']')
		if end < 0 {
			return Item{Kind: KindError, Raw: raw}
		}
		return Item{Kind: KindSection, Name: trimmed[1:end], Raw: raw}
	default:
		if eq := strings.IndexByte(trimmed, '='); eq >= 0 {
			return Item{
				Kind:   KindProperty,
				Key:    strings.TrimSpace(trimmed[:eq]),
				Val:    strings.TrimSpace(trimmed[eq+1:]),
				HasVal: true,
				Raw:    raw,
			}
		}
		return Item{Kind: KindProperty, Key: trimmed, Raw: raw}
	}
}
