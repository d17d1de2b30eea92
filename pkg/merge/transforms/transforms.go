// Package transforms implements the value transforms that merge rules
// can attach to individual keys.
//
// The set of transforms is closed and curated: a rule language entry
// names one of the transforms below, it is not a plugin host. Each
// transform decides the final emitted line for a key from the source
// and target views of that property.
package transforms

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/inimerge/pkg/errors"
	"github.com/arthur-debert/inimerge/pkg/ini"
	"github.com/arthur-debert/inimerge/pkg/logging"
	"github.com/arthur-debert/inimerge/pkg/secrets"
)

// Outcome is what a transform decides for one line. The zero value
// suppresses the line.
type Outcome struct {
	// Line is the exact text to emit when Emit is true.
	Line string
	Emit bool
}

// EmitLine returns an outcome emitting exactly text.
func EmitLine(text string) Outcome {
	return Outcome{Line: text, Emit: true}
}

// Nothing returns an outcome suppressing the line.
func Nothing() Outcome {
	return Outcome{}
}

// Transformer decides the final emitted line for a key. When invoked by
// the engines at least one of src and tgt is non-nil; both nil is a
// caller contract violation.
type Transformer interface {
	// Name identifies the transformer in diagnostics and rule files.
	Name() string
	// Apply inspects the source and target views of the same property
	// (either may be nil) and decides the output line.
	Apply(src, tgt *ini.Property) (Outcome, error)
}

// New constructs a transformer by name from a string-keyed argument bag,
// as rule files provide them. The set transform is deliberately absent:
// it needs forced-key bookkeeping and is only reachable through the
// mutations builder's AddSetter.
func New(name string, args map[string]string) (Transformer, error) {
	switch name {
	case "unsorted-list":
		sep, ok := args["separator"]
		if !ok {
			return nil, errors.Newf(errors.ErrTransformConstruct,
				"transform %q: missing argument %q", name, "separator")
		}
		runes := []rune(sep)
		if len(runes) != 1 {
			return nil, errors.Newf(errors.ErrTransformConstruct,
				"transform %q: separator must be a single character, got %q", name, sep)
		}
		return NewUnsortedList(runes[0]), nil
	case "kde-shortcut":
		if len(args) != 0 {
			return nil, errors.Newf(errors.ErrTransformConstruct,
				"transform %q: unexpected arguments", name)
		}
		return KDEShortcut{}, nil
	case "keyring":
		service, ok := args["service"]
		if !ok {
			return nil, errors.Newf(errors.ErrTransformConstruct,
				"transform %q: missing argument %q", name, "service")
		}
		user, ok := args["user"]
		if !ok {
			return nil, errors.Newf(errors.ErrTransformConstruct,
				"transform %q: missing argument %q", name, "user")
		}
		separator := args["separator"]
		if separator == "" {
			separator = "="
		}
		return NewKeyring(service, user, separator, secrets.SystemStore{}), nil
	default:
		return nil, errors.Newf(errors.ErrTransformConstruct,
			"unknown transform %q", name)
	}
}

// UnsortedList compares a value as an unsorted list. Useful for programs
// that like to reorder list-valued entries on every save: if source and
// target hold the same elements the target line is kept, minimizing
// diff noise.
type UnsortedList struct {
	separator string
}

// NewUnsortedList creates the transform with the given list separator.
func NewUnsortedList(separator rune) *UnsortedList {
	return &UnsortedList{separator: string(separator)}
}

func (t *UnsortedList) Name() string { return "unsorted-list" }

func (t *UnsortedList) Apply(src, tgt *ini.Property) (Outcome, error) {
	switch {
	case src == nil && tgt == nil:
		return Nothing(), errors.New(errors.ErrTransformInvalid,
			"invoked without source or target property")
	case src == nil:
		// Nothing to compare against: keep the present side.
		return EmitLine(tgt.Raw), nil
	case tgt == nil:
		return EmitLine(src.Raw), nil
	}

	if !src.HasVal {
		return Nothing(), errors.New(errors.ErrTransformInvalid,
			"key is missing value in source")
	}
	if !tgt.HasVal {
		return Nothing(), errors.New(errors.ErrTransformInvalid,
			"key is missing value in target")
	}

	if elementSet(src.Val, t.separator).equal(elementSet(tgt.Val, t.separator)) {
		// Same elements, different order: keep the target line.
		return EmitLine(tgt.Raw), nil
	}
	return EmitLine(src.Raw), nil
}

type stringSet map[string]struct{}

func elementSet(val, separator string) stringSet {
	set := make(stringSet)
	for _, elem := range strings.Split(val, separator) {
		set[elem] = struct{}{}
	}
	return set
}

func (s stringSet) equal(other stringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for elem := range s {
		if _, ok := other[elem]; !ok {
			return false
		}
	}
	return true
}

// KDEShortcut handles KDE rewriting global shortcut entries back and
// forth between two spellings of "unbound":
//
//	playmedia=none,,Play media playback
//	playmedia=none,none,Play media playback
//
// When both sides differ only in that middle field the target line is
// kept.
type KDEShortcut struct{}

func (KDEShortcut) Name() string { return "kde-shortcut" }

func (KDEShortcut) Apply(src, tgt *ini.Property) (Outcome, error) {
	switch {
	case src == nil && tgt == nil:
		return Nothing(), errors.New(errors.ErrTransformInvalid,
			"invoked without source or target property")
	case src == nil:
		// Nothing to compare against: keep the present side.
		return EmitLine(tgt.Raw), nil
	case tgt == nil:
		return EmitLine(src.Raw), nil
	}

	if !src.HasVal {
		return Nothing(), errors.New(errors.ErrTransformInvalid,
			"key is missing value in source")
	}
	if !tgt.HasVal {
		return Nothing(), errors.New(errors.ErrTransformInvalid,
			"key is missing value in target")
	}

	srcFields := strings.Split(src.Val, ",")
	tgtFields := strings.Split(tgt.Val, ",")
	if len(srcFields) == 3 && len(tgtFields) == 3 &&
		srcFields[0] == tgtFields[0] &&
		srcFields[2] == tgtFields[2] &&
		isNoneSpelling(srcFields[1]) && isNoneSpelling(tgtFields[1]) {
		return EmitLine(tgt.Raw), nil
	}
	return EmitLine(src.Raw), nil
}

func isNoneSpelling(field string) bool {
	return field == "" || field == "none"
}

// SetValue ignores both inputs and always emits a pre-baked line. It
// backs the setter feature: the mutations builder pairs it with a
// forced-key entry so the line appears even when both files lack it.
type SetValue struct {
	raw string
}

// NewSetValue creates the transform emitting exactly raw.
func NewSetValue(raw string) *SetValue {
	return &SetValue{raw: raw}
}

func (t *SetValue) Name() string { return "set" }

func (t *SetValue) Apply(src, tgt *ini.Property) (Outcome, error) {
	return EmitLine(t.raw), nil
}

// Keyring emits `key<separator><secret>` with the secret fetched from a
// secret store. Lookup failures are never fatal: the target's existing
// line is kept if there is one, else a placeholder is emitted, so a
// locked keyring degrades a single line rather than aborting the run.
type Keyring struct {
	service   string
	user      string
	separator string
	store     secrets.Store
	logger    zerolog.Logger
}

// NewKeyring creates the transform querying store for (service, user).
func NewKeyring(service, user, separator string, store secrets.Store) *Keyring {
	return &Keyring{
		service:   service,
		user:      user,
		separator: separator,
		store:     store,
		logger:    logging.GetLogger("transforms.keyring"),
	}
}

func (t *Keyring) Name() string { return "keyring" }

func (t *Keyring) Apply(src, tgt *ini.Property) (Outcome, error) {
	var key string
	switch {
	case src != nil:
		key = src.Key
	case tgt != nil:
		key = tgt.Key
	default:
		return Nothing(), errors.New(errors.ErrTransformInvalid,
			"invoked without source or target property")
	}

	secret, err := t.store.Lookup(t.service, t.user)
	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("service", t.service).
			Str("user", t.user).
			Msg("Secret lookup failed, degrading to existing line")
		// Keeping the target line helps when updating remotely with the
		// keyring locked.
		if tgt != nil {
			return EmitLine(tgt.Raw), nil
		}
		return EmitLine(key + t.separator + "<KEYRING ERROR>"), nil
	}
	return EmitLine(key + t.separator + secret), nil
}
