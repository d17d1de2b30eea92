// Package actions implements the rule matching engine shared by the
// merge and filter engines.
//
// A Set maps section names and (section, key) pairs to caller-defined
// action values. Both levels accept exact literals and regular
// expressions. Lookup precedence is fixed:
//
//  1. A section-level action short-circuits every key in that section.
//  2. Among key rules, a literal (section, key) match wins over regex.
//  3. Among regex rules, the first registered match wins. If more than
//     one regex matches the same entry a warning is logged, since the
//     overlap is usually unintentional; WarnOnMultipleMatches(false)
//     suppresses it.
//
// Key rules are matched against the compound string `section\x00key`.
// The NUL separator cannot occur in a legitimate section or key name,
// which lets a single regex constrain section and key at once. Regexes
// are unanchored, matching the usual search semantics of rule languages
// built on them.
//
// A Set is immutable after Build and safe for concurrent lookups.
package actions
