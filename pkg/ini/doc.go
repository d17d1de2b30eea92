// Package ini provides a line-oriented, formatting-preserving tokenizer
// for INI style files.
//
// Unlike most INI parsers, this one never reshapes the input: every line
// is returned as a typed Item that always carries the verbatim original
// text in Raw. Consumers that want to preserve a file's exact formatting
// re-emit Raw unchanged for any line they do not explicitly rewrite.
//
// # Line classification
//
//   - `[name]` is a section header. The name spans from the first `[` to
//     the last `]`, so the degenerate `[a][b]` seen in the wild yields the
//     name `a][b` rather than a parse error.
//   - `key=value` is a property; key and value are whitespace-trimmed. A
//     bare `key` with no `=` is a property without a value, which is
//     distinct from `key=` (empty value).
//   - Lines starting with `;` or `#` are comments.
//   - Whitespace-only lines are blank.
//   - Anything else (currently only an unterminated `[`) is an Error
//     item. Error items are data, not failures: callers decide whether to
//     pass them through or reject the file.
//
// The tokenizer performs no semantic validation. Duplicate keys, empty
// section names and similar oddities are all faithfully reported.
package ini
