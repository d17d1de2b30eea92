// Package merge reconciles a target INI file against a canonical source.
//
// The merge is asymmetric: source values win by default, but the
// target's exact formatting is preserved wherever the configured rules
// allow. Rules (Mutations) decide per section and per key whether to
// keep the target's line verbatim, delete the entry, or hand the pair to
// a value transform. Keys present only in the source are appended in
// sorted order; sections present only in the source are appended at the
// end, also sorted, so output is reproducible.
//
// A Mutations value is immutable after Build and may be shared across
// concurrent Merge calls.
package merge
