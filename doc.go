// Package okeep provides small, explicit object-lifetime holders for Go.
//
// This repository collects a handful of opinionated lifetime patterns:
//
//   - singletons: lazily built, built exactly once, torn down exactly once
//     (keep.Singleton / keep.Inline, plus unsynchronized variants)
//   - a process-wide per-type instance registry (keep.Instance)
//   - opaque value holders with unique or shared ownership
//     (keep.Unique / keep.Shared) and pluggable allocation
//   - an inline one-element slot with an explicit live/dead tag
//     (keep.Slot) and a declared-layout contract (keep.NewSized)
//
// The goal is to keep lifetime decisions explicit (who builds, who owns,
// who destroys), avoid hidden global state, and make every misuse either
// a typed error or a typed panic rather than silent corruption.
//
// See subpackages:
//   - keep: the holder library used by the examples / generator
//   - cmd/keepgen: code generator for opaque-holder facades
//   - examples/*: runnable examples for each holder family
package okeep
