// Package cache implements the engine's two bounded, time-boxed stores and
// the periodic eviction sweep.
//
// Eviction is two-pass: the sweep first drops every entry past its validity
// window, then, while a store is still over its size bound, removes all
// entries sharing the globally oldest timestamp. Collecting timestamp ties
// in a single pass keeps the policy correct when many entries are written in
// the same tick.
//
// The stores here are deliberately not LRU: the engine's contract is
// oldest-written-first eviction, not least-recently-read. Plain LRU caching
// is used where that policy fits (see internal/summarize).
package cache
