// Package schedule provides the cooperative batch runner and the selection
// debouncer.
//
// The batch runner processes re-anchoring work in small chunks, yielding to
// the host between chunks so the interactive thread never blocks for more
// than a few fragments' worth of work. Chunks run synchronously: tree
// mutations from one item always complete before the next item's lookup
// begins, which keeps the one-marker-per-fragment invariant simple.
//
// The debouncer rate-limits raw selection-change events: a hard 100ms
// throttle, then 150ms of quiescence before the handler runs, coalescing
// rapid keyboard and mouse adjustments into a single downstream call.
package schedule
