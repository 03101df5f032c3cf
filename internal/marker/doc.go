// Package marker materializes anchors into visual marker elements.
//
// Materialization is a state machine with ordered fallback transitions:
//
//	State A  replay the stored range and surround it in place
//	State B  extract the range's contents and reinsert them wrapped,
//	         for ranges that cross sibling boundaries
//	State C  discard range data and remark by content lookup through
//	         the locator and resolver
//	Terminal soft failure; no partial marker is left behind
//
// A stored range that is structurally invalid (detached endpoint, collapsed,
// inverted) moves to the next state automatically; nothing in this package
// panics outward.
//
// Markers are <mark> elements tagged with data-anchor-id referencing the
// owning fragment. At most one live marker exists per fragment identifier:
// callers remove the prior marker for an identifier before materializing it
// again, and re-rendering a page removes every marker first. Markers are
// always discarded and recreated, never mutated in place.
package marker
