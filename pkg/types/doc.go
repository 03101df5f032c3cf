// Package types provides shared type definitions for the Anchorlight engine.
//
// This package defines the domain types used across the anchoring pipeline:
// fragments, anchors, candidates, restore outcomes, and the shared error
// taxonomy.
//
// # Core Types
//
// Fragment is the durable, content-addressed description of a highlighted
// passage. It is the only representation that survives a page reload:
//
//	frag := types.Fragment{
//	    ID:          types.NewFragmentID(),
//	    Text:        "alpha beta",
//	    ContextText: "zero alpha beta gamma",
//	    CapturedAt:  time.Now(),
//	}
//
// Anchor is a transient pointer into the live document tree: a text leaf
// plus an offset and length. Anchors are never persisted; they are recomputed
// from Fragments every time a page is (re)loaded.
//
// Candidate is the intermediate produced by the locator: a leaf found to
// contain a fragment's text, pending resolution to a single best match.
package types
