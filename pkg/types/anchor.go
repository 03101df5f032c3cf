package types

import "golang.org/x/net/html"

// Anchor is a transient pointer to where a Fragment currently resolves in
// the live document tree. Valid only while Leaf remains attached; never
// persisted.
type Anchor struct {
	// Leaf is the text-bearing node containing the match.
	Leaf *html.Node

	// OffsetInLeaf is the byte offset of the match within the leaf's text.
	OffsetInLeaf int

	// Length is the byte length of the matched text.
	Length int
}

// Candidate is an unscored leaf found to contain a fragment's text, pending
// resolution. Consumed by the resolver and discarded.
type Candidate struct {
	// Leaf is the text-bearing node containing the fragment text.
	Leaf *html.Node

	// MatchIndex is the byte offset of the first match within the leaf.
	MatchIndex int
}
