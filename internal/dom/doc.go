// Package dom models the page as an ordered tree with text leaves, built on
// golang.org/x/net/html, plus the small primitive set the anchoring engine
// needs: surround, extract, and insert.
//
// The tree is the one mutable shared resource in the engine. All primitives
// either complete their mutation or leave the tree untouched; none of them
// leave a half-built state behind.
//
// # Ranges
//
// A Range is a pair of boundary points, each a text leaf plus a byte offset
// into the leaf's data:
//
//	r := dom.RangeInLeaf(leaf, 4, 10)
//	if err := r.Validate(doc); err != nil {
//	    // types.ErrNodeDetached or types.ErrRangeInvalid
//	}
//
// SurroundContents wraps a same-leaf range in place. Ranges that cross
// sibling boundaries cannot be surrounded (mirroring the platform primitive
// this models) and must go through Extract followed by Extraction.Reinsert.
package dom
