package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/anchorlight/anchorlight/pkg/types"
)

// ErrCrossBoundary is returned by SurroundContents when the range spans more
// than one leaf and cannot be wrapped in place.
var ErrCrossBoundary = errors.New("range crosses node boundaries")

// Boundary is one endpoint of a Range: a text leaf and a byte offset into
// its data.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// Range is a pair of boundary points over the document tree. Start must not
// come after End in document order.
type Range struct {
	Start Boundary
	End   Boundary
}

// NewRange builds a range from explicit endpoints.
func NewRange(startNode *html.Node, startOffset int, endNode *html.Node, endOffset int) *Range {
	return &Range{
		Start: Boundary{Node: startNode, Offset: startOffset},
		End:   Boundary{Node: endNode, Offset: endOffset},
	}
}

// RangeInLeaf builds a range covering length bytes of a single leaf starting
// at offset.
func RangeInLeaf(leaf *html.Node, offset, length int) *Range {
	return NewRange(leaf, offset, leaf, offset+length)
}

// Collapsed reports whether the range selects no content.
func (r *Range) Collapsed() bool {
	return r.Start.Node == r.End.Node && r.Start.Offset == r.End.Offset
}

// Validate checks structural validity against the current tree: both
// endpoints are attached text leaves, offsets are in bounds, the range is
// not collapsed, and start does not come after end.
func (r *Range) Validate(doc *Document) error {
	for _, b := range []Boundary{r.Start, r.End} {
		if b.Node == nil || b.Node.Type != html.TextNode {
			return fmt.Errorf("%w: endpoint is not a text leaf", types.ErrRangeInvalid)
		}
		if !Attached(doc, b.Node) {
			return types.ErrNodeDetached
		}
		if b.Offset < 0 || b.Offset > len(b.Node.Data) {
			return fmt.Errorf("%w: offset %d out of bounds", types.ErrRangeInvalid, b.Offset)
		}
	}
	if r.Collapsed() {
		return fmt.Errorf("%w: collapsed", types.ErrRangeInvalid)
	}
	if r.Start.Node == r.End.Node {
		if r.Start.Offset > r.End.Offset {
			return fmt.Errorf("%w: start after end", types.ErrRangeInvalid)
		}
		return nil
	}
	if !precedes(doc.Root, r.Start.Node, r.End.Node) {
		return fmt.Errorf("%w: start after end", types.ErrRangeInvalid)
	}
	return nil
}

// precedes reports whether a comes before b in document order under root.
func precedes(root, a, b *html.Node) bool {
	result := false
	Walk(root, func(n *html.Node) bool {
		switch n {
		case a:
			result = true
			return false
		case b:
			result = false
			return false
		}
		return true
	})
	return result
}

// Text returns the text content the range selects.
func (r *Range) Text() string {
	if r.Start.Node == r.End.Node {
		data := r.Start.Node.Data
		lo, hi := clampOffsets(r.Start.Offset, r.End.Offset, len(data))
		return data[lo:hi]
	}
	var sb strings.Builder
	inRange := false
	Walk(rootOf(r.Start.Node), func(n *html.Node) bool {
		switch n {
		case r.Start.Node:
			inRange = true
			sb.WriteString(n.Data[min(r.Start.Offset, len(n.Data)):])
			return true
		case r.End.Node:
			sb.WriteString(n.Data[:min(r.End.Offset, len(n.Data))])
			return false
		}
		if inRange && n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		return true
	})
	return sb.String()
}

func clampOffsets(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

func rootOf(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// SurroundContents wraps the range's content in the given element, in
// place. Only same-leaf ranges can be surrounded; anything wider returns
// ErrCrossBoundary and leaves the tree untouched.
func (r *Range) SurroundContents(doc *Document, wrapper *html.Node) error {
	if err := r.Validate(doc); err != nil {
		return err
	}
	if r.Start.Node != r.End.Node {
		return ErrCrossBoundary
	}
	leaf := r.Start.Node
	parent := leaf.Parent
	if parent == nil {
		return types.ErrNodeDetached
	}

	// Split off the tail first so the head split does not shift offsets.
	SplitText(leaf, r.End.Offset)
	mid, split := SplitText(leaf, r.Start.Offset)
	if !split {
		mid = leaf
	}

	parent.InsertBefore(wrapper, mid)
	parent.RemoveChild(mid)
	wrapper.AppendChild(mid)
	return nil
}

// Extraction holds content lifted out of the tree by Extract, plus the
// position it came from so a replacement can be reinserted exactly there.
type Extraction struct {
	Nodes  []*html.Node
	parent *html.Node
	before *html.Node
}

// Extract removes the range's content from the tree and returns it as a
// detached node list. Supported shape: both endpoints are text leaves whose
// parents are the same element, with any number of siblings in between.
// Wider ranges return ErrCrossBoundary without mutating the tree.
func (r *Range) Extract(doc *Document) (*Extraction, error) {
	if err := r.Validate(doc); err != nil {
		return nil, err
	}
	startLeaf, endLeaf := r.Start.Node, r.End.Node
	if startLeaf == endLeaf {
		// Same-leaf extraction: split out the middle.
		SplitText(startLeaf, r.End.Offset)
		mid, split := SplitText(startLeaf, r.Start.Offset)
		if !split {
			mid = startLeaf
		}
		parent := mid.Parent
		before := mid.NextSibling
		parent.RemoveChild(mid)
		return &Extraction{Nodes: []*html.Node{mid}, parent: parent, before: before}, nil
	}
	if startLeaf.Parent == nil || startLeaf.Parent != endLeaf.Parent {
		return nil, ErrCrossBoundary
	}
	parent := startLeaf.Parent

	first, split := SplitText(startLeaf, r.Start.Offset)
	if !split {
		first = startLeaf
		if r.Start.Offset >= len(startLeaf.Data) {
			// Start boundary sits at the leaf's end: the content begins
			// with the following sibling.
			first = startLeaf.NextSibling
		}
	}
	SplitText(endLeaf, r.End.Offset)
	last := endLeaf

	var nodes []*html.Node
	for n := first; n != nil; {
		next := n.NextSibling
		nodes = append(nodes, n)
		if n == last {
			break
		}
		n = next
	}
	before := last.NextSibling
	for _, n := range nodes {
		parent.RemoveChild(n)
	}
	return &Extraction{Nodes: nodes, parent: parent, before: before}, nil
}

// ReinsertWrapped places the extracted content back at its original
// position, nested inside the given wrapper element.
func (e *Extraction) ReinsertWrapped(wrapper *html.Node) {
	for _, n := range e.Nodes {
		wrapper.AppendChild(n)
	}
	e.parent.InsertBefore(wrapper, e.before)
}
