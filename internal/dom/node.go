package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Subtrees that never contribute visible text.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// Walk visits n and its subtree in document order. fn returning false stops
// the walk entirely.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	walk(n, fn)
}

func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// TextLeaves returns the text nodes under root in document order, skipping
// subtrees that never render (script, style, head and friends).
func TextLeaves(root *html.Node) []*html.Node {
	var leaves []*html.Node
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			leaves = append(leaves, n)
			return
		case html.ElementNode:
			if skipTags[n.Data] {
				return
			}
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(root)
	return leaves
}

// Attached reports whether n still belongs to the document's tree.
func Attached(doc *Document, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == doc.Root {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content of n's subtree, excluding
// non-rendering subtrees.
func Text(n *html.Node) string {
	var sb strings.Builder
	for _, leaf := range TextLeaves(n) {
		sb.WriteString(leaf.Data)
	}
	return sb.String()
}

// NewElement creates a detached element node.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type: html.ElementNode,
		Data: tag,
		Attr: attrs,
	}
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// GetAttr returns the value of the named attribute.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Detach removes n from its parent. Detaching an already detached node is a
// no-op.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// SplitText splits a text node at the given byte offset and returns the new
// right-hand sibling. When the offset is at the start the node itself is the
// right side; when it is at the end there is no right side. The bool reports
// whether a split actually happened.
func SplitText(n *html.Node, offset int) (*html.Node, bool) {
	if offset <= 0 {
		return n, false
	}
	if offset >= len(n.Data) {
		return nil, false
	}
	right := NewText(n.Data[offset:])
	n.Data = n.Data[:offset]
	if n.Parent != nil {
		n.Parent.InsertBefore(right, n.NextSibling)
	}
	return right, true
}

// Unwrap replaces n with its own children, merging the children back into
// n's parent at n's position. Used to dissolve marker elements.
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	next := n.NextSibling
	for c := n.FirstChild; c != nil; {
		moved := c
		c = c.NextSibling
		n.RemoveChild(moved)
		parent.InsertBefore(moved, next)
	}
	parent.RemoveChild(n)
	mergeAdjacentText(parent)
}

// mergeAdjacentText coalesces neighboring text nodes so repeated wrap and
// unwrap cycles do not fracture leaves indefinitely.
func mergeAdjacentText(parent *html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		if next != nil && c.Type == html.TextNode && next.Type == html.TextNode {
			c.Data += next.Data
			parent.RemoveChild(next)
			continue
		}
		c = next
	}
}
