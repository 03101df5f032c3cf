// Package nodeindex builds and caches the set of candidate text-bearing
// leaves of the document tree.
package nodeindex

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/anchorlight/anchorlight/internal/cache"
	"github.com/anchorlight/anchorlight/internal/dom"
)

// MinLeafLen is the minimum trimmed text length for a leaf to be indexed.
// Shorter leaves are pure whitespace or separators and never anchor a
// fragment.
const MinLeafLen = 2

// sentinelKey is the single cache key the index lives under. One rebuild
// per validity window regardless of how many fragments are being located.
const sentinelKey = "nodeindex:leaves"

// Index produces the document's text-bearing leaves, cached for the node
// cache's validity window.
type Index struct {
	doc   *dom.Document
	store *cache.Store
}

// New creates an index over doc backed by the given store.
func New(doc *dom.Document, store *cache.Store) *Index {
	return &Index{doc: doc, store: store}
}

// AllLeaves returns the candidate leaves in document order. The full-tree
// traversal is linear in document size and runs at most once per validity
// window; every other call is a cache hit.
func (ix *Index) AllLeaves() []*html.Node {
	if v, ok := ix.store.Get(sentinelKey); ok {
		if leaves, ok := v.([]*html.Node); ok {
			return leaves
		}
	}
	leaves := ix.rebuild()
	ix.store.Put(sentinelKey, leaves)
	return leaves
}

// Invalidate drops the cached leaf list, forcing a rebuild on next use.
// Called after tree mutations that add or remove text leaves.
func (ix *Index) Invalidate() {
	ix.store.Delete(sentinelKey)
}

func (ix *Index) rebuild() []*html.Node {
	all := dom.TextLeaves(ix.doc.Root)
	leaves := make([]*html.Node, 0, len(all))
	for _, n := range all {
		if len(strings.TrimSpace(n.Data)) < MinLeafLen {
			continue
		}
		leaves = append(leaves, n)
	}
	return leaves
}
