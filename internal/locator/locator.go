// Package locator finds the leaves of the current document that contain a
// fragment's text.
//
// Two scan paths exist. Fragments shorter than three characters are common
// and unselective, so they bypass the node index and walk leaves directly,
// capped at ten matches. Longer fragments are rarer and more selective: they
// scan the shared node index and stop at five matches. Either way the
// per-(text, page) result is cached for the node cache's validity window, so
// repeated lookups on the same page skip the scan entirely.
package locator

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/anchorlight/anchorlight/internal/cache"
	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/internal/nodeindex"
	"github.com/anchorlight/anchorlight/pkg/types"
)

// Match caps per scan path
const (
	ShortFragmentLen = 3  // fragments below this length use the direct path
	ShortMatchCap    = 10 // direct path stops after this many candidates
	IndexedMatchCap  = 5  // indexed path stops after this many candidates
)

// Locator resolves fragment text to candidate leaves.
type Locator struct {
	doc   *dom.Document
	index *nodeindex.Index
	store *cache.Store
}

// New creates a locator over doc, sharing the node index and cache store.
func New(doc *dom.Document, index *nodeindex.Index, store *cache.Store) *Locator {
	return &Locator{doc: doc, index: index, store: store}
}

// FindCandidates returns the leaves containing text, in document order,
// capped per the scan path. An empty result is not an error; callers decide
// whether absence is terminal.
func (l *Locator) FindCandidates(text string) []types.Candidate {
	if text == "" {
		return nil
	}
	key := candidateKey(text, l.doc.URL)
	if v, ok := l.store.Get(key); ok {
		if cands, ok := v.([]types.Candidate); ok {
			return cands
		}
	}

	var cands []types.Candidate
	if len([]rune(text)) < ShortFragmentLen {
		cands = l.scanDirect(text, ShortMatchCap)
	} else {
		cands = l.scanIndexed(text, IndexedMatchCap)
	}
	l.store.Put(key, cands)
	return cands
}

// Forget drops the cached candidate list for text on this page. Used when
// a lookup must re-scan before the validity window lapses, e.g. while a
// deep link polls for asynchronously rendered content.
func (l *Locator) Forget(text string) {
	l.store.Delete(candidateKey(text, l.doc.URL))
}

// scanDirect walks the tree's leaves without consulting the index, skipping
// leaves shorter than the fragment.
func (l *Locator) scanDirect(text string, limit int) []types.Candidate {
	var cands []types.Candidate
	for _, leaf := range dom.TextLeaves(l.doc.Root) {
		if len(leaf.Data) < len(text) {
			continue
		}
		if idx := strings.Index(leaf.Data, text); idx >= 0 {
			cands = append(cands, types.Candidate{Leaf: leaf, MatchIndex: idx})
			if len(cands) >= limit {
				break
			}
		}
	}
	return cands
}

// scanIndexed scans the shared node index, which amortizes the tree
// traversal across every fragment located on this page.
func (l *Locator) scanIndexed(text string, limit int) []types.Candidate {
	var cands []types.Candidate
	for _, leaf := range l.index.AllLeaves() {
		if idx := strings.Index(leaf.Data, text); idx >= 0 {
			cands = append(cands, types.Candidate{Leaf: leaf, MatchIndex: idx})
			if len(cands) >= limit {
				break
			}
		}
	}
	return cands
}

// candidateKey fingerprints a (text, page) lookup. Hashing keeps keys a
// fixed size regardless of fragment length.
func candidateKey(text, pageURL string) string {
	h := sha256.Sum256([]byte(pageURL + "\x00" + text))
	return "candidates:" + hex.EncodeToString(h[:])
}
