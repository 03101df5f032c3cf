package marker

import (
	"golang.org/x/net/html"

	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/internal/locator"
	"github.com/anchorlight/anchorlight/internal/nodeindex"
	"github.com/anchorlight/anchorlight/internal/resolver"
	"github.com/anchorlight/anchorlight/pkg/types"
)

// Marker element contract
const (
	Tag = "mark"

	// IDAttr carries the owning fragment's identifier, for later removal
	// and lookup by collaborators such as a list view.
	IDAttr = "data-anchor-id"
)

// Materializer converts anchors or fragments into live marker elements.
type Materializer struct {
	doc      *dom.Document
	locator  *locator.Locator
	resolver *resolver.Resolver
	index    *nodeindex.Index
}

// New creates a materializer over doc.
func New(doc *dom.Document, loc *locator.Locator, res *resolver.Resolver, idx *nodeindex.Index) *Materializer {
	return &Materializer{doc: doc, locator: loc, resolver: res, index: idx}
}

// NewMarker builds a detached marker element owned by the given fragment.
func NewMarker(fragmentID string) *html.Node {
	return dom.NewElement(Tag, html.Attribute{Key: IDAttr, Val: fragmentID})
}

// Materialize places a marker for frag, trying the stored range first and
// falling back to content-based lookup. rng may be nil, which skips
// straight to content lookup. The returned result is a soft outcome; the
// error inside it is informational, never a fault to propagate.
func (m *Materializer) Materialize(rng *dom.Range, frag types.Fragment) types.RestoreResult {
	// State A: replay the stored range in place.
	if rng != nil {
		el := NewMarker(frag.ID)
		if err := rng.SurroundContents(m.doc, el); err == nil {
			m.mutated(frag.Text)
			return types.RestoreResult{FragmentID: frag.ID, Outcome: types.OutcomeReplayed}
		}

		// State B: the range crossed sibling boundaries or partially
		// selected a node. Extract, wrap, reinsert.
		if ext, err := rng.Extract(m.doc); err == nil {
			el = NewMarker(frag.ID)
			ext.ReinsertWrapped(el)
			m.mutated(frag.Text)
			return types.RestoreResult{FragmentID: frag.ID, Outcome: types.OutcomeReinserted}
		}
	}

	// State C: range data is gone or unusable. Find the text again. Cached
	// candidates can reference a leaf an earlier materialization split or a
	// removal merged away, so one failed trial forces a clean rescan before
	// the outcome is declared a failure.
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		cands := m.locator.FindCandidates(frag.Text)
		best, err := m.resolver.Resolve(cands, frag)
		if err != nil {
			lastErr = err
			m.locator.Forget(frag.Text)
			m.index.Invalidate()
			continue
		}
		trial := dom.RangeInLeaf(best.Leaf, best.MatchIndex, len(frag.Text))
		el := NewMarker(frag.ID)
		if err := trial.SurroundContents(m.doc, el); err != nil {
			// The discarded element was never attached; the tree is clean.
			lastErr = err
			m.locator.Forget(frag.Text)
			m.index.Invalidate()
			continue
		}
		m.mutated(frag.Text)
		return types.RestoreResult{FragmentID: frag.ID, Outcome: types.OutcomeRemarked}
	}
	return types.RestoreResult{FragmentID: frag.ID, Outcome: types.OutcomeFailed, Err: lastErr}
}

// mutated drops lookup state invalidated by a successful tree mutation: the
// leaf index, and the candidate list for the text whose leaf was just split.
func (m *Materializer) mutated(text string) {
	m.index.Invalidate()
	m.locator.Forget(text)
}

// FindByID returns the live marker for a fragment, or nil.
func FindByID(doc *dom.Document, fragmentID string) *html.Node {
	var found *html.Node
	dom.Walk(doc.Root, func(n *html.Node) bool {
		if isMarker(n) {
			if id, _ := dom.GetAttr(n, IDAttr); id == fragmentID {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// RemoveByID dissolves every marker owned by the fragment, merging its text
// back into the surrounding leaves. Returns the number removed.
func RemoveByID(doc *dom.Document, fragmentID string) int {
	removed := 0
	for {
		el := FindByID(doc, fragmentID)
		if el == nil {
			break
		}
		dom.Unwrap(el)
		removed++
	}
	return removed
}

// RemoveAll dissolves every marker on the page. Re-render path: all prior
// markers go before any new ones are created.
func RemoveAll(doc *dom.Document) int {
	removed := 0
	for {
		el := firstMarker(doc)
		if el == nil {
			break
		}
		dom.Unwrap(el)
		removed++
	}
	return removed
}

// Text returns the text content a marker wraps.
func Text(el *html.Node) string {
	return dom.Text(el)
}

func isMarker(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != Tag {
		return false
	}
	_, ok := dom.GetAttr(n, IDAttr)
	return ok
}

func firstMarker(doc *dom.Document) *html.Node {
	var found *html.Node
	dom.Walk(doc.Root, func(n *html.Node) bool {
		if isMarker(n) {
			found = n
			return false
		}
		return true
	})
	return found
}
