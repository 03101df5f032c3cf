package engine

import (
	"context"

	"github.com/anchorlight/anchorlight/internal/cache"
	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/internal/locator"
	"github.com/anchorlight/anchorlight/internal/marker"
	"github.com/anchorlight/anchorlight/internal/nodeindex"
	"github.com/anchorlight/anchorlight/internal/resolver"
	"github.com/anchorlight/anchorlight/internal/schedule"
	"github.com/anchorlight/anchorlight/pkg/types"
)

// Engine is the page-scoped anchoring pipeline. Not safe for concurrent
// use: one logical flow drives it at a time.
type Engine struct {
	doc      *dom.Document
	measurer resolver.Measurer

	caches    *cache.Manager
	index     *nodeindex.Index
	locator   *locator.Locator
	resolver  *resolver.Resolver
	mat       *marker.Materializer
	batch     *schedule.Batch
	selection *schedule.Debouncer

	// DeepLinkAttempts bounds deep-link polling. See deeplink.go.
	DeepLinkAttempts int
}

// New creates an engine over doc. measurer may be nil when the host has no
// layout; positional resolution and capture-time positions are then skipped.
func New(doc *dom.Document, measurer resolver.Measurer) *Engine {
	e := &Engine{
		doc:              doc,
		measurer:         measurer,
		caches:           cache.NewManager(),
		batch:            schedule.NewBatch(),
		DeepLinkAttempts: DefaultDeepLinkAttempts,
	}
	e.rewire()
	return e
}

// rewire rebuilds the per-document components against e.doc.
func (e *Engine) rewire() {
	e.index = nodeindex.New(e.doc, e.caches.Nodes)
	e.locator = locator.New(e.doc, e.index, e.caches.Nodes)
	e.resolver = resolver.New(e.doc, e.measurer, e.caches.Derived)
	e.mat = marker.New(e.doc, e.locator, e.resolver, e.index)
}

// Document returns the engine's current document.
func (e *Engine) Document() *dom.Document {
	return e.doc
}

// Caches exposes the cache manager, mainly so hosts can start the periodic
// sweep or drive it cooperatively.
func (e *Engine) Caches() *cache.Manager {
	return e.caches
}

// Reset points the engine at a new document after navigation. All cache
// contents are discarded wholesale: cached leaves reference the old tree.
func (e *Engine) Reset(doc *dom.Document) {
	e.doc = doc
	e.caches.Reset()
	e.rewire()
}

// Restore re-anchors one fragment by content, removing any prior marker for
// its identifier first so the one-marker-per-fragment invariant holds.
func (e *Engine) Restore(frag types.Fragment) types.RestoreResult {
	marker.RemoveByID(e.doc, frag.ID)
	return e.mat.Materialize(nil, frag)
}

// RestoreWithRange is Restore with a stored live range as the fast path.
func (e *Engine) RestoreWithRange(rng *dom.Range, frag types.Fragment) types.RestoreResult {
	marker.RemoveByID(e.doc, frag.ID)
	return e.mat.Materialize(rng, frag)
}

// RestoreAll re-renders every fragment belonging to the page: all prior
// markers are removed, then fragments are materialized in chunks of five
// with a yield between chunks so hundreds of fragments never freeze the
// interactive thread. A cancelled context stops between chunks; results for
// unprocessed fragments keep their zero value.
func (e *Engine) RestoreAll(ctx context.Context, frags []types.Fragment) ([]types.RestoreResult, error) {
	marker.RemoveAll(e.doc)
	e.index.Invalidate()

	results := make([]types.RestoreResult, len(frags))
	err := e.batch.Run(ctx, len(frags), func(i int) {
		results[i] = e.mat.Materialize(nil, frags[i])
	})
	return results, err
}

// SetSelectionHandler installs the debounced downstream handler for raw
// selection-change events. Replacing the handler cancels any pending
// invocation of the old one.
func (e *Engine) SetSelectionHandler(fn func()) {
	if e.selection != nil {
		e.selection.Cancel()
	}
	e.selection = schedule.NewDebouncer(fn, 0, 0)
}

// HandleSelectionChange feeds one raw selection-change event through the
// debouncer. No-op until a handler is installed.
func (e *Engine) HandleSelectionChange() {
	if e.selection != nil {
		e.selection.Trigger()
	}
}
