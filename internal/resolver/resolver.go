// Package resolver selects the single best leaf from a set of candidates.
//
// Exact node identity does not survive navigation or layout changes, so
// resolution degrades gracefully: exact (single candidate), fuzzy (context
// word overlap), positional (distance to the capture-time bounding box),
// then best guess (first verbatim container, else first candidate).
package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/anchorlight/anchorlight/internal/cache"
	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/pkg/types"
)

// ContextWindow is the number of characters taken on each side of a match
// when scoring context similarity.
const ContextWindow = 50

// Measurer reports the on-screen bounding box of a trial range. A headless
// tree has no layout, so geometry always comes from the host: a browser
// bridge in production, a fake in tests. The bool is false when the range
// cannot be measured (detached, display:none, host unavailable).
type Measurer interface {
	BoundingBox(r *dom.Range) (types.Rect, bool)
}

// Resolver scores candidates against a fragment's capture-time metadata.
// Resolutions are remembered in the derived store as anchors, so repeated
// lookups of an unmoved passage skip the scoring tiers.
type Resolver struct {
	doc      *dom.Document
	measurer Measurer
	derived  *cache.Store
}

// New creates a resolver. measurer may be nil; positional selection is then
// skipped. derived may be nil, which disables anchor caching.
func New(doc *dom.Document, measurer Measurer, derived *cache.Store) *Resolver {
	return &Resolver{doc: doc, measurer: measurer, derived: derived}
}

// Resolve returns the best candidate for the fragment, or ErrTextNotFound
// when candidates is empty. Ties at every tier break toward the earlier
// candidate. Successful resolutions are cached as anchors; a cached anchor
// is reused only while its leaf is still attached and still carries the
// fragment text at the recorded offset.
func (r *Resolver) Resolve(candidates []types.Candidate, frag types.Fragment) (types.Candidate, error) {
	key := anchorKey(frag)
	if cand, ok := r.cachedAnchor(key, frag); ok {
		return cand, nil
	}

	best, err := r.pick(candidates, frag)
	if err != nil {
		return types.Candidate{}, err
	}
	if r.derived != nil {
		r.derived.Put(key, types.Anchor{
			Leaf:         best.Leaf,
			OffsetInLeaf: best.MatchIndex,
			Length:       len(frag.Text),
		})
	}
	return best, nil
}

func (r *Resolver) pick(candidates []types.Candidate, frag types.Fragment) (types.Candidate, error) {
	switch len(candidates) {
	case 0:
		return types.Candidate{}, types.ErrTextNotFound
	case 1:
		return candidates[0], nil
	}

	if frag.ContextText != "" {
		return r.byContext(candidates, frag), nil
	}
	if frag.ApproxPosition != nil && r.measurer != nil {
		if best, ok := r.byPosition(candidates, frag); ok {
			return best, nil
		}
	}
	return r.byContent(candidates, frag), nil
}

// cachedAnchor returns the remembered resolution for the fragment if it is
// still usable. A stale anchor is deleted, never returned.
func (r *Resolver) cachedAnchor(key string, frag types.Fragment) (types.Candidate, bool) {
	if r.derived == nil {
		return types.Candidate{}, false
	}
	v, ok := r.derived.Get(key)
	if !ok {
		return types.Candidate{}, false
	}
	anc, ok := v.(types.Anchor)
	if !ok || !anchorUsable(r.doc, anc, frag.Text) {
		r.derived.Delete(key)
		return types.Candidate{}, false
	}
	return types.Candidate{Leaf: anc.Leaf, MatchIndex: anc.OffsetInLeaf}, true
}

// anchorUsable reports whether the anchor's leaf is still attached and still
// carries text at the recorded offset. Mutations split and merge leaves in
// place, so both checks are required.
func anchorUsable(doc *dom.Document, anc types.Anchor, text string) bool {
	if anc.Leaf == nil || !dom.Attached(doc, anc.Leaf) {
		return false
	}
	end := anc.OffsetInLeaf + len(text)
	if anc.OffsetInLeaf < 0 || end > len(anc.Leaf.Data) {
		return false
	}
	return anc.Leaf.Data[anc.OffsetInLeaf:end] == text
}

// anchorKey fingerprints the capture-time identity a resolution depends on.
func anchorKey(frag types.Fragment) string {
	h := sha256.New()
	h.Write([]byte(frag.Text))
	h.Write([]byte{0})
	h.Write([]byte(frag.ContextText))
	if frag.ApproxPosition != nil {
		fmt.Fprintf(h, "\x00%g,%g", frag.ApproxPosition.Top, frag.ApproxPosition.Left)
	}
	return "anchor:" + hex.EncodeToString(h.Sum(nil))
}

// byContext picks the candidate whose surrounding text best overlaps the
// fragment's capture-time context.
func (r *Resolver) byContext(candidates []types.Candidate, frag types.Fragment) types.Candidate {
	best := candidates[0]
	bestScore := -1.0
	for _, c := range candidates {
		window := contextWindow(c.Leaf.Data, c.MatchIndex, len(frag.Text))
		score := Similarity(frag.ContextText, window)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

// byPosition picks the candidate whose trial range measures closest to the
// capture-time position. Unmeasurable candidates are skipped, never treated
// as distance zero. ok is false when nothing could be measured.
func (r *Resolver) byPosition(candidates []types.Candidate, frag types.Fragment) (types.Candidate, bool) {
	var best types.Candidate
	bestDist := math.Inf(1)
	found := false
	for _, c := range candidates {
		trial := dom.RangeInLeaf(c.Leaf, c.MatchIndex, len(frag.Text))
		box, ok := r.measurer.BoundingBox(trial)
		if !ok {
			continue
		}
		dist := box.DistanceTo(*frag.ApproxPosition)
		if dist < bestDist {
			best = c
			bestDist = dist
			found = true
		}
	}
	return best, found
}

// byContent is the last resort: first candidate whose leaf contains the
// text verbatim, else the first candidate outright.
func (r *Resolver) byContent(candidates []types.Candidate, frag types.Fragment) types.Candidate {
	for _, c := range candidates {
		if strings.Contains(c.Leaf.Data, frag.Text) {
			return c
		}
	}
	return candidates[0]
}

// contextWindow returns up to ContextWindow characters on each side of the
// match span within the leaf's text, including the match itself. matchIdx
// and matchLen are byte positions; the window itself is counted in runes so
// multibyte pages never get a rune split at either edge.
func contextWindow(data string, matchIdx, matchLen int) string {
	if matchIdx < 0 || matchIdx > len(data) {
		return ""
	}
	end := matchIdx + matchLen
	if end > len(data) {
		end = len(data)
	}
	runes := []rune(data)
	runeIdx := len([]rune(data[:matchIdx]))
	runeEnd := len([]rune(data[:end]))
	lo := runeIdx - ContextWindow
	if lo < 0 {
		lo = 0
	}
	hi := runeEnd + ContextWindow
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}

// Similarity scores word overlap between two texts as |A∩B| / max(|A|,|B|)
// over lowercase whitespace tokens. No stemming, no stop words.
func Similarity(a, b string) float64 {
	wordsA := tokenize(a)
	wordsB := tokenize(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}
	shared := 0
	for w := range setA {
		if setB[w] {
			shared++
		}
	}
	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	return float64(shared) / float64(denom)
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
