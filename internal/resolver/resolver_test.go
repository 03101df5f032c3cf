package resolver

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/anchorlight/anchorlight/internal/cache"
	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/pkg/types"
)

// fakeMeasurer returns a fixed box per leaf, simulating host layout.
type fakeMeasurer struct {
	boxes map[*html.Node]types.Rect
}

func (m *fakeMeasurer) BoundingBox(r *dom.Range) (types.Rect, bool) {
	box, ok := m.boxes[r.Start.Node]
	return box, ok
}

func parseDoc(t *testing.T, body string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString("<html><body>"+body+"</body></html>", "https://example.com/")
	require.NoError(t, err)
	return doc
}

func leafContaining(t *testing.T, doc *dom.Document, s string) *html.Node {
	t.Helper()
	for _, leaf := range dom.TextLeaves(doc.Root) {
		if strings.Contains(leaf.Data, s) {
			return leaf
		}
	}
	t.Fatalf("no leaf contains %q", s)
	return nil
}

func candidateFor(t *testing.T, doc *dom.Document, containing, match string) types.Candidate {
	t.Helper()
	leaf := leafContaining(t, doc, containing)
	idx := strings.Index(leaf.Data, match)
	require.GreaterOrEqual(t, idx, 0)
	return types.Candidate{Leaf: leaf, MatchIndex: idx}
}

func TestResolveNoCandidates(t *testing.T) {
	r := New(parseDoc(t, "<p>x</p>"), nil, nil)
	_, err := r.Resolve(nil, types.Fragment{Text: "missing"})
	assert.ErrorIs(t, err, types.ErrTextNotFound)
}

func TestResolveSingleCandidate(t *testing.T) {
	doc := parseDoc(t, "<p>only alpha here</p>")
	r := New(doc, nil, nil)
	c := candidateFor(t, doc, "alpha", "alpha")

	best, err := r.Resolve([]types.Candidate{c}, types.Fragment{Text: "alpha"})
	require.NoError(t, err)
	assert.Equal(t, c, best)
}

func TestResolveByContext(t *testing.T) {
	doc := parseDoc(t, `
		<p>a quick brown fox jumped over it</p>
		<p>completely unrelated text with fox inside</p>`)
	r := New(doc, nil, nil)

	cands := []types.Candidate{
		candidateFor(t, doc, "unrelated", "fox"),
		candidateFor(t, doc, "jumped", "fox"),
	}
	frag := types.Fragment{Text: "fox", ContextText: "the quick brown fox"}

	best, err := r.Resolve(cands, frag)
	require.NoError(t, err)
	assert.Equal(t, cands[1].Leaf, best.Leaf, "context overlap must pick the quick-brown-fox window")
}

func TestResolveContextTieBreaksToEarlierCandidate(t *testing.T) {
	doc := parseDoc(t, "<p>same words here</p><p>same words here</p>")
	r := New(doc, nil, nil)

	first := candidateFor(t, doc, "same", "words")
	leaves := dom.TextLeaves(doc.Root)
	second := types.Candidate{Leaf: leaves[len(leaves)-1], MatchIndex: strings.Index(leaves[len(leaves)-1].Data, "words")}

	best, err := r.Resolve([]types.Candidate{first, second}, types.Fragment{Text: "words", ContextText: "same words here"})
	require.NoError(t, err)
	assert.Equal(t, first.Leaf, best.Leaf)
}

func TestResolveByPosition(t *testing.T) {
	doc := parseDoc(t, "<p>target text one</p><p>target text two</p>")
	r1 := leafContaining(t, doc, "one")
	r2 := leafContaining(t, doc, "two")

	measurer := &fakeMeasurer{boxes: map[*html.Node]types.Rect{
		r1: {Top: 110, Left: 100}, // 10px away
		r2: {Top: 600, Left: 100}, // 500px away
	}}
	r := New(doc, measurer, nil)

	cands := []types.Candidate{
		{Leaf: r1, MatchIndex: 0},
		{Leaf: r2, MatchIndex: 0},
	}
	frag := types.Fragment{
		Text:           "target text",
		ApproxPosition: &types.Rect{Top: 100, Left: 100},
	}

	best, err := r.Resolve(cands, frag)
	require.NoError(t, err)
	assert.Equal(t, r1, best.Leaf, "nearest measured candidate wins")
}

func TestResolvePositionSkipsUnmeasurable(t *testing.T) {
	doc := parseDoc(t, "<p>target text one</p><p>target text two</p>")
	r1 := leafContaining(t, doc, "one")
	r2 := leafContaining(t, doc, "two")

	// r1 cannot be measured; it must be skipped, not treated as distance 0.
	measurer := &fakeMeasurer{boxes: map[*html.Node]types.Rect{
		r2: {Top: 600, Left: 100},
	}}
	r := New(doc, measurer, nil)

	cands := []types.Candidate{
		{Leaf: r1, MatchIndex: 0},
		{Leaf: r2, MatchIndex: 0},
	}
	frag := types.Fragment{
		Text:           "target text",
		ApproxPosition: &types.Rect{Top: 100, Left: 100},
	}

	best, err := r.Resolve(cands, frag)
	require.NoError(t, err)
	assert.Equal(t, r2, best.Leaf)
}

func TestResolveNothingMeasurableFallsThrough(t *testing.T) {
	doc := parseDoc(t, "<p>target text one</p><p>target text two</p>")
	r1 := leafContaining(t, doc, "one")
	r2 := leafContaining(t, doc, "two")

	r := New(doc, &fakeMeasurer{boxes: nil}, nil)
	cands := []types.Candidate{
		{Leaf: r1, MatchIndex: 0},
		{Leaf: r2, MatchIndex: 0},
	}
	frag := types.Fragment{
		Text:           "target text",
		ApproxPosition: &types.Rect{Top: 100, Left: 100},
	}

	best, err := r.Resolve(cands, frag)
	require.NoError(t, err)
	assert.Equal(t, r1, best.Leaf, "content fallback returns the first verbatim container")
}

func TestResolveByContentLastResort(t *testing.T) {
	doc := parseDoc(t, "<p>alpha beta</p><p>alpha beta</p>")
	leaves := dom.TextLeaves(doc.Root)
	cands := []types.Candidate{
		{Leaf: leaves[0], MatchIndex: 0},
		{Leaf: leaves[1], MatchIndex: 0},
	}
	r := New(doc, nil, nil)

	best, err := r.Resolve(cands, types.Fragment{Text: "alpha beta"})
	require.NoError(t, err)
	assert.Equal(t, leaves[0], best.Leaf)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "alpha beta", "alpha beta", 1.0},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"case insensitive", "Alpha Beta", "alpha beta", 1.0},
		{"empty side", "alpha", "", 0.0},
		{"partial", "the quick brown fox", "a quick brown fox jumped", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestContextWindowClipping(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := contextWindow(long, 100, 10)
	assert.Len(t, got, 10+2*ContextWindow)

	got = contextWindow("short", 0, 5)
	assert.Equal(t, "short", got)
}

func TestContextWindowMultibyte(t *testing.T) {
	// Two-byte runes on both sides of the match. The window counts runes,
	// so both edges must land on rune boundaries and span 50 full runes.
	data := strings.Repeat("é", 60) + "needle" + strings.Repeat("û", 60)
	matchIdx := len(strings.Repeat("é", 60))

	got := contextWindow(data, matchIdx, len("needle"))
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", ContextWindow)+"needle"+strings.Repeat("û", ContextWindow), got)
}

func TestResolveCachesAnchor(t *testing.T) {
	doc := parseDoc(t, `
		<p>a quick brown fox jumped over it</p>
		<p>completely unrelated text with fox inside</p>`)
	derived := cache.NewStore(cache.DerivedSize, cache.DerivedTTL)
	r := New(doc, nil, derived)

	cands := []types.Candidate{
		candidateFor(t, doc, "unrelated", "fox"),
		candidateFor(t, doc, "jumped", "fox"),
	}
	frag := types.Fragment{Text: "fox", ContextText: "the quick brown fox"}

	best, err := r.Resolve(cands, frag)
	require.NoError(t, err)
	assert.Equal(t, 1, derived.Len(), "resolution must be remembered")

	// A second lookup returns the remembered anchor without rescoring, even
	// when the candidate list would rank differently.
	reordered := []types.Candidate{cands[0]}
	again, err := r.Resolve(reordered, frag)
	require.NoError(t, err)
	assert.Equal(t, best.Leaf, again.Leaf)
	assert.Equal(t, best.MatchIndex, again.MatchIndex)
}

func TestResolveDropsStaleAnchor(t *testing.T) {
	doc := parseDoc(t, "<p>alpha beta</p><p>alpha beta</p>")
	derived := cache.NewStore(cache.DerivedSize, cache.DerivedTTL)
	r := New(doc, nil, derived)

	leaves := dom.TextLeaves(doc.Root)
	cands := []types.Candidate{
		{Leaf: leaves[0], MatchIndex: 0},
		{Leaf: leaves[1], MatchIndex: 0},
	}
	frag := types.Fragment{Text: "alpha beta"}

	best, err := r.Resolve(cands, frag)
	require.NoError(t, err)
	assert.Equal(t, leaves[0], best.Leaf)

	// The anchored leaf goes away; the cached resolution must not be
	// returned detached.
	dom.Detach(leaves[0])
	best, err = r.Resolve([]types.Candidate{{Leaf: leaves[1], MatchIndex: 0}}, frag)
	require.NoError(t, err)
	assert.Equal(t, leaves[1], best.Leaf)
}

func TestResolveAnchorRejectsTruncatedLeaf(t *testing.T) {
	doc := parseDoc(t, "<p>alpha beta gamma</p>")
	derived := cache.NewStore(cache.DerivedSize, cache.DerivedTTL)
	r := New(doc, nil, derived)

	leaf := leafContaining(t, doc, "gamma")
	idx := strings.Index(leaf.Data, "gamma")
	frag := types.Fragment{Text: "gamma"}

	_, err := r.Resolve([]types.Candidate{{Leaf: leaf, MatchIndex: idx}}, frag)
	require.NoError(t, err)

	// The leaf is split in place; the recorded offset now runs past its
	// end. The anchor must be discarded in favor of the fresh candidate.
	right, ok := dom.SplitText(leaf, 6)
	require.True(t, ok)
	ridx := strings.Index(right.Data, "gamma")

	best, err := r.Resolve([]types.Candidate{{Leaf: right, MatchIndex: ridx}}, frag)
	require.NoError(t, err)
	assert.Equal(t, right, best.Leaf)
	assert.Equal(t, ridx, best.MatchIndex)
}
