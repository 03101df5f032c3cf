package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/anchorlight/anchorlight/internal/dom"
	"github.com/anchorlight/anchorlight/pkg/types"
)

// CaptureSelection builds an immutable Fragment from a live selection
// range: the selected text, up to 250 characters of surrounding context,
// and the range's measured position when the host has layout.
func (e *Engine) CaptureSelection(rng *dom.Range) (types.Fragment, error) {
	if err := rng.Validate(e.doc); err != nil {
		return types.Fragment{}, fmt.Errorf("cannot capture selection: %w", err)
	}

	text := rng.Text()
	if strings.TrimSpace(text) == "" {
		return types.Fragment{}, fmt.Errorf("cannot capture selection: %w", types.ErrRangeInvalid)
	}
	if runes := []rune(text); len(runes) > types.MaxFragmentTextLen {
		text = string(runes[:types.MaxFragmentTextLen])
	}

	frag := types.Fragment{
		ID:          types.NewFragmentID(),
		Text:        text,
		ContextText: contextAround(rng, text),
		CapturedAt:  time.Now(),
	}
	if e.measurer != nil {
		if box, ok := e.measurer.BoundingBox(rng); ok {
			frag.ApproxPosition = &box
		}
	}
	return frag, nil
}

// CaptureAndMark captures the selection and immediately materializes its
// marker, using the still-live range as the fast path.
func (e *Engine) CaptureAndMark(rng *dom.Range) (types.Fragment, types.RestoreResult, error) {
	frag, err := e.CaptureSelection(rng)
	if err != nil {
		return types.Fragment{}, types.RestoreResult{}, err
	}
	res := e.RestoreWithRange(rng, frag)
	return frag, res, nil
}

// CaptureText captures a passage by its text content when no live range is
// available, e.g. when the selection was made in another process. The
// passage is located through the locator and resolver, then captured and
// marked like a live selection.
func (e *Engine) CaptureText(text string) (types.Fragment, types.RestoreResult, error) {
	cands := e.locator.FindCandidates(text)
	best, err := e.resolver.Resolve(cands, types.Fragment{Text: text})
	if err != nil {
		return types.Fragment{}, types.RestoreResult{}, err
	}
	rng := dom.RangeInLeaf(best.Leaf, best.MatchIndex, len(text))
	return e.CaptureAndMark(rng)
}

// contextAround extracts up to MaxContextTextLen characters of text
// surrounding the selection, taken from the selection's nearest enclosing
// element. Falls back to empty when the fragment cannot be found there
// (the fragment text alone still anchors).
func contextAround(rng *dom.Range, text string) string {
	parent := rng.Start.Node.Parent
	if parent == nil {
		return ""
	}
	base := dom.Text(parent)
	idx := strings.Index(base, text)
	if idx < 0 {
		return ""
	}
	margin := (types.MaxContextTextLen - len([]rune(text))) / 2
	if margin <= 0 {
		return ""
	}
	runes := []rune(base)
	// Recompute the match position in runes so multibyte pages slice
	// cleanly.
	runeIdx := len([]rune(base[:idx]))
	lo := runeIdx - margin
	if lo < 0 {
		lo = 0
	}
	hi := runeIdx + len([]rune(text)) + margin
	if hi > len(runes) {
		hi = len(runes)
	}
	return strings.TrimSpace(string(runes[lo:hi]))
}
