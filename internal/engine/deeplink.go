package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/anchorlight/anchorlight/pkg/types"
)

// Deep-link addressing format: a page-relative fragment identifier of the
// form highlight=<url-encoded text>&pos=<url-encoded JSON rect>.
const (
	DeepLinkTextParam = "highlight"
	DeepLinkPosParam  = "pos"

	// DeepLinkRetryInterval is how often an unresolved deep link re-polls
	// the document, to accommodate asynchronously rendered content.
	DeepLinkRetryInterval = 500 * time.Millisecond

	// DefaultDeepLinkAttempts bounds the polling (10s worst case).
	DefaultDeepLinkAttempts = 20
)

// DeepLink encodes a fragment's text and approximate position as a
// page-relative identifier suitable for a URL fragment.
func DeepLink(frag types.Fragment) (string, error) {
	v := url.Values{}
	v.Set(DeepLinkTextParam, frag.Text)
	if frag.ApproxPosition != nil {
		pos, err := json.Marshal(frag.ApproxPosition)
		if err != nil {
			return "", fmt.Errorf("failed to encode deep link position: %w", err)
		}
		v.Set(DeepLinkPosParam, string(pos))
	}
	return v.Encode(), nil
}

// ParseDeepLink decodes a deep-link identifier into its target text and
// optional approximate position.
func ParseDeepLink(raw string) (string, *types.Rect, error) {
	v, err := url.ParseQuery(raw)
	if err != nil {
		return "", nil, fmt.Errorf("malformed deep link: %w", err)
	}
	text := v.Get(DeepLinkTextParam)
	if text == "" {
		return "", nil, fmt.Errorf("malformed deep link: missing %s", DeepLinkTextParam)
	}
	var pos *types.Rect
	if raw := v.Get(DeepLinkPosParam); raw != "" {
		var r types.Rect
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return "", nil, fmt.Errorf("malformed deep link position: %w", err)
		}
		pos = &r
	}
	return text, pos, nil
}

// ResolveDeepLink locates and marks the deep link's target text, retrying
// every 500ms up to the engine's attempt bound so content rendered after
// page load can still be found. Returns the last attempt's result when the
// bound is exhausted.
func (e *Engine) ResolveDeepLink(ctx context.Context, raw string) (types.RestoreResult, error) {
	text, pos, err := ParseDeepLink(raw)
	if err != nil {
		return types.RestoreResult{Outcome: types.OutcomeFailed, Err: err}, err
	}

	frag := types.Fragment{
		ID:             "deeplink:" + text,
		Text:           text,
		ApproxPosition: pos,
		CapturedAt:     time.Now(),
	}

	attempts := e.DeepLinkAttempts
	if attempts <= 0 {
		attempts = DefaultDeepLinkAttempts
	}

	var res types.RestoreResult
	for i := 0; i < attempts; i++ {
		if i > 0 {
			// A fresh scan each attempt: the previous miss is cached and
			// the tree may have grown since.
			e.locator.Forget(frag.Text)
			e.index.Invalidate()
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(DeepLinkRetryInterval):
			}
		}
		res = e.Restore(frag)
		if res.OK() {
			return res, nil
		}
	}
	return res, nil
}
