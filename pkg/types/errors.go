package types

import "errors"

// Error taxonomy for the anchoring pipeline. These are matched with
// errors.Is; callers never compare messages.
var (
	// ErrRangeInvalid indicates a stored range descriptor is no longer
	// structurally valid (collapsed, inverted, or an endpoint detached).
	ErrRangeInvalid = errors.New("range no longer valid")

	// ErrNodeDetached indicates a previously found leaf no longer belongs
	// to the current document tree.
	ErrNodeDetached = errors.New("node detached from document")

	// ErrTextNotFound indicates no candidate leaf contains the fragment
	// text. Terminal for a fragment once all fallbacks are exhausted.
	ErrTextNotFound = errors.New("fragment text not found in document")

	// ErrCollaboratorFailure indicates a persistence or summarization call
	// failed or timed out. Never retried automatically.
	ErrCollaboratorFailure = errors.New("collaborator call failed")
)
