package types

// RestoreOutcome identifies which materializer state produced a marker, or
// that all fallbacks were exhausted.
type RestoreOutcome string

const (
	// OutcomeReplayed means the stored range was still valid and was
	// wrapped in place.
	OutcomeReplayed RestoreOutcome = "replayed"

	// OutcomeReinserted means the range crossed sibling boundaries and the
	// marker was built by extract/reinsert.
	OutcomeReinserted RestoreOutcome = "reinserted"

	// OutcomeRemarked means range data was unusable and the marker was
	// placed by content-based lookup.
	OutcomeRemarked RestoreOutcome = "remarked"

	// OutcomeFailed means no marker could be placed. Soft failure: the
	// document is left unmodified for this fragment.
	OutcomeFailed RestoreOutcome = "failed"
)

// RestoreResult reports the outcome of re-anchoring one fragment.
type RestoreResult struct {
	FragmentID string
	Outcome    RestoreOutcome
	Err        error
}

// OK reports whether a marker was placed.
func (r RestoreResult) OK() bool {
	return r.Outcome != OutcomeFailed
}
