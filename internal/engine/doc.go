// Package engine owns one page's anchoring state and wires the pipeline:
// selection events and stored fragments in, visual markers out.
//
//	eng := engine.New(doc, measurer)
//	frag, res, err := eng.CaptureAndMark(selRange)
//	...
//	results, _ := eng.RestoreAll(ctx, frags)
//
// The engine is page-scoped and cooperatively single-threaded: no two
// fragments are ever materialized concurrently, and one fragment's tree
// mutations always complete before the next fragment's lookup begins. On
// navigation the engine is Reset with the new document and both cache
// stores are discarded wholesale, since cached leaves reference a tree that
// no longer exists.
package engine
