// Package pipeline runs the steps of an imgmirror run in sequence.
//
// A run is processed by a Pipeline of Steps that share one *model.Run:
// discovery fills Run.Files, rewriting fills Run.Pages, and the optional
// audit step attaches image metadata. Saving the manifest is a Step too, but
// callers run it after Run.Finish so that failed runs are recorded as well.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. Optional stages are added or left out without touching the core loop
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context between steps
//
// Pages are rewritten by a PageProcessor that bounds concurrency with
// errgroup. The default of one worker keeps processing strictly sequential:
// pages in discovery order, images in document order.
package pipeline
