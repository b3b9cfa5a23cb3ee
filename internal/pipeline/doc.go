// Package pipeline drives a document along the route between two schema versions.
//
// A run resolves the route through the hop graph, applies one stage per hop, re-stamps
// the root namespace after every hop and, in strict mode, validates the document before
// the first hop, after every hop and once more at the end. The first error aborts the run
// and is returned unchanged.
package pipeline
