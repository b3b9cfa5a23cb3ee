// Package hops implements the fixed ladder of native XML version hops.
//
// Each stage rewrites a document valid for one schema version into the shape required by
// the next one and nothing more. Values with no home in an intermediate version travel in
// the instruction channel (see package instruction) until a later hop restores them.
package hops
