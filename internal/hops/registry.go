package hops

import "git.home.luguber.info/inful/ojsconvert/internal/hopgraph"

// Supported schema versions, oldest first.
const (
	V248 = "2.4.8"
	V300 = "3.0.0"
	V301 = "3.0.1"
	V302 = "3.0.2"
	V310 = "3.1.0"
	V311 = "3.1.1"
	V320 = "3.2.0"
	V330 = "3.3.0"
	V340 = "3.4.0"
	V350 = "3.5.0"
)

// Ladder returns the hop edges in registration order. Adding a version means adding one
// edge here and one Stage type.
func Ladder() []hopgraph.Edge {
	return []hopgraph.Edge{
		{From: V248, To: V300, Stage: From248To300{}},
		{From: V300, To: V301, Stage: From300To301{}},
		{From: V301, To: V302, Stage: From301To302{}},
		{From: V302, To: V310, Stage: From302To310{}},
		{From: V310, To: V311, Stage: From310To311{}},
		{From: V311, To: V320, Stage: From311To320{}},
		{From: V320, To: V330, Stage: From320To330{}},
		{From: V330, To: V340, Stage: From330To340{}},
		{From: V340, To: V350, Stage: From340To350{}},
	}
}

// DefaultGraph returns the graph built from Ladder.
func DefaultGraph() *hopgraph.Graph {
	return hopgraph.MustNew(Ladder()...)
}
