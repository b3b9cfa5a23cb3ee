package hopgraph

import (
	"log/slog"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

func noop(name string) Stage {
	return StageFunc{Label: name, Fn: func(doc *etree.Document, _ *slog.Logger) *etree.Document { return doc }}
}

func edge(from, to string) Edge {
	return Edge{From: from, To: to, Stage: noop(from + "->" + to)}
}

func ladder() *Graph {
	return MustNew(edge("a", "b"), edge("b", "c"), edge("c", "d"))
}

func TestFindRoute(t *testing.T) {
	g := ladder()

	route, err := g.FindRoute("a", "d")
	require.NoError(t, err)
	assert.Equal(t, Route{"a", "b", "c", "d"}, route)
	assert.Equal(t, 3, route.Hops())
	assert.Equal(t, "a -> b -> c -> d", route.String())
}

func TestFindRoute_Identity(t *testing.T) {
	route, err := ladder().FindRoute("b", "b")
	require.NoError(t, err)
	assert.Equal(t, Route{"b"}, route)
	assert.Equal(t, 0, route.Hops())
}

func TestFindRoute_ShortestWithRegistrationTieBreak(t *testing.T) {
	g := MustNew(
		edge("a", "x"), edge("a", "y"),
		edge("x", "z"), edge("y", "z"),
		edge("a", "b"), edge("b", "c"), edge("c", "z2"),
		edge("z", "end"), edge("a", "end2"), edge("end2", "end"),
	)

	route, err := g.FindRoute("a", "z")
	require.NoError(t, err)
	assert.Equal(t, Route{"a", "x", "z"}, route)

	route, err = g.FindRoute("a", "end")
	require.NoError(t, err)
	assert.Equal(t, Route{"a", "end2", "end"}, route)
}

func TestFindRoute_NotFound(t *testing.T) {
	g := ladder()

	_, err := g.FindRoute("d", "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteNotFound)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRoute))
	assert.Contains(t, err.Error(), "a -> [b]; b -> [c]; c -> [d]")

	_, err = g.FindRoute("a", "unknown")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestEdgeFor(t *testing.T) {
	g := ladder()

	stage, err := g.EdgeFor("b", "c")
	require.NoError(t, err)
	assert.Equal(t, "b->c", stage.Name())

	_, err = g.EdgeFor("a", "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTransformer)
	assert.Contains(t, err.Error(), "a -> [b]")
}

func TestNew_RejectsInvalidEdges(t *testing.T) {
	_, err := New(edge("a", "b"), edge("a", "b"))
	assert.Error(t, err)

	_, err = New(Edge{From: "a", To: "b"})
	assert.Error(t, err)

	_, err = New(edge("", "b"))
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew(edge("a", "")) })
}

func TestQueries(t *testing.T) {
	g := ladder()
	assert.Equal(t, []string{"a", "b", "c", "d"}, g.Versions())
	assert.Len(t, g.Edges(), 3)
	assert.Equal(t, "(none)", MustNew().Dump())

	edges := g.Edges()
	edges[0].From = "mutated"
	assert.Equal(t, "a", g.Edges()[0].From)
}
