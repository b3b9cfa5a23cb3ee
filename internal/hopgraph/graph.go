// Package hopgraph holds the registry of version-to-version hops and finds routes
// through it.
package hopgraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/ojsconvert/internal/foundation/errors"
)

var (
	// ErrRouteNotFound is returned when the target version is unreachable.
	ErrRouteNotFound = errors.New("no route between versions")
	// ErrMissingTransformer is returned when no edge joins two versions directly.
	ErrMissingTransformer = errors.New("no transformer registered for version pair")
)

// Edge is one registered hop.
type Edge struct {
	From  string
	To    string
	Stage Stage
}

// Route is the ordered list of versions visited by a conversion, source and target included.
type Route []string

// Hops returns the number of edges the route traverses.
func (r Route) Hops() int {
	if len(r) == 0 {
		return 0
	}
	return len(r) - 1
}

func (r Route) String() string {
	return strings.Join(r, " -> ")
}

// Graph is an immutable directed graph of hops. It is safe for concurrent reads.
type Graph struct {
	edges    []Edge
	versions []string
	out      map[string][]Edge
}

// New builds a graph from edges in registration order.
func New(edges ...Edge) (*Graph, error) {
	g := &Graph{out: make(map[string][]Edge)}
	seen := make(map[[2]string]bool, len(edges))
	for i, e := range edges {
		switch {
		case e.From == "" || e.To == "":
			return nil, fmt.Errorf("edge %d: empty version", i)
		case e.Stage == nil:
			return nil, fmt.Errorf("edge %s -> %s: nil stage", e.From, e.To)
		case seen[[2]string{e.From, e.To}]:
			return nil, fmt.Errorf("edge %s -> %s: registered twice", e.From, e.To)
		}
		seen[[2]string{e.From, e.To}] = true
		g.edges = append(g.edges, e)
		g.out[e.From] = append(g.out[e.From], e)
		g.addVersion(e.From)
		g.addVersion(e.To)
	}
	return g, nil
}

// MustNew is New for static registries; it panics on an invalid edge set.
func MustNew(edges ...Edge) *Graph {
	g, err := New(edges...)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) addVersion(v string) {
	if !slices.Contains(g.versions, v) {
		g.versions = append(g.versions, v)
	}
}

// Edges returns the registered edges in registration order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Versions returns every version named by an edge, in first-seen order.
func (g *Graph) Versions() []string {
	return slices.Clone(g.versions)
}

// FindRoute returns the shortest route from one version to another. Outgoing edges are
// explored in registration order, so ties resolve to the earliest registered path.
func (g *Graph) FindRoute(from, to string) (Route, error) {
	if from == to {
		return Route{from}, nil
	}

	prev := map[string]string{from: ""}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.out[cur] {
			if _, visited := prev[e.To]; visited {
				continue
			}
			prev[e.To] = cur
			if e.To == to {
				return buildRoute(prev, to), nil
			}
			queue = append(queue, e.To)
		}
	}

	return nil, ferrors.WrapError(ErrRouteNotFound, ferrors.CategoryRoute,
		fmt.Sprintf("no route from %s to %s; registered edges: %s", from, to, g.Dump())).
		WithContext("from", from).
		WithContext("to", to).
		Build()
}

func buildRoute(prev map[string]string, to string) Route {
	route := Route{to}
	for v := prev[to]; v != ""; v = prev[v] {
		route = append(route, v)
	}
	slices.Reverse(route)
	return route
}

// EdgeFor returns the stage registered for the direct hop from -> to.
func (g *Graph) EdgeFor(from, to string) (Stage, error) {
	for _, e := range g.out[from] {
		if e.To == to {
			return e.Stage, nil
		}
	}
	return nil, ferrors.WrapError(ErrMissingTransformer, ferrors.CategoryRoute,
		fmt.Sprintf("no transformer for %s -> %s; registered edges: %s", from, to, g.Dump())).
		WithContext("from", from).
		WithContext("to", to).
		Build()
}

// Dump renders the adjacency list as "src -> [dst, ...]" entries in registration order.
func (g *Graph) Dump() string {
	var parts []string
	for _, v := range g.versions {
		edges := g.out[v]
		if len(edges) == 0 {
			continue
		}
		dsts := make([]string, 0, len(edges))
		for _, e := range edges {
			dsts = append(dsts, e.To)
		}
		parts = append(parts, fmt.Sprintf("%s -> [%s]", v, strings.Join(dsts, ", ")))
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, "; ")
}
