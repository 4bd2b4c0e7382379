package flowgraph

import (
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/cilflow/internal/il"
)

func parseMethod(t *testing.T, src string) *il.MethodBody {
	t.Helper()
	methods, err := il.ParseAssembly(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, methods, 1)
	return methods[0]
}

func mustBuild(t *testing.T, src string) *Graph {
	t.Helper()
	g, err := New(parseMethod(t, src))
	require.NoError(t, err)
	return g
}

func blockAt(t *testing.T, g *Graph, offset int) Block {
	t.Helper()
	b, ok := g.BlockAt(offset)
	require.True(t, ok, "no block at %d", offset)
	return b
}

// edgesBetween returns the edges from the block at offset from to the block
// at offset to.
func edgesBetween(t *testing.T, g *Graph, from, to int) []Edge {
	t.Helper()
	target := blockAt(t, g, to).ID()
	var out []Edge
	for e := range blockAt(t, g, from).Successors() {
		if e.Successor().ID() == target {
			out = append(out, e)
		}
	}
	return out
}

func edgeKinds(edges []Edge) []EdgeKind {
	kinds := make([]EdgeKind, len(edges))
	for i, e := range edges {
		kinds[i] = e.Kind()
	}
	return kinds
}

// exceptionKinds returns the merged scenario kinds of the exception edge
// between two blocks, or zero if there is none.
func exceptionKinds(t *testing.T, g *Graph, from, to int) ExceptionEdgeKinds {
	t.Helper()
	for _, e := range edgesBetween(t, g, from, to) {
		if x, ok := e.AsException(); ok {
			return x.Kinds()
		}
	}
	return 0
}

func countEdges(g *Graph, match func(Edge) bool) int {
	n := 0
	for e := range g.Edges() {
		if match(e) {
			n++
		}
	}
	return n
}

func isException(e Edge) bool { return e.Kind() == Exception }

func regionsOf(g *Graph, kind RegionKind) []Region {
	var out []Region
	for r := range g.Regions() {
		if r.Kind() == kind {
			out = append(out, r)
		}
	}
	return out
}

func edgeStrings(edges iter.Seq[Edge]) []string {
	var out []string
	for e := range edges {
		out = append(out, e.String())
	}
	return out
}
