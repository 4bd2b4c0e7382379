package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/cilflow/internal/flowgraph"
	"github.com/ludo-technologies/cilflow/internal/il"
)

func buildGraph(t testing.TB, src string) *flowgraph.Graph {
	t.Helper()
	methods, err := il.ParseAssembly(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, methods, 1)
	g, err := flowgraph.New(methods[0])
	require.NoError(t, err)
	return g
}

func blockAt(t *testing.T, g *flowgraph.Graph, offset int) flowgraph.Block {
	t.Helper()
	b, ok := g.BlockAt(offset)
	require.True(t, ok)
	return b
}

func offsetsOf(blocks []flowgraph.Block) []int {
	out := make([]int, len(blocks))
	for i, b := range blocks {
		out[i] = b.FirstInstruction().Offset
	}
	return out
}
