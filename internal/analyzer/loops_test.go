package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLoops(t *testing.T) {
	t.Run("SelfLoop", func(t *testing.T) {
		g := buildGraph(t, `.method M
  0: nop
  1: ldarg.0
  2: brtrue 0
  3: ret
.end`)
		loops := FindLoops(g, false)
		require.Len(t, loops, 1)
		assert.Equal(t, []int{0}, offsetsOf(loops[0].Blocks))
	})

	t.Run("WhileLoop", func(t *testing.T) {
		g := buildGraph(t, `.method M
  0: br 2
  1: nop
  2: ldarg.0
  3: brtrue 1
  4: ret
.end`)
		loops := FindLoops(g, false)
		require.Len(t, loops, 1)
		assert.Equal(t, []int{1, 2}, offsetsOf(loops[0].Blocks))
		assert.Equal(t, 1, loops[0].Header().FirstInstruction().Offset)
	})

	t.Run("Straight", func(t *testing.T) {
		g := buildGraph(t, ".method M\n0: nop\n1: ret\n.end")
		assert.Empty(t, FindLoops(g, false))
	})

	t.Run("ExceptionCycle", func(t *testing.T) {
		// The catch branches back into the try.
		src := `.method M
  0: nop
  1: leave 4
  2: pop
  3: leave 0
  4: ret
  .try 0 to 2 catch System.Exception handler 2 to 4
.end`
		g := buildGraph(t, src)
		assert.Empty(t, FindLoops(g, false))

		loops := FindLoops(g, true)
		require.Len(t, loops, 1)
		assert.Equal(t, []int{0, 2}, offsetsOf(loops[0].Blocks))
	})
}
