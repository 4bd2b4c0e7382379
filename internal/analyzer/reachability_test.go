package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReachabilityAnalyzer(t *testing.T) {
	t.Run("LeaveThroughFinally", func(t *testing.T) {
		g := buildGraph(t, `.method M
  0: nop
  1: leave 4
  2: nop
  3: endfinally
  4: ret
  .try 0 to 2 finally handler 2 to 4
.end`)

		result := NewReachabilityAnalyzer(g, ReachabilityOptions{}).AnalyzeReachability()

		assert.Equal(t, 3, result.TotalBlocks)
		assert.Equal(t, 3, result.MarkedCount)
		assert.False(t, result.HasUnmarkedCode())
		assert.Equal(t, 1.0, result.GetMarkedRatio())
	})

	t.Run("LeaveThroughNestedFinally", func(t *testing.T) {
		g := buildGraph(t, `.method M
  0: nop
  1: leave 6
  2: nop
  3: endfinally
  4: nop
  5: endfinally
  6: ret
  .try 0 to 2 finally handler 2 to 4
  .try 0 to 4 finally handler 4 to 6
.end`)

		result := NewReachabilityAnalyzer(g, ReachabilityOptions{}).AnalyzeReachability()

		assert.Equal(t, []int{0, 2, 4, 6}, SortedOffsets(result.MarkedBlocks))
		assert.Empty(t, result.UnmarkedBlocks)
	})

	t.Run("AlwaysThrowingPath", func(t *testing.T) {
		g := buildGraph(t, `.method M
  0: ldarg.0
  1: brtrue 4
  2: ldstr "boom"
  3: throw
  4: ret
.end`)

		result := NewReachabilityAnalyzer(g, ReachabilityOptions{}).AnalyzeReachability()

		assert.Equal(t, []int{0, 4}, SortedOffsets(result.MarkedBlocks))
		assert.Equal(t, []int{2}, SortedOffsets(result.UnmarkedBlocks))
		assert.True(t, result.HasUnmarkedCode())
		assert.InDelta(t, 2.0/3.0, result.GetMarkedRatio(), 1e-9)
	})

	t.Run("ExceptionEdgesAreOptional", func(t *testing.T) {
		src := `.method M
  0: nop
  1: throw
  2: pop
  3: leave 4
  4: ret
  .try 0 to 2 catch System.Exception handler 2 to 4
.end`

		plain := NewReachabilityAnalyzer(buildGraph(t, src), ReachabilityOptions{}).AnalyzeReachability()
		assert.Equal(t, []int{2, 4}, SortedOffsets(plain.MarkedBlocks))

		full := NewReachabilityAnalyzer(buildGraph(t, src), ReachabilityOptions{FollowExceptionEdges: true}).AnalyzeReachability()
		assert.Equal(t, []int{0, 2, 4}, SortedOffsets(full.MarkedBlocks))
	})

	t.Run("NilGraph", func(t *testing.T) {
		result := NewReachabilityAnalyzer(nil, ReachabilityOptions{}).AnalyzeReachability()
		assert.Zero(t, result.TotalBlocks)
		assert.Equal(t, 1.0, result.GetMarkedRatio())
	})
}
