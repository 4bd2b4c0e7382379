package flowgraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/cilflow/internal/il"
)

func TestNormalEdges(t *testing.T) {
	g := mustBuild(t, `.method Branches
  0: ldarg.0
  1: brtrue 4
  2: ldarg.1
  3: switch (5, 5, 4)
  4: br 6
  5: nop
  6: ret
.end`)

	t.Run("conditional", func(t *testing.T) {
		assert.Equal(t, []EdgeKind{TakenConditional}, edgeKinds(edgesBetween(t, g, 0, 4)))
		assert.Equal(t, []EdgeKind{UntakenConditional}, edgeKinds(edgesBetween(t, g, 0, 2)))
	})

	t.Run("switch keeps duplicate cases", func(t *testing.T) {
		assert.Equal(t, []EdgeKind{SwitchCase, SwitchCase}, edgeKinds(edgesBetween(t, g, 2, 5)))
		assert.Equal(t, []EdgeKind{SwitchDefault, SwitchCase}, edgeKinds(edgesBetween(t, g, 2, 4)))
	})

	t.Run("successors are newest first", func(t *testing.T) {
		var kinds []EdgeKind
		for e := range blockAt(t, g, 2).Successors() {
			kinds = append(kinds, e.Kind())
		}
		assert.Equal(t, []EdgeKind{SwitchDefault, SwitchCase, SwitchCase, SwitchCase}, kinds)
	})

	t.Run("goto and fall-through", func(t *testing.T) {
		assert.Equal(t, []EdgeKind{Goto}, edgeKinds(edgesBetween(t, g, 4, 6)))
		assert.Equal(t, []EdgeKind{FallThrough}, edgeKinds(edgesBetween(t, g, 5, 6)))
	})

	t.Run("return has no successors", func(t *testing.T) {
		n := 0
		for range blockAt(t, g, 6).Successors() {
			n++
		}
		assert.Zero(t, n)
	})

	t.Run("predecessors mirror successors", func(t *testing.T) {
		for e := range g.Edges() {
			found := false
			for p := range e.Successor().Predecessors() {
				if p.ID() == e.ID() {
					found = true
				}
			}
			assert.True(t, found, e.String())
		}
	})
}

func TestPartitionProperties(t *testing.T) {
	for _, src := range []string{tryCatchSource, tryFinallySource, filterSource, nestedFinallySource} {
		g := mustBuild(t, src)
		name := g.Method().Name

		t.Run(name+"/blocks cover every instruction once", func(t *testing.T) {
			next := 0
			prev := NoBlock
			for b := range g.Blocks() {
				ins := b.Instructions()
				require.NotEmpty(t, ins)
				idx, _ := g.Method().IndexOf(ins[0].Offset)
				assert.Equal(t, next, idx)
				next = idx + len(ins)

				p, ok := b.Previous()
				assert.Equal(t, prev.IsValid(), ok)
				assert.Equal(t, prev, p.ID())
				prev = b.ID()
			}
			assert.Equal(t, len(g.Method().Instructions), next)
		})

		t.Run(name+"/region heads", func(t *testing.T) {
			for r := range g.Regions() {
				first := r.FirstBlock()
				require.True(t, first.Valid(), r.String())
				assert.Equal(t, r.StartOffset(), first.FirstInstruction().Offset)
				if r.Kind().IsHandler() {
					h, ok := first.AsHandler()
					require.True(t, ok, r.String())
					assert.Equal(t, r.ID(), h.HandlerRegion().ID())
				}
			}
		})

		t.Run(name+"/region heads are lexically reachable", func(t *testing.T) {
			for r := range g.Regions() {
				b := g.Entry()
				for b.FirstInstruction().Offset < r.StartOffset() {
					next, ok := b.Next()
					require.True(t, ok, r.String())
					b = next
				}
				assert.Equal(t, r.FirstBlock().ID(), b.ID(), r.String())
				if end := r.EndOffset(); end != il.EndOfMethod {
					assert.Less(t, b.LastInstruction().Offset, end, r.String())
				}
			}
		})

		t.Run(name+"/children nest inside parents", func(t *testing.T) {
			for r := range g.Regions() {
				prev := Region{}
				for c := range r.Children() {
					p, ok := c.Parent()
					require.True(t, ok)
					assert.Equal(t, r.ID(), p.ID())
					rel := c.CompareLexicalExtent(r)
					assert.True(t, rel == Inside || rel == Same, "%s in %s: %s", c, r, rel)
					if prev.Valid() {
						assert.Equal(t, Before, prev.CompareLexicalExtent(c))
					}
					prev = c
				}
			}
		})

		t.Run(name+"/exception edge kinds are sourced consistently", func(t *testing.T) {
			all := FirstPassKinds | SecondPassKinds | PassTransitionKinds
			for e := range g.Edges() {
				x, ok := e.AsException()
				if !ok {
					continue
				}
				assert.NotZero(t, x.Kinds())
				assert.Zero(t, x.Kinds()&^all)
				assert.NotZero(t, x.Sources())
			}
		})
	}
}

func TestMutuallyProtectedTries(t *testing.T) {
	g := mustBuild(t, `.method TwoCatches
  0: nop
  1: leave 6
  2: pop
  3: leave 6
  4: pop
  5: leave 6
  6: ret
  .try 0 to 2 catch A handler 2 to 4
  .try 0 to 2 catch B handler 4 to 6
.end`)

	tries := regionsOf(g, Try)
	require.Len(t, tries, 2)
	outer, inner := tries[0], tries[1]
	assert.Equal(t, 1, outer.ClauseIndex(), "later clause encloses the earlier one")
	assert.Equal(t, 0, inner.ClauseIndex())
	p, ok := inner.Parent()
	require.True(t, ok)
	assert.Equal(t, outer.ID(), p.ID())
	assert.Equal(t, Same, inner.CompareLexicalExtent(outer))

	assert.Equal(t, RaiseException, exceptionKinds(t, g, 0, 2))
	assert.Equal(t, CatchWrongType|BypassCatch, exceptionKinds(t, g, 2, 4))

	roots := 0
	for range g.RootRegions() {
		roots++
	}
	assert.Equal(t, 3, roots)
}

func TestUnboundedHandler(t *testing.T) {
	g := mustBuild(t, `.method Fault
  0: nop
  1: ret
  2: nop
  3: endfault
  .try 0 to 2 fault handler 2 to end
.end`)

	faults := regionsOf(g, Fault)
	require.Len(t, faults, 1)
	assert.Equal(t, il.EndOfMethod, faults[0].EndOffset())
	assert.True(t, faults[0].Contains(3))

	var blocks []int
	for b := range faults[0].InclusiveBlocks() {
		blocks = append(blocks, b.FirstInstruction().Offset)
	}
	assert.Equal(t, []int{2}, blocks)

	assert.Equal(t, RaiseException, exceptionKinds(t, g, 0, 2))
}

func TestInclusiveAndExclusiveBlocks(t *testing.T) {
	g := mustBuild(t, filterSource)

	var outer Region
	for r := range g.RootRegions() {
		outer = r
		break
	}
	require.Equal(t, Try, outer.Kind())

	count := func(seq func(func(Block) bool)) int {
		n := 0
		seq(func(Block) bool { n++; return true })
		return n
	}
	assert.Equal(t, 6, count(outer.InclusiveBlocks()))
	assert.Equal(t, 1, count(outer.ExclusiveBlocks()))
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "falls off the end",
			src:  ".method M\n0: nop\n1: nop\n.end",
			want: "falls off the end",
		},
		{
			name: "region end between block boundaries",
			src: `.method M
  0: nop
  1: nop
  2: leave 5
  3: pop
  4: leave 5
  5: ret
  .try 0 to 2 catch E handler 3 to 5
.end`,
			want: "block boundary",
		},
		{
			name: "partially overlapping clauses",
			src: `.method M
  0: nop
  1: leave 6
  2: pop
  3: leave 6
  4: pop
  5: leave 6
  6: ret
  .try 0 to 2 catch A handler 2 to 4
  .try 1 to 3 catch B handler 4 to 6
.end`,
			want: "overlaps",
		},
		{
			name: "endfilter outside a filter",
			src:  ".method M\n0: endfilter\n.end",
			want: "endfilter",
		},
		{
			name: "dangling branch",
			src:  ".method M\n0: br 7\n.end",
			want: "invalid method body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(parseMethod(t, tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedMethod))
			assert.Contains(t, err.Error(), tt.want)

			var be *BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, "M", be.Method)
		})
	}

	t.Run("nil body", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrMalformedMethod)
	})

	t.Run("validation errors stay reachable", func(t *testing.T) {
		_, err := New(&il.MethodBody{Name: "Empty"})
		assert.ErrorIs(t, err, il.ErrInvalidMethod)
	})
}

func TestBuildIsDeterministic(t *testing.T) {
	for _, src := range []string{filterSource, nestedFinallySource} {
		first, second := mustBuild(t, src), mustBuild(t, src)
		name := first.Method().Name

		require.Equal(t, first.NumBlocks(), second.NumBlocks(), name)
		require.Equal(t, first.NumRegions(), second.NumRegions(), name)

		b1, b2 := first.Entry(), second.Entry()
		for b1.Valid() {
			require.True(t, b2.Valid(), name)
			assert.Equal(t, b1.ID(), b2.ID(), name)
			assert.Equal(t, edgeStrings(b1.Successors()), edgeStrings(b2.Successors()), "%s %s", name, b1.ID())
			assert.Equal(t, edgeStrings(b1.Predecessors()), edgeStrings(b2.Predecessors()), "%s %s", name, b1.ID())
			b1, _ = b1.Next()
			b2, _ = b2.Next()
		}
		assert.False(t, b2.Valid(), name)

		var r1, r2 []string
		for r := range first.Regions() {
			r1 = append(r1, r.String())
		}
		for r := range second.Regions() {
			r2 = append(r2, r.String())
		}
		assert.Equal(t, r1, r2, name)
	}
}

func TestInvalidHandles(t *testing.T) {
	g := mustBuild(t, tryCatchSource)

	_, ok := g.Block(NoBlock)
	assert.False(t, ok)
	_, ok = g.Block(plainBlockID(99))
	assert.False(t, ok)
	_, ok = g.Block(handlerBlockID(99))
	assert.False(t, ok)
	_, ok = g.Edge(NoEdge)
	assert.False(t, ok)
	_, ok = g.Edge(makeEdgeID(leaveEdgeSpace, 0))
	assert.False(t, ok, "graph has no leave edges")
	_, ok = g.Region(RegionID(42))
	assert.False(t, ok)
	_, ok = g.BlockAt(100)
	assert.False(t, ok)

	var b Block
	_, ok = b.Next()
	assert.False(t, ok)
	_, ok = b.AsHandler()
	assert.False(t, ok)
	assert.Equal(t, il.Instruction{}, b.FirstInstruction())
	for range b.Successors() {
		t.Fatal("zero block has successors")
	}

	var e Edge
	_, ok = e.AsException()
	assert.False(t, ok)
	assert.Equal(t, NoEdgeKind, e.Kind())
	assert.Equal(t, "none", e.Kind().String())
	assert.False(t, e.Successor().Valid())

	var r Region
	_, ok = r.Parent()
	assert.False(t, ok)
	assert.Equal(t, NoRegionKind, r.Kind())
	assert.False(t, r.Kind().IsHandler())
	_, ok = r.ThrowSuccessor()
	assert.False(t, ok)
	assert.Equal(t, -1, r.ClauseIndex())
	for range r.InclusiveBlocks() {
		t.Fatal("zero region has blocks")
	}
}

func TestIterationIsRestartable(t *testing.T) {
	g := mustBuild(t, filterSource)

	collect := func() []BlockID {
		var ids []BlockID
		for b := range g.Blocks() {
			ids = append(ids, b.ID())
		}
		return ids
	}
	first := collect()
	assert.Equal(t, first, collect())
	assert.Len(t, first, g.NumBlocks())

	n := 0
	for range g.Edges() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRegionQueries(t *testing.T) {
	g := mustBuild(t, filterSource)

	fh := regionsOf(g, FilterHandler)
	require.Len(t, fh, 1)
	handler := fh[0]

	try, ok := handler.TryRegion()
	require.True(t, ok)
	assert.Equal(t, Try, try.Kind())

	filter, ok := handler.FilterRegion()
	require.True(t, ok)
	assert.Equal(t, FilterCondition, filter.Kind())

	h, ok := try.HandlerRegion()
	require.True(t, ok)
	assert.Equal(t, handler.ID(), h.ID())

	h, ok = filter.HandlerRegion()
	require.True(t, ok)
	assert.Equal(t, handler.ID(), h.ID())

	_, ok = handler.HandlerRegion()
	assert.False(t, ok)
	_, ok = try.TryRegion()
	assert.False(t, ok)

	ts, ok := try.ThrowSuccessor()
	require.True(t, ok)
	assert.Equal(t, filter.ID(), ts.ID())

	_, ok = handler.ContinueDispatchSuccessor(SecondPass)
	assert.False(t, ok)
	_, ok = filter.ContinueDispatchSuccessor(SecondPass)
	assert.False(t, ok)
	next, ok := filter.ContinueDispatchSuccessor(FirstPass)
	require.True(t, ok)
	assert.Equal(t, Catch, next.Kind())

	clause, ok := handler.Clause()
	require.True(t, ok)
	assert.Equal(t, il.ClauseFilter, clause.Kind)
}

func TestCompareExtents(t *testing.T) {
	tests := []struct {
		xs, xe, ys, ye int
		want           LexicalRelation
	}{
		{0, 4, 0, 4, Same},
		{0, 6, 0, 4, Outside},
		{0, 2, 0, 4, Inside},
		{0, 2, 2, 4, Before},
		{4, 6, 0, 4, After},
		{0, 8, 2, 4, Outside},
		{2, 4, 0, 8, Inside},
		{0, 3, 2, 5, overlapping},
		{2, 5, 0, 3, overlapping},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareExtents(tt.xs, tt.xe, tt.ys, tt.ye), "%v", tt)
	}
}

func TestIDs(t *testing.T) {
	assert.False(t, NoBlock.IsValid())
	assert.True(t, plainBlockID(0).IsValid())
	assert.False(t, plainBlockID(3).IsHandler())
	assert.True(t, handlerBlockID(0).IsHandler())
	assert.Equal(t, 3, handlerBlockID(3).index())
	assert.Equal(t, "B2", plainBlockID(2).String())
	assert.Equal(t, "H0", handlerBlockID(0).String())

	assert.False(t, NoEdge.IsValid())
	x := makeEdgeID(exceptionEdgeSpace, 7)
	assert.True(t, x.IsException())
	assert.False(t, x.IsLeave())
	assert.Equal(t, 7, x.index())
	assert.NotEqual(t, makeEdgeID(plainEdgeSpace, 0), NoEdge)
}

func TestExceptionKindGroupings(t *testing.T) {
	assert.Equal(t, SourceInstruction, RaiseException.Sources())
	assert.Equal(t, SourceHead, CatchWrongType.Sources())
	assert.Equal(t, SourceTail, EndFinally.Sources())
	assert.Equal(t, SourceInstruction|SourceHead, (RaiseException | BypassFinally).Sources())
	assert.Equal(t, "raise|bypass-finally", (RaiseException | BypassFinally).String())
	assert.Zero(t, FirstPassKinds&SecondPassKinds)
	assert.Equal(t, ExceptionEdgeKinds(1<<11-1), HeadKinds|TailKinds|InstructionKinds)
}
