// Package flowgraph builds control-flow graphs for method bodies that carry
// structured exception handling.
//
// A Graph partitions a method's instructions into basic blocks and connects
// them with three families of edges: ordinary edges for branches and
// fall-through, leave edges that route a leave instruction through every
// finally handler it exits, and exception edges that model the two-pass
// dispatch an exception goes through. Exception clauses are arranged into a
// lexical forest of regions that the graph exposes for queries.
//
// Blocks, edges and regions are stored in arenas and referred to by small
// integer handles. The view types (Block, Edge, Region and their
// specializations) pair a handle with its graph; they are cheap values and
// remain valid for the lifetime of the graph.
package flowgraph
