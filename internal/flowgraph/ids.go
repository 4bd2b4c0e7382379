package flowgraph

import "fmt"

// BlockID is a stable handle to a block. The zero value refers to no block.
// Handler blocks are tagged so that a handle alone tells which arena owns
// the block.
type BlockID uint32

// NoBlock is the invalid block handle.
const NoBlock BlockID = 0

const handlerBlockTag BlockID = 1 << 31

func plainBlockID(index int) BlockID   { return BlockID(index + 1) }
func handlerBlockID(index int) BlockID { return BlockID(index+1) | handlerBlockTag }

// IsValid reports whether the handle refers to a block.
func (id BlockID) IsValid() bool { return id&^handlerBlockTag != 0 }

// IsHandler reports whether the handle refers to a handler block.
func (id BlockID) IsHandler() bool { return id&handlerBlockTag != 0 }

func (id BlockID) index() int { return int(id&^handlerBlockTag) - 1 }

func (id BlockID) String() string {
	switch {
	case !id.IsValid():
		return "none"
	case id.IsHandler():
		return fmt.Sprintf("H%d", id.index())
	default:
		return fmt.Sprintf("B%d", id.index())
	}
}

// EdgeID is a stable handle to an edge. The low bits select the arena the
// edge lives in; the zero value refers to no edge.
type EdgeID uint32

// NoEdge is the invalid edge handle.
const NoEdge EdgeID = 0

type edgeSpace uint32

const (
	plainEdgeSpace edgeSpace = iota + 1
	exceptionEdgeSpace
	leaveEdgeSpace
)

const edgeSpaceBits = 2

func makeEdgeID(space edgeSpace, index int) EdgeID {
	return EdgeID(uint32(index)<<edgeSpaceBits | uint32(space))
}

func (id EdgeID) space() edgeSpace { return edgeSpace(id & (1<<edgeSpaceBits - 1)) }
func (id EdgeID) index() int       { return int(id >> edgeSpaceBits) }

// IsValid reports whether the handle refers to an edge.
func (id EdgeID) IsValid() bool { return id.space() != 0 }

// IsException reports whether the handle refers to an exception edge.
func (id EdgeID) IsException() bool { return id.space() == exceptionEdgeSpace }

// IsLeave reports whether the handle refers to a leave edge.
func (id EdgeID) IsLeave() bool { return id.space() == leaveEdgeSpace }

func (id EdgeID) String() string {
	switch id.space() {
	case plainEdgeSpace:
		return fmt.Sprintf("E%d", id.index())
	case exceptionEdgeSpace:
		return fmt.Sprintf("X%d", id.index())
	case leaveEdgeSpace:
		return fmt.Sprintf("L%d", id.index())
	default:
		return "none"
	}
}

// RegionID is a stable handle to a region. The zero value refers to no
// region.
type RegionID uint32

// NoRegion is the invalid region handle.
const NoRegion RegionID = 0

func regionIDAt(index int) RegionID { return RegionID(index + 1) }

// IsValid reports whether the handle refers to a region.
func (id RegionID) IsValid() bool { return id != NoRegion }

func (id RegionID) index() int { return int(id) - 1 }

func (id RegionID) String() string {
	if !id.IsValid() {
		return "none"
	}
	return fmt.Sprintf("R%d", id.index())
}
