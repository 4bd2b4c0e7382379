package flowgraph

import (
	"errors"
	"fmt"

	"github.com/ludo-technologies/cilflow/internal/il"
)

// ErrMalformedMethod is wrapped by every error New returns for input that
// cannot be turned into a graph.
var ErrMalformedMethod = errors.New("malformed method body")

// BuildError reports why a method body could not be turned into a graph.
type BuildError struct {
	Method string
	// Offset is the instruction offset involved, or -1.
	Offset int
	Reason string
	// Err is the underlying validation error, if any.
	Err error
}

func (e *BuildError) Error() string {
	msg := "flow graph for " + e.Method
	if e.Offset >= 0 {
		msg += " at " + il.FormatOffset(e.Offset)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedMethod, e.Err}
	}
	return []error{ErrMalformedMethod}
}

func (b *builder) fail(index int, format string, args ...interface{}) error {
	offset := -1
	if index >= 0 && index < len(b.instrs) {
		offset = b.instrs[index].Offset
	}
	return &BuildError{Method: b.g.method.Name, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

var errRegionBoundary = errors.New("region boundary does not match the enclosing region")
