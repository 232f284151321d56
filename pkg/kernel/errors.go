package kernel

import (
	"errors"
	"fmt"
)

// ErrDegenerate is reported by kernels that produce no usable surface for a solid.
var ErrDegenerate = errors.New("degenerate geometry")

// ErrIndexOutOfRange is reported when a face refers to a vertex the solid
// did not emit.
var ErrIndexOutOfRange = errors.New("face index out of range")

// ErrNilSolid is reported for a nil entry in an assembly's solids.
var ErrNilSolid = errors.New("nil solid")

// GeometryError reports that a solid could not be tessellated. It aborts
// the whole conversion; no partial mesh is ever returned alongside it.
type GeometryError struct {
	Solid int // position of the solid in enumeration order
	Err   error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry error in solid %d: %v", e.Solid, e.Err)
}

func (e *GeometryError) Unwrap() error {
	return e.Err
}

// IsGeometryError reports whether err is or wraps a *GeometryError.
func IsGeometryError(err error) bool {
	var ge *GeometryError
	return errors.As(err, &ge)
}
