// Package kernel defines the boundary between the mesh pipeline and a
// geometry kernel. Implementations (sdfx, manifold, polymesh) own their
// solids; the pipeline only reads tessellation output from them.
package kernel

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Solid is an opaque handle to a kernel solid that can be tessellated.
type Solid interface {
	// Tessellate approximates the solid's surface with planar polygons
	// whose deviation from the true surface is at most tolerance.
	// It must not mutate the solid.
	Tessellate(tolerance float64) (*Tessellation, error)
}

// Assembly is a handle made of several solids.
type Assembly interface {
	// Solids returns the constituent solids in processing order.
	Solids() []Solid
}

// Handle is whatever a loader produced: a Solid, an Assembly, or nil.
type Handle any

// Tessellation is the per-solid output of a kernel's tessellation primitive.
// Face indices refer to Vertices of the same Tessellation.
type Tessellation struct {
	Vertices []r3.Vec
	Faces    [][]uint32
}

// VertexCount returns the number of vertices.
func (t *Tessellation) VertexCount() int {
	return len(t.Vertices)
}

// FaceCount returns the number of polygon faces.
func (t *Tessellation) FaceCount() int {
	return len(t.Faces)
}

// IsEmpty returns true if the tessellation has no geometry.
func (t *Tessellation) IsEmpty() bool {
	return len(t.Vertices) == 0
}

// Enumerate resolves a handle into the ordered list of solids to process.
// An Assembly yields its solids (possibly none), a Solid yields itself,
// and anything else yields nothing.
func Enumerate(h Handle) []Solid {
	switch v := h.(type) {
	case Assembly:
		return v.Solids()
	case Solid:
		return []Solid{v}
	default:
		return nil
	}
}

// Kernel builds solids. Implementations (sdfx, manifold) provide modeling
// behind this interface; the scene engine only talks to it.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) (Solid, error)
	Cylinder(height, radius float64, segments int) (Solid, error)
	Sphere(radius float64, segments int) (Solid, error)

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
}
