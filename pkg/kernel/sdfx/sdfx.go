// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/brepview/pkg/kernel"
	"github.com/chazu/brepview/pkg/kernel/polymesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*SdfxKernel)(nil)
var _ kernel.Solid = (*sdfxSolid)(nil)

const (
	// minMeshCells keeps tiny solids from collapsing to nothing.
	minMeshCells = 8
	// maxMeshCells bounds marching cubes work for very small tolerances.
	maxMeshCells = 200
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// Box creates a box with its minimum corner at the origin. sdf.Box3D
// centers the box, so it is shifted by half its dimensions.
func (k *SdfxKernel) Box(x, y, z float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return wrap(sdf.Transform3D(s, m)), nil
}

// Cylinder creates a cylinder along Z centered at the origin.
// The segments parameter is ignored since SDF represents smooth surfaces.
func (k *SdfxKernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: cylinder: %w", err)
	}
	return wrap(s), nil
}

// Sphere creates a sphere centered at the origin. segments is ignored.
func (k *SdfxKernel) Sphere(radius float64, segments int) (kernel.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return wrap(s), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	xRad := x * math.Pi / 180.0
	yRad := y * math.Pi / 180.0
	zRad := z * math.Pi / 180.0

	m := sdf.RotateZ(zRad).Mul(sdf.RotateY(yRad)).Mul(sdf.RotateX(xRad))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// meshCells picks the marching cubes resolution along the longest axis so
// that a cell is no larger than the tolerance.
func meshCells(bb sdf.Box3, tolerance float64) int {
	extent := math.Max(bb.Max.X-bb.Min.X, math.Max(bb.Max.Y-bb.Min.Y, bb.Max.Z-bb.Min.Z))
	if tolerance <= 0 || extent <= 0 {
		return minMeshCells
	}
	cells := int(math.Ceil(extent / tolerance))
	if cells < minMeshCells {
		return minMeshCells
	}
	if cells > maxMeshCells {
		return maxMeshCells
	}
	return cells
}

// Tessellate runs marching cubes over the solid and welds the resulting
// triangle soup into an indexed mesh. Triangles that collapse after
// welding are dropped.
func (s *sdfxSolid) Tessellate(tolerance float64) (*kernel.Tessellation, error) {
	renderer := render.NewMarchingCubesUniform(meshCells(s.s.BoundingBox(), tolerance))
	triangles := render.ToTriangles(s.s, renderer)

	w := polymesh.NewWelder()
	faces := make([][]uint32, 0, len(triangles))
	weld := func(v v3.Vec) uint32 {
		return w.Add(r3.Vec{X: v.X, Y: v.Y, Z: v.Z})
	}
	for _, tri := range triangles {
		a, b, c := weld(tri[0]), weld(tri[1]), weld(tri[2])
		if a == b || b == c || a == c {
			continue
		}
		faces = append(faces, []uint32{a, b, c})
	}
	t := &kernel.Tessellation{Vertices: w.Vertices, Faces: faces}

	if len(t.Faces) == 0 {
		return nil, fmt.Errorf("sdfx: marching cubes produced no triangles: %w", kernel.ErrDegenerate)
	}
	return t, nil
}
