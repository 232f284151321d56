//go:build manifold

// Package manifold provides a CGo-based geometry kernel binding to the
// Manifold library (https://github.com/elalish/manifold). Manifold solids
// are always closed triangle meshes, so tessellation reads the MeshGL
// buffers directly.
//
// This package requires the Manifold C library (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/chazu/brepview/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer and implements kernel.Solid.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// newSolid wraps a C ManifoldManifold pointer with Go-side finalizer
// for automatic memory management.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

// ErrUnavailable is never returned when Manifold is linked in.
var ErrUnavailable = errors.New("manifold kernel not available")

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct{}

// New creates a new ManifoldKernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

// Box creates an axis-aligned box with its minimum corner at the origin,
// matching the sdfx kernel.
func (k *ManifoldKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("manifold: box: dimensions must be positive, got %g x %g x %g", x, y, z)
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc,
		C.double(x), C.double(y), C.double(z),
		C.int(0), // center=false
	)
	return newSolid(ptr), nil
}

// Cylinder creates a cylinder along the Z axis centered at the origin.
func (k *ManifoldKernel) Cylinder(height, radius float64, segments int) (kernel.Solid, error) {
	if height <= 0 || radius <= 0 {
		return nil, fmt.Errorf("manifold: cylinder: height and radius must be positive")
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cylinder(alloc,
		C.double(height),
		C.double(radius), // radius_low
		C.double(radius), // radius_high
		C.int(segments),
		C.int(1), // center=true
	)
	return newSolid(ptr), nil
}

// Sphere creates a sphere centered at the origin.
func (k *ManifoldKernel) Sphere(radius float64, segments int) (kernel.Solid, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("manifold: sphere: radius must be positive")
	}
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_sphere(alloc, C.double(radius), C.int(segments))
	return newSolid(ptr), nil
}

// Union returns the boolean union of two solids.
func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_union(alloc, a.(*manifoldSolid).ptr, b.(*manifoldSolid).ptr))
}

// Difference returns the boolean difference (a minus b).
func (k *ManifoldKernel) Difference(a, b kernel.Solid) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_difference(alloc, a.(*manifoldSolid).ptr, b.(*manifoldSolid).ptr))
}

// Intersection returns the boolean intersection of two solids.
func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	return newSolid(C.manifold_intersection(alloc, a.(*manifoldSolid).ptr, b.(*manifoldSolid).ptr))
}

// Translate moves the solid by (x, y, z).
func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_translate(alloc, s.(*manifoldSolid).ptr,
		C.double(x), C.double(y), C.double(z),
	)
	return newSolid(ptr)
}

// Rotate rotates the solid by Euler angles (in degrees) around the X, Y, Z axes.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_rotate(alloc, s.(*manifoldSolid).ptr,
		C.double(x), C.double(y), C.double(z),
	)
	return newSolid(ptr)
}

// Tessellate extracts the solid's triangle mesh from MeshGL. Manifold
// meshes are already exact, so tolerance is ignored.
func (s *manifoldSolid) Tessellate(tolerance float64) (*kernel.Tessellation, error) {
	meshAlloc := C.manifold_alloc_meshgl()
	meshGL := C.manifold_get_meshgl(meshAlloc, s.ptr)
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return nil, fmt.Errorf("manifold: empty mesh: %w", kernel.ErrDegenerate)
	}

	// MeshGL stores numProp floats per vertex; the first 3 are position.
	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)

	triVerts := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&triVerts[0])),
		meshGL,
	)

	t := &kernel.Tessellation{
		Vertices: make([]r3.Vec, numVert),
		Faces:    make([][]uint32, numTri),
	}
	for i := range t.Vertices {
		base := i * numProp
		t.Vertices[i] = r3.Vec{
			X: float64(propData[base+0]),
			Y: float64(propData[base+1]),
			Z: float64(propData[base+2]),
		}
	}
	for i := range t.Faces {
		t.Faces[i] = []uint32{triVerts[i*3], triVerts[i*3+1], triVerts[i*3+2]}
	}
	return t, nil
}
