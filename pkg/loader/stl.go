package loader

import (
	"fmt"

	"github.com/chazu/brepview/pkg/kernel/polymesh"
	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadSTL reads an ASCII or binary STL file as a single solid. STL stores
// each triangle with its own copy of every corner, so corners are welded
// into a shared vertex list and triangles that collapse are dropped.
func ReadSTL(path string) (*polymesh.Solid, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read stl: %w", err)
	}

	w := polymesh.NewWelder()
	faces := make([][]uint32, 0, len(solid.Triangles))
	for _, tri := range solid.Triangles {
		var idx [3]uint32
		for j, v := range tri.Vertices {
			idx[j] = w.Add(r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
		}
		if idx[0] == idx[1] || idx[1] == idx[2] || idx[0] == idx[2] {
			continue
		}
		faces = append(faces, idx[:])
	}

	return &polymesh.Solid{
		Name:     solid.Name,
		Vertices: w.Vertices,
		Faces:    faces,
	}, nil
}
