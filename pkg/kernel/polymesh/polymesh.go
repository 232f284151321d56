// Package polymesh implements kernel solids backed by an already faceted
// indexed polygon mesh, as produced by the STL and OBJ loaders.
package polymesh

import (
	"fmt"

	"github.com/chazu/brepview/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var _ kernel.Solid = (*Solid)(nil)
var _ kernel.Assembly = (*Assembly)(nil)

// Solid is a named polygon mesh. Faces index into Vertices.
type Solid struct {
	Name     string
	Vertices []r3.Vec
	Faces    [][]uint32
}

// Tessellate returns a copy of the stored mesh. The mesh is already
// faceted, so tolerance is ignored. A solid without faces, such as an STL
// with no facets, yields an empty tessellation. A face referring to a
// missing vertex is an error.
func (s *Solid) Tessellate(tolerance float64) (*kernel.Tessellation, error) {
	n := uint32(len(s.Vertices))
	faces := make([][]uint32, len(s.Faces))
	for i, f := range s.Faces {
		for _, idx := range f {
			if idx >= n {
				return nil, fmt.Errorf("polymesh: solid %q face %d refers to vertex %d of %d: %w",
					s.Name, i, idx, n, kernel.ErrIndexOutOfRange)
			}
		}
		faces[i] = append([]uint32(nil), f...)
	}
	return &kernel.Tessellation{
		Vertices: append([]r3.Vec(nil), s.Vertices...),
		Faces:    faces,
	}, nil
}

// Assembly is an ordered group of solids loaded from one file.
type Assembly struct {
	Name  string
	Parts []*Solid
}

// Solids returns the parts as kernel solids.
func (a *Assembly) Solids() []kernel.Solid {
	solids := make([]kernel.Solid, len(a.Parts))
	for i, p := range a.Parts {
		solids[i] = p
	}
	return solids
}

// Welder merges coincident vertices into a single indexed list. Positions
// are compared exactly, which is what faceted formats like STL need since
// adjacent triangles repeat identical coordinates.
type Welder struct {
	index    map[r3.Vec]uint32
	Vertices []r3.Vec
}

// NewWelder returns an empty Welder.
func NewWelder() *Welder {
	return &Welder{index: make(map[r3.Vec]uint32)}
}

// Add returns the index of v, appending it if it has not been seen.
func (w *Welder) Add(v r3.Vec) uint32 {
	if i, ok := w.index[v]; ok {
		return i
	}
	i := uint32(len(w.Vertices))
	w.index[v] = i
	w.Vertices = append(w.Vertices, v)
	return i
}
