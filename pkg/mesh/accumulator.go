package mesh

import (
	"fmt"
	"math"

	"github.com/chazu/brepview/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Accumulator folds solids into one Output. It belongs to a single
// conversion and is not safe for concurrent use.
type Accumulator struct {
	indexing Indexing
	out      Output
	solids   int

	hasBounds bool
	min, max  r3.Vec
}

// NewAccumulator returns an empty accumulator writing indices in the given space.
func NewAccumulator(indexing Indexing) *Accumulator {
	return &Accumulator{
		indexing: indexing,
		out: Output{
			Vertices: []float64{},
			Faces:    []uint32{},
			Edges:    []uint32{},
		},
	}
}

// SolidCount returns how many solids have been added.
func (a *Accumulator) SolidCount() int {
	return a.solids
}

// AddSolid appends one solid's vertices, fan-triangulated faces and
// deduplicated polygon edges. Faces with fewer than three vertices are
// skipped. A face referring to a vertex the solid did not emit fails with
// kernel.ErrIndexOutOfRange and leaves the accumulator unchanged.
func (a *Accumulator) AddSolid(t *kernel.Tessellation) error {
	if t == nil {
		return fmt.Errorf("mesh: nil tessellation: %w", kernel.ErrDegenerate)
	}
	n := uint32(len(t.Vertices))
	for i, f := range t.Faces {
		for _, idx := range f {
			if idx >= n {
				return fmt.Errorf("mesh: face %d refers to vertex %d of %d: %w", i, idx, n, kernel.ErrIndexOutOfRange)
			}
		}
	}

	var base uint32
	if a.indexing == IndexGlobal {
		base = uint32(a.out.VertexCount())
	}

	for _, v := range t.Vertices {
		a.out.Vertices = append(a.out.Vertices, v.X, v.Y, v.Z)
		a.extend(v)
	}

	edges := newEdgeSet()
	for _, f := range t.Faces {
		for _, tri := range Triangulate(f) {
			a.out.Faces = append(a.out.Faces, base+tri[0], base+tri[1], base+tri[2])
		}
		edges.addFace(f)
	}
	for _, e := range edges.pairs {
		a.out.Edges = append(a.out.Edges, base+e[0], base+e[1])
	}

	a.solids++
	return nil
}

// extend grows the running bounds to include v.
func (a *Accumulator) extend(v r3.Vec) {
	if !a.hasBounds {
		a.min, a.max = v, v
		a.hasBounds = true
		return
	}
	a.min = r3.Vec{X: math.Min(a.min.X, v.X), Y: math.Min(a.min.Y, v.Y), Z: math.Min(a.min.Z, v.Z)}
	a.max = r3.Vec{X: math.Max(a.max.X, v.X), Y: math.Max(a.max.Y, v.Y), Z: math.Max(a.max.Z, v.Z)}
}

// Finish hands the accumulated mesh to the caller. The bounding box is nil
// if no vertex was ever added. The accumulator must not be used afterwards.
func (a *Accumulator) Finish() *Output {
	out := a.out
	if a.hasBounds {
		center := r3.Scale(0.5, r3.Add(a.min, a.max))
		out.BoundingBox = &BoundingBox{
			Min:    [3]float64{a.min.X, a.min.Y, a.min.Z},
			Max:    [3]float64{a.max.X, a.max.Y, a.max.Z},
			Center: [3]float64{center.X, center.Y, center.Z},
		}
	}
	a.out = Output{}
	return &out
}
