// Package mesh assembles per-solid tessellations into the flat arrays a
// real-time renderer consumes: vertex coordinates, triangle indices,
// wireframe edge pairs and a bounding box.
package mesh

import (
	"fmt"
	"strings"
)

// Output is the renderer-facing mesh record. All arrays are flat:
// vertices has 3 floats per vertex (x,y,z), faces has 3 indices per
// triangle, edges has 2 indices per undirected edge.
type Output struct {
	Vertices    []float64    `json:"vertices"`     // [x0,y0,z0, x1,y1,z1, ...]
	Faces       []uint32     `json:"faces"`        // [i0,i1,i2, ...] triangles
	Edges       []uint32     `json:"edges"`        // [a0,b0, a1,b1, ...] with a <= b
	BoundingBox *BoundingBox `json:"bounding_box"` // nil when there are no vertices
}

// BoundingBox is an axis-aligned box over every emitted vertex.
type BoundingBox struct {
	Min    [3]float64 `json:"min"`
	Max    [3]float64 `json:"max"`
	Center [3]float64 `json:"center"`
}

// VertexCount returns the number of vertices.
func (o *Output) VertexCount() int {
	return len(o.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (o *Output) TriangleCount() int {
	return len(o.Faces) / 3
}

// EdgeCount returns the number of wireframe edges.
func (o *Output) EdgeCount() int {
	return len(o.Edges) / 2
}

// IsEmpty returns true if the mesh has no geometry.
func (o *Output) IsEmpty() bool {
	return len(o.Vertices) == 0
}

// Indexing selects the index space written into faces and edges.
type Indexing int

const (
	// IndexLocal writes each solid's indices exactly as its kernel emitted
	// them. With several solids, indices of later solids alias vertices of
	// earlier ones in the shared vertex array.
	IndexLocal Indexing = iota
	// IndexGlobal offsets each solid's indices by the number of vertices
	// emitted before it, so every index addresses the shared vertex array.
	IndexGlobal
)

func (i Indexing) String() string {
	switch i {
	case IndexLocal:
		return "local"
	case IndexGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// ParseIndexing parses "local" or "global". The empty string means local.
func ParseIndexing(s string) (Indexing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return IndexLocal, nil
	case "global":
		return IndexGlobal, nil
	default:
		return IndexLocal, fmt.Errorf("mesh: unknown indexing %q (want local or global)", s)
	}
}
