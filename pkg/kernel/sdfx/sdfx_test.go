package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/brepview/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// testTolerance keeps marching cubes grids small so tests stay fast.
const testTolerance = 0.5

func mustSolid(t *testing.T) func(kernel.Solid, error) kernel.Solid {
	return func(s kernel.Solid, err error) kernel.Solid {
		t.Helper()
		if err != nil {
			t.Fatalf("constructor failed: %v", err)
		}
		return s
	}
}

func mustTessellate(t *testing.T, s kernel.Solid) *kernel.Tessellation {
	t.Helper()
	tess, err := s.Tessellate(testTolerance)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if tess.IsEmpty() {
		t.Fatal("tessellation is empty")
	}
	return tess
}

// bounds returns the componentwise min and max of the vertices.
func bounds(vs []r3.Vec) (min, max r3.Vec) {
	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range vs {
		min = r3.Vec{X: math.Min(min.X, v.X), Y: math.Min(min.Y, v.Y), Z: math.Min(min.Z, v.Z)}
		max = r3.Vec{X: math.Max(max.X, v.X), Y: math.Max(max.Y, v.Y), Z: math.Max(max.Z, v.Z)}
	}
	return min, max
}

func checkBounds(t *testing.T, tess *kernel.Tessellation, wantMin, wantMax r3.Vec) {
	t.Helper()
	const tol = 1.0
	min, max := bounds(tess.Vertices)
	got := [6]float64{min.X, min.Y, min.Z, max.X, max.Y, max.Z}
	want := [6]float64{wantMin.X, wantMin.Y, wantMin.Z, wantMax.X, wantMax.Y, wantMax.Z}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("bounds[%d] = %f, expected ~%f", i, got[i], want[i])
		}
	}
}

func TestBox(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(20, 10, 5))
	tess := mustTessellate(t, box)

	for i, f := range tess.Faces {
		if len(f) != 3 {
			t.Fatalf("face %d has arity %d, want 3", i, len(f))
		}
		for _, idx := range f {
			if int(idx) >= tess.VertexCount() {
				t.Fatalf("face %d index %d out of range (%d vertices)", i, idx, tess.VertexCount())
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			t.Fatalf("face %d is degenerate: %v", i, f)
		}
	}

	// The box has its minimum corner at the origin.
	checkBounds(t, tess, r3.Vec{}, r3.Vec{X: 20, Y: 10, Z: 5})
}

func TestBoxWeldsVertices(t *testing.T) {
	k := New()
	tess := mustTessellate(t, mustSolid(t)(k.Box(10, 10, 10)))

	// A closed welded triangle mesh shares vertices between faces, so there
	// must be far fewer vertices than triangle corners.
	if tess.VertexCount() >= tess.FaceCount()*3 {
		t.Errorf("vertex count %d not welded (faces %d)", tess.VertexCount(), tess.FaceCount())
	}
}

func TestCylinder(t *testing.T) {
	k := New()
	cyl := mustSolid(t)(k.Cylinder(20, 5, 32))
	tess := mustTessellate(t, cyl)
	checkBounds(t, tess, r3.Vec{X: -5, Y: -5, Z: -10}, r3.Vec{X: 5, Y: 5, Z: 10})
}

func TestSphere(t *testing.T) {
	k := New()
	tess := mustTessellate(t, mustSolid(t)(k.Sphere(6, 0)))
	checkBounds(t, tess, r3.Vec{X: -6, Y: -6, Z: -6}, r3.Vec{X: 6, Y: 6, Z: 6})
}

func TestInvalidPrimitives(t *testing.T) {
	k := New()
	if _, err := k.Box(-1, 10, 10); err == nil {
		t.Error("Box with negative size: expected error")
	}
	if _, err := k.Cylinder(10, -2, 32); err == nil {
		t.Error("Cylinder with negative radius: expected error")
	}
	if _, err := k.Sphere(0, 0); err == nil {
		t.Error("Sphere with zero radius: expected error")
	}
}

func TestUnion(t *testing.T) {
	k := New()
	box1 := mustSolid(t)(k.Box(10, 10, 10))
	box2 := k.Translate(mustSolid(t)(k.Box(10, 10, 10)), 6, 0, 0)
	tess := mustTessellate(t, k.Union(box1, box2))
	checkBounds(t, tess, r3.Vec{}, r3.Vec{X: 16, Y: 10, Z: 10})
}

func TestDifference(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(10, 10, 10))
	hole := k.Translate(mustSolid(t)(k.Cylinder(14, 2, 32)), 5, 5, 5)
	tess := mustTessellate(t, k.Difference(box, hole))

	// The hole is inside the box footprint, so the outer bounds are unchanged.
	checkBounds(t, tess, r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 10})
}

func TestIntersection(t *testing.T) {
	k := New()
	box1 := mustSolid(t)(k.Box(10, 10, 10))
	box2 := k.Translate(mustSolid(t)(k.Box(10, 10, 10)), 5, 0, 0)
	tess := mustTessellate(t, k.Intersection(box1, box2))
	checkBounds(t, tess, r3.Vec{X: 5}, r3.Vec{X: 10, Y: 10, Z: 10})
}

func TestTranslate(t *testing.T) {
	k := New()
	moved := k.Translate(mustSolid(t)(k.Box(10, 10, 10)), 100, 200, 300)
	tess := mustTessellate(t, moved)
	checkBounds(t, tess, r3.Vec{X: 100, Y: 200, Z: 300}, r3.Vec{X: 110, Y: 210, Z: 310})
}

func TestRotate(t *testing.T) {
	k := New()
	box := mustSolid(t)(k.Box(20, 4, 4))

	// A long box along X rotated 90 degrees around Z should extend along Y instead.
	tess := mustTessellate(t, k.Rotate(box, 0, 0, 90))
	min, max := bounds(tess.Vertices)

	const tol = 1.0
	if xExtent := max.X - min.X; math.Abs(xExtent-4) > tol {
		t.Errorf("rotated X extent = %f, expected ~4", xExtent)
	}
	if yExtent := max.Y - min.Y; math.Abs(yExtent-20) > tol {
		t.Errorf("rotated Y extent = %f, expected ~20", yExtent)
	}
}

func TestMeshCells(t *testing.T) {
	tests := []struct {
		name      string
		extent    float64
		tolerance float64
		want      int
	}{
		{"zero tolerance", 10, 0, minMeshCells},
		{"coarse", 10, 5, minMeshCells},
		{"regular", 10, 0.5, 20},
		{"capped", 1000, 0.1, maxMeshCells},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := New()
			box, err := k.Box(tt.extent, 1, 1)
			if err != nil {
				t.Fatalf("Box failed: %v", err)
			}
			bb := unwrap(box).BoundingBox()
			if got := meshCells(bb, tt.tolerance); got != tt.want {
				t.Errorf("meshCells() = %d, want %d", got, tt.want)
			}
		})
	}
}
