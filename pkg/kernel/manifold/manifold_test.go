//go:build manifold

package manifold

import (
	"math"
	"testing"

	"github.com/chazu/brepview/pkg/kernel"
)

func mustNew(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func mustTessellate(t *testing.T, s kernel.Solid, err error) *kernel.Tessellation {
	t.Helper()
	if err != nil {
		t.Fatalf("constructor error = %v", err)
	}
	tess, err := s.Tessellate(0.1)
	if err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	return tess
}

func extent(tess *kernel.Tessellation) (min, max [3]float64) {
	min = [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range tess.Vertices {
		p := [3]float64{v.X, v.Y, v.Z}
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], p[i])
			max[i] = math.Max(max[i], p[i])
		}
	}
	return min, max
}

func TestBox(t *testing.T) {
	k := mustNew(t)
	s, err := k.Box(10, 20, 30)
	tess := mustTessellate(t, s, err)

	// A box has 8 corners and 12 triangles.
	if tess.FaceCount() != 12 {
		t.Errorf("face count = %d, want 12", tess.FaceCount())
	}
	if tess.VertexCount() < 8 {
		t.Errorf("vertex count = %d, want >= 8", tess.VertexCount())
	}

	min, max := extent(tess)
	wantMax := [3]float64{10, 20, 30}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]) > 1e-6 {
			t.Errorf("min[%d] = %f, want 0", i, min[i])
		}
		if math.Abs(max[i]-wantMax[i]) > 1e-6 {
			t.Errorf("max[%d] = %f, want %f", i, max[i], wantMax[i])
		}
	}
}

func TestCylinder(t *testing.T) {
	k := mustNew(t)
	s, err := k.Cylinder(20, 5, 32)
	tess := mustTessellate(t, s, err)

	min, max := extent(tess)
	if math.Abs(min[2]+10) > 1e-6 || math.Abs(max[2]-10) > 1e-6 {
		t.Errorf("cylinder Z range = [%f, %f], want [-10, 10]", min[2], max[2])
	}
}

func TestDifference(t *testing.T) {
	k := mustNew(t)
	box, err := k.Box(10, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	hole, err := k.Cylinder(20, 3, 32)
	if err != nil {
		t.Fatal(err)
	}
	tess := mustTessellate(t, k.Difference(box, k.Translate(hole, 5, 5, 5)), nil)
	if tess.FaceCount() <= 12 {
		t.Errorf("face count = %d, want more than a plain box", tess.FaceCount())
	}
}

func TestInvalidBox(t *testing.T) {
	k := mustNew(t)
	if _, err := k.Box(0, 1, 1); err == nil {
		t.Error("Box(0, 1, 1) error = nil, want error")
	}
}
