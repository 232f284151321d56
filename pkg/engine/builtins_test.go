package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/brepview/pkg/kernel"
)

// ---------------------------------------------------------------------------
// Recording kernel
// ---------------------------------------------------------------------------

// opSolid describes how it was built, e.g. "translate(box(1,2,3),10,0,0)".
type opSolid struct{ op string }

func (s *opSolid) Tessellate(float64) (*kernel.Tessellation, error) { return &kernel.Tessellation{}, nil }

type recordingKernel struct{}

func (recordingKernel) Box(x, y, z float64) (kernel.Solid, error) {
	if x <= 0 || y <= 0 || z <= 0 {
		return nil, fmt.Errorf("size must be positive")
	}
	return &opSolid{fmt.Sprintf("box(%g,%g,%g)", x, y, z)}, nil
}
func (recordingKernel) Cylinder(h, r float64, segments int) (kernel.Solid, error) {
	return &opSolid{fmt.Sprintf("cylinder(%g,%g,%d)", h, r, segments)}, nil
}
func (recordingKernel) Sphere(r float64, segments int) (kernel.Solid, error) {
	return &opSolid{fmt.Sprintf("sphere(%g,%d)", r, segments)}, nil
}
func (recordingKernel) Union(a, b kernel.Solid) kernel.Solid {
	return &opSolid{fmt.Sprintf("union(%s,%s)", name(a), name(b))}
}
func (recordingKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return &opSolid{fmt.Sprintf("difference(%s,%s)", name(a), name(b))}
}
func (recordingKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return &opSolid{fmt.Sprintf("intersection(%s,%s)", name(a), name(b))}
}
func (recordingKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return &opSolid{fmt.Sprintf("translate(%s,%g,%g,%g)", name(s), x, y, z)}
}
func (recordingKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return &opSolid{fmt.Sprintf("rotate(%s,%g,%g,%g)", name(s), x, y, z)}
}

func name(s kernel.Solid) string { return s.(*opSolid).op }

func evalScene(t *testing.T, source string) *Scene {
	t.Helper()
	scene, evalErrs, err := NewEngine(recordingKernel{}).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	if scene == nil {
		t.Fatal("expected non-nil scene")
	}
	return scene
}

func sceneOps(s *Scene) []string {
	ops := make([]string, len(s.Parts))
	for i, p := range s.Parts {
		ops[i] = name(p)
	}
	return ops
}

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :radius 4)`,
			expect: `(sphere "__kw_radius" 4)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :height 40 :radius 2)`,
			expect: `(cylinder "__kw_height" 40 "__kw_radius" 2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"say \":hi\"" :x`,
			expect: `"say \":hi\"" "__kw_x"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw`",
			expect: "`raw :kw`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def base-plate 1)`,
			expect: `(def base_plate 1)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:wall-thickness`,
			expect: `"__kw_wall-thickness"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func TestSolidEmitsBox(t *testing.T) {
	scene := evalScene(t, `(solid (box 10 20 30))`)
	got := sceneOps(scene)
	if len(got) != 1 || got[0] != "box(10,20,30)" {
		t.Errorf("scene = %v, want [box(10,20,30)]", got)
	}
}

func TestBoxKeywords(t *testing.T) {
	scene := evalScene(t, `(solid (box :x 1 :y 2.5 :z 3))`)
	if got := sceneOps(scene); got[0] != "box(1,2.5,3)" {
		t.Errorf("scene = %v", got)
	}
}

func TestLastExpressionIsSolid(t *testing.T) {
	scene := evalScene(t, `(sphere :radius 4)`)
	if got := sceneOps(scene); len(got) != 1 || got[0] != "sphere(4,32)" {
		t.Errorf("scene = %v, want [sphere(4,32)]", got)
	}
}

func TestCylinderSegments(t *testing.T) {
	scene := evalScene(t, `(solid (cylinder :height 40 :radius 2 :segments 12))`)
	if got := sceneOps(scene); got[0] != "cylinder(40,2,12)" {
		t.Errorf("scene = %v", got)
	}
}

func TestBooleansFold(t *testing.T) {
	scene := evalScene(t, `
(def a (box 1 1 1))
(def b (sphere 1))
(def c (cylinder 2 1))
(solid (difference a b c))
`)
	want := "difference(difference(box(1,1,1),sphere(1,32)),cylinder(2,1,32))"
	if got := sceneOps(scene); got[0] != want {
		t.Errorf("scene = %v, want [%s]", got, want)
	}
}

func TestTransforms(t *testing.T) {
	scene := evalScene(t, `
(solid (translate (rotate (box 1 2 3) (vec3 0 0 90)) :by (vec3 10 0 -5)))
`)
	want := "translate(rotate(box(1,2,3),0,0,90),10,0,-5)"
	if got := sceneOps(scene); got[0] != want {
		t.Errorf("scene = %v, want [%s]", got, want)
	}
}

func TestAssemblyEmitsInOrder(t *testing.T) {
	scene := evalScene(t, `
(def lhs (box 1 1 1))
(def rhs (translate (box 1 1 1) (vec3 5 0 0)))
(assembly "pair" lhs rhs (list (sphere 2)))
`)
	want := []string{"box(1,1,1)", "translate(box(1,1,1),5,0,0)", "sphere(2,32)"}
	got := sceneOps(scene)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("scene = %v, want %v", got, want)
	}
	if scene.Name != "pair" {
		t.Errorf("scene name = %q, want %q", scene.Name, "pair")
	}
	if len(kernel.Enumerate(scene)) != 3 {
		t.Error("scene should enumerate as an assembly of 3 solids")
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{"box missing size", `(box 1 2)`, "box: z"},
		{"kernel rejects size", `(box 0 1 1)`, "size must be positive"},
		{"union needs two", `(union (box 1 1 1))`, "at least 2"},
		{"solid wants solid", `(solid 5)`, "expected solid"},
		{"translate wants vec3", `(translate (box 1 1 1) 5)`, "expected vec3"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"assembly name", `(assembly 5)`, "assembly: name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scene, evalErrs, err := NewEngine(recordingKernel{}).Evaluate(tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if scene != nil {
				t.Fatal("expected nil scene on error")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	scene := evalScene(t, `
(def edge (* 2 5))
(solid (box edge edge (+ edge 1)))
`)
	if got := sceneOps(scene); got[0] != "box(10,10,11)" {
		t.Errorf("scene = %v", got)
	}
}
