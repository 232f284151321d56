package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/brepview/pkg/kernel"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel.Solid so it can be passed between builtins.
type sexpSolid struct {
	solid kernel.Solid
	desc  string // constructor summary for printing
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(solid %s)", s.desc)
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a 3-component vector.
type sexpVec3 struct {
	x, y, z float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.x, v.y, v.z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return strings.ReplaceAll(str.S[len(kwPrefix):], "-", "_"), true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// number returns the keyword argument name, else positional argument pos,
// else def. A missing argument with no default is an error.
func (a kwArgs) number(name string, pos int, def *float64) (float64, error) {
	if v, ok := a.kw[name]; ok {
		return toFloat64(v)
	}
	if pos < len(a.positional) {
		return toFloat64(a.positional[pos])
	}
	if def != nil {
		return *def, nil
	}
	return 0, fmt.Errorf("missing %s", name)
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (*sexpVec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// collectSolids flattens arguments into solids; list and array arguments
// are expanded so (assembly "a" parts) works with a bound list.
func collectSolids(args []zygo.Sexp) ([]*sexpSolid, error) {
	var solids []*sexpSolid
	for i, a := range args {
		if s, ok := a.(*sexpSolid); ok {
			solids = append(solids, s)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: expected solid or list of solids, got %T (%s)", i, a, a.SexpString(nil))
		}
		nested, err := collectSolids(items)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		solids = append(solids, nested...)
	}
	return solids, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// zyFunc is the signature zygomys expects for Go builtins.
type zyFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// defaultSegments is passed to kernels that facet curved primitives.
const defaultSegments = 32

// registerBuiltins installs the scene builtins into a zygomys environment.
// Constructors return solids; (solid s) and (assembly "name" s...) emit
// solids into the scene that becomes the conversion input.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, scene *Scene) {
	segments := float64(defaultSegments)

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{x: c[0], y: c[1], z: c[2]}, nil
	})

	// (box 100 50 20) or (box :x 100 :y 50 :z 20)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var dims [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := pa.number(axis, i, nil)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %s: %w", axis, err)
			}
			dims[i] = f
		}
		s, err := k.Box(dims[0], dims[1], dims[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpSolid{solid: s, desc: fmt.Sprintf("box %gx%gx%g", dims[0], dims[1], dims[2])}, nil
	})

	// (cylinder :height 50 :radius 10 :segments 48)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		height, err := pa.number("height", 0, nil)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
		}
		radius, err := pa.number("radius", 1, nil)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
		}
		segs, err := pa.number("segments", 2, &segments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
		}
		s, err := k.Cylinder(height, radius, int(segs))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return &sexpSolid{solid: s, desc: fmt.Sprintf("cylinder h=%g r=%g", height, radius)}, nil
	})

	// (sphere :radius 10)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		radius, err := pa.number("radius", 0, nil)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
		}
		segs, err := pa.number("segments", 1, &segments)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: segments: %w", err)
		}
		s, err := k.Sphere(radius, int(segs))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return &sexpSolid{solid: s, desc: fmt.Sprintf("sphere r=%g", radius)}, nil
	})

	// (union a b ...), (difference a b ...), (intersection a b ...)
	booleans := map[string]func(a, b kernel.Solid) kernel.Solid{
		"union":        k.Union,
		"difference":   k.Difference,
		"intersection": k.Intersection,
	}
	for op, combine := range booleans {
		env.AddFunction(op, booleanBuiltin(op, combine))
	}

	// (translate s (vec3 10 0 0)) and (rotate s (vec3 0 0 90))
	env.AddFunction("translate", transformBuiltin("translate", k.Translate))
	env.AddFunction("rotate", transformBuiltin("rotate", k.Rotate))

	// (solid s) emits one solid into the scene.
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires exactly 1 argument, got %d", len(args))
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		scene.Parts = append(scene.Parts, s.solid)
		return s, nil
	})

	// (assembly "name" a b ...) emits every solid in order.
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}
		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		solids, err := collectSolids(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: %w", err)
		}
		if scene.Name == "" {
			scene.Name = asmName
		}
		for _, s := range solids {
			scene.Parts = append(scene.Parts, s.solid)
		}
		return &zygo.SexpInt{Val: int64(len(solids))}, nil
	})
}

func booleanBuiltin(op string, combine func(a, b kernel.Solid) kernel.Solid) zyFunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		solids, err := collectSolids(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		if len(solids) < 2 {
			return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", op, len(solids))
		}
		acc := solids[0].solid
		for _, s := range solids[1:] {
			acc = combine(acc, s.solid)
		}
		return &sexpSolid{solid: acc, desc: fmt.Sprintf("%s of %d", op, len(solids))}, nil
	}
}

func transformBuiltin(op string, apply func(s kernel.Solid, x, y, z float64) kernel.Solid) zyFunc {
	return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("%s requires a solid as first argument", op)
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		by, ok := pa.kw["by"]
		if !ok {
			if len(pa.positional) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a vec3 offset", op)
			}
			by = pa.positional[1]
		}
		v, err := toVec3(by)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", op, err)
		}
		return &sexpSolid{
			solid: apply(s.solid, v.x, v.y, v.z),
			desc:  fmt.Sprintf("%s %s", op, s.desc),
		}, nil
	}
}
