package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/brepview/pkg/kernel"
	"github.com/chazu/brepview/pkg/kernel/polymesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxOBJLine bounds a single OBJ record; long polygon lines exceed the
// bufio.Scanner default.
const maxOBJLine = 1 << 20

// objPart collects one object's faces, renumbered into its own vertex list.
type objPart struct {
	solid *polymesh.Solid
	local map[int]uint32 // file vertex index -> part vertex index
}

func newOBJPart(name string) *objPart {
	return &objPart{solid: &polymesh.Solid{Name: name}, local: make(map[int]uint32)}
}

// ReadOBJ reads a Wavefront OBJ stream. Each "o" or "g" record starts a new
// solid; a file without them is one solid. Polygon faces keep their full
// arity. Texture and normal references in face tokens are ignored.
//
// OBJ vertex indices are global to the file, so each solid's vertices are
// renumbered in first-use order and vertices no face uses are dropped.
func ReadOBJ(r io.Reader) (kernel.Handle, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxOBJLine)

	var (
		verts []r3.Vec
		parts []*objPart
		cur   *objPart
	)
	startPart := func(name string) {
		// Consecutive o/g records before any face name the same part.
		if cur != nil && len(cur.solid.Faces) == 0 {
			cur.solid.Name = name
			return
		}
		cur = newOBJPart(name)
		parts = append(parts, cur)
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("loader: obj line %d: vertex needs 3 coordinates", lineNo)
			}
			var c [3]float64
			for i := range c {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("loader: obj line %d: %w", lineNo, err)
				}
				c[i] = f
			}
			verts = append(verts, r3.Vec{X: c[0], Y: c[1], Z: c[2]})

		case "o", "g":
			startPart(strings.Join(fields[1:], " "))

		case "f":
			if cur == nil {
				startPart("")
			}
			face := make([]uint32, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				vi, err := parseOBJIndex(tok, len(verts))
				if err != nil {
					return nil, fmt.Errorf("loader: obj line %d: %w", lineNo, err)
				}
				li, ok := cur.local[vi]
				if !ok {
					li = uint32(len(cur.solid.Vertices))
					cur.local[vi] = li
					cur.solid.Vertices = append(cur.solid.Vertices, verts[vi])
				}
				face = append(face, li)
			}
			cur.solid.Faces = append(cur.solid.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: read obj: %w", err)
	}

	// Groups that never received a face carry no geometry.
	solids := make([]*polymesh.Solid, 0, len(parts))
	for _, p := range parts {
		if len(p.solid.Faces) > 0 {
			solids = append(solids, p.solid)
		}
	}
	if len(solids) == 1 {
		return solids[0], nil
	}
	return &polymesh.Assembly{Parts: solids}, nil
}

// parseOBJIndex resolves the vertex part of a face token ("7", "7/2",
// "7//3", "-1") to a zero-based index into the n vertices read so far.
func parseOBJIndex(tok string, n int) (int, error) {
	if i := strings.IndexByte(tok, '/'); i >= 0 {
		tok = tok[:i]
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q", tok)
	}
	switch {
	case v > 0 && v <= n:
		return v - 1, nil
	case v < 0 && -v <= n:
		return n + v, nil
	default:
		return 0, fmt.Errorf("face index %d out of range (%d vertices)", v, n)
	}
}
