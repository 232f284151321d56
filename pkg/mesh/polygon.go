package mesh

// Triangulate fans a polygon from its first vertex: an n-gon becomes the
// n-2 triangles (f0, fi, fi+1) for i in [1, n-2]. Faces with fewer than
// three vertices yield nothing. The fan is only correct for convex or
// near-planar faces, which is what kernel tessellators emit.
func Triangulate(face []uint32) [][3]uint32 {
	if len(face) < 3 {
		return nil
	}
	tris := make([][3]uint32, 0, len(face)-2)
	for i := 1; i < len(face)-1; i++ {
		tris = append(tris, [3]uint32{face[0], face[i], face[i+1]})
	}
	return tris
}

// edgeSet collects undirected edges in first-seen order.
type edgeSet struct {
	known map[uint64]struct{}
	pairs [][2]uint32
}

func newEdgeSet() *edgeSet {
	return &edgeSet{known: make(map[uint64]struct{})}
}

func (s *edgeSet) add(a, b uint32) {
	if b < a {
		a, b = b, a
	}
	key := uint64(a) | uint64(b)<<32
	if _, ok := s.known[key]; ok {
		return
	}
	s.known[key] = struct{}{}
	s.pairs = append(s.pairs, [2]uint32{a, b})
}

// addFace inserts the boundary of one polygon, including the edge that
// closes it from the last vertex back to the first.
func (s *edgeSet) addFace(face []uint32) {
	if len(face) < 3 {
		return
	}
	for i := range face {
		s.add(face[i], face[(i+1)%len(face)])
	}
}

// PolygonEdges returns the deduplicated undirected edges of the original
// polygon boundaries, each as (min, max). Triangulation diagonals are not
// edges, so a quad contributes four edges, not five.
func PolygonEdges(faces [][]uint32) [][2]uint32 {
	s := newEdgeSet()
	for _, f := range faces {
		s.addFace(f)
	}
	return s.pairs
}
