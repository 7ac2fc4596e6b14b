package colorhull

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInsufficientPoints is returned when fewer than four affinely
	// independent points are available.
	ErrInsufficientPoints = errors.New("colorhull: insufficient points for a 3-D hull")
	// ErrNoValidCandidate is returned when every cluster exclusion leaves a
	// degenerate point set.
	ErrNoValidCandidate = errors.New("colorhull: no cluster exclusion forms a hull")
)

// Hull is the convex hull of a 3-D point set.
type Hull struct {
	// Input points. Simplices and Vertices index into this slice.
	Points []r3.Vec
	// Triangular faces, counter-clockwise seen from outside.
	Simplices [][3]int
	// Indices of the points on the hull, ascending.
	Vertices []int
	Volume   float64

	eps float64
}

type face struct {
	v       [3]int
	normal  r3.Vec
	offset  float64
	outside []int
	dead    bool
}

func (f *face) distance(p r3.Vec) float64 {
	return r3.Dot(f.normal, p) - f.offset
}

type edge struct{ a, b int }

// ConvexHull computes the hull of pts with quickhull.
func ConvexHull(pts []r3.Vec) (*Hull, error) {
	if len(pts) < 4 {
		return nil, ErrInsufficientPoints
	}
	eps := tolerance(pts)
	seed, ok := initialSimplex(pts, eps)
	if !ok {
		return nil, ErrInsufficientPoints
	}

	// Centroid of the initial tetrahedron stays strictly inside the hull.
	var interior r3.Vec
	for _, i := range seed {
		interior = r3.Add(interior, pts[i])
	}
	interior = r3.Scale(0.25, interior)

	hb := &hullBuilder{pts: pts, eps: eps, interior: interior, edges: make(map[edge]*face)}
	a, b, c, d := seed[0], seed[1], seed[2], seed[3]
	initial := []*face{
		hb.addFace(a, b, c),
		hb.addFace(a, d, b),
		hb.addFace(a, c, d),
		hb.addFace(b, d, c),
	}
	for i := range pts {
		if i == a || i == b || i == c || i == d {
			continue
		}
		hb.assign(i, initial)
	}
	hb.queue(initial)

	for {
		apex, f := hb.nextApex()
		if f == nil {
			break
		}
		hb.expand(apex, f)
	}

	return hb.result(), nil
}

// tolerance scales the coplanarity threshold with the extent of the input.
func tolerance(pts []r3.Vec) float64 {
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = r3.Vec{X: min(lo.X, p.X), Y: min(lo.Y, p.Y), Z: min(lo.Z, p.Z)}
		hi = r3.Vec{X: max(hi.X, p.X), Y: max(hi.Y, p.Y), Z: max(hi.Z, p.Z)}
	}
	ext := max(math.Abs(lo.X), math.Abs(hi.X)) + max(math.Abs(lo.Y), math.Abs(hi.Y)) + max(math.Abs(lo.Z), math.Abs(hi.Z))
	return ext * 1e-10
}

func initialSimplex(pts []r3.Vec, eps float64) ([4]int, bool) {
	var seed [4]int

	// Widest pair among the axis extremes.
	var ext [6]int
	for i, p := range pts {
		if p.X < pts[ext[0]].X {
			ext[0] = i
		}
		if p.X > pts[ext[1]].X {
			ext[1] = i
		}
		if p.Y < pts[ext[2]].Y {
			ext[2] = i
		}
		if p.Y > pts[ext[3]].Y {
			ext[3] = i
		}
		if p.Z < pts[ext[4]].Z {
			ext[4] = i
		}
		if p.Z > pts[ext[5]].Z {
			ext[5] = i
		}
	}
	best := -1.0
	for i := range ext {
		for j := i + 1; j < len(ext); j++ {
			if d := r3.Norm2(r3.Sub(pts[ext[i]], pts[ext[j]])); d > best {
				best = d
				seed[0], seed[1] = ext[i], ext[j]
			}
		}
	}
	if math.Sqrt(best) <= eps {
		return seed, false
	}

	// Farthest from the line.
	dir := r3.Sub(pts[seed[1]], pts[seed[0]])
	best = -1
	for i, p := range pts {
		if d := r3.Norm(r3.Cross(dir, r3.Sub(p, pts[seed[0]]))); d > best {
			best = d
			seed[2] = i
		}
	}
	if best/r3.Norm(dir) <= eps {
		return seed, false
	}

	// Farthest from the plane.
	n := r3.Unit(r3.Cross(dir, r3.Sub(pts[seed[2]], pts[seed[0]])))
	best = -1
	for i, p := range pts {
		if d := math.Abs(r3.Dot(n, r3.Sub(p, pts[seed[0]]))); d > best {
			best = d
			seed[3] = i
		}
	}
	if best <= eps {
		return seed, false
	}
	return seed, true
}

type hullBuilder struct {
	pts      []r3.Vec
	eps      float64
	interior r3.Vec
	faces    []*face
	// Directed edge to the live face that contains it.
	edges map[edge]*face
	// Faces that had a non-empty outside set when queued.
	pending []*face
}

// addFace creates the face a,b,c with its normal pointing away from the
// interior point, flipping the winding when needed.
func (hb *hullBuilder) addFace(a, b, c int) *face {
	pa, pb, pc := hb.pts[a], hb.pts[b], hb.pts[c]
	n := r3.Cross(r3.Sub(pb, pa), r3.Sub(pc, pa))
	if r3.Dot(n, r3.Sub(hb.interior, pa)) > 0 {
		b, c = c, b
		n = r3.Scale(-1, n)
	}
	f := &face{v: [3]int{a, b, c}}
	if l := r3.Norm(n); l > 0 {
		f.normal = r3.Scale(1/l, n)
		f.offset = r3.Dot(f.normal, pa)
	}
	for k := range 3 {
		hb.edges[edge{f.v[k], f.v[(k+1)%3]}] = f
	}
	hb.faces = append(hb.faces, f)
	return f
}

// neighbor returns the face across the edge from a to b of some face.
func (hb *hullBuilder) neighbor(a, b int) *face {
	return hb.edges[edge{b, a}]
}

// assign puts point i in the outside set of the first candidate face that
// sees it. Points seen by no face are inside and dropped.
func (hb *hullBuilder) assign(i int, candidates []*face) {
	for _, f := range candidates {
		if f.dead {
			continue
		}
		if f.distance(hb.pts[i]) > hb.eps {
			f.outside = append(f.outside, i)
			return
		}
	}
}

func (hb *hullBuilder) queue(faces []*face) {
	for _, f := range faces {
		if len(f.outside) > 0 {
			hb.pending = append(hb.pending, f)
		}
	}
}

// nextApex pops the next live face with an outside set and returns its
// farthest point. f is nil when the hull is complete.
func (hb *hullBuilder) nextApex() (apex int, f *face) {
	var far float64
	for len(hb.pending) > 0 {
		f = hb.pending[len(hb.pending)-1]
		hb.pending = hb.pending[:len(hb.pending)-1]
		if f.dead || len(f.outside) == 0 {
			continue
		}
		apex, far = -1, -1.0
		for _, i := range f.outside {
			if d := f.distance(hb.pts[i]); d > far {
				far = d
				apex = i
			}
		}
		return apex, f
	}
	return -1, nil
}

// expand adds apex p, seen by start, to the hull. The visible region is
// flood filled from start across shared edges, its faces are removed and
// the horizon is stitched to p.
func (hb *hullBuilder) expand(p int, start *face) {
	apex := hb.pts[p]
	visited := map[*face]bool{start: true}
	visible := []*face{start}
	var horizon []edge
	for i := 0; i < len(visible); i++ {
		f := visible[i]
		for k := range 3 {
			e := edge{f.v[k], f.v[(k+1)%3]}
			n := hb.neighbor(e.a, e.b)
			if n == nil || n.dead {
				horizon = append(horizon, e)
				continue
			}
			if visited[n] {
				continue
			}
			if n.distance(apex) > hb.eps {
				visited[n] = true
				visible = append(visible, n)
				continue
			}
			horizon = append(horizon, e)
		}
	}

	var orphans []int
	for _, f := range visible {
		f.dead = true
		for k := range 3 {
			e := edge{f.v[k], f.v[(k+1)%3]}
			if hb.edges[e] == f {
				delete(hb.edges, e)
			}
		}
		for _, i := range f.outside {
			if i != p {
				orphans = append(orphans, i)
			}
		}
		f.outside = nil
	}

	created := make([]*face, 0, len(horizon))
	for _, e := range horizon {
		created = append(created, hb.addFace(e.a, e.b, p))
	}
	for _, i := range orphans {
		hb.assign(i, created)
	}
	hb.queue(created)
}

func (hb *hullBuilder) result() *Hull {
	h := &Hull{Points: hb.pts, eps: hb.eps}
	onHull := make(map[int]struct{})
	for _, f := range hb.faces {
		if f.dead {
			continue
		}
		h.Simplices = append(h.Simplices, f.v)
		a, b, c := hb.pts[f.v[0]], hb.pts[f.v[1]], hb.pts[f.v[2]]
		h.Volume += r3.Dot(r3.Sub(a, hb.interior), r3.Cross(r3.Sub(b, hb.interior), r3.Sub(c, hb.interior))) / 6
		for _, v := range f.v {
			onHull[v] = struct{}{}
		}
	}
	for v := range onHull {
		h.Vertices = append(h.Vertices, v)
	}
	slices.Sort(h.Vertices)
	return h
}

// Contains reports whether p lies inside or on the hull.
func (h *Hull) Contains(p r3.Vec) bool {
	interior := h.centroid()
	for _, s := range h.Simplices {
		a, b, c := h.Points[s[0]], h.Points[s[1]], h.Points[s[2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		l := r3.Norm(n)
		if l == 0 {
			continue
		}
		n = r3.Scale(1/l, n)
		if r3.Dot(n, r3.Sub(interior, a)) > 0 {
			n = r3.Scale(-1, n)
		}
		if r3.Dot(n, r3.Sub(p, a)) > h.eps {
			return false
		}
	}
	return true
}

func (h *Hull) centroid() r3.Vec {
	var c r3.Vec
	for _, v := range h.Vertices {
		c = r3.Add(c, h.Points[v])
	}
	return r3.Scale(1/float64(len(h.Vertices)), c)
}

// Edges returns each hull edge once as a pair of point indices.
func (h *Hull) Edges() [][2]int {
	seen := make(map[[2]int]struct{})
	var out [][2]int
	for _, s := range h.Simplices {
		for k := range 3 {
			a, b := s[k], s[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			if _, ok := seen[[2]int{a, b}]; ok {
				continue
			}
			seen[[2]int{a, b}] = struct{}{}
			out = append(out, [2]int{a, b})
		}
	}
	return out
}
