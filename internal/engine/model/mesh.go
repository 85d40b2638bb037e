package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/engine/picking"
)

// Mesh holds triangle geometry ready for GPU upload and CPU picking.
// VertexIDs[i] is the intersection id reported for Vertices[i].
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	VertexIDs []uint32
	Bounds    Bounds
}

// NewMesh builds a mesh and computes its bounds.
// If ids is nil, vertex ids are the vertex indices.
func NewMesh(vertices []Vertex, indices []uint32, ids []uint32) *Mesh {
	if ids == nil {
		ids = make([]uint32, len(vertices))
		for i := range ids {
			ids[i] = uint32(i)
		}
	}
	m := &Mesh{
		Vertices:  vertices,
		Indices:   indices,
		VertexIDs: ids,
	}
	m.Bounds = computeBounds(vertices)
	return m
}

func computeBounds(vertices []Vertex) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{
		Min: mgl32.Vec3(vertices[0].Position),
		Max: mgl32.Vec3(vertices[0].Position),
	}
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			if v.Position[i] < b.Min[i] {
				b.Min[i] = v.Position[i]
			}
			if v.Position[i] > b.Max[i] {
				b.Max[i] = v.Position[i]
			}
		}
	}
	return b
}

// boxFaces lists each face's corner indices (counter-clockwise seen from
// outside) and its normal. Corner i has bit 0 = x max, bit 1 = y max,
// bit 2 = z max.
var boxFaces = [6]struct {
	corners [4]int
	normal  [3]float32
}{
	{[4]int{1, 3, 7, 5}, [3]float32{1, 0, 0}},
	{[4]int{0, 4, 6, 2}, [3]float32{-1, 0, 0}},
	{[4]int{2, 6, 7, 3}, [3]float32{0, 1, 0}},
	{[4]int{0, 1, 5, 4}, [3]float32{0, -1, 0}},
	{[4]int{4, 5, 7, 6}, [3]float32{0, 0, 1}},
	{[4]int{0, 2, 3, 1}, [3]float32{0, 0, -1}},
}

// NewBoxMesh builds a flat-shaded box between min and max. The eight corners
// get vertex ids firstID..firstID+7, shared by the face vertices touching them.
func NewBoxMesh(min, max mgl32.Vec3, firstID uint32) *Mesh {
	corner := func(i int) [3]float32 {
		p := [3]float32{min[0], min[1], min[2]}
		if i&1 != 0 {
			p[0] = max[0]
		}
		if i&2 != 0 {
			p[1] = max[1]
		}
		if i&4 != 0 {
			p[2] = max[2]
		}
		return p
	}

	vertices := make([]Vertex, 0, 24)
	ids := make([]uint32, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range boxFaces {
		base := uint32(len(vertices))
		for _, c := range f.corners {
			vertices = append(vertices, Vertex{Position: corner(c), Normal: f.normal})
			ids = append(ids, firstID+uint32(c))
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh(vertices, indices, ids)
}

// CalculateRayIntersections appends every triangle hit of ray to out. Each
// hit reports the id of the triangle corner closest to the hit point. A ray
// through an edge or corner shared by several triangles is reported once.
func (m *Mesh) CalculateRayIntersections(ray picking.Ray, out []RayIntersection) []RayIntersection {
	first := len(out)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		a := widen(m.Vertices[i0].Position)
		b := widen(m.Vertices[i1].Position)
		c := widen(m.Vertices[i2].Position)

		t, u, v, hit := ray.IntersectTriangle(a, b, c)
		if !hit {
			continue
		}
		if seenHit(out[first:], t) {
			continue
		}

		// Largest barycentric weight is the nearest corner.
		w := 1 - u - v
		nearest := i0
		if u > w && u >= v {
			nearest = i1
		} else if v > w && v > u {
			nearest = i2
		}

		out = append(out, RayIntersection{
			VertexID: m.VertexIDs[nearest],
			Pos:      ray.At(t),
			T:        t,
		})
	}
	return out
}

// hitEpsilon is the relative tolerance for two hits at the same ray distance.
const hitEpsilon = 1e-9

func seenHit(hits []RayIntersection, t float64) bool {
	tol := hitEpsilon * math.Max(1, math.Abs(t))
	for _, h := range hits {
		if math.Abs(h.T-t) <= tol {
			return true
		}
	}
	return false
}

func widen(p [3]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
}
