// Package picking provides ray casting and object picking utilities.
package picking

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray represents a ray in 3D space with origin and direction.
// Direction need not be normalized; hit distances are in units of it.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB creates an AABB from two corners, swapping components so Min <= Max.
func NewAABB(a, b mgl64.Vec3) AABB {
	box := AABB{Min: a, Max: b}
	for i := 0; i < 3; i++ {
		if box.Min[i] > box.Max[i] {
			box.Min[i], box.Max[i] = box.Max[i], box.Min[i]
		}
	}
	return box
}

// At returns the point Origin + t*Direction.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform maps the ray through m. The direction is derived from two
// transformed points so projective matrices behave.
func (r Ray) Transform(m mgl64.Mat4) Ray {
	o := mgl64.TransformCoordinate(r.Origin, m)
	e := mgl64.TransformCoordinate(r.Origin.Add(r.Direction), m)
	return Ray{Origin: o, Direction: e.Sub(o)}
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float64, invViewProj mgl64.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	nearWorld := mgl64.TransformCoordinate(mgl64.Vec3{ndcX, ndcY, -1}, invViewProj)
	farWorld := mgl64.TransformCoordinate(mgl64.Vec3{ndcX, ndcY, 1}, invViewProj)

	dir := farWorld.Sub(nearWorld)
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	return Ray{Origin: nearWorld, Direction: dir}
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float64, hit bool) {
	tmin := -math.MaxFloat64
	tmax := math.MaxFloat64

	for i := 0; i < 3; i++ {
		if r.Direction[i] != 0 {
			t1 := (box.Min[i] - r.Origin[i]) / r.Direction[i]
			t2 := (box.Max[i] - r.Origin[i]) / r.Direction[i]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			tmin = math.Max(tmin, t1)
			tmax = math.Min(tmax, t2)
		} else if r.Origin[i] < box.Min[i] || r.Origin[i] > box.Max[i] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// RayBoundingBoxIntersect reports whether the ray from orig along dir
// touches box.
func RayBoundingBoxIntersect(orig, dir mgl64.Vec3, box AABB) bool {
	_, hit := Ray{Origin: orig, Direction: dir}.IntersectAABB(box)
	return hit
}

// triangleEpsilon rejects rays parallel to the triangle plane.
const triangleEpsilon = 1e-12

// IntersectTriangle runs Möller–Trumbore against triangle (a, b, c).
// Returns t along the ray and the barycentric u, v of the hit.
// Back faces are hit too; hits behind the origin are rejected.
func (r Ray) IntersectTriangle(a, b, c mgl64.Vec3) (t, u, v float64, hit bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < triangleEpsilon {
		return 0, 0, 0, false
	}
	inv := 1.0 / det

	s := r.Origin.Sub(a)
	u = s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}
	q := s.Cross(e1)
	v = r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}
	t = e2.Dot(q) * inv
	if t < 0 {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
