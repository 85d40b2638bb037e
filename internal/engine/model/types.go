// Package model provides LOD node meshes and their GPU/CPU model handles.
package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/engine/picking"
)

// Vertex represents a model mesh vertex with position and normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Bounds holds the axis-aligned bounding box of a mesh in local space.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// AABB widens the bounds to float64 for picking.
func (b Bounds) AABB() picking.AABB {
	return picking.NewAABB(
		mgl64.Vec3{float64(b.Min[0]), float64(b.Min[1]), float64(b.Min[2])},
		mgl64.Vec3{float64(b.Max[0]), float64(b.Max[1]), float64(b.Max[2])},
	)
}

// RayIntersection is a single ray hit against a mesh, in the mesh's local space.
type RayIntersection struct {
	VertexID uint32
	Pos      mgl64.Vec3
	T        float64
}

// RenderState carries the per-draw matrices and lighting.
type RenderState struct {
	Projection        mgl32.Mat4
	Modelview         mgl32.Mat4
	AmbientLightColor mgl32.Vec4
	MainLightColor    mgl32.Vec4
	MainLightDir      mgl32.Vec3
}

// NewRenderState narrows double precision matrices for upload.
func NewRenderState(proj, modelview mgl64.Mat4, ambient, mainColor mgl32.Vec4, mainDir mgl32.Vec3) RenderState {
	return RenderState{
		Projection:        toMat4f(proj),
		Modelview:         toMat4f(modelview),
		AmbientLightColor: ambient,
		MainLightColor:    mainColor,
		MainLightDir:      mainDir,
	}
}

func toMat4f(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
