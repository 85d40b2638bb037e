// Package lod schedules GPU residency for hierarchical level-of-detail model
// trees.
//
// Upstream loading pushes one DrawData per wanted node with AddDrawData.
// RefreshDrawData merges the batch into a persistent record map and rebuilds
// parent/child links. Every frame OnDrawFrame creates at most one new GPU
// model, keeps coarse ancestors drawn while their refinements stream in,
// draws the outermost ready node of each chain and disposes everything no
// longer needed. CalculateRayIntersectedElements picks against all resident
// geometry.
package lod

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/engine/model"
	"github.com/Faultbox/midgard-lod/internal/engine/picking"
	"github.com/Faultbox/midgard-lod/internal/engine/shader"
)

// NodeID identifies a node of the LOD tree. It is stable across submissions.
type NodeID int64

// Model is a renderable geometry handle owned by a draw record once created.
// Create, Draw and Dispose are only called from the thread owning the
// graphics context, under the renderer lock.
type Model interface {
	Create(sm *shader.Manager)
	Draw(rs model.RenderState)
	Dispose()
	Bounds() model.Bounds
	CalculateRayIntersections(ray picking.Ray, out []model.RayIntersection) []model.RayIntersection
}

// Feature is the source map feature a mesh vertex originates from.
type Feature struct {
	ID         int64
	Name       string
	Properties map[string]string
}

// ProxyMap maps intersection vertex ids back to source features. Vertices
// missing from the map are not pickable.
type ProxyMap map[uint32]*Feature

// DrawData is one node's submission.
type DrawData struct {
	NodeID NodeID
	// ParentIDs lists candidate parents in preference order. The first id
	// present in the record map becomes the parent.
	ParentIDs []NodeID
	// LocalMat transforms model space into world space.
	LocalMat mgl64.Mat4
	Model    Model
	ProxyMap ProxyMap
}

// OffsetHorizontally shifts the node along world X.
func (d *DrawData) OffsetHorizontally(offset float64) {
	d.LocalMat = mgl64.Translate3D(offset, 0, 0).Mul4(d.LocalMat)
}
