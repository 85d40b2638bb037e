package lod

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/engine/picking"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

// Layer is the owner of a renderer as seen by the picker.
type Layer interface {
	Projection() projection.Projection
}

// RayIntersectedElement is one pick hit.
type RayIntersectedElement struct {
	Feature *Feature
	Layer   Layer
	// HitPos and ElementPos are in the layer's projection.
	HitPos     mgl64.Vec3
	ElementPos mgl64.Vec3
	// Distance is the world-space distance from the camera to the hit.
	Distance float64
	// Priority is the insertion index; lower wins.
	Priority int
}

// CalculateRayIntersectedElements appends a hit for every proxied vertex the
// world-space ray touches on any resident model, drawn or not. Without a
// view or live options nothing is appended.
func (r *Renderer) CalculateRayIntersectedElements(layer Layer, rayOrig, rayDir mgl64.Vec3, view *ViewState, results []RayIntersectedElement) []RayIntersectedElement {
	r.mu.Lock()
	defer r.mu.Unlock()

	if view == nil || layer == nil || r.options.Value() == nil {
		return results
	}
	proj := layer.Projection()
	worldRay := picking.Ray{Origin: rayOrig, Direction: rayDir}

	for _, rec := range r.orderedRecords() {
		if !rec.created {
			continue
		}
		m := rec.drawData.Model
		if m == nil {
			continue
		}
		modelMat := rec.drawData.LocalMat
		if modelMat.Det() == 0 {
			continue
		}
		localRay := worldRay.Transform(modelMat.Inv())

		if !picking.RayBoundingBoxIntersect(localRay.Origin, localRay.Direction, m.Bounds().AABB()) {
			continue
		}

		for _, hit := range m.CalculateRayIntersections(localRay, nil) {
			feature, ok := rec.drawData.ProxyMap[hit.VertexID]
			if !ok {
				continue
			}
			pos := mgl64.TransformCoordinate(hit.Pos, modelMat)
			projected := pos
			if proj != nil {
				projected = proj.FromInternal(pos)
			}
			results = append(results, RayIntersectedElement{
				Feature:    feature,
				Layer:      layer,
				HitPos:     projected,
				ElementPos: projected,
				Distance:   pos.Sub(view.CameraPos).Len(),
				Priority:   len(results),
			})
		}
	}
	return results
}
