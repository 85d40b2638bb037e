package layer

import (
	"github.com/Faultbox/midgard-lod/internal/engine/camera"
	"github.com/Faultbox/midgard-lod/internal/lod"
)

// ViewFromCamera builds the frame view state of an orbit camera.
func ViewFromCamera(c *camera.OrbitCamera, aspect float64) lod.ViewState {
	return lod.ViewState{
		Projection: c.ProjectionMatrix(aspect),
		Modelview:  c.ViewMatrix(),
		CameraPos:  c.Position(),
	}
}
