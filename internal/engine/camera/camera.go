// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/engine/picking"
)

// OrbitCamera orbits around a center point. World Z is up.
type OrbitCamera struct {
	// Center point to orbit around
	Center mgl64.Vec3

	// Spherical coordinates
	Distance float64 // Distance from center
	Pitch    float64 // Elevation above the XY plane (radians)
	Yaw      float64 // Rotation around Z (radians), 0 looks along +Y

	// Constraints
	MinDistance float64
	MaxDistance float64
	MinPitch    float64
	MaxPitch    float64

	// FovY is the vertical field of view in degrees.
	FovY float64

	// Sensitivity
	DragSensitivity float64
	ZoomSensitivity float64
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        200.0,
		Pitch:           0.5,
		Yaw:             0.0,
		MinDistance:     1.0,
		MaxDistance:     50000.0,
		MinPitch:        0.1,
		MaxPitch:        1.5,
		FovY:            60.0,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl64.Vec3 {
	horiz := c.Distance * math.Cos(c.Pitch)
	return c.Center.Add(mgl64.Vec3{
		horiz * math.Sin(c.Yaw),
		-horiz * math.Cos(c.Yaw),
		c.Distance * math.Sin(c.Pitch),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl64.Mat4 {
	return mgl64.LookAtV(c.Position(), c.Center, mgl64.Vec3{0, 0, 1})
}

// ClipPlanes returns near and far distances scaled to the orbit distance,
// keeping depth precision usable from street level to whole regions.
func (c *OrbitCamera) ClipPlanes() (near, far float64) {
	return c.Distance * 0.01, c.Distance * 100
}

// ProjectionMatrix returns the perspective projection for the given
// viewport aspect ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float64) mgl64.Mat4 {
	near, far := c.ClipPlanes()
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, near, far)
}

// ScreenRay returns the world-space ray under a pixel of a w×h viewport.
func (c *OrbitCamera) ScreenRay(x, y float64, w, h int) picking.Ray {
	vp := c.ProjectionMatrix(float64(w) / float64(h)).Mul4(c.ViewMatrix())
	return picking.ScreenToRay(x, y, float64(w), float64(h), vp.Inv())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float64) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity

	// Clamp pitch
	c.Pitch = mgl64.Clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float64) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl64.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// HandleMovement pans the camera center point based on keyboard input.
func (c *OrbitCamera) HandleMovement(forward, right, up float64) {
	// Speed scales with distance for consistent feel
	speed := c.Distance * 0.01

	fwd := mgl64.Vec2{-math.Sin(c.Yaw), math.Cos(c.Yaw)}
	side := mgl64.Vec2{math.Cos(c.Yaw), math.Sin(c.Yaw)}

	c.Center[0] += (fwd[0]*forward + side[0]*right) * speed
	c.Center[1] += (fwd[1]*forward + side[1]*right) * speed
	c.Center[2] += up * speed
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(center mgl64.Vec3) {
	c.Center = center
}

// FitToBounds adjusts camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(min, max mgl64.Vec3) {
	c.Center = min.Add(max).Mul(0.5)

	size := math.Max(max[0]-min[0], max[1]-min[1])
	c.Distance = mgl64.Clamp(size*1.2, c.MinDistance, c.MaxDistance)

	c.Pitch = 0.6 // Look down at ~35 degrees
	c.Yaw = 0.0
}
