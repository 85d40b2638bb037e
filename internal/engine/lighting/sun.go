// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SunDirection converts sun angles to the direction sunlight travels.
// Azimuth is in degrees clockwise from +Y (north), elevation in degrees above
// the horizon. World Z is up; the result is normalized.
func SunDirection(azimuth, elevation float64) mgl64.Vec3 {
	az := mgl64.DegToRad(azimuth)
	el := mgl64.DegToRad(elevation)

	// Spherical to Cartesian, pointing at the sun
	toSun := mgl64.Vec3{
		math.Cos(el) * math.Sin(az),
		math.Cos(el) * math.Cos(az),
		math.Sin(el),
	}
	return toSun.Mul(-1)
}
