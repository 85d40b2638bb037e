// Package projection converts between the renderer's internal world space and
// external map coordinates.
package projection

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// EarthRadius is the WGS84 semi-major axis in metres.
const EarthRadius = 6378137.0

// Projection maps points between internal (world) and external coordinates.
type Projection interface {
	Name() string
	FromInternal(p mgl64.Vec3) mgl64.Vec3
	ToInternal(p mgl64.Vec3) mgl64.Vec3
}

// EPSG3857 is spherical mercator. Internal coordinates are mercator metres,
// external coordinates are longitude/latitude in degrees. Z passes through.
type EPSG3857 struct{}

// Name returns the EPSG code.
func (EPSG3857) Name() string {
	return "EPSG:3857"
}

// FromInternal converts mercator metres to lon/lat degrees.
func (EPSG3857) FromInternal(p mgl64.Vec3) mgl64.Vec3 {
	lon := p[0] / EarthRadius * 180.0 / math.Pi
	lat := (2*math.Atan(math.Exp(p[1]/EarthRadius)) - math.Pi/2) * 180.0 / math.Pi
	return mgl64.Vec3{lon, lat, p[2]}
}

// ToInternal converts lon/lat degrees to mercator metres.
func (EPSG3857) ToInternal(p mgl64.Vec3) mgl64.Vec3 {
	x := p[0] * math.Pi / 180.0 * EarthRadius
	lat := clampLatitude(p[1])
	y := math.Log(math.Tan(math.Pi/4+lat*math.Pi/360.0)) * EarthRadius
	return mgl64.Vec3{x, y, p[2]}
}

// WrapWidth is the internal width of one world copy, used for horizontal
// layer offsets across the antimeridian.
func (EPSG3857) WrapWidth() float64 {
	return 2 * math.Pi * EarthRadius
}

// Identity leaves coordinates untouched.
type Identity struct{}

// Name returns "identity".
func (Identity) Name() string { return "identity" }

// FromInternal returns p.
func (Identity) FromInternal(p mgl64.Vec3) mgl64.Vec3 { return p }

// ToInternal returns p.
func (Identity) ToInternal(p mgl64.Vec3) mgl64.Vec3 { return p }

// maxLatitude is the mercator cut-off.
const maxLatitude = 85.05112877980659

func clampLatitude(lat float64) float64 {
	if lat > maxLatitude {
		return maxLatitude
	}
	if lat < -maxLatitude {
		return -maxLatitude
	}
	return lat
}
