package lod

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/engine/lighting"
)

// Options holds the lighting the model pass draws with. The renderer only
// keeps a weak reference; the owner controls its lifetime.
type Options struct {
	AmbientLightColor  color.RGBA
	MainLightColor     color.RGBA
	MainLightDirection mgl64.Vec3
}

// DefaultOptions returns a grey ambient with a light grey sun high in the
// south-west.
func DefaultOptions() *Options {
	return &Options{
		AmbientLightColor:  color.RGBA{R: 64, G: 64, B: 64, A: 255},
		MainLightColor:     color.RGBA{R: 192, G: 192, B: 192, A: 255},
		MainLightDirection: lighting.SunDirection(225, 60),
	}
}

func colorVec(c color.RGBA) mgl32.Vec4 {
	return mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}.Mul(1.0 / 255.0)
}

// lighting converts the options to draw inputs. The light direction is
// rotated into eye space to match the shader's normals.
func (o *Options) lighting(modelview mgl64.Mat4) (ambient, main mgl32.Vec4, dir mgl32.Vec3) {
	d := modelview.Mat3().Mul3x1(o.MainLightDirection)
	return colorVec(o.AmbientLightColor), colorVec(o.MainLightColor),
		mgl32.Vec3{float32(d[0]), float32(d[1]), float32(d[2])}
}

// ViewState is the camera state for one frame.
type ViewState struct {
	Projection mgl64.Mat4
	Modelview  mgl64.Mat4
	CameraPos  mgl64.Vec3
}
