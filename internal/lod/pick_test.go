package lod

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-lod/internal/engine/model"
	"github.com/Faultbox/midgard-lod/internal/engine/picking"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

func triangleModel() *model.HeadlessModel {
	mesh := model.NewMesh([]model.Vertex{
		{Position: [3]float32{0, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, 0, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}},
	}, []uint32{0, 1, 2}, nil)
	return model.NewHeadlessModel(mesh)
}

func (f *fixture) submitPickable(id NodeID, mat mgl64.Mat4, m Model, proxy ProxyMap) {
	f.r.AddDrawData(DrawData{NodeID: id, LocalMat: mat, Model: m, ProxyMap: proxy})
}

func TestPickSingleTriangle(t *testing.T) {
	f := newFixture(t)
	feature := &Feature{ID: 42, Name: "tower"}
	f.submitPickable(1, mgl64.Ident4(), triangleModel(), ProxyMap{0: feature})
	f.r.RefreshDrawData()
	f.settle()

	view := testView()
	layer := testLayer{proj: projection.Identity{}}
	hits := f.r.CalculateRayIntersectedElements(layer, mgl64.Vec3{0.1, 0.1, 5}, mgl64.Vec3{0, 0, -1}, &view, nil)

	require.Len(t, hits, 1)
	hit := hits[0]
	require.Same(t, feature, hit.Feature)
	require.Equal(t, layer, hit.Layer)
	require.InDelta(t, 0.1, hit.HitPos[0], 1e-9)
	require.InDelta(t, 0.1, hit.HitPos[1], 1e-9)
	require.InDelta(t, 0.0, hit.HitPos[2], 1e-9)
	require.Equal(t, hit.HitPos, hit.ElementPos)
	require.InDelta(t, mgl64.Vec3{0.1, 0.1, -10}.Len(), hit.Distance, 1e-9)
	require.Zero(t, hit.Priority)
}

func TestPickTransformsRayIntoModelSpace(t *testing.T) {
	f := newFixture(t)
	feature := &Feature{ID: 1}
	mat := mgl64.Translate3D(100, 0, 0).Mul4(mgl64.Scale3D(2, 2, 2))
	f.submitPickable(1, mat, triangleModel(), ProxyMap{0: feature, 1: feature, 2: feature})
	f.r.RefreshDrawData()
	f.settle()

	view := testView()
	layer := testLayer{proj: projection.Identity{}}

	hits := f.r.CalculateRayIntersectedElements(layer, mgl64.Vec3{101.5, 0.2, 3}, mgl64.Vec3{0, 0, -1}, &view, nil)
	require.Len(t, hits, 1)
	require.InDelta(t, 101.5, hits[0].HitPos[0], 1e-9)
	require.InDelta(t, 0.2, hits[0].HitPos[1], 1e-9)

	// The untransformed triangle position is empty space now.
	hits = f.r.CalculateRayIntersectedElements(layer, mgl64.Vec3{0.1, 0.1, 3}, mgl64.Vec3{0, 0, -1}, &view, nil)
	require.Empty(t, hits)
}

func TestPickSkipsVerticesWithoutFeature(t *testing.T) {
	f := newFixture(t)
	f.submitPickable(1, mgl64.Ident4(), triangleModel(), ProxyMap{2: {ID: 7}})
	f.r.RefreshDrawData()
	f.settle()

	view := testView()
	// Nearest corner is vertex 0, which has no feature.
	hits := f.r.CalculateRayIntersectedElements(testLayer{proj: projection.Identity{}}, mgl64.Vec3{0.05, 0.05, 5}, mgl64.Vec3{0, 0, -1}, &view, nil)
	require.Empty(t, hits)
}

func TestPickAppendsWithIncreasingPriority(t *testing.T) {
	f := newFixture(t)
	a, b := &Feature{ID: 1}, &Feature{ID: 2}
	f.submitPickable(1, mgl64.Ident4(), triangleModel(), ProxyMap{0: a})
	f.submitPickable(2, mgl64.Translate3D(0, 0, -2), triangleModel(), ProxyMap{0: b})
	f.r.RefreshDrawData()
	f.settle()

	view := testView()
	prior := []RayIntersectedElement{{Priority: 0}, {Priority: 1}}
	hits := f.r.CalculateRayIntersectedElements(testLayer{proj: projection.Identity{}}, mgl64.Vec3{0.1, 0.1, 5}, mgl64.Vec3{0, 0, -1}, &view, prior)

	require.Len(t, hits, 4)
	require.Same(t, a, hits[2].Feature)
	require.Equal(t, 2, hits[2].Priority)
	require.Same(t, b, hits[3].Feature)
	require.Equal(t, 3, hits[3].Priority)
	require.Greater(t, hits[3].Distance, hits[2].Distance)
}

func TestPickConsidersResidentButUnusedRecords(t *testing.T) {
	f := newFixture(t)
	f.submitPickable(1, mgl64.Ident4(), triangleModel(), ProxyMap{0: {ID: 1}})
	f.submitPickable(2, mgl64.Translate3D(10, 0, 0), triangleModel(), ProxyMap{0: {ID: 2}})
	f.r.RefreshDrawData()
	f.frame() // only node 1 is created

	view := testView()
	layer := testLayer{proj: projection.Identity{}}
	require.Empty(t, f.r.CalculateRayIntersectedElements(layer, mgl64.Vec3{10.1, 0.1, 5}, mgl64.Vec3{0, 0, -1}, &view, nil))

	// Unused after refresh, but still resident until the next frame.
	f.r.RefreshDrawData()
	require.Len(t, f.r.CalculateRayIntersectedElements(layer, mgl64.Vec3{0.1, 0.1, 5}, mgl64.Vec3{0, 0, -1}, &view, nil), 1)
}

func TestPickWithoutContext(t *testing.T) {
	f := newFixture(t)
	f.submitPickable(1, mgl64.Ident4(), triangleModel(), ProxyMap{0: {ID: 1}})
	f.r.RefreshDrawData()
	f.settle()

	orig, dir := mgl64.Vec3{0.1, 0.1, 5}, mgl64.Vec3{0, 0, -1}
	layer := testLayer{proj: projection.Identity{}}
	require.Empty(t, f.r.CalculateRayIntersectedElements(layer, orig, dir, nil, nil))

	view := testView()
	require.Empty(t, f.r.CalculateRayIntersectedElements(nil, orig, dir, &view, nil))

	f.r.SetOptions(nil)
	require.Empty(t, f.r.CalculateRayIntersectedElements(layer, orig, dir, &view, nil))
}

func TestPickProjectsThroughLayer(t *testing.T) {
	f := newFixture(t)
	const r = projection.EarthRadius
	box := model.NewHeadlessModel(model.NewBoxMesh(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, 0))
	proxy := ProxyMap{}
	for i := uint32(0); i < 8; i++ {
		proxy[i] = &Feature{ID: int64(i)}
	}
	// Box centred on lon 90°, lat 0.
	f.submitPickable(1, mgl64.Translate3D(r*mgl64.DegToRad(90), 0, 0), box, proxy)
	f.r.RefreshDrawData()
	f.settle()

	view := testView()
	hits := f.r.CalculateRayIntersectedElements(testLayer{proj: projection.EPSG3857{}}, mgl64.Vec3{r * mgl64.DegToRad(90), 0, 5}, mgl64.Vec3{0, 0, -1}, &view, nil)
	require.NotEmpty(t, hits)
	require.InDelta(t, 90.0, hits[0].HitPos[0], 1e-6)
	require.InDelta(t, 0.0, hits[0].HitPos[1], 1e-6)
	require.InDelta(t, 1.0, hits[0].HitPos[2], 1e-6)
}

// countingModel records how often exact intersection runs.
type countingModel struct {
	*model.HeadlessModel
	exact int
}

func (m *countingModel) CalculateRayIntersections(ray picking.Ray, out []model.RayIntersection) []model.RayIntersection {
	m.exact++
	return m.HeadlessModel.CalculateRayIntersections(ray, out)
}

func TestPickBoundsRejectSkipsExactTest(t *testing.T) {
	f := newFixture(t)
	m := &countingModel{HeadlessModel: triangleModel()}
	f.submitPickable(1, mgl64.Ident4(), m, ProxyMap{0: {ID: 1}})
	f.r.RefreshDrawData()
	f.settle()

	view := testView()
	layer := testLayer{proj: projection.Identity{}}
	require.Empty(t, f.r.CalculateRayIntersectedElements(layer, mgl64.Vec3{5, 5, 5}, mgl64.Vec3{0, 0, -1}, &view, nil))
	require.Zero(t, m.exact)

	require.Len(t, f.r.CalculateRayIntersectedElements(layer, mgl64.Vec3{0.1, 0.1, 5}, mgl64.Vec3{0, 0, -1}, &view, nil), 1)
	require.Equal(t, 1, m.exact)
}
