package lod

import (
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-lod/internal/engine/model"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

type fixture struct {
	t      *testing.T
	r      *Renderer
	opts   *Options
	models map[NodeID]*model.HeadlessModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := NewRenderer(t.Name())
	r.OnSurfaceCreated()
	f := &fixture{
		t:      t,
		r:      r,
		opts:   DefaultOptions(),
		models: make(map[NodeID]*model.HeadlessModel),
	}
	r.SetOptions(f.opts)
	t.Cleanup(func() {
		r.Close()
		runtime.KeepAlive(f.opts)
	})
	return f
}

// model returns the node's model, stable across submissions like a
// data source cache.
func (f *fixture) model(id NodeID) *model.HeadlessModel {
	m, ok := f.models[id]
	if !ok {
		m = model.NewHeadlessModel(model.NewBoxMesh(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, uint32(id)*8))
		f.models[id] = m
	}
	return m
}

func (f *fixture) submit(id NodeID, parents ...NodeID) {
	f.r.AddDrawData(DrawData{
		NodeID:    id,
		ParentIDs: parents,
		LocalMat:  mgl64.Ident4(),
		Model:     f.model(id),
	})
}

func (f *fixture) frame() bool {
	return f.r.OnDrawFrame(1.0/60, testView())
}

// settle runs frames until nothing is pending.
func (f *fixture) settle() int {
	f.t.Helper()
	for i := 1; i <= 1000; i++ {
		if !f.frame() {
			return i
		}
	}
	f.t.Fatal("tree did not settle")
	return 0
}

func (f *fixture) state(id NodeID) NodeState {
	f.t.Helper()
	s, ok := f.r.NodeState(id)
	require.True(f.t, ok, "node %d missing", id)
	return s
}

func (f *fixture) record(id NodeID) *drawRecord {
	f.t.Helper()
	rec, ok := f.r.records[id]
	require.True(f.t, ok, "node %d missing", id)
	return rec
}

func (f *fixture) totalCreates() int64 {
	var n int64
	for _, m := range f.models {
		n += m.Creates()
	}
	return n
}

func testView() ViewState {
	return ViewState{
		Projection: mgl64.Ident4(),
		Modelview:  mgl64.Ident4(),
		CameraPos:  mgl64.Vec3{0, 0, 10},
	}
}

type testLayer struct {
	proj projection.Projection
}

func (l testLayer) Projection() projection.Projection {
	return l.proj
}

// requireInvariants checks link consistency and that parent chains are
// finite and stay inside the record map.
func requireInvariants(t *testing.T, r *Renderer) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.records {
		require.Equal(t, id, rec.id())

		if p := rec.parent; p != nil {
			require.Same(t, p, r.records[p.id()], "node %d has parent %d outside the map", id, p.id())
			require.Equal(t, 1, countChild(p, rec), "node %d listed %d times under its parent", id, countChild(p, rec))
		}
		for _, c := range rec.children {
			require.Same(t, rec, c.parent, "child %d of %d points elsewhere", c.id(), id)
			require.Same(t, c, r.records[c.id()], "child %d of %d outside the map", c.id(), id)
		}

		steps := 0
		for p := rec.parent; p != nil; p = p.parent {
			steps++
			require.LessOrEqual(t, steps, len(r.records), "cycle above node %d", id)
		}
	}
}

func countChild(p, c *drawRecord) int {
	n := 0
	for _, x := range p.children {
		if x == c {
			n++
		}
	}
	return n
}
