package layer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/midgard-lod/internal/engine/model"
	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

// MaxDepth is the deepest level a TileKey can encode.
const MaxDepth = 20

var (
	// ErrInvalidDepth is returned for depths outside [0, MaxDepth].
	ErrInvalidDepth = errors.New("layer: invalid depth")
	// ErrInvalidGrid is returned for a non-positive size or refine factor.
	ErrInvalidGrid = errors.New("layer: invalid grid")
)

// TileKey addresses one quadtree cell.
type TileKey struct {
	Level int
	X, Y  int
}

// ID packs the key into a node id. Coarser levels sort first.
func (k TileKey) ID() lod.NodeID {
	return lod.NodeID(int64(k.Level)<<40 | int64(k.Y)<<20 | int64(k.X))
}

// KeyFromID reverses ID.
func KeyFromID(id lod.NodeID) TileKey {
	const mask = 1<<20 - 1
	v := int64(id)
	return TileKey{Level: int(v >> 40), Y: int(v >> 20 & mask), X: int(v & mask)}
}

// Parent returns the enclosing tile. The root is its own parent.
func (k TileKey) Parent() TileKey {
	if k.Level == 0 {
		return k
	}
	return TileKey{Level: k.Level - 1, X: k.X / 2, Y: k.Y / 2}
}

// Ancestors lists every enclosing tile, nearest first.
func (k TileKey) Ancestors() []TileKey {
	out := make([]TileKey, 0, k.Level)
	for p := k; p.Level > 0; {
		p = p.Parent()
		out = append(out, p)
	}
	return out
}

// Children returns the four sub-tiles.
func (k TileKey) Children() [4]TileKey {
	x, y, l := k.X*2, k.Y*2, k.Level+1
	return [4]TileKey{{l, x, y}, {l, x + 1, y}, {l, x, y + 1}, {l, x + 1, y + 1}}
}

func (k TileKey) String() string {
	return strconv.Itoa(k.Level) + "/" + strconv.Itoa(k.X) + "/" + strconv.Itoa(k.Y)
}

// ModelFactory wraps a tile mesh in a renderable model.
type ModelFactory func(mesh *model.Mesh) lod.Model

// HeadlessFactory builds CPU-only models.
func HeadlessFactory(mesh *model.Mesh) lod.Model {
	return model.NewHeadlessModel(mesh)
}

// GLFactory builds GL models.
func GLFactory(mesh *model.Mesh) lod.Model {
	return model.NewGLModel(mesh)
}

// GridOptions configures a GridSource.
type GridOptions struct {
	// Origin is the internal-space minimum corner of the root tile.
	Origin mgl64.Vec2
	// Size is the root tile edge length.
	Size float64
	// MaxDepth is the deepest level selected.
	MaxDepth int
	// RefineFactor: a tile is split while the camera is closer than
	// Size * RefineFactor to its centre.
	RefineFactor float64
	Projection   projection.Projection
	NewModel     ModelFactory
}

// GridSource is a synthetic quadtree of box buildings, one per tile.
type GridSource struct {
	opts GridOptions

	mu       sync.Mutex
	models   map[lod.NodeID]lod.Model
	features map[lod.NodeID]*lod.Feature
}

// NewGridSource validates opts and creates the source. A nil projection
// means Identity and a nil factory means HeadlessFactory.
func NewGridSource(opts GridOptions) (*GridSource, error) {
	if opts.MaxDepth < 0 || opts.MaxDepth > MaxDepth {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, opts.MaxDepth)
	}
	if opts.Size <= 0 || opts.RefineFactor <= 0 {
		return nil, fmt.Errorf("%w: size %v, refine factor %v", ErrInvalidGrid, opts.Size, opts.RefineFactor)
	}
	if opts.Projection == nil {
		opts.Projection = projection.Identity{}
	}
	if opts.NewModel == nil {
		opts.NewModel = HeadlessFactory
	}
	return &GridSource{
		opts:     opts,
		models:   make(map[lod.NodeID]lod.Model),
		features: make(map[lod.NodeID]*lod.Feature),
	}, nil
}

// Projection returns the configured projection.
func (s *GridSource) Projection() projection.Projection {
	return s.opts.Projection
}

// TileBounds returns a tile's internal-space XY extent.
func (s *GridSource) TileBounds(k TileKey) (lo, hi mgl64.Vec2) {
	size := s.tileSize(k.Level)
	lo = s.opts.Origin.Add(mgl64.Vec2{float64(k.X) * size, float64(k.Y) * size})
	return lo, lo.Add(mgl64.Vec2{size, size})
}

func (s *GridSource) tileSize(level int) float64 {
	return s.opts.Size / float64(int64(1)<<level)
}

// Select returns the tiles wanted for a camera at pos.
func (s *GridSource) Select(ctx context.Context, pos mgl64.Vec3) ([]TileKey, error) {
	var out []TileKey
	var walk func(k TileKey) error
	walk = func(k TileKey) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		lo, hi := s.TileBounds(k)
		size := hi[0] - lo[0]
		centre := mgl64.Vec3{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2, s.height(k) / 2}
		if k.Level < s.opts.MaxDepth && pos.Sub(centre).Len() < size*s.opts.RefineFactor {
			for _, c := range k.Children() {
				if err := walk(c); err != nil {
					return err
				}
			}
			return nil
		}
		out = append(out, k)
		return nil
	}
	if err := walk(TileKey{}); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDrawData selects tiles for the view's camera and returns their draw
// data. Models and features are cached per tile, so a resubmitted node
// keeps its model.
func (s *GridSource) LoadDrawData(ctx context.Context, view lod.ViewState) ([]lod.DrawData, error) {
	keys, err := s.Select(ctx, view.CameraPos)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]lod.DrawData, 0, len(keys))
	for _, k := range keys {
		ancestors := k.Ancestors()
		parents := make([]lod.NodeID, len(ancestors))
		for i, a := range ancestors {
			parents[i] = a.ID()
		}

		lo, _ := s.TileBounds(k)
		m, feature := s.tileModel(k)
		proxy := make(lod.ProxyMap, 8)
		for v := uint32(0); v < 8; v++ {
			proxy[v] = feature
		}

		out = append(out, lod.DrawData{
			NodeID:    k.ID(),
			ParentIDs: parents,
			LocalMat:  mgl64.Translate3D(lo[0], lo[1], 0),
			Model:     m,
			ProxyMap:  proxy,
		})
	}
	return out, nil
}

// tileModel returns the cached model and feature of k. Callers hold s.mu.
func (s *GridSource) tileModel(k TileKey) (lod.Model, *lod.Feature) {
	id := k.ID()
	if m, ok := s.models[id]; ok {
		return m, s.features[id]
	}

	size := s.tileSize(k.Level)
	inset := size * 0.1
	height := s.height(k)
	mesh := model.NewBoxMesh(
		mgl32.Vec3{float32(inset), float32(inset), 0},
		mgl32.Vec3{float32(size - inset), float32(size - inset), float32(height)},
		0,
	)
	m := s.opts.NewModel(mesh)
	f := &lod.Feature{
		ID:   int64(id),
		Name: "tile " + k.String(),
		Properties: map[string]string{
			"level":  strconv.Itoa(k.Level),
			"height": strconv.FormatFloat(height, 'f', 1, 64),
		},
	}
	s.models[id] = m
	s.features[id] = f
	return m, f
}

// height derives a stable building height from the tile key.
func (s *GridSource) height(k TileKey) float64 {
	h := fnv.New32a()
	h.Write([]byte(k.String()))
	frac := float64(h.Sum32()%1000) / 1000
	return s.tileSize(k.Level) * (0.2 + 0.6*frac)
}

// CachedModels returns how many tile models are cached.
func (s *GridSource) CachedModels() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.models)
}

// Model returns the cached model of a tile, if any.
func (s *GridSource) Model(k TileKey) (lod.Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.models[k.ID()]
	return m, ok
}

// Reset drops all cached models and features.
func (s *GridSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.models)
	clear(s.features)
}
