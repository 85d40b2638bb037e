// Package layer connects LOD data sources to the lod renderer.
package layer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/lod"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/pkg/projection"
)

// DataSource produces the wanted nodes of a LOD tree for a view.
type DataSource interface {
	Projection() projection.Projection
	LoadDrawData(ctx context.Context, view lod.ViewState) ([]lod.DrawData, error)
}

// Resetter is implemented by sources caching GPU-backed models. Reset is
// called when the graphics context is lost.
type Resetter interface {
	Reset()
}

// ModelLODTreeLayer owns a lod.Renderer and feeds it from a DataSource.
type ModelLODTreeLayer struct {
	name     string
	source   DataSource
	renderer *lod.Renderer
	log      *zap.Logger

	// batchMu makes a loaded batch and its ready flag visible to the
	// render thread together.
	batchMu sync.Mutex
	ready   bool

	loading atomic.Bool
}

// NewModelLODTreeLayer creates a layer named name reading from source.
func NewModelLODTreeLayer(name string, source DataSource) *ModelLODTreeLayer {
	return &ModelLODTreeLayer{
		name:     name,
		source:   source,
		renderer: lod.NewRenderer(name),
		log:      logger.Named("layer").With(zap.String("layer", name)),
	}
}

// Name returns the layer name.
func (l *ModelLODTreeLayer) Name() string { return l.name }

// Projection returns the source projection.
func (l *ModelLODTreeLayer) Projection() projection.Projection {
	return l.source.Projection()
}

// Renderer exposes the underlying renderer for inspection.
func (l *ModelLODTreeLayer) Renderer() *lod.Renderer { return l.renderer }

// SetOptions forwards lighting options; the caller keeps them alive.
func (l *ModelLODTreeLayer) SetOptions(opts *lod.Options) {
	l.renderer.SetOptions(opts)
}

// Update loads the nodes wanted for view and queues them. The next
// OnDrawFrame applies the batch.
func (l *ModelLODTreeLayer) Update(ctx context.Context, view lod.ViewState) error {
	data, err := l.source.LoadDrawData(ctx, view)
	if err != nil {
		return fmt.Errorf("layer %s: load draw data: %w", l.name, err)
	}

	l.batchMu.Lock()
	for _, d := range data {
		l.renderer.AddDrawData(d)
	}
	l.ready = true
	l.batchMu.Unlock()

	l.log.Debug("batch loaded", zap.Int("nodes", len(data)))
	return nil
}

// UpdateAsync runs Update on a new goroutine unless one is still running.
// It reports whether a load was started.
func (l *ModelLODTreeLayer) UpdateAsync(ctx context.Context, view lod.ViewState) bool {
	if !l.loading.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer l.loading.Store(false)
		if err := l.Update(ctx, view); err != nil && !errors.Is(err, context.Canceled) {
			l.log.Warn("update failed", zap.Error(err))
		}
	}()
	return true
}

// Loading reports whether an UpdateAsync load is in flight.
func (l *ModelLODTreeLayer) Loading() bool {
	return l.loading.Load()
}

// OnSurfaceCreated prepares the renderer for a new graphics context.
func (l *ModelLODTreeLayer) OnSurfaceCreated() {
	l.renderer.OnSurfaceCreated()
}

// OnSurfaceDestroyed drops all records and any cached source models.
func (l *ModelLODTreeLayer) OnSurfaceDestroyed() {
	l.renderer.OnSurfaceDestroyed()
	if r, ok := l.source.(Resetter); ok {
		r.Reset()
	}
}

// Close releases the layer's metric series. Call it once the layer is no
// longer drawn.
func (l *ModelLODTreeLayer) Close() {
	l.renderer.Close()
}

// OnDrawFrame applies a pending batch, then runs the renderer's frame. It
// returns true while models are still being created.
func (l *ModelLODTreeLayer) OnDrawFrame(deltaSeconds float32, view lod.ViewState) bool {
	l.batchMu.Lock()
	if l.ready {
		l.renderer.RefreshDrawData()
		l.ready = false
	}
	l.batchMu.Unlock()

	return l.renderer.OnDrawFrame(deltaSeconds, view)
}

// OffsetHorizontally shifts the whole layer along world X.
func (l *ModelLODTreeLayer) OffsetHorizontally(offset float64) {
	l.renderer.OffsetLayerHorizontally(offset)
}

// Pick returns the features under a world-space ray, nearest first.
func (l *ModelLODTreeLayer) Pick(orig, dir mgl64.Vec3, view *lod.ViewState) []lod.RayIntersectedElement {
	hits := l.renderer.CalculateRayIntersectedElements(l, orig, dir, view, nil)
	slices.SortStableFunc(hits, func(a, b lod.RayIntersectedElement) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits
}
