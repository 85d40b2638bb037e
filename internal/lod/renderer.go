package lod

import (
	"maps"
	"slices"
	"sync"
	"weak"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/engine/shader"
	"github.com/Faultbox/midgard-lod/internal/logger"
)

// Renderer owns the draw records of one model LOD tree layer.
//
// AddDrawData may be called from a loader goroutine. Every other method
// takes the record lock and must be called from the render thread, because
// model creation and disposal happen inline.
type Renderer struct {
	name string
	log  *zap.Logger

	pendingMu sync.Mutex
	pending   []DrawData

	mu            sync.Mutex
	shaderManager *shader.Manager
	records       map[NodeID]*drawRecord
	ordered       []*drawRecord
	orderDirty    bool
	options       weak.Pointer[Options]
	lastStats     FrameStats
	metrics       *rendererMetrics
}

// NewRenderer creates an empty renderer. name labels its log lines and
// metrics.
func NewRenderer(name string) *Renderer {
	return &Renderer{
		name:    name,
		log:     logger.Named("lod").With(zap.String("layer", name)),
		records: make(map[NodeID]*drawRecord),
		metrics: newRendererMetrics(name),
	}
}

// Name returns the layer name the renderer was created with.
func (r *Renderer) Name() string {
	return r.name
}

// AddDrawData queues one node's submission for the next RefreshDrawData.
func (r *Renderer) AddDrawData(d DrawData) {
	r.pendingMu.Lock()
	r.pending = append(r.pending, d)
	r.pendingMu.Unlock()
}

// RefreshDrawData merges queued submissions into the record map and rebuilds
// the hierarchy. Records not resubmitted since the last call end up unused
// and are collected by the next frame.
func (r *Renderer) RefreshDrawData() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pendingMu.Lock()
	batch := r.pending
	r.pending = nil
	r.pendingMu.Unlock()

	// Mark all existing records unused and unlink the hierarchy.
	for _, rec := range r.records {
		rec.used = false
		rec.parent = nil
		rec.children = nil
	}

	// Create new records, mark submitted ones used.
	for _, d := range batch {
		rec, ok := r.records[d.NodeID]
		if !ok {
			rec = &drawRecord{}
			r.records[d.NodeID] = rec
			r.orderDirty = true
		}
		rec.drawData = d
		rec.used = true
	}

	// First present candidate wins, not the closest. Candidates that would
	// close a cycle are skipped so ancestor walks always end.
	for _, rec := range r.orderedRecords() {
		for _, pid := range rec.drawData.ParentIDs {
			parent, ok := r.records[pid]
			if !ok || isAncestorOrSelf(rec, parent) {
				continue
			}
			rec.parent = parent
			parent.children = append(parent.children, rec)
			break
		}
	}

	r.metrics.records.Set(float64(len(r.records)))
}

// isAncestorOrSelf reports whether rec is p or one of p's ancestors.
func isAncestorOrSelf(rec, p *drawRecord) bool {
	for ; p != nil; p = p.parent {
		if p == rec {
			return true
		}
	}
	return false
}

// SetOptions points the renderer at new lighting options. Only a weak
// reference is kept; once opts is collected frames are skipped.
func (r *Renderer) SetOptions(opts *Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if opts == nil {
		r.options = weak.Pointer[Options]{}
		return
	}
	r.options = weak.Make(opts)
}

// OffsetLayerHorizontally shifts every record along world X, for wrapping
// across the antimeridian.
func (r *Renderer) OffsetLayerHorizontally(offset float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		rec.drawData.OffsetHorizontally(offset)
	}
}

// OnSurfaceCreated resets GPU state for a new context. Any existing records
// are dropped; their resources died with the previous context.
func (r *Renderer) OnSurfaceCreated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shaderManager = shader.NewManager()
	r.clearRecords()
	r.log.Info("surface created")
}

// OnSurfaceDestroyed releases the shader manager and drops all records
// without disposing them, as the context is already gone.
func (r *Renderer) OnSurfaceDestroyed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shaderManager != nil {
		r.shaderManager.Release()
		r.shaderManager = nil
	}
	dropped := len(r.records)
	r.clearRecords()
	r.log.Info("surface destroyed", zap.Int("droppedRecords", dropped))
}

// Close drops the renderer's metric series. The renderer keeps working but
// its counters are no longer exported.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.unregister()
}

// RecordCount returns the number of live draw records.
func (r *Renderer) RecordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Snapshot returns the state of every record in node id order.
func (r *Renderer) Snapshot() []NodeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	recs := r.orderedRecords()
	out := make([]NodeState, len(recs))
	for i, rec := range recs {
		out[i] = rec.state()
	}
	return out
}

// NodeState returns one record's state.
func (r *Renderer) NodeState(id NodeID) (NodeState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return NodeState{}, false
	}
	return rec.state(), true
}

// LastFrameStats returns the counters of the most recent completed frame.
func (r *Renderer) LastFrameStats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStats
}

func (r *Renderer) clearRecords() {
	r.records = make(map[NodeID]*drawRecord)
	r.ordered = nil
	r.orderDirty = false
	r.metrics.records.Set(0)
	r.metrics.resident.Set(0)
	r.metrics.pending.Set(0)
}

// orderedRecords returns the records sorted by node id. Passes walk this
// order so the first eligible record of a pass is deterministic.
func (r *Renderer) orderedRecords() []*drawRecord {
	if !r.orderDirty && len(r.ordered) == len(r.records) {
		return r.ordered
	}
	ids := slices.Sorted(maps.Keys(r.records))
	r.ordered = make([]*drawRecord, 0, len(ids))
	for _, id := range ids {
		r.ordered = append(r.ordered, r.records[id])
	}
	r.orderDirty = false
	return r.ordered
}
