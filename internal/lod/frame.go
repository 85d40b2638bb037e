package lod

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/engine/model"
)

// FrameStats counts what one OnDrawFrame call did.
type FrameStats struct {
	Created    int `json:"created"`
	Promoted   int `json:"promoted"`
	Retained   int `json:"retained"`
	Drawn      int `json:"drawn"`
	Suppressed int `json:"suppressed"`
	Disposed   int `json:"disposed"`
	Collected  int `json:"collected"`
	Pending    int `json:"pending"`
	Resident   int `json:"resident"`
	Records    int `json:"records"`
}

// frameLighting is the per-frame draw input resolved from options and view.
type frameLighting struct {
	view      ViewState
	ambient   mgl32.Vec4
	mainColor mgl32.Vec4
	mainDir   mgl32.Vec3
}

// OnDrawFrame runs the residency passes and draws the selected records.
// It returns true while some wanted record still lacks a GPU model, so the
// caller keeps requesting frames until the tree settles.
//
// Nothing happens when the options have been collected or no surface exists.
func (r *Renderer) OnDrawFrame(deltaSeconds float32, view ViewState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts := r.options.Value()
	if opts == nil {
		r.log.Debug("options expired, skipping frame")
		return false
	}
	if r.shaderManager == nil {
		r.log.Debug("no surface, skipping frame")
		return false
	}

	start := time.Now()
	ambient, mainColor, mainDir := opts.lighting(view.Modelview)
	light := frameLighting{view: view, ambient: ambient, mainColor: mainColor, mainDir: mainDir}

	var stats FrameStats
	recs := r.orderedRecords()

	r.createPass(recs, &stats)
	r.promotePass(recs, &stats)
	r.retainPass(recs, &stats)
	r.drawPass(recs, light, &stats)
	r.disposePass(recs, &stats)

	for _, rec := range r.records {
		if rec.created {
			stats.Resident++
		}
		if rec.used && !rec.created {
			stats.Pending++
		}
	}
	stats.Records = len(r.records)

	r.lastStats = stats
	r.metrics.observe(stats, time.Since(start))
	return stats.Pending > 0
}

// createPass creates the model of the first wanted record without one.
// At most one upload per frame keeps frame times flat.
func (r *Renderer) createPass(recs []*drawRecord, stats *FrameStats) {
	for _, rec := range recs {
		if !rec.used || rec.created {
			continue
		}
		if m := rec.drawData.Model; m != nil {
			m.Create(r.shaderManager)
		}
		rec.created = true
		stats.Created++
		r.log.Debug("model created", zap.Int64("node", int64(rec.id())))
		return
	}
}

// promotePass keeps the nearest created ancestor of every still-loading
// record in use as a stand-in.
func (r *Renderer) promotePass(recs []*drawRecord, stats *FrameStats) {
	for _, rec := range recs {
		if !rec.used || rec.created {
			continue
		}
		for p := rec.parent; p != nil; p = p.parent {
			if !p.created {
				continue
			}
			if !p.used {
				p.used = true
				stats.Promoted++
			}
			break
		}
	}
}

// retainPass keeps an unwanted resident record if a wanted ancestor is still
// loading, unless a closer created ancestor already covers it.
func (r *Renderer) retainPass(recs []*drawRecord, stats *FrameStats) {
	for _, rec := range recs {
		if rec.used || !rec.created {
			continue
		}
		for p := rec.parent; p != nil; p = p.parent {
			if p.created {
				break
			}
			if p.used {
				rec.used = true
				stats.Retained++
				break
			}
		}
	}
}

// drawPass draws every ready record with no ready ancestor, so nested
// levels of the same chain never overdraw each other.
func (r *Renderer) drawPass(recs []*drawRecord, light frameLighting, stats *FrameStats) {
	for _, rec := range recs {
		if !rec.used || !rec.created {
			continue
		}
		if hasReadyAncestor(rec) {
			stats.Suppressed++
			continue
		}
		m := rec.drawData.Model
		if m == nil {
			continue
		}
		mv := light.view.Modelview.Mul4(rec.drawData.LocalMat)
		m.Draw(model.NewRenderState(light.view.Projection, mv, light.ambient, light.mainColor, light.mainDir))
		stats.Drawn++
	}
}

func hasReadyAncestor(rec *drawRecord) bool {
	for p := rec.parent; p != nil; p = p.parent {
		if p.used && p.created {
			return true
		}
	}
	return false
}

// disposePass erases every unused record, releasing its model. Its children
// are appended to its parent's children and point at that parent, so no link
// survives to an erased record.
func (r *Renderer) disposePass(recs []*drawRecord, stats *FrameStats) {
	for _, rec := range recs {
		if rec.used {
			continue
		}
		if p := rec.parent; p != nil {
			p.removeChild(rec)
			p.children = append(p.children, rec.children...)
		}
		for _, c := range rec.children {
			c.parent = rec.parent
		}
		if rec.created {
			if m := rec.drawData.Model; m != nil {
				m.Dispose()
			}
			rec.created = false
			stats.Disposed++
			r.log.Debug("model disposed", zap.Int64("node", int64(rec.id())))
		}
		rec.parent = nil
		rec.children = nil
		delete(r.records, rec.id())
		r.orderDirty = true
		stats.Collected++
	}
}
