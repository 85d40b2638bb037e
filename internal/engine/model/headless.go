package model

import (
	"sync/atomic"

	"github.com/Faultbox/midgard-lod/internal/engine/picking"
	"github.com/Faultbox/midgard-lod/internal/engine/shader"
)

// HeadlessModel is a CPU-only model. It records lifecycle calls instead of
// touching GL, for simulations and tests.
type HeadlessModel struct {
	mesh *Mesh

	created  atomic.Bool
	creates  atomic.Int64
	disposes atomic.Int64
	draws    atomic.Int64

	lastState RenderState
}

// NewHeadlessModel wraps mesh.
func NewHeadlessModel(mesh *Mesh) *HeadlessModel {
	return &HeadlessModel{mesh: mesh}
}

// Create marks the model resident.
func (m *HeadlessModel) Create(*shader.Manager) {
	m.created.Store(true)
	m.creates.Add(1)
}

// Draw records the render state.
func (m *HeadlessModel) Draw(rs RenderState) {
	m.lastState = rs
	m.draws.Add(1)
}

// Dispose marks the model released.
func (m *HeadlessModel) Dispose() {
	m.created.Store(false)
	m.disposes.Add(1)
}

// Bounds returns the local mesh bounds.
func (m *HeadlessModel) Bounds() Bounds {
	return m.mesh.Bounds
}

// CalculateRayIntersections intersects a local-space ray with the mesh.
func (m *HeadlessModel) CalculateRayIntersections(ray picking.Ray, out []RayIntersection) []RayIntersection {
	return m.mesh.CalculateRayIntersections(ray, out)
}

// Created reports whether the model currently holds a (simulated) resource.
func (m *HeadlessModel) Created() bool { return m.created.Load() }

// Creates returns how many times Create was called.
func (m *HeadlessModel) Creates() int64 { return m.creates.Load() }

// Disposes returns how many times Dispose was called.
func (m *HeadlessModel) Disposes() int64 { return m.disposes.Load() }

// Draws returns how many times Draw was called.
func (m *HeadlessModel) Draws() int64 { return m.draws.Load() }

// LastState returns the state passed to the most recent Draw.
func (m *HeadlessModel) LastState() RenderState { return m.lastState }
