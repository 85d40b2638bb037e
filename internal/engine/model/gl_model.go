package model

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/engine/picking"
	"github.com/Faultbox/midgard-lod/internal/engine/shader"
	"github.com/Faultbox/midgard-lod/internal/logger"
)

// GLModel is a mesh uploaded to GL buffers. Create, Draw and Dispose must be
// called from the thread owning the context.
type GLModel struct {
	mesh *Mesh

	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
	program    *shader.Program
}

// NewGLModel wraps mesh. Nothing is uploaded until Create.
func NewGLModel(mesh *Mesh) *GLModel {
	return &GLModel{mesh: mesh}
}

// Create uploads the mesh and resolves the model program.
func (m *GLModel) Create(sm *shader.Manager) {
	if m.vao != 0 || len(m.mesh.Vertices) == 0 || len(m.mesh.Indices) == 0 {
		return
	}
	program, err := sm.Program(shader.ModelProgram)
	if err != nil {
		logger.Warn("model program unavailable", zap.Error(err))
		return
	}
	m.program = program

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	vertexSize := int(unsafe.Sizeof(Vertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(m.mesh.Vertices)*vertexSize, unsafe.Pointer(&m.mesh.Vertices[0]), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.mesh.Indices)*4, unsafe.Pointer(&m.mesh.Indices[0]), gl.STATIC_DRAW)

	m.indexCount = int32(len(m.mesh.Indices))
	gl.BindVertexArray(0)
}

// Draw renders the model with depth testing enabled and restores the
// depth state afterwards.
func (m *GLModel) Draw(rs RenderState) {
	if m.vao == 0 || m.program == nil {
		return
	}

	gl.DepthMask(true)
	gl.Enable(gl.DEPTH_TEST)

	m.program.Use()
	gl.UniformMatrix4fv(m.program.Uniform("uProjection"), 1, false, &rs.Projection[0])
	gl.UniformMatrix4fv(m.program.Uniform("uModelview"), 1, false, &rs.Modelview[0])
	gl.Uniform4fv(m.program.Uniform("uAmbientColor"), 1, &rs.AmbientLightColor[0])
	gl.Uniform4fv(m.program.Uniform("uMainColor"), 1, &rs.MainLightColor[0])
	gl.Uniform3fv(m.program.Uniform("uMainDir"), 1, &rs.MainLightDir[0])

	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)

	gl.Disable(gl.DEPTH_TEST)
}

// Dispose frees the GL buffers.
func (m *GLModel) Dispose() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
	m.indexCount = 0
	m.program = nil
}

// Bounds returns the local mesh bounds.
func (m *GLModel) Bounds() Bounds {
	return m.mesh.Bounds
}

// CalculateRayIntersections intersects a local-space ray with the mesh.
func (m *GLModel) CalculateRayIntersections(ray picking.Ray, out []RayIntersection) []RayIntersection {
	return m.mesh.CalculateRayIntersections(ray, out)
}
