package shader

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ErrUnknownProgram is returned for a program name with no registered source.
var ErrUnknownProgram = errors.New("unknown shader program")

// Source is a pair of GLSL sources.
type Source struct {
	Vertex   string
	Fragment string
}

// Manager compiles programs on first use and caches them for the lifetime
// of one GL surface. It must only be used from the thread owning the context.
type Manager struct {
	mu       sync.Mutex
	sources  map[string]Source
	programs map[string]*Program
}

// NewManager returns a manager with the built-in programs registered.
// No GL calls are made until Program is called.
func NewManager() *Manager {
	m := &Manager{
		sources:  make(map[string]Source),
		programs: make(map[string]*Program),
	}
	m.Register(ModelProgram, Source{Vertex: modelVertexShader, Fragment: modelFragmentShader})
	return m
}

// Register adds or replaces a program source. A cached program with the same
// name is kept until Delete or Release.
func (m *Manager) Register(name string, src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[name] = src
}

// Program returns the named program, compiling it on first request.
func (m *Manager) Program(name string) (*Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.programs[name]; ok {
		return p, nil
	}
	src, ok := m.sources[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}
	id, err := CompileProgram(src.Vertex, src.Fragment)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", name, err)
	}
	p := &Program{ID: id, Name: name, uniforms: make(map[string]int32)}
	m.programs[name] = p
	return p, nil
}

// Delete frees all compiled programs. Requires a live context.
func (m *Manager) Delete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, p := range m.programs {
		gl.DeleteProgram(p.ID)
		delete(m.programs, name)
	}
}

// Release forgets compiled programs without GL calls, for use after the
// context is gone.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.programs = make(map[string]*Program)
}

// ProgramCount returns the number of compiled programs.
func (m *Manager) ProgramCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.programs)
}
