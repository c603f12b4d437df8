package core

import (
	"sort"
	"sync"
)

// MemorySurface is an in-process RenderSurface. It backs the CLI and the
// test suite, and doubles as the reference implementation of the surface
// contract for embedders bringing their own renderer.
type MemorySurface struct {
	mu       sync.Mutex
	nodes    map[string]NodeData
	edges    []Edge
	selected map[string]struct{}
	camera   Camera
}

// NewMemorySurface returns an empty surface with a 1:1 camera.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		nodes:    make(map[string]NodeData),
		selected: make(map[string]struct{}),
		camera:   Camera{Scale: 1},
	}
}

func (m *MemorySurface) SetNode(id string, data NodeData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[id] = data
}

func (m *MemorySurface) RemoveNode(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, id)
	delete(m.selected, id)
}

func (m *MemorySurface) HasNode(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.nodes[id]
	return ok
}

func (m *MemorySurface) AddConnection(from, to string, kind EdgeType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, Edge{From: from, To: to, Kind: kind})
}

func (m *MemorySurface) ClearConnections() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = m.edges[:0]
}

// Edges returns a copy of the current ordered edge list.
func (m *MemorySurface) Edges() []Edge {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out
}

// Select marks a node as selected; unknown ids are ignored.
func (m *MemorySurface) Select(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[id]; ok {
		m.selected[id] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (m *MemorySurface) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = make(map[string]struct{})
}

func (m *MemorySurface) SelectedNodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *MemorySurface) Camera() Camera {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.camera
}

func (m *MemorySurface) SetCamera(c Camera) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.camera = c
}

func (m *MemorySurface) ContentBounds() (Bounds, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.nodes) == 0 {
		return Bounds{}, false
	}
	first := true
	var b Bounds
	for _, n := range m.nodes {
		if first {
			b = Bounds{MinX: n.Position.X, MinY: n.Position.Y, MaxX: n.Position.X, MaxY: n.Position.Y}
			first = false
			continue
		}
		if n.Position.X < b.MinX {
			b.MinX = n.Position.X
		}
		if n.Position.Y < b.MinY {
			b.MinY = n.Position.Y
		}
		if n.Position.X > b.MaxX {
			b.MaxX = n.Position.X
		}
		if n.Position.Y > b.MaxY {
			b.MaxY = n.Position.Y
		}
	}
	return b, true
}

// NodeCount reports how many nodes the surface holds.
func (m *MemorySurface) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}
