package domain

// NodeData is the per-node projection pushed to the render surface. The
// surface owns visual node state; the engine rebuilds it wholesale rather
// than patching incrementally.
type NodeData struct {
	Person   Person
	Position Position
	Visual   Visual
}

// Bounds is an axis-aligned bounding box in model coordinates.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// RenderSurface is the drawing collaborator consumed by the engine. The
// engine never draws; it synchronizes nodes, replaces the edge list after
// every derivation, and drives the camera.
type RenderSurface interface {
	// SetNode upserts the node keyed by id.
	SetNode(id string, data NodeData)
	// RemoveNode drops the node keyed by id, if present.
	RemoveNode(id string)
	// HasNode reports whether a node exists for id.
	HasNode(id string) bool
	// AddConnection appends one edge to the ordered edge list.
	AddConnection(from, to string, kind EdgeType)
	// ClearConnections empties the edge list.
	ClearConnections()
	// SelectedNodes returns the ids of currently selected nodes.
	SelectedNodes() []string
	// Camera returns the current camera state.
	Camera() Camera
	// SetCamera replaces the camera state.
	SetCamera(c Camera)
	// ContentBounds returns the bounding box of all nodes; ok is false when
	// the surface is empty.
	ContentBounds() (b Bounds, ok bool)
}
