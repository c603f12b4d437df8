package core

// DefaultHistoryLimit bounds the undo stack.
const DefaultHistoryLimit = 50

// History holds bounded undo/redo stacks of full-state snapshots. Push
// records the state passed to it; a new push invalidates any pending redo
// branch, and the oldest snapshot is evicted first when the bound is hit.
type History struct {
	limit int
	undo  []graphState
	redo  []graphState
}

// NewHistory constructs a history bounded at limit snapshots; a
// non-positive limit selects DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push appends a snapshot to the undo stack and clears the redo stack.
func (h *History) Push(state graphState) {
	h.undo = append(h.undo, state.clone())
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// Undo pops the latest snapshot, stashing the live state on the redo stack.
// ok is false when there is nothing to undo; that is a no-op, not an error.
func (h *History) Undo(live graphState) (graphState, bool) {
	if len(h.undo) == 0 {
		return graphState{}, false
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, live.clone())
	return top, true
}

// Redo is the symmetric inverse of Undo.
func (h *History) Redo(live graphState) (graphState, bool) {
	if len(h.redo) == 0 {
		return graphState{}, false
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, live.clone())
	return top, true
}

// CanUndo reports whether the undo stack is non-empty. This and CanRedo are
// the only state exposed; there is no richer machine behind them.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depth returns the current undo stack depth.
func (h *History) Depth() int { return len(h.undo) }

// Reset drops both stacks, used after a destructive load.
func (h *History) Reset() {
	h.undo = nil
	h.redo = nil
}
