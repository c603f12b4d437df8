package core

import (
	"context"

	"kincore/pkg/domain"
)

// DeriveStats summarizes one full derivation. Skipped counts edges dropped
// because an endpoint id had no node; a missing endpoint is never an error.
type DeriveStats struct {
	Parent   int
	Spouse   int
	LineOnly int
	Skipped  int
}

// Edges returns the total number of edges emitted.
func (d DeriveStats) Edges() int { return d.Parent + d.Spouse + d.LineOnly }

// Deriver rebuilds the render surface edge list from the store. It is a full
// recompute every time: graphs stay small, and wholesale replacement keeps
// the derived set trivially consistent with the relational fields.
type Deriver struct {
	metrics MetricsRecorder
}

// NewDeriver constructs a deriver reporting to the given recorder.
func NewDeriver(metrics MetricsRecorder) *Deriver {
	return &Deriver{metrics: orNoopMetrics(metrics)}
}

// Rebuild clears the surface edge list and re-emits every renderable edge
// from the view. Traversal is ordered by person id, so an unchanged view
// always yields the identical edge sequence.
func (d *Deriver) Rebuild(ctx context.Context, view TransactionView, surface RenderSurface) DeriveStats {
	var stats DeriveStats
	surface.ClearConnections()

	hidden := view.HiddenConnections()
	for _, p := range view.ListPersons() {
		d.emitParent(surface, hidden, p.ID, p.MotherID, &stats)
		d.emitParent(surface, hidden, p.ID, p.FatherID, &stats)

		if p.SpouseID != nil && *p.SpouseID != p.ID {
			spouse := *p.SpouseID
			// Emit only from the lexicographically smaller id so a mutual
			// pair produces exactly one edge regardless of visit order.
			if p.ID < spouse {
				switch {
				case hidden.Has(p.ID, spouse):
				case !surface.HasNode(p.ID) || !surface.HasNode(spouse):
					stats.Skipped++
				default:
					surface.AddConnection(p.ID, spouse, EdgeSpouse)
					stats.Spouse++
				}
			}
		}
	}

	for _, key := range view.LineOnlyConnections().Keys() {
		a, b, ok := domain.SplitPairKey(key)
		if !ok {
			stats.Skipped++
			continue
		}
		if hidden.Has(a, b) {
			continue
		}
		if !surface.HasNode(a) || !surface.HasNode(b) {
			stats.Skipped++
			continue
		}
		surface.AddConnection(a, b, EdgeLineOnly)
		stats.LineOnly++
	}

	d.metrics.Add(ctx, CounterEdgesParent, int64(stats.Parent))
	d.metrics.Add(ctx, CounterEdgesSpouse, int64(stats.Spouse))
	d.metrics.Add(ctx, CounterEdgesLineOnly, int64(stats.LineOnly))
	d.metrics.Add(ctx, CounterEdgesSkipped, int64(stats.Skipped))
	return stats
}

func (d *Deriver) emitParent(surface RenderSurface, hidden PairSet, child string, parent *string, stats *DeriveStats) {
	if parent == nil || *parent == child {
		return
	}
	if hidden.Has(child, *parent) {
		return
	}
	if !surface.HasNode(child) || !surface.HasNode(*parent) {
		stats.Skipped++
		return
	}
	surface.AddConnection(child, *parent, EdgeParent)
	stats.Parent++
}
