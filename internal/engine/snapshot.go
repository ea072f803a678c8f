package engine

import (
	"github.com/jask/zipdemo/internal/drain"
	"github.com/jask/zipdemo/internal/zip"
)

// Snapshot is everything the renderer shows, copied off the loop.
type Snapshot struct {
	drain.Snapshot

	LaneA      []zip.Item `json:"lane_a"`
	LaneB      []zip.Item `json:"lane_b"`
	PendingA   []zip.Item `json:"pending_a"`
	PendingB   []zip.Item `json:"pending_b"`
	Generation string     `json:"generation"`
	Speed      float64    `json:"speed"`
	Version    uint64     `json:"version"`
}

// Lane returns the emission lane of side.
func (s Snapshot) Lane(side zip.Side) []zip.Item {
	if side == zip.SideB {
		return s.LaneB
	}
	return s.LaneA
}

func (e *Engine) snapshot() Snapshot {
	e.version++
	return Snapshot{
		Snapshot:   e.coord.Snapshot(),
		LaneA:      e.streams[zip.SideA].Emitted(),
		LaneB:      e.streams[zip.SideB].Emitted(),
		PendingA:   e.comb.Pending(zip.SideA),
		PendingB:   e.comb.Pending(zip.SideB),
		Generation: e.comb.ID().String(),
		Speed:      e.speed,
		Version:    e.version,
	}
}
