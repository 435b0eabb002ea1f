package court

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Heatmap is a 2D histogram over normalized court coordinates. Samples
// outside the bounds are clamped into the edge bins, so the bin total
// always equals the number of samples folded in.
type Heatmap struct {
	Cols    int     `json:"cols"`
	Rows    int     `json:"rows"`
	Bins    []int64 `json:"bins"` // Row-major, Cols*Rows
	Samples int64   `json:"samples"`
}

// NewHeatmap creates an empty cols x rows heatmap.
func NewHeatmap(cols, rows int) *Heatmap {
	return &Heatmap{
		Cols: cols,
		Rows: rows,
		Bins: make([]int64, cols*rows),
	}
}

// Add folds one court-coordinate sample into the histogram.
func (h *Heatmap) Add(p Point, bounds CourtBounds) {
	n := bounds.Normalize(p)
	col := int(n.X * float64(h.Cols))
	row := int(n.Y * float64(h.Rows))
	h.Bins[row*h.Cols+col]++
	h.Samples++
}

// At returns the count in bin (col, row).
func (h *Heatmap) At(col, row int) int64 {
	return h.Bins[row*h.Cols+col]
}

// Clone returns a deep copy.
func (h *Heatmap) Clone() *Heatmap {
	cp := &Heatmap{Cols: h.Cols, Rows: h.Rows, Samples: h.Samples}
	cp.Bins = append([]int64(nil), h.Bins...)
	return cp
}

// Zone labels: front/back (toward low/high Y) crossed with left/right.
const (
	ZoneFrontLeft  = "front_left"
	ZoneFrontRight = "front_right"
	ZoneBackLeft   = "back_left"
	ZoneBackRight  = "back_right"
)

// zoneFor classifies a court position into a quadrant zone.
func zoneFor(p Point, bounds CourtBounds) string {
	n := bounds.Normalize(p)
	front := n.Y < 0.5
	left := n.X < 0.5
	switch {
	case front && left:
		return ZoneFrontLeft
	case front:
		return ZoneFrontRight
	case left:
		return ZoneBackLeft
	default:
		return ZoneBackRight
	}
}

// PlayerStats accumulates per-player shot statistics across sealed
// rallies.
type PlayerStats struct {
	PlayerID int64          `json:"player_id"`
	Shots    int            `json:"shots"`
	Serves   int            `json:"serves"`
	Zones    map[string]int `json:"zones"`
}

func (ps *PlayerStats) clone() PlayerStats {
	cp := *ps
	cp.Zones = make(map[string]int, len(ps.Zones))
	for k, v := range ps.Zones {
		cp.Zones[k] = v
	}
	return cp
}

// RallyQuantiles summarises the rally-length distribution in seconds.
type RallyQuantiles struct {
	P50 float64 `json:"p50"`
	P85 float64 `json:"p85"`
	P95 float64 `json:"p95"`
}

// Aggregator folds sealed rallies and live position samples into match
// statistics. Accumulation is monotonic: nothing is ever recomputed from
// scratch, and sealed rallies are only appended. It implements
// RallySink.
type Aggregator struct {
	cfg EngineConfig

	rallies      []Rally
	rallyLengths []float64
	players      map[int64]*PlayerStats
	unknownShots int

	ballHeatmap      *Heatmap
	occupancyHeatmap *Heatmap
}

// NewAggregator creates an empty aggregator. The config must already be
// validated.
func NewAggregator(cfg EngineConfig) *Aggregator {
	return &Aggregator{
		cfg:              cfg,
		players:          make(map[int64]*PlayerStats),
		ballHeatmap:      NewHeatmap(cfg.HeatmapCols, cfg.HeatmapRows),
		occupancyHeatmap: NewHeatmap(cfg.HeatmapCols, cfg.HeatmapRows),
	}
}

// RallySealed folds one sealed rally into the match statistics.
func (a *Aggregator) RallySealed(r Rally) {
	a.rallies = append(a.rallies, r)
	a.rallyLengths = append(a.rallyLengths, r.Duration())

	for _, shot := range r.Shots {
		if shot.PlayerID == nil {
			a.unknownShots++
			continue
		}
		ps := a.playerStats(*shot.PlayerID)
		ps.Shots++
		if shot.Type == ShotServe {
			ps.Serves++
		}
		ps.Zones[zoneFor(shot.Location, a.cfg.Court)]++
	}
}

// ObserveFrame accumulates live occupancy and ball placement samples.
// This runs every frame, independent of rally boundaries.
func (a *Aggregator) ObserveFrame(players []PlayerObservation, ball BallState) {
	for _, p := range players {
		a.occupancyHeatmap.Add(p.Position, a.cfg.Court)
	}
	if ball.HasFix && !ball.Lost {
		a.ballHeatmap.Add(ball.Position, a.cfg.Court)
	}
}

func (a *Aggregator) playerStats(id int64) *PlayerStats {
	ps, ok := a.players[id]
	if !ok {
		ps = &PlayerStats{PlayerID: id, Zones: make(map[string]int)}
		a.players[id] = ps
	}
	return ps
}

// RallyCount returns the number of sealed rallies.
func (a *Aggregator) RallyCount() int { return len(a.rallies) }

// Rallies returns a copy of the sealed rallies in seal order.
func (a *Aggregator) Rallies() []Rally {
	return append([]Rally(nil), a.rallies...)
}

// Quantiles returns P50/P85/P95 of rally duration. Zero rallies yield a
// zero value.
func (a *Aggregator) Quantiles() RallyQuantiles {
	if len(a.rallyLengths) == 0 {
		return RallyQuantiles{}
	}
	sorted := append([]float64(nil), a.rallyLengths...)
	sort.Float64s(sorted)
	return RallyQuantiles{
		P50: stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P85: stat.Quantile(0.85, stat.Empirical, sorted, nil),
		P95: stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

// PlayerSummaries returns per-player stats in ascending ID order.
func (a *Aggregator) PlayerSummaries() []PlayerStats {
	out := make([]PlayerStats, 0, len(a.players))
	for _, ps := range a.players {
		out = append(out, ps.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// UnknownShots returns the count of shots recorded without attribution.
func (a *Aggregator) UnknownShots() int { return a.unknownShots }

// BallHeatmap returns a deep copy of the ball-placement histogram.
func (a *Aggregator) BallHeatmap() *Heatmap { return a.ballHeatmap.Clone() }

// OccupancyHeatmap returns a deep copy of the player-occupancy
// histogram.
func (a *Aggregator) OccupancyHeatmap() *Heatmap { return a.occupancyHeatmap.Clone() }

// String summarises the aggregate state for logs.
func (a *Aggregator) String() string {
	return fmt.Sprintf("rallies=%d players=%d ball_samples=%d occupancy_samples=%d",
		len(a.rallies), len(a.players), a.ballHeatmap.Samples, a.occupancyHeatmap.Samples)
}
