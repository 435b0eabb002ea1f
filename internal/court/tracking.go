package court

import (
	"math"
	"sort"
)

// TrackState is the lifecycle state of a player track.
type TrackState string

const (
	TrackTentative  TrackState = "tentative"  // New track, needs confirmation
	TrackConfirmed  TrackState = "confirmed"  // Stable identity with sufficient history
	TrackLost       TrackState = "lost"       // Confirmed track coasting on prediction
	TrackTerminated TrackState = "terminated" // Retired; the ID is never reused
)

// defaultFrameInterval seeds dt for the first frame, before two
// timestamps are available. 30 fps is the nominal camera rate.
const defaultFrameInterval = 1.0 / 30.0

// TrackSample is one observed position in a track's history.
type TrackSample struct {
	TimestampUnix float64 `json:"timestamp"`
	Position      Point   `json:"position"`
	BBox          BBox    `json:"bbox"`
}

// TrackedPlayer is a persistent player identity. The Kalman state
// [x, y, vx, vy] with covariance P follows a constant-velocity model;
// position-only measurements correct it whenever association succeeds.
type TrackedPlayer struct {
	ID    int64
	State TrackState

	// Lifecycle counters
	Hits   int // Consecutive successful associations
	Misses int // Consecutive missed associations

	FirstSeenUnix float64
	LastSeenUnix  float64

	// Kalman state (court frame): [x, y, vx, vy]
	X  float64
	Y  float64
	VX float64
	VY float64

	// Kalman covariance (4x4, row-major)
	P [16]float64

	ObservationCount int
	BBoxAreaMean     float64

	History []TrackSample

	terminatedAtUnix float64
}

// Position returns the current estimated position.
func (tp *TrackedPlayer) Position() Point { return Point{tp.X, tp.Y} }

// Velocity returns the current estimated velocity.
func (tp *TrackedPlayer) Velocity() Point { return Point{tp.VX, tp.VY} }

// Speed returns the current speed magnitude.
func (tp *TrackedPlayer) Speed() float64 {
	return math.Hypot(tp.VX, tp.VY)
}

// Live reports whether the track still participates in association.
func (tp *TrackedPlayer) Live() bool { return tp.State != TrackTerminated }

// AdvanceSummary reports what one frame did to the track population.
type AdvanceSummary struct {
	Assignment    Assignment
	Spawned       []int64
	Promoted      []int64
	Terminated    []int64
	SpawnsSkipped int // Detections dropped because the live-track cap was reached
}

// PlayerTracker owns the lifecycle of all player tracks. It is not safe
// for concurrent use; the Session serialises all calls and publishes
// read-only snapshots for concurrent readers.
type PlayerTracker struct {
	cfg    EngineConfig
	tracks map[int64]*TrackedPlayer
	nextID int64

	lastTS float64
	primed bool

	// Termination timestamps within the churn window, for the
	// identity-churn advisory.
	terminations []float64
}

// NewPlayerTracker creates a tracker. The config must already be
// validated.
func NewPlayerTracker(cfg EngineConfig) *PlayerTracker {
	return &PlayerTracker{
		cfg:    cfg,
		tracks: make(map[int64]*TrackedPlayer),
		nextID: 1,
	}
}

// Advance runs one frame: predict all live tracks to ts, associate the
// player detections, apply the assignment, spawn and retire tracks.
// Timestamp ordering is enforced by the Session before this is called.
func (pt *PlayerTracker) Advance(ts float64, detections []Detection) AdvanceSummary {
	dt := defaultFrameInterval
	if pt.primed {
		dt = ts - pt.lastTS
	}
	pt.lastTS = ts
	pt.primed = true

	// Step 1: predict every live track to the current timestamp.
	for _, tr := range pt.tracks {
		if tr.Live() {
			pt.predict(tr, dt)
		}
	}

	// Step 2: associate detections against the predicted positions.
	live := pt.liveTracksByID()
	summary := AdvanceSummary{Assignment: Associate(live, detections, pt.cfg)}

	// Step 3: correct matched tracks and manage promotions.
	for _, pair := range summary.Assignment.Pairs {
		tr := pt.tracks[pair.TrackID]
		pt.correct(tr, detections[pair.DetectionIndex], ts)
		tr.Hits++
		tr.Misses = 0

		switch tr.State {
		case TrackLost:
			// A lost track that reacquires its detection was confirmed
			// before; it does not restart confirmation.
			tr.State = TrackConfirmed
		case TrackTentative:
			if tr.Hits >= pt.cfg.HitsToConfirm && pt.confirmedCount() < pt.cfg.MaxPlayers {
				tr.State = TrackConfirmed
				summary.Promoted = append(summary.Promoted, tr.ID)
			}
			// Otherwise promotion is deferred: a tentative track never
			// displaces an established confirmed one.
		}
	}

	// Step 4: age unmatched tracks.
	for _, id := range summary.Assignment.UnmatchedTracks {
		tr := pt.tracks[id]
		tr.Misses++
		tr.Hits = 0

		switch {
		case tr.State == TrackTentative && tr.Misses >= pt.cfg.TentativeMaxMisses:
			pt.terminate(tr, ts)
			summary.Terminated = append(summary.Terminated, tr.ID)
		case tr.Misses >= pt.cfg.MaxMisses:
			pt.terminate(tr, ts)
			summary.Terminated = append(summary.Terminated, tr.ID)
		case tr.State == TrackConfirmed && tr.Misses >= pt.cfg.LostAfterMisses:
			tr.State = TrackLost
		}
	}

	// Step 5: spawn tentative tracks from leftover detections, up to the
	// live-track cap.
	for _, di := range summary.Assignment.UnmatchedDetections {
		if pt.liveCount() >= pt.cfg.MaxPlayers {
			summary.SpawnsSkipped++
			continue
		}
		tr := pt.spawn(detections[di], ts)
		summary.Spawned = append(summary.Spawned, tr.ID)
	}

	pt.sweepTerminated(ts)
	pt.trimChurnWindow(ts)

	return summary
}

// predict applies the constant-velocity Kalman prediction step.
func (pt *PlayerTracker) predict(tr *TrackedPlayer, dt float64) {
	// State transition F for constant velocity:
	// F = [1 0 dt 0; 0 1 0 dt; 0 0 1 0; 0 0 0 1]
	tr.X += tr.VX * dt
	tr.Y += tr.VY * dt

	// Covariance: P' = F P Fᵀ + Q, computed directly.
	P := tr.P
	var FP [16]float64
	for j := 0; j < 4; j++ {
		FP[0*4+j] = P[0*4+j] + dt*P[2*4+j]
		FP[1*4+j] = P[1*4+j] + dt*P[3*4+j]
		FP[2*4+j] = P[2*4+j]
		FP[3*4+j] = P[3*4+j]
	}
	for i := 0; i < 4; i++ {
		tr.P[i*4+0] = FP[i*4+0] + dt*FP[i*4+2]
		tr.P[i*4+1] = FP[i*4+1] + dt*FP[i*4+3]
		tr.P[i*4+2] = FP[i*4+2]
		tr.P[i*4+3] = FP[i*4+3]
	}

	// Q = diag(σ²pos, σ²pos, σ²vel, σ²vel)
	tr.P[0*4+0] += pt.cfg.ProcessNoisePos
	tr.P[1*4+1] += pt.cfg.ProcessNoisePos
	tr.P[2*4+2] += pt.cfg.ProcessNoiseVel
	tr.P[3*4+3] += pt.cfg.ProcessNoiseVel
}

// correct applies the Kalman update with a matched detection and records
// the observation in the track history.
func (pt *PlayerTracker) correct(tr *TrackedPlayer, det Detection, ts float64) {
	z := det.BBox.Center()

	// Innovation
	yX := z.X - tr.X
	yY := z.Y - tr.Y

	// Innovation covariance S = H P Hᵀ + R with H extracting position.
	r := pt.cfg.MeasurementNoise
	S00 := tr.P[0*4+0] + r
	S01 := tr.P[0*4+1]
	S10 := tr.P[1*4+0]
	S11 := tr.P[1*4+1] + r

	det2 := S00*S11 - S01*S10
	if det2 <= 0 {
		// Singular innovation covariance; skip the correction rather
		// than divide by zero.
		return
	}
	invS00 := S11 / det2
	invS01 := -S01 / det2
	invS10 := -S10 / det2
	invS11 := S00 / det2

	// Kalman gain K = P Hᵀ S⁻¹ (4x2).
	var K [8]float64
	for i := 0; i < 4; i++ {
		K[i*2+0] = tr.P[i*4+0]*invS00 + tr.P[i*4+1]*invS10
		K[i*2+1] = tr.P[i*4+0]*invS01 + tr.P[i*4+1]*invS11
	}

	tr.X += K[0*2+0]*yX + K[0*2+1]*yY
	tr.Y += K[1*2+0]*yX + K[1*2+1]*yY
	tr.VX += K[2*2+0]*yX + K[2*2+1]*yY
	tr.VY += K[3*2+0]*yX + K[3*2+1]*yY

	// P' = (I - K H) P. K H only touches the first two columns.
	var IKH [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var id float64
			if i == j {
				id = 1
			}
			var kh float64
			switch j {
			case 0:
				kh = K[i*2+0]
			case 1:
				kh = K[i*2+1]
			}
			IKH[i*4+j] = id - kh
		}
	}
	var newP [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += IKH[i*4+k] * tr.P[k*4+j]
			}
			newP[i*4+j] = sum
		}
	}
	tr.P = newP

	tr.LastSeenUnix = ts
	tr.ObservationCount++
	n := float64(tr.ObservationCount)
	tr.BBoxAreaMean = ((n-1)*tr.BBoxAreaMean + det.BBox.Area()) / n

	tr.History = append(tr.History, TrackSample{
		TimestampUnix: ts,
		Position:      Point{tr.X, tr.Y},
		BBox:          det.BBox,
	})
}

// spawn creates a tentative track from an unmatched detection.
func (pt *PlayerTracker) spawn(det Detection, ts float64) *TrackedPlayer {
	c := det.BBox.Center()
	tr := &TrackedPlayer{
		ID:    pt.nextID,
		State: TrackTentative,
		Hits:  1,

		FirstSeenUnix: ts,
		LastSeenUnix:  ts,

		X: c.X,
		Y: c.Y,

		// High positional uncertainty, moderate on velocity.
		P: [16]float64{
			10, 0, 0, 0,
			0, 10, 0, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		},

		ObservationCount: 1,
		BBoxAreaMean:     det.BBox.Area(),
		History: []TrackSample{{
			TimestampUnix: ts,
			Position:      c,
			BBox:          det.BBox,
		}},
	}
	pt.nextID++
	pt.tracks[tr.ID] = tr
	return tr
}

func (pt *PlayerTracker) terminate(tr *TrackedPlayer, ts float64) {
	tr.State = TrackTerminated
	tr.terminatedAtUnix = ts
	pt.terminations = append(pt.terminations, ts)
}

// sweepTerminated drops terminated tracks once their grace period ends.
// IDs stay retired: nextID only ever increases.
func (pt *PlayerTracker) sweepTerminated(ts float64) {
	for id, tr := range pt.tracks {
		if tr.State == TrackTerminated && ts-tr.terminatedAtUnix > pt.cfg.TerminatedGraceSec {
			delete(pt.tracks, id)
		}
	}
}

func (pt *PlayerTracker) trimChurnWindow(ts float64) {
	cutoff := ts - pt.cfg.ChurnWindowSec
	i := 0
	for i < len(pt.terminations) && pt.terminations[i] < cutoff {
		i++
	}
	pt.terminations = pt.terminations[i:]
}

// ChurnRate returns track terminations per second over the churn window.
func (pt *PlayerTracker) ChurnRate() float64 {
	return float64(len(pt.terminations)) / pt.cfg.ChurnWindowSec
}

func (pt *PlayerTracker) liveTracksByID() []*TrackedPlayer {
	out := make([]*TrackedPlayer, 0, len(pt.tracks))
	for _, tr := range pt.tracks {
		if tr.Live() {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (pt *PlayerTracker) liveCount() int {
	n := 0
	for _, tr := range pt.tracks {
		if tr.Live() {
			n++
		}
	}
	return n
}

func (pt *PlayerTracker) confirmedCount() int {
	n := 0
	for _, tr := range pt.tracks {
		if tr.State == TrackConfirmed {
			n++
		}
	}
	return n
}

// Confirmed returns confirmed tracks in ascending ID order.
func (pt *PlayerTracker) Confirmed() []*TrackedPlayer {
	out := make([]*TrackedPlayer, 0, len(pt.tracks))
	for _, tr := range pt.tracks {
		if tr.State == TrackConfirmed {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Live returns all non-terminated tracks in ascending ID order.
func (pt *PlayerTracker) Live() []*TrackedPlayer {
	return pt.liveTracksByID()
}

// Counts returns the track population broken down by state.
func (pt *PlayerTracker) Counts() (tentative, confirmed, lost, terminated int) {
	for _, tr := range pt.tracks {
		switch tr.State {
		case TrackTentative:
			tentative++
		case TrackConfirmed:
			confirmed++
		case TrackLost:
			lost++
		case TrackTerminated:
			terminated++
		}
	}
	return
}
