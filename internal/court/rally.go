package court

// RallyPhase is the segmenter's state-machine phase.
type RallyPhase string

const (
	PhaseIdle        RallyPhase = "idle"         // No live play
	PhaseRallyActive RallyPhase = "rally_active" // Ball in play
	PhaseEndingGrace RallyPhase = "ending_grace" // Play appears over; waiting out the grace window
)

// ShotType tags a shot event. The taxonomy is deliberately open-ended:
// richer classification (lob, smash, volley) can extend it without
// touching the segmenter.
type ShotType string

const (
	ShotServe   ShotType = "serve"
	ShotRally   ShotType = "rally_shot"
	ShotUnknown ShotType = "unknown"
)

// ShotEvent is one detected ball strike. PlayerID is nil when no
// confirmed player was close enough to claim it; attribution is never
// forced.
type ShotEvent struct {
	Timestamp float64  `json:"timestamp"`
	PlayerID  *int64   `json:"player_id"`
	Location  Point    `json:"location"`
	Type      ShotType `json:"type"`
}

// Rally is one continuous span of live play. A rally is mutable only
// while the segmenter owns it; sealed rallies are passed by value and
// never change afterwards.
type Rally struct {
	StartUnix float64     `json:"start"`
	EndUnix   float64     `json:"end"`
	ServerID  *int64      `json:"server_id"`
	Shots     []ShotEvent `json:"shots"`
}

// Duration returns the rally length in seconds.
func (r Rally) Duration() float64 { return r.EndUnix - r.StartUnix }

// RallySink receives each rally exactly once, at the moment it is
// sealed.
type RallySink interface {
	RallySealed(Rally)
}

// PlayerObservation is the per-frame view of one confirmed player the
// segmenter and aggregator consume. They never touch tracker internals.
type PlayerObservation struct {
	ID       int64
	Position Point
}

// RallySegmenter demarcates play into rallies and shots from ball and
// player motion. State machine:
//
//	Idle         -> RallyActive  ball accelerates past ServeSpeed (serve)
//	RallyActive  -> EndingGrace  ball lost, or stationary beyond StationaryGraceSec
//	EndingGrace  -> RallyActive  motion resumes inside RallyGraceSec (false alarm)
//	EndingGrace  -> Idle         grace expires; rally sealed and emitted
type RallySegmenter struct {
	cfg   EngineConfig
	phase RallyPhase
	sinks []RallySink

	current *Rally

	// Motion bookkeeping
	prevVelocity   Point
	velocityValid  bool
	lowSpeedSince  float64 // Earliest instant of the current low-speed span; -1 when moving
	stoppedAtUnix  float64 // When play actually stopped; becomes the rally end on seal
	graceSince     float64
	lastShotUnix   float64
	sealedCount    int
}

// NewRallySegmenter creates a segmenter delivering sealed rallies to the
// given sinks in order.
func NewRallySegmenter(cfg EngineConfig, sinks ...RallySink) *RallySegmenter {
	return &RallySegmenter{
		cfg:           cfg,
		phase:         PhaseIdle,
		sinks:         sinks,
		lowSpeedSince: -1,
	}
}

// Phase returns the current state-machine phase.
func (rs *RallySegmenter) Phase() RallyPhase { return rs.phase }

// CurrentRally returns a copy of the in-progress rally, or nil outside
// of play.
func (rs *RallySegmenter) CurrentRally() *Rally {
	if rs.current == nil {
		return nil
	}
	cp := *rs.current
	cp.Shots = append([]ShotEvent(nil), rs.current.Shots...)
	return &cp
}

// SealedCount returns how many rallies have been sealed this session.
func (rs *RallySegmenter) SealedCount() int { return rs.sealedCount }

// Observe consumes one frame's ball state and confirmed-player
// positions.
func (rs *RallySegmenter) Observe(ts float64, ball BallState, players []PlayerObservation) {
	if !ball.HasFix {
		return
	}
	speed := ball.Speed()

	switch rs.phase {
	case PhaseIdle:
		if !ball.Lost && speed > rs.cfg.ServeSpeed {
			rs.startRally(ts, ball, players)
		}

	case PhaseRallyActive:
		rs.detectShot(ts, ball, players)

		switch {
		case ball.Lost:
			rs.enterGrace(ts, ts)
		case speed < rs.cfg.StationarySpeed:
			if rs.lowSpeedSince < 0 {
				rs.lowSpeedSince = ts
			}
			if ts-rs.lowSpeedSince > rs.cfg.StationaryGraceSec {
				// Play stopped when the ball did, not when we noticed.
				rs.enterGrace(ts, rs.lowSpeedSince)
			}
		default:
			rs.lowSpeedSince = -1
		}

	case PhaseEndingGrace:
		if !ball.Lost && speed > rs.cfg.StationarySpeed {
			// False alarm (brief occlusion or a slow lob): resume play
			// without sealing.
			rs.phase = PhaseRallyActive
			rs.lowSpeedSince = -1
		} else if ts-rs.graceSince > rs.cfg.RallyGraceSec {
			rs.seal()
		}
	}

	rs.prevVelocity = ball.Velocity
	rs.velocityValid = !ball.Lost && ball.MissedFrames == 0
}

func (rs *RallySegmenter) startRally(ts float64, ball BallState, players []PlayerObservation) {
	server := nearestPlayer(players, ball.Position, rs.cfg.ServeProximity)

	rs.current = &Rally{
		StartUnix: ts,
		ServerID:  server,
		Shots: []ShotEvent{{
			Timestamp: ts,
			PlayerID:  server,
			Location:  ball.Position,
			Type:      ShotServe,
		}},
	}
	rs.phase = PhaseRallyActive
	rs.lastShotUnix = ts
	rs.lowSpeedSince = -1
}

// detectShot appends a ShotEvent when the ball's velocity direction
// reverses at speed: a strike sends the ball back the way it came.
// Reversals only ever appear on detector corrections (pure prediction is
// straight-line), so a stale predicted velocity never fabricates a shot.
func (rs *RallySegmenter) detectShot(ts float64, ball BallState, players []PlayerObservation) {
	if !rs.velocityValid || ball.MissedFrames > 0 {
		return
	}
	speed := ball.Speed()
	if speed < rs.cfg.MinShotSpeed {
		return
	}
	if rs.prevVelocity.Dot(ball.Velocity) >= 0 {
		return
	}
	if ts-rs.lastShotUnix < rs.cfg.MinShotGapSec {
		return
	}

	// Nearest confirmed player within range takes the shot; with no one
	// in range the event is still recorded, unattributed.
	striker := nearestPlayer(players, ball.Position, rs.cfg.ShotProximity)

	rs.current.Shots = append(rs.current.Shots, ShotEvent{
		Timestamp: ts,
		PlayerID:  striker,
		Location:  ball.Position,
		Type:      ShotRally,
	})
	rs.lastShotUnix = ts
}

func (rs *RallySegmenter) enterGrace(ts, stoppedAt float64) {
	rs.phase = PhaseEndingGrace
	rs.graceSince = ts
	rs.stoppedAtUnix = stoppedAt
}

// seal fixes the rally's end timestamp and hands it to every sink. The
// sealed value is immutable from here on.
func (rs *RallySegmenter) seal() {
	rally := *rs.current
	rally.EndUnix = rs.stoppedAtUnix
	rally.Shots = append([]ShotEvent(nil), rs.current.Shots...)

	rs.current = nil
	rs.phase = PhaseIdle
	rs.lowSpeedSince = -1
	rs.sealedCount++

	for _, sink := range rs.sinks {
		sink.RallySealed(rally)
	}
}

// nearestPlayer returns the ID of the player closest to p within
// maxDist, or nil when nobody qualifies.
func nearestPlayer(players []PlayerObservation, p Point, maxDist float64) *int64 {
	var best *int64
	bestDist := maxDist
	for i := range players {
		d := players[i].Position.DistanceTo(p)
		if d <= bestDist {
			bestDist = d
			id := players[i].ID
			best = &id
		}
	}
	return best
}
