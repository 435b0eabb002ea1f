package court

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is the explicit context object holding all engine state for
// one match. A single caller advances it frame by frame; any number of
// goroutines may read snapshots concurrently.
//
// Each Advance is atomic: either the frame's detections are fully folded
// into track, ball, rally, and statistics state, or (on an ordering
// failure) nothing changes. Readers always observe a whole pre- or
// post-frame snapshot because publication swaps an immutable pointer
// after the frame completes.
type Session struct {
	id  string
	cfg EngineConfig

	mu        sync.Mutex // Serialises Advance and Reset
	tracker   *PlayerTracker
	ball      *BallEstimator
	segmenter *RallySegmenter
	agg       *Aggregator

	lastTS   float64
	primed   bool
	frames   int64
	overflow bool // Detection overflow seen on the most recent frame

	sinks []RallySink // External sinks, re-wired across resets

	published atomic.Pointer[MatchSnapshot]
}

// NewSession validates the configuration and creates a fresh session.
// Sealed rallies are delivered to the internal statistics aggregator and
// then to each extra sink, in order, during the Advance call that seals
// them.
func NewSession(cfg EngineConfig, sinks ...RallySink) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		id:    uuid.New().String(),
		cfg:   cfg,
		sinks: sinks,
	}
	s.initState()
	s.publish()
	return s, nil
}

// initState builds fresh engine components. Callers hold mu (or are the
// constructor).
func (s *Session) initState() {
	s.tracker = NewPlayerTracker(s.cfg)
	s.ball = NewBallEstimator(s.cfg)
	s.agg = NewAggregator(s.cfg)
	segSinks := append([]RallySink{s.agg}, s.sinks...)
	s.segmenter = NewRallySegmenter(s.cfg, segSinks...)
	s.lastTS = 0
	s.primed = false
	s.frames = 0
	s.overflow = false
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Config returns the session's validated configuration.
func (s *Session) Config() EngineConfig { return s.cfg }

// Advance processes one detection frame. Frames must arrive in strictly
// increasing timestamp order; violations return an *OrderingError and
// leave all state untouched.
func (s *Session) Advance(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.primed && frame.TimestampUnix <= s.lastTS {
		return &OrderingError{
			Timestamp:     frame.TimestampUnix,
			LastTimestamp: s.lastTS,
		}
	}

	ts := frame.TimestampUnix

	summary := s.tracker.Advance(ts, frame.PlayerDetections())
	ballState := s.ball.Advance(ts, frame.BallDetection())

	players := s.confirmedObservations()
	s.segmenter.Observe(ts, ballState, players)
	s.agg.ObserveFrame(players, ballState)

	s.lastTS = ts
	s.primed = true
	s.frames++
	s.overflow = summary.SpawnsSkipped > 0

	s.publish()
	return nil
}

// Snapshot returns the most recently published state. Safe to call from
// any goroutine; never blocks the frame writer.
func (s *Session) Snapshot() *MatchSnapshot {
	return s.published.Load()
}

// Reset clears all tracks, ball, rally, and statistics state, atomically
// with respect to concurrent readers. The session keeps its ID and
// configuration.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initState()
	s.publish()
}

func (s *Session) confirmedObservations() []PlayerObservation {
	confirmed := s.tracker.Confirmed()
	out := make([]PlayerObservation, len(confirmed))
	for i, tr := range confirmed {
		out[i] = PlayerObservation{ID: tr.ID, Position: tr.Position()}
	}
	return out
}

// publish builds a fully copied snapshot and swaps it in. Callers hold
// mu.
func (s *Session) publish() {
	ball := s.ball.State()

	live := s.tracker.Live()
	active := make([]ActiveTrack, len(live))
	for i, tr := range live {
		active[i] = ActiveTrack{
			ID:        tr.ID,
			Position:  tr.Position(),
			Velocity:  tr.Velocity(),
			Confirmed: tr.State == TrackConfirmed,
			State:     tr.State,
		}
	}

	snap := &MatchSnapshot{
		SessionID:         s.id,
		FramesProcessed:   s.frames,
		LastTimestampUnix: s.lastTS,

		Phase:          s.segmenter.Phase(),
		RallyCount:     s.agg.RallyCount(),
		Rallies:        s.agg.Rallies(),
		CurrentRally:   s.segmenter.CurrentRally(),
		RallyQuantiles: s.agg.Quantiles(),

		Players:      s.agg.PlayerSummaries(),
		UnknownShots: s.agg.UnknownShots(),

		BallHeatmap:      s.agg.BallHeatmap(),
		OccupancyHeatmap: s.agg.OccupancyHeatmap(),

		ActiveTracks: active,
		Ball: BallSnapshot{
			Position:     ball.Position,
			Velocity:     ball.Velocity,
			Variance:     ball.Variance,
			MissedFrames: ball.MissedFrames,
			Lost:         ball.Lost,
			HasFix:       ball.HasFix,
		},

		Flags: AdvisoryFlags{
			BallLost:          ball.Lost,
			TrackChurnHigh:    s.tracker.ChurnRate() > s.cfg.ChurnRateMax,
			DetectionOverflow: s.overflow,
		},
	}

	s.published.Store(snap)
}
