package court

import "math"

// BallState is the estimator's view of the ball at one instant. Exactly
// one ball exists per session.
type BallState struct {
	Position Point
	Velocity Point

	// Variance is the scalar positional uncertainty. It grows during
	// pure-prediction spans and contracts on every correction; its
	// absolute scale matters less than that ordering.
	Variance float64

	LastDetectionUnix float64
	MissedFrames      int

	// Lost is set when the ball has gone undetected for longer than the
	// configured threshold: the span is genuinely lost, not just
	// occluded, and downstream output is low-confidence.
	Lost bool

	// HasFix is false until the first detection of the session.
	HasFix bool
}

// Speed returns the estimated speed magnitude.
func (b BallState) Speed() float64 {
	return math.Hypot(b.Velocity.X, b.Velocity.Y)
}

// BallEstimator maintains a continuous ball position/velocity estimate
// from zero-or-one detections per frame.
//
// The filter is a snap-correct predict/correct pair rather than a full
// Kalman: prediction propagates constant velocity, and a correction
// snaps position to the observation while re-deriving velocity from the
// finite difference across the span since the last detection, blended by
// cfg.BallVelocityGain. With the default gain of 1 the filter has zero
// lag on clean input — the predicted position exactly matches a
// constant-velocity ball — which a conventional Kalman only approaches
// asymptotically. Lower gains trade lag for smoothing on noisy
// detectors.
type BallEstimator struct {
	cfg   EngineConfig
	state BallState

	lastTS      float64
	primed      bool
	lastMeasure Point
}

// NewBallEstimator creates an estimator. The config must already be
// validated.
func NewBallEstimator(cfg EngineConfig) *BallEstimator {
	return &BallEstimator{cfg: cfg}
}

// State returns the current ball state.
func (be *BallEstimator) State() BallState { return be.state }

// Advance moves the estimate to ts, correcting with det when the ball
// was detected this frame and coasting on prediction otherwise.
func (be *BallEstimator) Advance(ts float64, det *Detection) BallState {
	dt := defaultFrameInterval
	if be.primed {
		dt = ts - be.lastTS
	}
	be.lastTS = ts
	be.primed = true

	if !be.state.HasFix {
		if det != nil {
			be.initialise(ts, det.BBox.Center())
		}
		return be.state
	}

	// Predict: constant-velocity propagation, uncertainty strictly grows.
	be.state.Position.X += be.state.Velocity.X * dt
	be.state.Position.Y += be.state.Velocity.Y * dt
	be.state.Variance += be.cfg.BallProcessNoise * dt

	if det == nil {
		be.state.MissedFrames++
		if be.state.MissedFrames > be.cfg.BallLostAfterMisses {
			be.state.Lost = true
		}
		return be.state
	}

	be.correct(ts, det.BBox.Center())
	return be.state
}

func (be *BallEstimator) initialise(ts float64, z Point) {
	be.state = BallState{
		Position:          z,
		Variance:          be.cfg.BallMeasurementNoise,
		LastDetectionUnix: ts,
		HasFix:            true,
	}
	be.lastMeasure = z
}

func (be *BallEstimator) correct(ts float64, z Point) {
	span := ts - be.state.LastDetectionUnix
	if span > 0 {
		fd := Point{
			X: (z.X - be.lastMeasure.X) / span,
			Y: (z.Y - be.lastMeasure.Y) / span,
		}
		g := be.cfg.BallVelocityGain
		be.state.Velocity.X += g * (fd.X - be.state.Velocity.X)
		be.state.Velocity.Y += g * (fd.Y - be.state.Velocity.Y)
	}

	be.state.Position = z
	be.lastMeasure = z
	be.state.LastDetectionUnix = ts
	be.state.MissedFrames = 0
	be.state.Lost = false

	// Contract toward the measurement floor. The floor is a fixed point:
	// variance strictly decreases on every correction that follows a
	// prediction, because prediction always pushed it above the floor.
	r := be.cfg.BallMeasurementNoise
	be.state.Variance = r + varianceRetention*(be.state.Variance-r)
}

// varianceRetention controls how much excess uncertainty survives a
// correction.
const varianceRetention = 0.3
