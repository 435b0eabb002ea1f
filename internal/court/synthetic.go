package court

import (
	"math"
	"math/rand"
)

// SynthConfig controls the synthetic match generator.
type SynthConfig struct {
	Seed          int64   // Noise seed; output is deterministic per seed
	StartUnix     float64 // Timestamp of the first frame
	FPS           float64 // Frame rate of the simulated feed
	Players       int     // Players on court (2 or 4)
	Rallies       int     // Rallies to play
	ShotsPerRally int     // Ball traverses per rally, serve included
	GapSec        float64 // Dead time between rallies (must outlast the grace windows)
	Jitter        float64 // Uniform detection noise amplitude, court units
	BallDropEvery int     // Omit every Nth ball detection; 0 disables
}

// DefaultSynthConfig returns a clean 30 fps doubles match.
func DefaultSynthConfig() SynthConfig {
	return SynthConfig{
		Seed:          1,
		StartUnix:     1000,
		FPS:           30,
		Players:       4,
		Rallies:       3,
		ShotsPerRally: 6,
		GapSec:        4,
	}
}

// SyntheticMatch deterministically simulates a padel match as a frame
// sequence: four players holding their home quadrants and a ball
// traversing the court diagonal, reversing direction at each simulated
// strike. Useful for replay fixtures and engine tests; the same config
// always yields byte-identical frames.
type SyntheticMatch struct {
	cfg   SynthConfig
	court CourtBounds
	rng   *rand.Rand
}

// NewSyntheticMatch creates a generator for the given court.
func NewSyntheticMatch(cfg SynthConfig, court CourtBounds) *SyntheticMatch {
	return &SyntheticMatch{
		cfg:   cfg,
		court: court,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Frames generates the complete match.
func (sm *SyntheticMatch) Frames() []Frame {
	dt := 1.0 / sm.cfg.FPS
	ts := sm.cfg.StartUnix

	homes := sm.playerHomes()

	// The ball bounces between two strike points chosen inside the
	// front-left and back-right players' reach, so reversals attribute.
	w := sm.court.MaxX - sm.court.MinX
	h := sm.court.MaxY - sm.court.MinY
	strikeA := Point{sm.court.MinX + 0.25*w, sm.court.MinY + 0.20*h}
	strikeB := Point{sm.court.MinX + 0.75*w, sm.court.MinY + 0.80*h}
	legDist := strikeA.DistanceTo(strikeB)
	ballSpeed := legDist // One second per traverse
	legFrames := int(math.Round(legDist / ballSpeed * sm.cfg.FPS))
	gapFrames := int(math.Round(sm.cfg.GapSec * sm.cfg.FPS))

	var frames []Frame
	ballDetections := 0

	emit := func(ballPos Point, withBall bool) {
		f := Frame{TimestampUnix: ts}
		for _, home := range homes {
			pos := sm.jittered(sm.wander(home, ts))
			f.Detections = append(f.Detections, Detection{
				Class:      ClassPlayer,
				BBox:       BBox{X: pos.X - 0.25, Y: pos.Y - 0.5, W: 0.5, H: 1.0},
				Confidence: 0.9,
			})
		}
		if withBall {
			ballDetections++
			if sm.cfg.BallDropEvery == 0 || ballDetections%sm.cfg.BallDropEvery != 0 {
				pos := sm.jittered(ballPos)
				f.Detections = append(f.Detections, Detection{
					Class:      ClassBall,
					BBox:       BBox{X: pos.X - 0.1, Y: pos.Y - 0.1, W: 0.2, H: 0.2},
					Confidence: 0.8,
				})
			}
		}
		frames = append(frames, f)
		ts += dt
	}

	// Warm-up: ball resting at the serve point while tracks confirm.
	for i := 0; i < gapFrames; i++ {
		emit(strikeA, true)
	}

	for rally := 0; rally < sm.cfg.Rallies; rally++ {
		from, to := strikeA, strikeB
		for shot := 0; shot < sm.cfg.ShotsPerRally; shot++ {
			for i := 1; i <= legFrames; i++ {
				frac := float64(i) / float64(legFrames)
				emit(Point{
					X: from.X + (to.X-from.X)*frac,
					Y: from.Y + (to.Y-from.Y)*frac,
				}, true)
			}
			from, to = to, from
		}
		// Dead ball: rest where the last traverse ended until the rally
		// seals and the next serve winds up.
		for i := 0; i < gapFrames; i++ {
			emit(from, true)
		}
	}

	return frames
}

// playerHomes spreads players across quadrant centres.
func (sm *SyntheticMatch) playerHomes() []Point {
	w := sm.court.MaxX - sm.court.MinX
	h := sm.court.MaxY - sm.court.MinY
	all := []Point{
		{sm.court.MinX + 0.25*w, sm.court.MinY + 0.25*h},
		{sm.court.MinX + 0.75*w, sm.court.MinY + 0.25*h},
		{sm.court.MinX + 0.25*w, sm.court.MinY + 0.75*h},
		{sm.court.MinX + 0.75*w, sm.court.MinY + 0.75*h},
	}
	n := sm.cfg.Players
	if n < 1 {
		n = 1
	}
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// wander drifts a player around their home position.
func (sm *SyntheticMatch) wander(home Point, ts float64) Point {
	return Point{
		X: home.X + 0.3*math.Sin(ts*1.3+home.X),
		Y: home.Y + 0.3*math.Cos(ts*0.9+home.Y),
	}
}

func (sm *SyntheticMatch) jittered(p Point) Point {
	if sm.cfg.Jitter == 0 {
		return p
	}
	return Point{
		X: p.X + (sm.rng.Float64()*2-1)*sm.cfg.Jitter,
		Y: p.Y + (sm.rng.Float64()*2-1)*sm.cfg.Jitter,
	}
}
