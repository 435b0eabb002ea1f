package court

// Shared test fixtures.

// playerDet builds a player detection whose bbox centre is (x, y).
func playerDet(x, y float64) Detection {
	return Detection{
		Class:      ClassPlayer,
		BBox:       BBox{X: x - 0.25, Y: y - 0.5, W: 0.5, H: 1.0},
		Confidence: 0.9,
	}
}

// ballDet builds a ball detection whose bbox centre is (x, y).
func ballDet(x, y float64) Detection {
	return Detection{
		Class:      ClassBall,
		BBox:       BBox{X: x - 0.1, Y: y - 0.1, W: 0.2, H: 0.2},
		Confidence: 0.8,
	}
}

// testConfig returns defaults with snappier lifecycle thresholds so
// tests stay short.
func testConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.HitsToConfirm = 3
	cfg.LostAfterMisses = 2
	cfg.MaxMisses = 5
	cfg.TentativeMaxMisses = 2
	return cfg
}

// movingBall builds a ball state for driving the segmenter directly.
func movingBall(x, y, vx, vy float64) BallState {
	return BallState{
		Position: Point{x, y},
		Velocity: Point{vx, vy},
		HasFix:   true,
	}
}

func idPtr(id int64) *int64 { return &id }
